package similarity

import "regexp"

var (
	companyNumberPattern = regexp.MustCompile(`^([A-Z]{2}\d{6}|\d{8})$`)
	allDigits            = regexp.MustCompile(`^\d+$`)
	nonAlnum             = regexp.MustCompile(`[^A-Z0-9]`)
	vatDigits            = regexp.MustCompile(`^\d{9}$`)
)

// NormalizeCompanyNumber uppercases, strips spaces and dashes, and
// left-pads all-digit forms of length 6 or 7 to 8 digits. The result is
// returned unchanged (and ok=false) if it does not match the registry's
// accepted shapes ([A-Z]{2}\d{6} or \d{8}) after padding.
func NormalizeCompanyNumber(raw string) (normalized string, ok bool) {
	cleaned := nonAlnum.ReplaceAllString(toUpperTrim(raw), "")
	if allDigits.MatchString(cleaned) && (len(cleaned) == 6 || len(cleaned) == 7) {
		cleaned = padLeft(cleaned, 8, '0')
	}
	if !companyNumberPattern.MatchString(cleaned) {
		return cleaned, false
	}
	return cleaned, true
}

// NormalizeVATNumber uppercases, strips separators, and prefixes a bare
// 9-digit number with "GB". Returns ok=false if the result does not match
// GB\d{9}.
func NormalizeVATNumber(raw string) (normalized string, ok bool) {
	cleaned := nonAlnum.ReplaceAllString(toUpperTrim(raw), "")
	if vatDigits.MatchString(cleaned) {
		cleaned = "GB" + cleaned
	}
	if len(cleaned) != 11 || cleaned[:2] != "GB" || !vatDigits.MatchString(cleaned[2:]) {
		return cleaned, false
	}
	return cleaned, true
}

func toUpperTrim(s string) string {
	return regexp.MustCompile(`\s+`).ReplaceAllString(normalize(s), "")
}

func padLeft(s string, length int, pad byte) string {
	if len(s) >= length {
		return s
	}
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = pad
	}
	copy(buf[length-len(s):], s)
	return string(buf)
}
