package fieldparser

import (
	"regexp"
	"strings"

	"github.com/merchantiq/docverify/pkg/domain"
)

var (
	companyNumberPriorityPattern = regexp.MustCompile(`(?i)(?:Company\s+No\.?|No\.?)\s*([A-Z]{2}\d{6}|\d{6,8})`)
	companyNumberStandalonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b([A-Z]{2}\d{6})\b`),
		regexp.MustCompile(`\b(\d{8})\b`),
		regexp.MustCompile(`\b(\d{7})\b`),
	}

	certifyPattern = regexp.MustCompile(`(?i)certify that\s+(.+?)\s+is this day incorporated`)
	certifySuffixes = []string{"LIMITED", "PLC", "LLC", "INC"}

	companyNameLabelPattern = regexp.MustCompile(`(?i)Company name:\s*(.+)`)

	companySuffixPattern = regexp.MustCompile(`(?i)\b(LIMITED|LTD|PLC|LLC|INC)\b`)
	headerKeywords = []string{
		"CERTIFICATE", "INCORPORATION", "COMPANIES ACT", "REGISTRAR", "FILE COPY",
		"PRIVATE LIMITED", "COMPANY NO", "NUMBER", "HEREBY CERTIFIES", "THIS DAY",
		"REGISTRAR OF COMPANIES", "CERTIFICATE OF INCORPORATION",
	}

	postcodePattern = regexp.MustCompile(`[A-Z]{1,2}\d{1,2}\s?\d[A-Z]{2}`)

	dateDMY  = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{2,4})\b`)
	dateYMD  = regexp.MustCompile(`\b(\d{4})/(\d{1,2})/(\d{1,2})\b`)
	dateDMon = regexp.MustCompile(`(?i)\b(\d{1,2})\s+(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+(\d{4})\b`)
)

// ExtractCompanyNumber implements the §4.3 company-number fallback: a
// priority "Company No./No." regex first, then standalone patterns in
// priority order (2-letter+6-digit, 8-digit, 7-digit).
func ExtractCompanyNumber(text string) *string {
	if m := companyNumberPriorityPattern.FindStringSubmatch(text); len(m) > 1 {
		return Normalize(m[1])
	}
	for _, pattern := range companyNumberStandalonePatterns {
		if m := pattern.FindStringSubmatch(text); len(m) > 1 {
			return Normalize(m[1])
		}
	}
	return nil
}

// ExtractCompanyName implements the §4.3 company-name fallback chain.
func ExtractCompanyName(text string) *string {
	if m := certifyPattern.FindStringSubmatch(text); len(m) > 1 {
		candidate := strings.TrimSpace(m[1])
		upper := strings.ToUpper(candidate)
		for _, suffix := range certifySuffixes {
			if strings.HasSuffix(upper, suffix) {
				return Normalize(candidate)
			}
		}
	}
	if m := companyNameLabelPattern.FindStringSubmatch(text); len(m) > 1 {
		return Normalize(m[1])
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || !companySuffixPattern.MatchString(trimmed) {
			continue
		}
		upper := strings.ToUpper(trimmed)
		isHeader := false
		for _, kw := range headerKeywords {
			if strings.Contains(upper, kw) {
				isHeader = true
				break
			}
		}
		if !isHeader {
			return Normalize(trimmed)
		}
	}
	return nil
}

// ExtractAddress implements the §4.3 address fallback: locate a UK
// postcode and take up to 100 characters preceding it.
func ExtractAddress(text string) *string {
	loc := postcodePattern.FindStringIndex(text)
	if loc == nil {
		return nil
	}
	start := loc[0] - 100
	if start < 0 {
		start = 0
	}
	return Normalize(text[start:loc[1]])
}

// ExtractDate implements the §4.3 date fallback: d/m/y, y/m/d, or d Mon y.
func ExtractDate(text string) *string {
	if m := dateDMY.FindString(text); m != "" {
		return Normalize(m)
	}
	if m := dateYMD.FindString(text); m != "" {
		return Normalize(m)
	}
	if m := dateDMon.FindString(text); m != "" {
		return Normalize(m)
	}
	return nil
}

// FallbackCompany runs the full deterministic extraction chain for
// company-shaped variants.
func FallbackCompany(text string) domain.CompanyFields {
	return domain.CompanyFields{
		CompanyName:   ExtractCompanyName(text),
		CompanyNumber: ExtractCompanyNumber(text),
		Address:       ExtractAddress(text),
		Date:          ExtractDate(text),
	}
}

// vatNumberPattern matches a bare or GB-prefixed 9-digit VAT number.
var vatNumberPattern = regexp.MustCompile(`(?i)\bGB\s?\d{9}\b|\b\d{9}\b`)

// FallbackVAT runs the deterministic extraction chain for VAT_REGISTRATION.
func FallbackVAT(text string) domain.VATFields {
	var vatNumber *string
	if m := vatNumberPattern.FindString(text); m != "" {
		vatNumber = Normalize(m)
	}
	return domain.VATFields{
		VATNumber:        vatNumber,
		BusinessName:     ExtractCompanyName(text),
		Address:          ExtractAddress(text),
		RegistrationDate: ExtractDate(text),
	}
}

// FallbackDirector runs the deterministic extraction chain for
// DIRECTOR_VERIFICATION. Director name extraction reuses the company-name
// heuristics since appointment certificates follow the same "certify
// that NAME ..." phrasing with a person's name instead of a company
// suffix; callers typically prefer the LLM path for this variant.
func FallbackDirector(text string) domain.DirectorFields {
	return domain.DirectorFields{
		DirectorName:    ExtractCompanyName(text),
		DateOfBirth:     ExtractDate(text),
		Address:         ExtractAddress(text),
		CompanyName:     ExtractCompanyName(text),
		CompanyNumber:   ExtractCompanyNumber(text),
		AppointmentDate: ExtractDate(text),
	}
}
