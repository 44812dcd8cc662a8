package forensic

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	pdfProducerPattern     = regexp.MustCompile(`/Producer\s*\(([^)]*)\)`)
	pdfCreatorPattern      = regexp.MustCompile(`/Creator\s*\(([^)]*)\)`)
	pdfCreationDatePattern = regexp.MustCompile(`/CreationDate\s*\(D:(\d{14})`)
	pdfModDatePattern      = regexp.MustCompile(`/ModDate\s*\(D:(\d{14})`)

	imageEditorSignatures = []string{
		"photoshop", "gimp", "paint.net", "paint", "coreldraw",
		"illustrator", "inkscape", "canva", "figma", "sketch",
	}
)

// IsPDF reports whether raw starts with the PDF magic header.
func IsPDF(raw []byte) bool {
	return len(raw) >= 5 && string(raw[:5]) == "%PDF-"
}

// AnalyzePDFMetadata scans raw's info dictionary for the anomaly
// conditions §4.4's PDF metadata check looks for. PDF parsing here is
// deliberately shallow - a regex scan of the plaintext info dictionary -
// because this pipeline never needs to render or mutate the PDF, only
// read its metadata strings.
func AnalyzePDFMetadata(raw []byte, now time.Time) PDFMetadataFlags {
	text := string(raw)

	producer := firstSubmatch(pdfProducerPattern, text)
	creator := firstSubmatch(pdfCreatorPattern, text)

	var flags PDFMetadataFlags
	flags.ProducerAndCreatorMissing = producer == "" && creator == ""
	flags.ImageEditorSignature = containsAny(strings.ToLower(producer+" "+creator), imageEditorSignatures)

	created := parsePDFDate(firstSubmatch(pdfCreationDatePattern, text))
	modified := parsePDFDate(firstSubmatch(pdfModDatePattern, text))
	if created != nil && modified != nil && created.After(*modified) {
		flags.CreatedAfterModified = true
	}
	if modified != nil && modified.Year() >= now.Year()-1 {
		flags.ModifiedRecently = true
	}

	return flags
}

func firstSubmatch(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// parsePDFDate parses a PDF "D:YYYYMMDDHHmmSS" timestamp fragment.
func parsePDFDate(fragment string) *time.Time {
	if len(fragment) != 14 {
		return nil
	}
	year, err1 := strconv.Atoi(fragment[0:4])
	month, err2 := strconv.Atoi(fragment[4:6])
	day, err3 := strconv.Atoi(fragment[6:8])
	hour, err4 := strconv.Atoi(fragment[8:10])
	minute, err5 := strconv.Atoi(fragment[10:12])
	second, err6 := strconv.Atoi(fragment[12:14])
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil || err6 != nil {
		return nil
	}
	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
	return &t
}
