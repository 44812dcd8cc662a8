package fieldparser

import "testing"

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

func TestExtractCompanyNumberPriority(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Company No. 03035678 is registered", "03035678"},
		{"No. SC123456 here", "SC123456"},
		{"the number is 03035678 standalone", "03035678"},
	}
	for _, tc := range cases {
		got := ExtractCompanyNumber(tc.text)
		if derefOr(got, "") != tc.want {
			t.Errorf("ExtractCompanyNumber(%q) = %q, want %q", tc.text, derefOr(got, ""), tc.want)
		}
	}
}

func TestExtractCompanyNameCertifyPattern(t *testing.T) {
	text := "We hereby certify that Acme Widgets Limited is this day incorporated under the Companies Act"
	got := ExtractCompanyName(text)
	if derefOr(got, "") != "Acme Widgets Limited" {
		t.Errorf("got %q", derefOr(got, ""))
	}
}

func TestExtractCompanyNameSkipsHeaderLines(t *testing.T) {
	text := "CERTIFICATE OF INCORPORATION\nCompanies Act 2006\nAcme Widgets Limited\nCompany No. 03035678"
	got := ExtractCompanyName(text)
	if derefOr(got, "") != "Acme Widgets Limited" {
		t.Errorf("got %q, want header lines to be skipped", derefOr(got, ""))
	}
}

func TestExtractAddressFindsPostcode(t *testing.T) {
	text := "Registered office: 1 High Street, London EC1A 1BB, United Kingdom"
	got := ExtractAddress(text)
	if got == nil {
		t.Fatal("expected an address match")
	}
}

func TestNormalizeNullish(t *testing.T) {
	for _, raw := range []string{"null", "NONE", "n/a", "", "  "} {
		if got := Normalize(raw); got != nil {
			t.Errorf("Normalize(%q) = %q, want nil", raw, *got)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	raw := "  Acme Widgets Limited.  "
	once := Normalize(raw)
	if once == nil {
		t.Fatal("expected non-nil result")
	}
	twice := Normalize(*once)
	if twice == nil || *once != *twice {
		t.Errorf("normalization not idempotent: %q -> %q", raw, *once)
	}
}
