package registry

import "testing"

func TestMatchDirectorSubstringMatch(t *testing.T) {
	officers := []Officer{{Name: "John Michael Smith", DateOfBirth: strPtr("1980-05")}}
	got := MatchDirector(officers, "Michael Smith", "1980-05")
	if !got.Verified {
		t.Fatalf("expected verified match, got %+v", got)
	}
}

func TestMatchDirectorDOBMismatch(t *testing.T) {
	officers := []Officer{{Name: "John Smith", DateOfBirth: strPtr("1980-05")}}
	got := MatchDirector(officers, "John Smith", "1990-11")
	if got.Verified {
		t.Fatal("expected DOB mismatch to fail verification")
	}
	if got.Reason != "DOB mismatch" {
		t.Errorf("reason = %q, want %q", got.Reason, "DOB mismatch")
	}
}

func TestMatchDirectorNoDOBRequired(t *testing.T) {
	officers := []Officer{{Name: "Jane Doe"}}
	got := MatchDirector(officers, "Jane Doe", "")
	if !got.Verified {
		t.Fatal("expected verified match with no DOB supplied")
	}
}

func TestMatchDirectorNoMatch(t *testing.T) {
	officers := []Officer{{Name: "Alice Example"}}
	got := MatchDirector(officers, "Bob Nobody", "")
	if got.Verified {
		t.Fatal("expected no match")
	}
	if got.Reason != "no matching officer" {
		t.Errorf("reason = %q", got.Reason)
	}
}

func strPtr(s string) *string { return &s }
