package policy

import (
	"context"
	"path/filepath"
	"testing"
)

func loadTestEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	e, err := Load(context.Background(), filepath.Join("..", "..", "..", "policy", "registry_required.rego"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return e
}

func TestAllowSkipWhenOutageAndPolicyEnabled(t *testing.T) {
	e := loadTestEvaluator(t)

	if !e.AllowSkip(context.Background(), Input{
		Variant:                     "VAT_REGISTRATION",
		RegistryUnreachable:         true,
		AllowReviewOnRegistryOutage: true,
	}) {
		t.Fatal("expected skip to be allowed when registry is unreachable and the policy flag is set")
	}
}

func TestDenySkipWhenPolicyDisabled(t *testing.T) {
	e := loadTestEvaluator(t)

	if e.AllowSkip(context.Background(), Input{
		Variant:                     "VAT_REGISTRATION",
		RegistryUnreachable:         true,
		AllowReviewOnRegistryOutage: false,
	}) {
		t.Fatal("expected skip to be denied when the policy flag is unset")
	}
}

func TestDenySkipWhenRegistryReachable(t *testing.T) {
	e := loadTestEvaluator(t)

	if e.AllowSkip(context.Background(), Input{
		Variant:                     "CORP_INCORPORATION",
		RegistryUnreachable:         false,
		AllowReviewOnRegistryOutage: true,
	}) {
		t.Fatal("expected skip to be denied when the registry is reachable")
	}
}
