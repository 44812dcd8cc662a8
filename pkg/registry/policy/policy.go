// Package policy evaluates the registry_required Rego bundle (§2.2): a
// narrow, optional hook deciding whether a variant+job combination may
// skip the Registry Stage and still land on REVIEW rather than FAILED
// when the registry is unreachable. It never changes Registry Stage
// failure semantics on its own; it only gates whether a registry outage
// may be treated as reviewable.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Input is what the Dispatcher passes in when a registry lookup was
// unreachable and it needs to decide REVIEW vs FAILED.
type Input struct {
	Variant                     string `json:"variant"`
	RegistryUnreachable         bool   `json:"registry_unreachable"`
	AllowReviewOnRegistryOutage bool   `json:"allow_review_on_registry_outage"`
}

// Evaluator evaluates the compiled registry_required.rego bundle.
type Evaluator struct {
	query rego.PreparedEvalQuery
}

// Load compiles the Rego module at path.
func Load(ctx context.Context, path string) (*Evaluator, error) {
	query, err := rego.New(
		rego.Query("data.docverify.registry.allow_skip"),
		rego.Load([]string{path}, nil),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("policy: compile %s: %w", path, err)
	}
	return &Evaluator{query: query}, nil
}

// AllowSkip reports whether in's variant+outage combination may skip the
// Registry Stage. Any evaluation error degrades to false (never allow a
// skip on an evaluator fault).
func (e *Evaluator) AllowSkip(ctx context.Context, in Input) bool {
	results, err := e.query.Eval(ctx, rego.EvalInput(map[string]interface{}{
		"variant":                         in.Variant,
		"registry_unreachable":            in.RegistryUnreachable,
		"allow_review_on_registry_outage": in.AllowReviewOnRegistryOutage,
	}))
	if err != nil || len(results) == 0 || len(results[0].Expressions) == 0 {
		return false
	}
	allowed, ok := results[0].Expressions[0].Value.(bool)
	if !ok {
		return false
	}
	return allowed
}
