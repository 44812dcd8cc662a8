package registry

import (
	"context"

	"go.uber.org/zap"

	"github.com/merchantiq/docverify/pkg/registry/policy"
	"github.com/merchantiq/docverify/pkg/similarity"
)

// Stage implements the Registry Stage: normalize the relevant identifier,
// invoke the matching port, and degrade to a zero-value result on any
// error so the pipeline never fails outright because the registry was
// unreachable. Whether an unreachable registry parks the job on REVIEW or
// fails it outright is gated by Policy (§2.2's registry_required bundle),
// not decided unilaterally here.
type Stage struct {
	Company             CompanyPort
	VAT                 VATPort
	Policy              *policy.Evaluator
	AllowReviewOnOutage bool
	log                 *zap.Logger
}

// NewStage builds a Stage. Either port may be nil if the deployment has no
// credentials configured for that variant family. policyEvaluator may be
// nil, in which case AllowSkipOutage always denies (fail closed).
func NewStage(company CompanyPort, vat VATPort, policyEvaluator *policy.Evaluator, allowReviewOnOutage bool, log *zap.Logger) *Stage {
	return &Stage{Company: company, VAT: vat, Policy: policyEvaluator, AllowReviewOnOutage: allowReviewOnOutage, log: log}
}

// AllowSkipOutage consults Policy to decide whether variant may treat a
// registry-unreachable condition as skippable (REVIEW) rather than FAILED.
// With no Policy configured, it always denies.
func (s *Stage) AllowSkipOutage(ctx context.Context, variant string) bool {
	if s.Policy == nil {
		return false
	}
	return s.Policy.AllowSkip(ctx, policy.Input{
		Variant:                     variant,
		RegistryUnreachable:         true,
		AllowReviewOnRegistryOutage: s.AllowReviewOnOutage,
	})
}

// LookupCompany normalizes companyNumber and fetches the registry profile.
// found reports whether a profile was obtained; unreachable reports
// whether that failure was a genuine port error (as opposed to an invalid
// number or an unconfigured port, neither of which is an outage).
func (s *Stage) LookupCompany(ctx context.Context, companyNumber string) (profile *CompanyProfile, found, unreachable bool) {
	if s.Company == nil {
		return nil, false, false
	}
	normalized, ok := similarity.NormalizeCompanyNumber(companyNumber)
	if !ok {
		return nil, false, false
	}
	profile, err := s.Company.GetProfile(ctx, normalized)
	if err != nil {
		s.log.Warn("company registry lookup unavailable", zap.Error(err))
		return nil, false, true
	}
	if profile == nil {
		return nil, false, false
	}
	return profile, true, false
}

// LookupVAT normalizes vatNumber and checks the VAT registry.
func (s *Stage) LookupVAT(ctx context.Context, vatNumber string) (record *VATRecord, found, unreachable bool) {
	if s.VAT == nil {
		return nil, false, false
	}
	normalized, ok := similarity.NormalizeVATNumber(vatNumber)
	if !ok {
		return nil, false, false
	}
	record, err := s.VAT.CheckVAT(ctx, normalized)
	if err != nil {
		s.log.Warn("vat registry lookup unavailable", zap.Error(err))
		return nil, false, true
	}
	if record == nil {
		return nil, false, false
	}
	return record, true, false
}

// LookupDirector fetches companyNumber's officer listing and matches
// declaredName/declaredDOB against it. DirectorMatch.Unreachable is set
// when the officer listing itself could not be fetched.
func (s *Stage) LookupDirector(ctx context.Context, companyNumber, declaredName, declaredDOB string) DirectorMatch {
	if s.Company == nil {
		return DirectorMatch{Verified: false, Reason: "no company registry configured"}
	}
	normalized, ok := similarity.NormalizeCompanyNumber(companyNumber)
	if !ok {
		return DirectorMatch{Verified: false, Reason: "invalid company number"}
	}
	officers, err := s.Company.GetOfficers(ctx, normalized)
	if err != nil {
		s.log.Warn("director registry lookup unavailable", zap.Error(err))
		return DirectorMatch{Verified: false, Reason: "registry unavailable", Unreachable: true}
	}
	return MatchDirector(officers, declaredName, declaredDOB)
}
