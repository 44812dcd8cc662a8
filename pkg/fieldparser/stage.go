package fieldparser

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/merchantiq/docverify/pkg/domain"
	"github.com/merchantiq/docverify/pkg/llm"
	"github.com/merchantiq/docverify/pkg/pipeline/fallback"
)

// Stage implements the Field Parser Stage. Parse never fails the job: any
// LLM port error, or an all-null LLM result, falls through to the
// deterministic regex extractors.
type Stage struct {
	port    llm.Port
	enabled bool
	timeout time.Duration
	log     *zap.Logger
}

// NewStage builds a Stage. port may be nil; enabled mirrors cfg.LLM.Enabled
// so a disabled LLM port is never called.
func NewStage(port llm.Port, enabled bool, timeout time.Duration, log *zap.Logger) *Stage {
	return &Stage{port: port, enabled: enabled, timeout: timeout, log: log}
}

// ParseCompany extracts company-shaped fields from rawText: the LLM
// strategy, then the deterministic regex strategy.
func (s *Stage) ParseCompany(ctx context.Context, rawText string) domain.CompanyFields {
	fields, _ := fallback.FirstSuccess(
		func() (domain.CompanyFields, bool) { return s.tryLLMCompany(ctx, rawText) },
		func() (domain.CompanyFields, bool) { return FallbackCompany(rawText), true },
	)
	return fields
}

// ParseVAT extracts VAT-shaped fields from rawText.
func (s *Stage) ParseVAT(ctx context.Context, rawText string) domain.VATFields {
	fields, _ := fallback.FirstSuccess(
		func() (domain.VATFields, bool) { return s.tryLLMVAT(ctx, rawText) },
		func() (domain.VATFields, bool) { return FallbackVAT(rawText), true },
	)
	return fields
}

// ParseDirector extracts director-shaped fields from rawText.
func (s *Stage) ParseDirector(ctx context.Context, rawText string) domain.DirectorFields {
	fields, _ := fallback.FirstSuccess(
		func() (domain.DirectorFields, bool) { return s.tryLLMDirector(ctx, rawText) },
		func() (domain.DirectorFields, bool) { return FallbackDirector(rawText), true },
	)
	return fields
}

func (s *Stage) tryLLMCompany(ctx context.Context, rawText string) (domain.CompanyFields, bool) {
	result := s.callLLM(ctx, rawText, llm.SchemaCompany)
	if result == nil || result.Company == nil || isAllNilCompany(*result.Company) {
		return domain.CompanyFields{}, false
	}
	return *result.Company, true
}

func (s *Stage) tryLLMVAT(ctx context.Context, rawText string) (domain.VATFields, bool) {
	result := s.callLLM(ctx, rawText, llm.SchemaVAT)
	if result == nil || result.VAT == nil || isAllNilVAT(*result.VAT) {
		return domain.VATFields{}, false
	}
	return *result.VAT, true
}

func (s *Stage) tryLLMDirector(ctx context.Context, rawText string) (domain.DirectorFields, bool) {
	result := s.callLLM(ctx, rawText, llm.SchemaDirector)
	if result == nil || result.Director == nil || isAllNilDirector(*result.Director) {
		return domain.DirectorFields{}, false
	}
	return *result.Director, true
}

func (s *Stage) callLLM(ctx context.Context, rawText string, schema llm.Schema) *llm.Result {
	if !s.enabled || s.port == nil {
		return nil
	}
	prompt := llm.BuildPrompt(schema, rawText)
	result, err := s.port.Extract(ctx, prompt, schema, s.timeout)
	if err != nil {
		s.log.Warn("llm port extraction failed, using regex fallback", zap.Error(err), zap.String("schema", string(schema)))
		return nil
	}
	return result
}

func isAllNilCompany(f domain.CompanyFields) bool {
	return f.CompanyName == nil && f.CompanyNumber == nil && f.Address == nil && f.Date == nil
}

func isAllNilVAT(f domain.VATFields) bool {
	return f.VATNumber == nil && f.BusinessName == nil && f.Address == nil && f.RegistrationDate == nil
}

func isAllNilDirector(f domain.DirectorFields) bool {
	return f.DirectorName == nil && f.DateOfBirth == nil && f.Address == nil &&
		f.CompanyName == nil && f.CompanyNumber == nil && f.AppointmentDate == nil
}
