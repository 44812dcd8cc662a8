// Package pipeline implements the Dispatcher: the single Process(jobID)
// operation that drives a Job through its variant-specific stage graph,
// persisting after every stage and publishing progress as it goes.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/merchantiq/docverify/pkg/domain"
	"github.com/merchantiq/docverify/pkg/fieldparser"
	"github.com/merchantiq/docverify/pkg/forensic"
	"github.com/merchantiq/docverify/pkg/infrastructure/metrics"
	"github.com/merchantiq/docverify/pkg/ocr"
	"github.com/merchantiq/docverify/pkg/progress"
	"github.com/merchantiq/docverify/pkg/registry"
	"github.com/merchantiq/docverify/pkg/scoring"
	"github.com/merchantiq/docverify/pkg/storage"
)

// Dispatcher owns every stage dependency and the Storage Port and Progress
// Bus threaded through a job's run.
type Dispatcher struct {
	Store    storage.Port
	Bus      *progress.Bus
	OCR      *ocr.Stage
	Parser   *fieldparser.Stage
	Forensic *forensic.Stage
	Registry *registry.Stage
	Now      func() time.Time
	log      *zap.Logger
	tracer   trace.Tracer
}

// NewDispatcher builds a Dispatcher. now defaults to time.Now.
func NewDispatcher(store storage.Port, bus *progress.Bus, ocrStage *ocr.Stage, parser *fieldparser.Stage, forensicStage *forensic.Stage, registryStage *registry.Stage, now func() time.Time, log *zap.Logger) *Dispatcher {
	if now == nil {
		now = time.Now
	}
	return &Dispatcher{
		Store:    store,
		Bus:      bus,
		OCR:      ocrStage,
		Parser:   parser,
		Forensic: forensicStage,
		Registry: registryStage,
		Now:      now,
		log:      log,
		tracer:   otel.Tracer("docverify/pipeline"),
	}
}

// traceStage wraps fn in a child span named stage, parented to whatever
// root span Process already opened for this job.
func (d *Dispatcher) traceStage(ctx context.Context, stage string, fn func(context.Context)) {
	ctx, span := d.tracer.Start(ctx, stage)
	defer span.End()
	fn(ctx)
}

// documentBytes is supplied by the caller (Intake or the Queue Worker),
// since the Dispatcher holds no Blob Port of its own: reading the
// submitted document is the caller's concern, running the pipeline
// against its bytes is the Dispatcher's.
type documentBytes struct {
	raw   []byte
	pages [][]byte
}

// Process runs jobID's full pipeline: load, select the variant's stage
// graph, run every stage, persist after each, and publish progress
// throughout. A Job already in a terminal state is a no-op, matching the
// re-run invariant. Any unhandled panic is recovered at this boundary and
// turned into a FAILED/FAIL terminal event.
func (d *Dispatcher) Process(ctx context.Context, jobID string, raw []byte, pages [][]byte) (err error) {
	ctx, span := d.tracer.Start(ctx, "pipeline.Process", trace.WithAttributes(attribute.String("job_id", jobID)))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			d.log.Error("dispatcher: recovered panic, failing job", zap.String("job_id", jobID), zap.Any("panic", r))
			d.failJob(ctx, jobID, fmt.Errorf("panic: %v", r))
			err = fmt.Errorf("pipeline: job %s panicked: %v", jobID, r)
		}
	}()

	record, loadErr := d.Store.Load(ctx, jobID)
	if loadErr != nil {
		return fmt.Errorf("pipeline: load job %s: %w", jobID, loadErr)
	}
	if record.Job.Status.IsTerminal() {
		return nil
	}

	doc := documentBytes{raw: raw, pages: pages}

	switch payload := record.Payload.(type) {
	case *domain.CompanyPayload:
		return d.runCompany(ctx, &record.Job, payload, doc)
	case *domain.VATPayload:
		return d.runVAT(ctx, &record.Job, payload, doc)
	case *domain.DirectorPayload:
		return d.runDirector(ctx, &record.Job, payload, doc)
	default:
		d.failJob(ctx, jobID, fmt.Errorf("unknown payload type %T", record.Payload))
		return fmt.Errorf("pipeline: job %s has unknown payload type %T", jobID, record.Payload)
	}
}

func (d *Dispatcher) runCompany(ctx context.Context, job *domain.Job, payload *domain.CompanyPayload, doc documentBytes) error {
	job.Status = domain.StatusProcessing
	d.publish(job.ID, 5, "initializing", "job accepted for processing", job.Status)
	d.publish(job.ID, 10, "file_validation", "document validated", job.Status)
	if err := d.persist(ctx, job, payload); err != nil {
		return err
	}
	d.publish(job.ID, 15, "pipeline_init", "stage graph selected", job.Status)

	d.publish(job.ID, 20, "extraction_start", "text extraction started", job.Status)
	var extraction ocr.Result
	extractTimer := metrics.NewStageTimer("extract")
	d.traceStage(ctx, "extract", func(spanCtx context.Context) {
		extraction = d.OCR.Extract(spanCtx, doc.raw, doc.pages)
	})
	extractTimer.Stop()

	d.publish(job.ID, 30, "field_parse_start", "field parsing started", job.Status)
	var forensicReport domain.ForensicReport
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		timer := metrics.NewStageTimer("parse")
		defer timer.Stop()
		payload.Extracted = d.Parser.ParseCompany(gctx, extraction.RawText)
		return nil
	})
	g.Go(func() error {
		timer := metrics.NewStageTimer("forensic")
		defer timer.Stop()
		forensicReport = d.Forensic.Run(doc.raw, doc.pages)
		return nil
	})
	_ = g.Wait()
	job.Forensic = forensicReport
	metrics.RecordForensicPenalty(forensicReport.Penalty)

	d.publish(job.ID, 40, "extraction_complete", "text extraction and field parsing complete", job.Status)
	if err := d.persist(ctx, job, payload); err != nil {
		return err
	}

	d.publish(job.ID, 50, "forensic_start", "forensic analysis started", job.Status)
	d.publish(job.ID, 60, "forensic_complete", "forensic analysis complete", job.Status)
	if err := d.persist(ctx, job, payload); err != nil {
		return err
	}

	d.publish(job.ID, 70, "registry_start", "registry lookup started", job.Status)
	step := "registry_complete"
	var outageFailed bool
	func() {
		timer := metrics.NewStageTimer("registry")
		defer timer.Stop()
		if payload.Extracted.CompanyNumber != nil {
			profile, found, unreachable := d.Registry.LookupCompany(ctx, *payload.Extracted.CompanyNumber)
			switch {
			case found:
				payload.Registry = companyFieldsFromProfile(profile)
			case unreachable && !d.Registry.AllowSkipOutage(ctx, string(payload.VariantTag())):
				outageFailed = true
			default:
				step = "registry_skipped"
			}
		} else {
			step = "registry_skipped"
		}
	}()
	if outageFailed {
		return d.failOnRegistryOutage(ctx, job, payload)
	}
	d.publish(job.ID, 80, step, "registry lookup finished", job.Status)
	if err := d.persist(ctx, job, payload); err != nil {
		return err
	}

	d.publish(job.ID, 90, "scoring_start", "scoring started", job.Status)
	scoreTimer := metrics.NewStageTimer("score")
	result := scoring.ScoreCompany(scoring.CompanyInput{
		Confidence:      extraction.Confidence,
		Declared:        payload.Declared,
		Extracted:       payload.Extracted,
		Registry:        payload.Registry,
		ForensicPenalty: job.Forensic.Penalty,
	})
	scoreTimer.Stop()
	payload.Scores = result.Scores
	job.Terminal(terminalStatus(result.Decision), result.Decision, d.Now())
	metrics.RecordJob(string(payload.VariantTag()), string(result.Decision))

	return d.finish(ctx, job, payload)
}

func (d *Dispatcher) runVAT(ctx context.Context, job *domain.Job, payload *domain.VATPayload, doc documentBytes) error {
	job.Status = domain.StatusProcessing
	d.publish(job.ID, 5, "initializing", "job accepted for processing", job.Status)
	d.publish(job.ID, 10, "file_validation", "document validated", job.Status)
	if err := d.persist(ctx, job, payload); err != nil {
		return err
	}
	d.publish(job.ID, 15, "pipeline_init", "stage graph selected", job.Status)

	d.publish(job.ID, 20, "extraction_start", "text extraction started", job.Status)
	var extraction ocr.Result
	extractTimer := metrics.NewStageTimer("extract")
	d.traceStage(ctx, "extract", func(spanCtx context.Context) {
		extraction = d.OCR.Extract(spanCtx, doc.raw, doc.pages)
	})
	extractTimer.Stop()

	d.publish(job.ID, 30, "field_parse_start", "field parsing started", job.Status)
	var forensicReport domain.ForensicReport
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		timer := metrics.NewStageTimer("parse")
		defer timer.Stop()
		payload.Extracted = d.Parser.ParseVAT(gctx, extraction.RawText)
		return nil
	})
	g.Go(func() error {
		timer := metrics.NewStageTimer("forensic")
		defer timer.Stop()
		forensicReport = d.Forensic.Run(doc.raw, doc.pages)
		return nil
	})
	_ = g.Wait()
	job.Forensic = forensicReport
	metrics.RecordForensicPenalty(forensicReport.Penalty)

	d.publish(job.ID, 40, "extraction_complete", "text extraction and field parsing complete", job.Status)
	if err := d.persist(ctx, job, payload); err != nil {
		return err
	}

	d.publish(job.ID, 50, "forensic_start", "forensic analysis started", job.Status)
	d.publish(job.ID, 60, "forensic_complete", "forensic analysis complete", job.Status)
	if err := d.persist(ctx, job, payload); err != nil {
		return err
	}

	d.publish(job.ID, 70, "registry_start", "registry lookup started", job.Status)
	step := "registry_complete"
	var outageFailed bool
	func() {
		timer := metrics.NewStageTimer("registry")
		defer timer.Stop()
		if payload.Extracted.VATNumber != nil {
			record, found, unreachable := d.Registry.LookupVAT(ctx, *payload.Extracted.VATNumber)
			switch {
			case found:
				payload.Registry = vatFieldsFromRecord(record)
			case unreachable && !d.Registry.AllowSkipOutage(ctx, string(payload.VariantTag())):
				outageFailed = true
			default:
				step = "registry_skipped"
			}
		} else {
			step = "registry_skipped"
		}
	}()
	if outageFailed {
		return d.failOnRegistryOutage(ctx, job, payload)
	}
	d.publish(job.ID, 80, step, "registry lookup finished", job.Status)
	if err := d.persist(ctx, job, payload); err != nil {
		return err
	}

	d.publish(job.ID, 90, "scoring_start", "scoring started", job.Status)
	scoreTimer := metrics.NewStageTimer("score")
	result := scoring.ScoreVAT(scoring.VATInput{
		Confidence:      extraction.Confidence,
		Declared:        payload.Declared,
		Extracted:       payload.Extracted,
		Registry:        payload.Registry,
		ForensicPenalty: job.Forensic.Penalty,
	})
	scoreTimer.Stop()
	payload.Scores = result.Scores
	job.Terminal(terminalStatus(result.Decision), result.Decision, d.Now())
	metrics.RecordJob(string(payload.VariantTag()), string(result.Decision))

	return d.finish(ctx, job, payload)
}

func (d *Dispatcher) runDirector(ctx context.Context, job *domain.Job, payload *domain.DirectorPayload, doc documentBytes) error {
	job.Status = domain.StatusProcessing
	d.publish(job.ID, 5, "initializing", "job accepted for processing", job.Status)
	d.publish(job.ID, 10, "file_validation", "document validated", job.Status)
	if err := d.persist(ctx, job, payload); err != nil {
		return err
	}
	d.publish(job.ID, 15, "pipeline_init", "stage graph selected", job.Status)

	d.publish(job.ID, 20, "extraction_start", "text extraction started", job.Status)
	var extraction ocr.Result
	extractTimer := metrics.NewStageTimer("extract")
	d.traceStage(ctx, "extract", func(spanCtx context.Context) {
		extraction = d.OCR.Extract(spanCtx, doc.raw, doc.pages)
	})
	extractTimer.Stop()

	d.publish(job.ID, 30, "field_parse_start", "field parsing started", job.Status)
	var forensicReport domain.ForensicReport
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		timer := metrics.NewStageTimer("parse")
		defer timer.Stop()
		payload.Extracted = d.Parser.ParseDirector(gctx, extraction.RawText)
		return nil
	})
	g.Go(func() error {
		timer := metrics.NewStageTimer("forensic")
		defer timer.Stop()
		forensicReport = d.Forensic.Run(doc.raw, doc.pages)
		return nil
	})
	_ = g.Wait()
	job.Forensic = forensicReport
	metrics.RecordForensicPenalty(forensicReport.Penalty)

	d.publish(job.ID, 40, "extraction_complete", "text extraction and field parsing complete", job.Status)
	if err := d.persist(ctx, job, payload); err != nil {
		return err
	}

	d.publish(job.ID, 50, "forensic_start", "forensic analysis started", job.Status)
	d.publish(job.ID, 60, "forensic_complete", "forensic analysis complete", job.Status)
	if err := d.persist(ctx, job, payload); err != nil {
		return err
	}

	d.publish(job.ID, 70, "registry_start", "registry lookup started", job.Status)
	step := "registry_complete"
	verified := false
	var outageFailed bool
	func() {
		timer := metrics.NewStageTimer("registry")
		defer timer.Stop()
		if payload.Extracted.CompanyNumber != nil {
			declaredName := stringOrEmpty(payload.Extracted.DirectorName)
			declaredDOB := stringOrEmpty(payload.Extracted.DateOfBirth)
			match := d.Registry.LookupDirector(ctx, *payload.Extracted.CompanyNumber, declaredName, declaredDOB)
			switch {
			case match.Unreachable && !d.Registry.AllowSkipOutage(ctx, string(payload.VariantTag())):
				outageFailed = true
			case match.Officer != nil:
				verified = match.Verified
				payload.Registry = directorFieldsFromOfficer(match.Officer, *payload.Extracted.CompanyNumber)
			default:
				step = "registry_skipped"
			}
		} else {
			step = "registry_skipped"
		}
	}()
	if outageFailed {
		return d.failOnRegistryOutage(ctx, job, payload)
	}
	d.publish(job.ID, 80, step, "registry lookup finished", job.Status)
	if err := d.persist(ctx, job, payload); err != nil {
		return err
	}

	d.publish(job.ID, 90, "scoring_start", "scoring started", job.Status)
	scoreTimer := metrics.NewStageTimer("score")
	result := scoring.ScoreDirector(scoring.DirectorInput{
		Confidence:      extraction.Confidence,
		Declared:        payload.Declared,
		Extracted:       payload.Extracted,
		Registry:        payload.Registry,
		Verified:        verified,
		ForensicPenalty: job.Forensic.Penalty,
	})
	scoreTimer.Stop()
	payload.Scores = result.Scores
	job.Terminal(terminalStatus(result.Decision), result.Decision, d.Now())
	metrics.RecordJob(string(payload.VariantTag()), string(result.Decision))

	return d.finish(ctx, job, payload)
}

// failOnRegistryOutage terminates job as FAILED when the Registry Stage
// was unreachable and Policy did not permit treating the outage as
// reviewable (§2.2's registry_required bundle).
func (d *Dispatcher) failOnRegistryOutage(ctx context.Context, job *domain.Job, payload domain.VariantPayload) error {
	job.Terminal(domain.StatusFailed, domain.DecisionFail, d.Now())
	d.publish(job.ID, 80, "registry_unavailable", "registry unreachable and policy denied a review fallback", job.Status)
	metrics.RecordJob(string(payload.VariantTag()), string(domain.DecisionFail))
	return d.finish(ctx, job, payload)
}

func (d *Dispatcher) finish(ctx context.Context, job *domain.Job, payload domain.VariantPayload) error {
	if err := d.persist(ctx, job, payload); err != nil {
		return err
	}
	d.publish(job.ID, 100, "complete", fmt.Sprintf("job %s", *job.Decision), job.Status)
	return nil
}

func (d *Dispatcher) persist(ctx context.Context, job *domain.Job, payload domain.VariantPayload) error {
	if err := d.Store.Save(ctx, storage.Record{Job: *job, Payload: payload}); err != nil {
		return fmt.Errorf("pipeline: persist job %s: %w", job.ID, err)
	}
	return nil
}

func (d *Dispatcher) publish(jobID string, percent int, step, message string, status domain.Status) {
	d.Bus.Publish(domain.ProgressEvent{
		JobID:     jobID,
		Step:      step,
		Percent:   percent,
		Message:   message,
		Status:    status,
		Timestamp: d.Now(),
	})
}

// failJob marks jobID FAILED/FAIL and publishes the terminal percent=0
// failure event, best-effort: a Load or Save failure here is logged, not
// returned, since the caller is already unwinding from a panic.
func (d *Dispatcher) failJob(ctx context.Context, jobID string, cause error) {
	record, err := d.Store.Load(ctx, jobID)
	if err != nil {
		d.log.Error("dispatcher: could not load job to fail it", zap.String("job_id", jobID), zap.Error(err))
	} else {
		record.Job.Terminal(domain.StatusFailed, domain.DecisionFail, d.Now())
		record.Job.SetFlag("dispatcher_panic", true)
		if err := d.Store.Save(ctx, *record); err != nil {
			d.log.Error("dispatcher: could not persist failed job", zap.String("job_id", jobID), zap.Error(err))
		}
		metrics.RecordJob(string(record.Job.Variant), string(domain.DecisionFail))
	}
	d.Bus.Publish(domain.ProgressEvent{
		JobID:     jobID,
		Step:      "failed",
		Percent:   0,
		Message:   cause.Error(),
		Status:    domain.StatusFailed,
		Timestamp: d.Now(),
	})
}

// terminalStatus maps a Decision onto the Job status it produces: PASS and
// FAIL resolve directly, REVIEW parks the job for a human reviewer.
func terminalStatus(decision domain.Decision) domain.Status {
	switch decision {
	case domain.DecisionPass:
		return domain.StatusPassed
	case domain.DecisionFail:
		return domain.StatusFailed
	default:
		return domain.StatusReview
	}
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func companyFieldsFromProfile(profile *registry.CompanyProfile) domain.CompanyFields {
	return domain.CompanyFields{
		CompanyName:   &profile.Name,
		CompanyNumber: &profile.Number,
		Address:       &profile.Address,
		Date:          profile.CreationDate,
	}
}

func vatFieldsFromRecord(record *registry.VATRecord) domain.VATFields {
	return domain.VATFields{
		BusinessName:     &record.Name,
		Address:          &record.Address,
		RegistrationDate: record.RegistrationDate,
	}
}

func directorFieldsFromOfficer(officer *registry.Officer, companyNumber string) domain.DirectorFields {
	return domain.DirectorFields{
		DirectorName:    &officer.Name,
		DateOfBirth:     officer.DateOfBirth,
		CompanyNumber:   &companyNumber,
		AppointmentDate: officer.AppointedOn,
	}
}
