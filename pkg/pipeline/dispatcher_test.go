package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/merchantiq/docverify/pkg/domain"
	"github.com/merchantiq/docverify/pkg/fieldparser"
	"github.com/merchantiq/docverify/pkg/forensic"
	"github.com/merchantiq/docverify/pkg/ocr"
	"github.com/merchantiq/docverify/pkg/progress"
	"github.com/merchantiq/docverify/pkg/registry"
	"github.com/merchantiq/docverify/pkg/storage"
)

type memStore struct {
	mu      sync.Mutex
	records map[string]storage.Record
}

func newMemStore(initial storage.Record) *memStore {
	return &memStore{records: map[string]storage.Record{initial.Job.ID: initial}}
}

func (m *memStore) Save(_ context.Context, record storage.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.Job.ID] = record
	return nil
}

func (m *memStore) Load(_ context.Context, jobID string) (*storage.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[jobID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := record
	return &cp, nil
}

type stubOCRPort struct{ text string }

func (s stubOCRPort) DetectBlocks(context.Context, []byte) ([]ocr.Block, error) {
	return []ocr.Block{{Text: s.text, Confidence: 92, Page: 0}}, nil
}

func newTestDispatcher(store storage.Port, companyText string) *Dispatcher {
	log := zap.NewNop()
	ocrStage := ocr.NewStage(stubOCRPort{text: companyText}, 5)
	parser := fieldparser.NewStage(nil, false, time.Second, log)
	forensicStage := forensic.NewStage(log, func() time.Time { return time.Unix(0, 0) })
	registryStage := registry.NewStage(nil, nil, nil, false, log)
	return NewDispatcher(store, progress.NewBus(0), ocrStage, parser, forensicStage, registryStage,
		func() time.Time { return time.Unix(0, 0) }, log)
}

func TestProcessCompanyReachesTerminalState(t *testing.T) {
	number := "12345678"
	store := newMemStore(storage.Record{
		Job: domain.Job{ID: "job-1", Variant: domain.VariantCorpIncorporation, Status: domain.StatusPending},
		Payload: &domain.CompanyPayload{
			Variant:  domain.VariantCorpIncorporation,
			Declared: domain.CompanyFields{CompanyNumber: &number},
		},
	})
	d := newTestDispatcher(store, "Acme Ltd\nCompany number 12345678")

	if err := d.Process(context.Background(), "job-1", []byte("%PDF-1.4 fake"), nil); err != nil {
		t.Fatalf("Process: %v", err)
	}

	record, err := store.Load(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !record.Job.Status.IsTerminal() {
		t.Fatalf("expected terminal status, got %s", record.Job.Status)
	}
	if record.Job.Decision == nil {
		t.Fatalf("expected a decision to be set")
	}
}

func TestProcessIsIdempotentOnTerminalJob(t *testing.T) {
	store := newMemStore(storage.Record{
		Job:     domain.Job{ID: "job-2", Variant: domain.VariantVATRegistration, Status: domain.StatusPassed},
		Payload: &domain.VATPayload{},
	})
	d := newTestDispatcher(store, "irrelevant")

	if err := d.Process(context.Background(), "job-2", nil, nil); err != nil {
		t.Fatalf("Process: %v", err)
	}

	record, _ := store.Load(context.Background(), "job-2")
	if record.Job.Status != domain.StatusPassed {
		t.Fatalf("expected status to remain PASSED, got %s", record.Job.Status)
	}
}

func TestProcessRecoversPanicIntoFailedJob(t *testing.T) {
	store := newMemStore(storage.Record{
		Job:     domain.Job{ID: "job-3", Variant: domain.VariantDirectorVerification, Status: domain.StatusPending},
		Payload: &domain.DirectorPayload{},
	})
	d := newTestDispatcher(store, "text")
	d.OCR = nil // triggers a nil-pointer panic inside runDirector, exercising the recover boundary

	err := d.Process(context.Background(), "job-3", []byte("raw"), nil)
	if err == nil {
		t.Fatalf("expected Process to return an error after recovering a panic")
	}

	record, loadErr := store.Load(context.Background(), "job-3")
	if loadErr != nil {
		t.Fatalf("Load: %v", loadErr)
	}
	if record.Job.Status != domain.StatusFailed {
		t.Fatalf("expected FAILED status, got %s", record.Job.Status)
	}
	if record.Job.Decision == nil || *record.Job.Decision != domain.DecisionFail {
		t.Fatalf("expected FAIL decision, got %v", record.Job.Decision)
	}
}
