package sqlxstore

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/merchantiq/docverify/pkg/domain"
	"github.com/merchantiq/docverify/pkg/storage"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, "postgres")), mock
}

func TestSaveExecutesUpsert(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO verification_jobs")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	companyNumber := "03035678"
	record := storage.Record{
		Job: domain.Job{
			ID:          "job-1",
			SubmittedAt: time.Now(),
			Variant:     domain.VariantCorpIncorporation,
			Status:      domain.StatusProcessing,
		},
		Payload: &domain.CompanyPayload{
			Variant:  domain.VariantCorpIncorporation,
			Declared: domain.CompanyFields{CompanyNumber: &companyNumber},
		},
	}

	if err := store.Save(context.Background(), record); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestLoadReturnsNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, submitted_at")).
		WillReturnError(sql.ErrNoRows)

	_, err := store.Load(context.Background(), "missing")
	if err != storage.ErrNotFound {
		t.Fatalf("got %v, want storage.ErrNotFound", err)
	}
}
