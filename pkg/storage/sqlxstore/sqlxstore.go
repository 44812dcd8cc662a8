// Package sqlxstore implements storage.Port against database/sql via
// jmoiron/sqlx, used in deployments that prefer the standard driver
// interface (and by the DATA-DOG/go-sqlmock-backed unit tests) over pgx's
// native pool.
package sqlxstore

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"

	"github.com/merchantiq/docverify/pkg/domain"
	"github.com/merchantiq/docverify/pkg/storage"
)

// Store implements storage.Port against an *sqlx.DB.
type Store struct {
	db *sqlx.DB
}

// New wraps an already-connected *sqlx.DB (driver "postgres" via lib/pq in
// production, sqlmock in tests).
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

type jobRow struct {
	ID               string         `db:"id"`
	SubmittedAt      sql.NullTime   `db:"submitted_at"`
	TerminalAt       sql.NullTime   `db:"terminal_at"`
	BlobLocalPath    sql.NullString `db:"blob_local_path"`
	BlobKey          sql.NullString `db:"blob_key"`
	OriginalFilename string         `db:"original_filename"`
	Variant          string         `db:"variant"`
	Status           string         `db:"status"`
	Decision         sql.NullString `db:"decision"`
	Forensic         []byte         `db:"forensic"`
	Payload          []byte         `db:"payload"`
	Flags            []byte         `db:"flags"`
}

// Save upserts record's Job row and VariantPayload JSON.
func (s *Store) Save(ctx context.Context, record storage.Record) error {
	payloadJSON, err := storage.EncodePayload(record.Payload)
	if err != nil {
		return err
	}
	job := record.Job

	forensicJSON, err := json.Marshal(job.Forensic)
	if err != nil {
		return err
	}
	flags := job.Flags
	if flags == nil {
		flags = map[string]bool{}
	}
	flagsJSON, err := json.Marshal(flags)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO verification_jobs (
			id, submitted_at, terminal_at, blob_local_path, blob_key,
			original_filename, variant, status, decision, forensic, payload, flags
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			terminal_at = EXCLUDED.terminal_at,
			status = EXCLUDED.status,
			decision = EXCLUDED.decision,
			forensic = EXCLUDED.forensic,
			payload = EXCLUDED.payload,
			flags = EXCLUDED.flags
	`,
		job.ID, job.SubmittedAt, job.TerminalAt, job.Blob.LocalPath, job.Blob.BlobKey,
		job.OriginalFilename, string(job.Variant), string(job.Status), decisionString(job.Decision),
		forensicJSON, payloadJSON, flagsJSON,
	)
	return err
}

// Load fetches a job and its payload by id.
func (s *Store) Load(ctx context.Context, jobID string) (*storage.Record, error) {
	var row jobRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, submitted_at, terminal_at, blob_local_path, blob_key,
			original_filename, variant, status, decision, forensic, payload, flags
		FROM verification_jobs WHERE id = $1
	`, jobID)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	job := domain.Job{
		ID:               row.ID,
		OriginalFilename: row.OriginalFilename,
		Variant:          domain.Variant(row.Variant),
		Status:           domain.Status(row.Status),
		Blob: domain.BlobHandle{
			LocalPath: row.BlobLocalPath.String,
			BlobKey:   row.BlobKey.String,
		},
	}
	if row.SubmittedAt.Valid {
		job.SubmittedAt = row.SubmittedAt.Time
	}
	if row.TerminalAt.Valid {
		t := row.TerminalAt.Time
		job.TerminalAt = &t
	}
	if row.Decision.Valid {
		d := domain.Decision(row.Decision.String)
		job.Decision = &d
	}
	if len(row.Forensic) > 0 {
		_ = json.Unmarshal(row.Forensic, &job.Forensic)
	}
	if len(row.Flags) > 0 {
		_ = json.Unmarshal(row.Flags, &job.Flags)
	}

	payload, err := storage.DecodePayload(job.Variant, row.Payload)
	if err != nil {
		return nil, err
	}

	return &storage.Record{Job: job, Payload: payload}, nil
}

func decisionString(d *domain.Decision) *string {
	if d == nil {
		return nil
	}
	s := string(*d)
	return &s
}
