// Package pgxstore implements storage.Port against PostgreSQL via
// jackc/pgx, the preferred production backend.
package pgxstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/merchantiq/docverify/pkg/domain"
	"github.com/merchantiq/docverify/pkg/storage"
)

// Store implements storage.Port against a pgxpool.Pool.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps an already-constructed pool. Schema migrations live in
// db/migrations, applied via pressly/goose at process start.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Save upserts record's Job row and VariantPayload JSON in one statement.
func (s *Store) Save(ctx context.Context, record storage.Record) error {
	payloadJSON, err := storage.EncodePayload(record.Payload)
	if err != nil {
		return err
	}

	job := record.Job
	_, err = s.pool.Exec(ctx, `
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
		forensicJSON(job.Forensic), payloadJSON, flagsJSON(job.Flags),
	)
	return err
}

// Load fetches a job and its payload by id.
func (s *Store) Load(ctx context.Context, jobID string) (*storage.Record, error) {
	var (
		job                domain.Job
		decision           *string
		forensicRaw        []byte
		payloadRaw         []byte
		flagsRaw           []byte
		variant            string
		status             string
	)

	row := s.pool.QueryRow(ctx, `
		SELECT id, submitted_at, terminal_at, blob_local_path, blob_key,
			original_filename, variant, status, decision, forensic, payload, flags
		FROM verification_jobs WHERE id = $1
	`, jobID)

	err := row.Scan(
		&job.ID, &job.SubmittedAt, &job.TerminalAt, &job.Blob.LocalPath, &job.Blob.BlobKey,
		&job.OriginalFilename, &variant, &status, &decision, &forensicRaw, &payloadRaw, &flagsRaw,
	)
	if err == pgx.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	job.Variant = domain.Variant(variant)
	job.Status = domain.Status(status)
	if decision != nil {
		d := domain.Decision(*decision)
		job.Decision = &d
	}
	if len(forensicRaw) > 0 {
		_ = json.Unmarshal(forensicRaw, &job.Forensic)
	}
	if len(flagsRaw) > 0 {
		_ = json.Unmarshal(flagsRaw, &job.Flags)
	}

	payload, err := storage.DecodePayload(job.Variant, payloadRaw)
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

func forensicJSON(r domain.ForensicReport) []byte {
	raw, _ := json.Marshal(r)
	return raw
}

func flagsJSON(flags map[string]bool) []byte {
	if flags == nil {
		flags = map[string]bool{}
	}
	raw, _ := json.Marshal(flags)
	return raw
}

// WaitReady polls the pool until it accepts a connection or timeout
// elapses, used by cmd/*/main.go during startup.
func WaitReady(ctx context.Context, pool *pgxpool.Pool, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return pool.Ping(ctx)
}
