// Package storage defines the Storage Port: persistence for one Job plus
// its VariantPayload per job (§6 "Persisted state layout"). Concrete
// backends live in pkg/storage/pgxstore (pgx, preferred) and
// pkg/storage/sqlxstore (database/sql via sqlx, used by simpler
// deployments or tests against sqlmock).
package storage

import (
	"context"
	"errors"

	"github.com/merchantiq/docverify/pkg/domain"
)

// ErrNotFound is returned when a job id has no persisted record.
var ErrNotFound = errors.New("storage: job not found")

// Record is the persisted unit: a Job plus its variant-specific payload.
type Record struct {
	Job     domain.Job
	Payload domain.VariantPayload
}

// Port is the Dispatcher's persistence dependency.
type Port interface {
	Save(ctx context.Context, record Record) error
	Load(ctx context.Context, jobID string) (*Record, error)
}
