// Package intake implements Job Intake (§4.9): the boundary where a raw
// submission becomes a persisted Job+VariantPayload and either an enqueued
// queue message or a direct Dispatcher handoff.
package intake

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/merchantiq/docverify/pkg/blob"
	"github.com/merchantiq/docverify/pkg/domain"
	"github.com/merchantiq/docverify/pkg/queue"
	"github.com/merchantiq/docverify/pkg/storage"
)

// Submission is the validated external shape Job Intake accepts: document
// bytes, the submitter's filename, a variant tag, and the merchant's
// declared fields for that variant (as a VariantPayload with only Declared
// populated).
type Submission struct {
	Bytes    []byte `validate:"required"`
	Filename string `validate:"required"`
	Variant  domain.Variant
	Declared domain.VariantPayload `validate:"required"`
}

// Dispatch is how Intake hands a job id off once it is persisted: directly
// to the Dispatcher, or through the Queue Port, depending on configuration.
type Dispatch interface {
	Process(ctx context.Context, jobID string, raw []byte, pages [][]byte) error
}

// Intake validates, stages, archives, and persists submissions.
type Intake struct {
	MaxUploadSize int64
	UploadDir     string
	UseQueue      bool

	Store    storage.Port
	Blob     blob.Port // nil disables durable archival
	Queue    queue.Port // nil when UseQueue is false
	Dispatch Dispatch   // nil when UseQueue is true

	validate *validator.Validate
	log      *zap.Logger
	now      func() time.Time
}

// New builds an Intake. now defaults to time.Now.
func New(maxUploadSize int64, uploadDir string, useQueue bool, store storage.Port, blobPort blob.Port, queuePort queue.Port, dispatch Dispatch, now func() time.Time, log *zap.Logger) *Intake {
	if now == nil {
		now = time.Now
	}
	return &Intake{
		MaxUploadSize: maxUploadSize,
		UploadDir:     uploadDir,
		UseQueue:      useQueue,
		Store:         store,
		Blob:          blobPort,
		Queue:         queuePort,
		Dispatch:      dispatch,
		validate:      validator.New(),
		log:           log,
		now:           now,
	}
}

// Accept validates sub, assigns a job id, stages the bytes, optionally
// archives them, persists the Job+VariantPayload, and routes to either the
// queue or the Dispatcher. It returns the new job id.
func (in *Intake) Accept(ctx context.Context, sub Submission) (string, error) {
	if err := in.validate.Struct(sub); err != nil {
		return "", fmt.Errorf("intake: invalid submission: %w", err)
	}
	if int64(len(sub.Bytes)) > in.MaxUploadSize {
		return "", fmt.Errorf("intake: submission of %d bytes exceeds max upload size %d", len(sub.Bytes), in.MaxUploadSize)
	}
	variant := sub.Variant
	if !variant.IsValid() {
		variant = domain.VariantCorpIncorporation
	}

	jobID := uuid.NewString()
	filename := sanitizeFilename(sub.Filename)

	localPath, err := in.stage(jobID, filename, sub.Bytes)
	if err != nil {
		return "", err
	}

	var blobKey string
	if in.Blob != nil {
		blobKey = fmt.Sprintf("documents/%s/%s%s", jobID, jobID, filepath.Ext(filename))
		if _, err := in.Blob.Upload(ctx, blobKey, sub.Bytes, blob.ContentType(filename)); err != nil {
			in.log.Warn("intake: blob archive failed, continuing with local staging only",
				zap.String("job_id", jobID), zap.Error(err))
			blobKey = ""
		}
	}

	job := domain.Job{
		ID:               jobID,
		SubmittedAt:      in.now(),
		Blob:             domain.BlobHandle{LocalPath: localPath, BlobKey: blobKey},
		OriginalFilename: filename,
		Variant:          variant,
		Status:           domain.StatusPending,
	}

	if err := in.Store.Save(ctx, storage.Record{Job: job, Payload: sub.Declared}); err != nil {
		return "", fmt.Errorf("intake: persist job %s: %w", jobID, err)
	}

	if in.UseQueue {
		if err := in.Queue.Send(ctx, domain.JobQueueMessage{JobID: jobID, Action: "process"}); err != nil {
			return "", fmt.Errorf("intake: enqueue job %s: %w", jobID, err)
		}
		return jobID, nil
	}

	if in.Dispatch != nil {
		if err := in.Dispatch.Process(ctx, jobID, sub.Bytes, nil); err != nil {
			return jobID, fmt.Errorf("intake: dispatch job %s: %w", jobID, err)
		}
	}
	return jobID, nil
}

// stage writes raw to a job-scoped file under UploadDir and returns its
// path.
func (in *Intake) stage(jobID, filename string, raw []byte) (string, error) {
	if err := os.MkdirAll(in.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("intake: create staging dir: %w", err)
	}
	ext := filepath.Ext(filename)
	path := filepath.Join(in.UploadDir, jobID+ext)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("intake: stage document %s: %w", jobID, err)
	}
	return path, nil
}

// sanitizeFilename strips any path components a submitter might smuggle in,
// so staging never writes outside UploadDir.
func sanitizeFilename(name string) string {
	return filepath.Base(strings.TrimSpace(name))
}
