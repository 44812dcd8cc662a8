// Package domain defines the entities the verification pipeline operates
// over: Job, the four VariantPayload shapes, ForensicReport, ProgressEvent,
// and the queue message envelope. Nothing here performs I/O; these are the
// records the Dispatcher and stages pass between each other.
package domain

import "time"

// Variant identifies the submission's document kind.
type Variant string

const (
	VariantCorpIncorporation  Variant = "CORP_INCORPORATION"
	VariantCompanyRegistration Variant = "COMPANY_REGISTRATION"
	VariantVATRegistration    Variant = "VAT_REGISTRATION"
	VariantDirectorVerification Variant = "DIRECTOR_VERIFICATION"
)

// IsValid reports whether v is one of the four enumerated variants.
func (v Variant) IsValid() bool {
	switch v {
	case VariantCorpIncorporation, VariantCompanyRegistration, VariantVATRegistration, VariantDirectorVerification:
		return true
	default:
		return false
	}
}

// Status is a Job's lifecycle state.
type Status string

const (
	StatusPending       Status = "PENDING"
	StatusProcessing    Status = "PROCESSING"
	StatusPassed        Status = "PASSED"
	StatusFailed        Status = "FAILED"
	StatusReview        Status = "REVIEW"
	StatusManualReview  Status = "MANUAL_REVIEW"
)

// IsTerminal reports whether s is a state from which the automated pipeline
// will not transition further without reviewer action.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusReview, StatusManualReview:
		return true
	default:
		return false
	}
}

// Decision is the terminal classification produced by the Scoring Stage.
type Decision string

const (
	DecisionPass   Decision = "PASS"
	DecisionFail   Decision = "FAIL"
	DecisionReview Decision = "REVIEW"
)

// ReviewAction records a reviewer's manual disposition of a REVIEW job.
type ReviewAction struct {
	ReviewerID string
	Action     string
	Notes      string
	At         time.Time
}

// BlobHandle locates a submitted document's bytes, locally and/or remotely.
type BlobHandle struct {
	LocalPath string
	BlobKey   string
}

// Job is the root entity tracked per submission.
type Job struct {
	ID                string
	SubmittedAt       time.Time
	TerminalAt        *time.Time
	Blob              BlobHandle
	OriginalFilename  string
	Variant           Variant
	Status            Status
	Decision          *Decision
	Forensic          ForensicReport
	Review            *ReviewAction
	Flags             map[string]bool
}

// Terminal marks the Job terminal with the given status and decision,
// stamping TerminalAt. It is idempotent: calling it on an already-terminal
// Job is a no-op, matching the Dispatcher's re-run invariant.
func (j *Job) Terminal(status Status, decision Decision, at time.Time) {
	if j.Status.IsTerminal() {
		return
	}
	j.Status = status
	j.Decision = &decision
	j.TerminalAt = &at
}

// SetFlag sets a named free-form flag on the job.
func (j *Job) SetFlag(name string, value bool) {
	if j.Flags == nil {
		j.Flags = make(map[string]bool)
	}
	j.Flags[name] = value
}
