package jobs

import (
	"context"
	"time"

	"github.com/harsh2517/bankrecon/internal/domain"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeReconcileDocument runs the full extract/categorize/reconcile
	// pipeline over one statement document.
	JobTypeReconcileDocument JobType = "reconcile_document"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// ReconcileDocumentJob carries everything one pipeline invocation needs.
// Each job is independent of every other; the worker may run jobs fully
// in parallel because no pipeline stage touches process-wide state.
type ReconcileDocumentJob struct {
	JobID string `json:"job_id"`

	// GCSURI points at the source document in cloud storage.
	GCSURI string `json:"gcs_uri"`

	DocumentType domain.DocumentType `json:"document_type"`
	BankName     string              `json:"bank_name"`

	// OpeningBalance and ClosingBalance are the statement's stated
	// balances, against which the extracted set is reconciled.
	OpeningBalance float64 `json:"opening_balance"`
	ClosingBalance float64 `json:"closing_balance"`

	// AvailableGLAccounts is the categorization vocabulary for this
	// document's rows.
	AvailableGLAccounts []string `json:"available_gl_accounts"`

	Status    JobStatus `json:"status"`
	CreatedAt time.Time `json:"created_at"`

	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Error string `json:"error,omitempty"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`
}

// Job is a generic interface for all job types.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

// GetID implements the Job interface.
func (j *ReconcileDocumentJob) GetID() string {
	return j.JobID
}

// GetType implements the Job interface.
func (j *ReconcileDocumentJob) GetType() JobType {
	return JobTypeReconcileDocument
}

// GetStatus implements the Job interface.
func (j *ReconcileDocumentJob) GetStatus() JobStatus {
	return j.Status
}

// Publisher defines the interface for publishing jobs to a queue.
type Publisher interface {
	PublishReconcileDocument(ctx context.Context, job *ReconcileDocumentJob) error
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	Start(ctx context.Context, handler JobHandler) error
	Stop(ctx context.Context) error
}

// JobHandler is a function that processes a job. It returns an error if
// the job failed and should be retried.
type JobHandler func(ctx context.Context, job Job) error

// JobStore defines the interface for storing and retrieving job status.
type JobStore interface {
	SaveJob(ctx context.Context, job *ReconcileDocumentJob) error
	GetJob(ctx context.Context, jobID string) (*ReconcileDocumentJob, error)
	ListJobs(ctx context.Context, status JobStatus) ([]*ReconcileDocumentJob, error)
}
