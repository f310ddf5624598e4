package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/harsh2517/bankrecon/internal/jobs"
)

// Store keeps job records in memory. Data is lost on restart; a
// database-backed store should replace it where history matters.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*jobs.ReconcileDocumentJob
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		jobs: make(map[string]*jobs.ReconcileDocumentJob),
	}
}

// SaveJob inserts or overwrites a job record.
func (s *Store) SaveJob(ctx context.Context, job *jobs.ReconcileDocumentJob) error {
	if job.JobID == "" {
		return fmt.Errorf("SaveJob: job ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	jobCopy := *job
	s.jobs[job.JobID] = &jobCopy
	return nil
}

// GetJob retrieves a job by ID.
func (s *Store) GetJob(ctx context.Context, jobID string) (*jobs.ReconcileDocumentJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("GetJob: job not found: %s", jobID)
	}

	jobCopy := *job
	return &jobCopy, nil
}

// ListJobs returns every job in the given status. An empty status
// matches all jobs.
func (s *Store) ListJobs(ctx context.Context, status jobs.JobStatus) ([]*jobs.ReconcileDocumentJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*jobs.ReconcileDocumentJob
	for _, job := range s.jobs {
		if status != "" && job.Status != status {
			continue
		}
		jobCopy := *job
		result = append(result, &jobCopy)
	}
	return result, nil
}

var _ jobs.JobStore = (*Store)(nil)
