package handler

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// ClassifyJobStatus represents the lifecycle of an async batch.
type ClassifyJobStatus string

const (
	ClassifyJobQueued    ClassifyJobStatus = "queued"
	ClassifyJobRunning   ClassifyJobStatus = "running"
	ClassifyJobCompleted ClassifyJobStatus = "completed"
	ClassifyJobFailed    ClassifyJobStatus = "failed"
)

// ClassifyJob keeps track of one batch while it works through the set.
type ClassifyJob struct {
	ID        string            `json:"id"`
	Status    ClassifyJobStatus `json:"status"`
	Result    []ClassifyResult  `json:"result,omitempty"`
	Error     string            `json:"error,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// ClassifyJobManager stores job states indexed by job ID. Reads hand
// out copies, so callers never share memory with the running batch.
type ClassifyJobManager struct {
	mu   sync.RWMutex
	jobs map[string]*ClassifyJob
}

// NewClassifyJobManager constructs a job manager with no jobs.
func NewClassifyJobManager() *ClassifyJobManager {
	return &ClassifyJobManager{
		jobs: make(map[string]*ClassifyJob),
	}
}

// NewJob registers a queued job and returns a copy of it.
func (m *ClassifyJobManager) NewJob() ClassifyJob {
	job := &ClassifyJob{
		ID:        uuid.New().String(),
		Status:    ClassifyJobQueued,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()
	return *job
}

// SetRunning marks the job as running.
func (m *ClassifyJobManager) SetRunning(jobID string) {
	m.updateJob(jobID, func(job *ClassifyJob) {
		job.Status = ClassifyJobRunning
	})
}

// CompleteJob stores the placements and marks the job complete.
func (m *ClassifyJobManager) CompleteJob(jobID string, result []ClassifyResult) {
	m.updateJob(jobID, func(job *ClassifyJob) {
		job.Status = ClassifyJobCompleted
		job.Result = result
	})
}

// FailJob records a failure and attaches a user-facing error message.
func (m *ClassifyJobManager) FailJob(jobID string, err error) {
	m.updateJob(jobID, func(job *ClassifyJob) {
		job.Status = ClassifyJobFailed
		job.Error = err.Error()
	})
}

// GetJob fetches a copy of a job by ID.
func (m *ClassifyJobManager) GetJob(jobID string) (ClassifyJob, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return ClassifyJob{}, false
	}
	out := *job
	out.Result = append([]ClassifyResult(nil), job.Result...)
	return out, true
}

func (m *ClassifyJobManager) updateJob(jobID string, update func(job *ClassifyJob)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[jobID]
	if !ok {
		return
	}

	update(job)
	job.UpdatedAt = time.Now()
}
