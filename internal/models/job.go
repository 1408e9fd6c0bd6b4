package models

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Job statuses.
const (
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// Job represents an async batch run (batch-export, batch-import, probe-all).
type Job struct {
	ID               string      `json:"id"`
	Type             string      `json:"type"`
	TargetInstanceID string      `json:"target_instance_id,omitempty"`
	Status           string      `json:"status"`
	StartedAt        time.Time   `json:"started_at"`
	FinishedAt       *time.Time  `json:"finished_at,omitempty"`
	Error            string      `json:"error,omitempty"`
	Output           []string    `json:"output"`
	Progress         Progress    `json:"progress"`
	Result           interface{} `json:"result,omitempty"`
	mu               sync.Mutex
}

// AppendLog adds a log line to the job output.
func (j *Job) AppendLog(line string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Output = append(j.Output, line)
}

// LogsSince returns log lines starting from the given index.
func (j *Job) LogsSince(offset int) []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	if offset >= len(j.Output) {
		return nil
	}
	lines := make([]string, len(j.Output)-offset)
	copy(lines, j.Output[offset:])
	return lines
}

// SetProgress records batch progress. Current never moves backwards.
func (j *Job) SetProgress(p Progress) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if p.Current < j.Progress.Current {
		p.Current = j.Progress.Current
	}
	j.Progress = p
}

// Complete marks the job as completed with its result.
func (j *Job) Complete(result interface{}) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = JobCompleted
	j.Result = result
	now := time.Now()
	j.FinishedAt = &now
}

// Fail marks the job as failed with an error message.
func (j *Job) Fail(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = JobFailed
	j.Error = err
	now := time.Now()
	j.FinishedAt = &now
}

// Done reports whether the job has finished.
func (j *Job) Done() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Status != JobRunning
}

// Snapshot returns a copy that is safe to serialize while the job runs.
func (j *Job) Snapshot() *Job {
	j.mu.Lock()
	defer j.mu.Unlock()
	cp := &Job{
		ID:               j.ID,
		Type:             j.Type,
		TargetInstanceID: j.TargetInstanceID,
		Status:           j.Status,
		StartedAt:        j.StartedAt,
		FinishedAt:       j.FinishedAt,
		Error:            j.Error,
		Output:           make([]string, len(j.Output)),
		Progress:         j.Progress,
		Result:           j.Result,
	}
	copy(cp.Output, j.Output)
	return cp
}

// JobStore is an in-memory thread-safe store for jobs.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewJobStore creates an empty job store.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*Job)}
}

// Create adds a new job, assigning it a UUID.
func (s *JobStore) Create(jobType, targetInstanceID string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	j := &Job{
		ID:               uuid.New().String(),
		Type:             jobType,
		TargetInstanceID: targetInstanceID,
		Status:           JobRunning,
		StartedAt:        time.Now(),
		Output:           []string{},
	}
	s.jobs[j.ID] = j
	return j
}

// Get returns a job by ID.
func (s *JobStore) Get(id string) *Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.jobs[id]
}

// List returns snapshots of all jobs, most recent first.
func (s *JobStore) List() []*Job {
	s.mu.RLock()
	result := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		result = append(result, j.Snapshot())
	}
	s.mu.RUnlock()
	sort.Slice(result, func(i, k int) bool {
		return result[i].StartedAt.After(result[k].StartedAt)
	})
	return result
}
