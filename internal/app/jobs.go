package service

import (
	"sync"
	"time"
)

// JobState is the lifecycle stage of a submitted compile job.
type JobState string

// Job states.
const (
	JobQueued JobState = "queued"
	JobDone   JobState = "done"
	JobFailed JobState = "failed"
)

// JobStatus describes a submitted compile job.
type JobStatus struct {
	ID          string    `json:"id"`
	LeagueID    string    `json:"league_id"`
	State       JobState  `json:"state"`
	Error       string    `json:"error,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
	FinishedAt  time.Time `json:"finished_at,omitzero"`
}

type jobEntry struct {
	status JobStatus
	done   chan struct{}
}

// jobTable tracks job statuses. Finished jobs beyond limit are forgotten
// oldest first; queued jobs are always kept.
type jobTable struct {
	mu       sync.Mutex
	jobs     map[string]*jobEntry
	finished []string
	limit    int
}

func newJobTable(limit int) *jobTable {
	return &jobTable{jobs: make(map[string]*jobEntry), limit: max(limit, 1)}
}

func (t *jobTable) add(st JobStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.jobs[st.ID] = &jobEntry{status: st, done: make(chan struct{})}
}

func (t *jobTable) remove(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.jobs, id)
}

func (t *jobTable) finish(id string, err error, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.jobs[id]
	if !ok || e.status.State != JobQueued {
		return
	}
	e.status.State = JobDone
	if err != nil {
		e.status.State = JobFailed
		e.status.Error = err.Error()
	}
	e.status.FinishedAt = at
	close(e.done)

	t.finished = append(t.finished, id)
	for len(t.finished) > t.limit {
		delete(t.jobs, t.finished[0])
		t.finished = t.finished[1:]
	}
}

func (t *jobTable) get(id string) (JobStatus, <-chan struct{}, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.jobs[id]
	if !ok {
		return JobStatus{}, nil, false
	}
	return e.status, e.done, true
}

func (t *jobTable) counts() map[JobState]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := map[JobState]int{JobQueued: 0, JobDone: 0, JobFailed: 0}
	for _, e := range t.jobs {
		out[e.status.State]++
	}
	return out
}
