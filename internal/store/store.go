// Package store owns the ordered job set. The in-memory store is the
// single authority; Postgres (postgres.go) only snapshots it across
// restarts.
package store

import (
	"strings"
	"sync"

	"github.com/DK01git/JobAutomation/internal/model"
)

// Memory is the ordered, newest-first job set. All mutations go through
// one mutex so job records are never written concurrently.
type Memory struct {
	mu   sync.RWMutex
	jobs []model.JobPosting
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{}
}

// DedupKey computes the identity of a posting: title and company,
// lowercased with runs of whitespace collapsed.
func DedupKey(title, company string) string {
	normalize := func(s string) string {
		return strings.Join(strings.Fields(strings.ToLower(s)), " ")
	}
	return normalize(title) + "|" + normalize(company)
}

// Merge ingests a discovery batch: postings whose dedup key already exists
// are dropped (never merged into the existing record), survivors are
// prepended newest-first with their batch order preserved. Returns the
// number of postings added. Merging the same batch twice is a no-op.
func (m *Memory) Merge(batch []model.JobPosting) int {
	if len(batch) == 0 {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing := make(map[string]struct{}, len(m.jobs))
	for _, j := range m.jobs {
		existing[DedupKey(j.Title, j.Company)] = struct{}{}
	}

	fresh := make([]model.JobPosting, 0, len(batch))
	for _, j := range batch {
		key := DedupKey(j.Title, j.Company)
		if _, dup := existing[key]; dup {
			continue
		}
		existing[key] = struct{}{}
		fresh = append(fresh, j)
	}
	if len(fresh) == 0 {
		return 0
	}

	m.jobs = append(fresh, m.jobs...)
	return len(fresh)
}

// List returns a copy of the job set in order.
func (m *Memory) List() []model.JobPosting {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.JobPosting, len(m.jobs))
	copy(out, m.jobs)
	return out
}

// Get returns the posting with the given id.
func (m *Memory) Get(id string) (model.JobPosting, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, j := range m.jobs {
		if j.ID == id {
			return j, true
		}
	}
	return model.JobPosting{}, false
}

// Update applies fn to the posting with the given id and returns the
// updated copy. Returns false when the id is unknown.
func (m *Memory) Update(id string, fn func(*model.JobPosting)) (model.JobPosting, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.jobs {
		if m.jobs[i].ID == id {
			fn(&m.jobs[i])
			return m.jobs[i], true
		}
	}
	return model.JobPosting{}, false
}

// Remove deletes the posting with the given id. No tombstone is kept.
func (m *Memory) Remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.jobs {
		if m.jobs[i].ID == id {
			m.jobs = append(m.jobs[:i], m.jobs[i+1:]...)
			return true
		}
	}
	return false
}

// Replace swaps in a full job set, used when restoring a snapshot.
func (m *Memory) Replace(jobs []model.JobPosting) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = make([]model.JobPosting, len(jobs))
	copy(m.jobs, jobs)
}

// Len reports the number of tracked postings.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.jobs)
}
