package bidding

import (
	"sync"

	"github.com/google/uuid"
)

// jobLocks serializes read-modify-write cycles per job aggregate.
// Operations on different jobs proceed in parallel; two operations on
// the same job never interleave between load and save. Entries are
// reference-counted and removed once the last holder releases, so the
// map does not grow with the job table.
type jobLocks struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newJobLocks() *jobLocks {
	return &jobLocks{entries: make(map[uuid.UUID]*lockEntry)}
}

// lock acquires the per-job mutex and returns the release function.
func (l *jobLocks) lock(jobID uuid.UUID) func() {
	l.mu.Lock()
	e, ok := l.entries[jobID]
	if !ok {
		e = &lockEntry{}
		l.entries[jobID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.entries, jobID)
		}
		l.mu.Unlock()
	}
}
