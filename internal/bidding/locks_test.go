package bidding

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestJobLocks_SerializesSameJob(t *testing.T) {
	locks := newJobLocks()
	jobID := uuid.New()

	const workers = 50
	counter := 0

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			unlock := locks.lock(jobID)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, counter)
}

func TestJobLocks_DifferentJobsDoNotBlock(t *testing.T) {
	locks := newJobLocks()

	unlockA := locks.lock(uuid.New())
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := locks.lock(uuid.New())
		unlockB()
		close(done)
	}()

	<-done
}

func TestJobLocks_EntriesReleasedWhenIdle(t *testing.T) {
	locks := newJobLocks()
	jobID := uuid.New()

	unlock := locks.lock(jobID)
	unlock()

	locks.mu.Lock()
	defer locks.mu.Unlock()
	assert.Empty(t, locks.entries)
}
