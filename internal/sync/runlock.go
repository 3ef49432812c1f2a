package sync

import (
	"sync"

	"github.com/rotisserie/eris"
)

// ErrRunInProgress is returned when a named run is already holding the lock.
var ErrRunInProgress = eris.New("sync: run already in progress")

// RunLock serializes named runs within one process. Two syncs of different
// entities may overlap; two runs of the same name may not.
type RunLock struct {
	mu     sync.Mutex
	active map[string]bool
}

// NewRunLock creates an empty RunLock.
func NewRunLock() *RunLock {
	return &RunLock{active: make(map[string]bool)}
}

// Acquire claims the named lock. The caller must invoke the returned release
// function when the run finishes.
func (l *RunLock) Acquire(name string) (release func(), err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.active[name] {
		return nil, ErrRunInProgress
	}
	l.active[name] = true
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.active, name)
	}, nil
}
