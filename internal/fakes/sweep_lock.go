package fakes

import (
	"context"
	"errors"
	"sync"
)

// ErrHeld is returned by SweepLock.Acquire while Held is set.
var ErrHeld = heldError{}

type heldError struct{}

func (heldError) Error() string  { return "sweep lock held" }
func (heldError) LockHeld() bool { return true }

// SweepLock is a process-local lock that counts acquisitions.
type SweepLock struct {
	mu       sync.Mutex
	held     bool
	acquired int
	released int

	// AcquireErr, when set, is returned as a backend failure.
	AcquireErr error
}

func NewSweepLock() *SweepLock {
	return &SweepLock{}
}

// Hold marks the lock as taken by someone else.
func (l *SweepLock) Hold() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = true
}

func (l *SweepLock) Acquire(_ context.Context) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.AcquireErr != nil {
		return nil, l.AcquireErr
	}
	if l.held {
		return nil, ErrHeld
	}
	l.held = true
	l.acquired++
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if !l.held {
			return errors.New("sweep lock not held")
		}
		l.held = false
		l.released++
		return nil
	}, nil
}

func (l *SweepLock) Counts() (acquired, released int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.acquired, l.released
}
