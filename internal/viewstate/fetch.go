package viewstate

import (
	"sync"
	"time"
)

// Phase is the state of a single asynchronous fetch.
type Phase int

const (
	Idle Phase = iota
	Loading
	Success
	Failure
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}

// Ticket identifies one Begin call. Only the newest ticket may resolve.
type Ticket uint64

// Snapshot is a copy of a Fetch at one point in time.
type Snapshot[T any] struct {
	Phase     Phase
	Value     T
	Err       error
	UpdatedAt time.Time
	Failures  int // consecutive failed resolutions
}

// Loading reports whether a fetch is in flight.
func (s Snapshot[T]) Loading() bool { return s.Phase == Loading }

// Fetch tracks Idle → Loading → (Success | Failure) for one value. A new
// Begin from Success or Failure drops the previous value; stale data is not
// shown during a refetch.
type Fetch[T any] struct {
	mu       sync.RWMutex
	snapshot Snapshot[T]
	current  Ticket
}

// Begin enters Loading and returns the ticket the result must carry.
func (f *Fetch[T]) Begin() Ticket {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.current++
	var zero T
	f.snapshot.Phase = Loading
	f.snapshot.Value = zero
	f.snapshot.Err = nil
	return f.current
}

// Resolve records the outcome of the fetch started with ticket t. Results
// for superseded tickets are dropped and Resolve returns false.
func (f *Fetch[T]) Resolve(t Ticket, value T, err error) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if t != f.current || f.snapshot.Phase != Loading {
		return false
	}
	f.snapshot.UpdatedAt = time.Now()
	if err != nil {
		var zero T
		f.snapshot.Phase = Failure
		f.snapshot.Value = zero
		f.snapshot.Err = err
		f.snapshot.Failures++
		return true
	}
	f.snapshot.Phase = Success
	f.snapshot.Value = value
	f.snapshot.Err = nil
	f.snapshot.Failures = 0
	return true
}

// Mutate applies fn to the value held in Success. It is a no-op in any other
// phase and reports whether fn ran.
func (f *Fetch[T]) Mutate(fn func(T) T) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.snapshot.Phase != Success {
		return false
	}
	f.snapshot.Value = fn(f.snapshot.Value)
	f.snapshot.UpdatedAt = time.Now()
	return true
}

// Reset returns to Idle and invalidates any ticket in flight.
func (f *Fetch[T]) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.current++
	f.snapshot = Snapshot[T]{}
}

// Snapshot returns a copy of the current state.
func (f *Fetch[T]) Snapshot() Snapshot[T] {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.snapshot
}

// Phase returns the current phase.
func (f *Fetch[T]) Phase() Phase {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.snapshot.Phase
}

// Value returns the value held in Success, and false otherwise.
func (f *Fetch[T]) Value() (T, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.snapshot.Value, f.snapshot.Phase == Success
}
