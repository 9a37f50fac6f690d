package viewstate

import (
	"sync"
	"time"
)

// ActionPhase is the state of one per-item action.
type ActionPhase int

const (
	Pending ActionPhase = iota
	InProgress
	Done
	Failed
)

func (p ActionPhase) String() string {
	switch p {
	case Pending:
		return "pending"
	case InProgress:
		return "in progress"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// ActionState is the state of the action attached to one item.
type ActionState struct {
	Phase     ActionPhase
	Step      string // current or last step name
	Err       error  // set in Failed
	StartedAt time.Time
}

// Actions maps item ids to independent action state machines. At most one
// action per id is InProgress at a time; ids race freely against each other.
type Actions[K comparable] struct {
	mu    sync.RWMutex
	items map[K]ActionState
}

// NewActions returns an empty action map.
func NewActions[K comparable]() *Actions[K] {
	return &Actions[K]{items: make(map[K]ActionState)}
}

// Start moves id to InProgress. It returns false and changes nothing when id
// is already InProgress.
func (a *Actions[K]) Start(id K, step string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.items == nil {
		a.items = make(map[K]ActionState)
	}
	if a.items[id].Phase == InProgress {
		return false
	}
	a.items[id] = ActionState{Phase: InProgress, Step: step, StartedAt: time.Now()}
	return true
}

// Advance records the step an InProgress action has moved on to.
func (a *Actions[K]) Advance(id K, step string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	st, ok := a.items[id]
	if !ok || st.Phase != InProgress {
		return
	}
	st.Step = step
	a.items[id] = st
}

// Done marks an InProgress action as finished.
func (a *Actions[K]) Done(id K) {
	a.finish(id, Done, nil)
}

// Fail marks an InProgress action as failed with err.
func (a *Actions[K]) Fail(id K, err error) {
	a.finish(id, Failed, err)
}

func (a *Actions[K]) finish(id K, phase ActionPhase, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Pruned while in flight: the item is gone, keep it gone.
	st, ok := a.items[id]
	if !ok || st.Phase != InProgress {
		return
	}
	st.Phase = phase
	st.Err = err
	a.items[id] = st
}

// Get returns the state for id. Unknown ids are Pending.
func (a *Actions[K]) Get(id K) ActionState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.items[id]
}

// Prune forgets id, typically after the owning item was deleted.
func (a *Actions[K]) Prune(id K) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.items, id)
}

// Active returns the number of InProgress actions.
func (a *Actions[K]) Active() int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	n := 0
	for _, st := range a.items {
		if st.Phase == InProgress {
			n++
		}
	}
	return n
}
