package task

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrInvalidTransition = errors.New("invalid task transition")
)

// Registry tracks extraction tasks. Submitters create tasks, the worker
// that owns a task moves it forward, anyone may read it. In-flight tasks
// are never evicted; finished ones are bounded by count and age.
type Registry struct {
	options  Options
	tasks    map[string]Task
	finished []string
	mtx      sync.RWMutex
}

func (r *Registry) Submit(agentId string) Task {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.evict()

	t := Task{
		Id:          "extract_" + uuid.NewString(),
		State:       StateSubmitted,
		AgentId:     agentId,
		SubmittedAt: r.options.Now().UTC(),
	}

	r.tasks[t.Id] = t

	return t
}

func (r *Registry) Start(id string) error {
	return r.transition(id, StateSubmitted, StateProcessing, func(t *Task) {
		t.StartedAt = r.options.Now().UTC()
	})
}

func (r *Registry) Complete(id string, memoryIds []string) error {
	return r.transition(id, StateProcessing, StateCompleted, func(t *Task) {
		t.MemoryIds = slices.Clone(memoryIds)
		t.FinishedAt = r.options.Now().UTC()
	})
}

// Fail records cause. memoryIds lists records committed before the failure.
func (r *Registry) Fail(id string, cause error, memoryIds []string) error {
	return r.transition(id, StateProcessing, StateFailed, func(t *Task) {
		t.MemoryIds = slices.Clone(memoryIds)
		if cause != nil {
			t.Error = cause.Error()
		}
		t.FinishedAt = r.options.Now().UTC()
	})
}

func (r *Registry) Get(id string) (Task, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	t, ok := r.tasks[id]
	if !ok {
		return Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	return t.clone(), nil
}

// Counts reports how many retained tasks are in each state.
func (r *Registry) Counts() map[State]int {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	counts := map[State]int{}
	for _, t := range r.tasks {
		counts[t.State]++
	}
	return counts
}

func (r *Registry) transition(id string, from, to State, apply func(*Task)) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	if t.State != from {
		return fmt.Errorf("%w: %s is %s, cannot move to %s", ErrInvalidTransition, id, t.State, to)
	}

	t.State = to
	apply(&t)
	r.tasks[id] = t

	if to.Terminal() {
		r.finished = append(r.finished, id)
		r.evict()
	}

	return nil
}

// evict must be called with mtx held. finished is ordered by finish time,
// so expiry only ever needs to look at the front.
func (r *Registry) evict() {
	now := r.options.Now()

	drop := 0
	for drop < len(r.finished) {
		id := r.finished[drop]
		t := r.tasks[id]

		overCapacity := len(r.finished)-drop > r.options.MaxRetained
		expired := r.options.TTL > 0 && now.Sub(t.FinishedAt) > r.options.TTL

		if !overCapacity && !expired {
			break
		}

		delete(r.tasks, id)
		drop++
	}

	if drop > 0 {
		r.finished = slices.Delete(r.finished, 0, drop)
	}
}

func NewRegistry(opts ...Option) *Registry {
	options := NewOptions(opts...)

	if options.MaxRetained < 0 {
		options.MaxRetained = 0
	}

	if options.Now == nil {
		options.Now = time.Now
	}

	return &Registry{
		options: options,
		tasks:   map[string]Task{},
	}
}
