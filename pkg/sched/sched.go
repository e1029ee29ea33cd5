// Package sched provides a cancellable deferred-work queue keyed by
// purpose. Scheduling a key that already has pending work coalesces with
// it: the previous callback is cancelled and the delay restarts. Tests use
// the Manual implementation to step work deterministically.
//
// Keys carry no instance namespace, so a Scheduler belongs to exactly one
// manager graph: sharing one across graphs would coalesce unrelated work
// under the same keys and let one graph's CancelAll tear down the other's.
package sched

import (
	"sync"
	"time"
)

// Scheduler defers work under a purpose key, at most one pending callback
// per key.
type Scheduler interface {
	// After schedules fn to run once after d, replacing any pending work
	// under the same key.
	After(key string, d time.Duration, fn func())
	// Cancel drops pending work for key, if any.
	Cancel(key string)
	// CancelAll drops all pending work.
	CancelAll()
	// Pending reports whether key has work scheduled.
	Pending(key string) bool
}

// Timers is the production Scheduler backed by time.AfterFunc.
type Timers struct {
	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
}

func NewTimers() *Timers {
	return &Timers{timers: make(map[string]*time.Timer)}
}

func (t *Timers) After(key string, d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	if prev, ok := t.timers[key]; ok {
		prev.Stop()
	}
	t.timers[key] = time.AfterFunc(d, func() {
		t.mu.Lock()
		if t.stopped {
			t.mu.Unlock()
			return
		}
		delete(t.timers, key)
		t.mu.Unlock()
		fn()
	})
}

func (t *Timers) Cancel(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if timer, ok := t.timers[key]; ok {
		timer.Stop()
		delete(t.timers, key)
	}
}

func (t *Timers) CancelAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, timer := range t.timers {
		timer.Stop()
		delete(t.timers, key)
	}
}

// Stop cancels everything and refuses further scheduling. Used at teardown
// so no late callback fires against destroyed state.
func (t *Timers) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	for key, timer := range t.timers {
		timer.Stop()
		delete(t.timers, key)
	}
}

func (t *Timers) Pending(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.timers[key]
	return ok
}

// Manual is a Scheduler stepped explicitly by tests. Delays are recorded
// but never elapse on their own.
type Manual struct {
	mu    sync.Mutex
	tasks map[string]manualTask
}

type manualTask struct {
	delay time.Duration
	fn    func()
}

func NewManual() *Manual {
	return &Manual{tasks: make(map[string]manualTask)}
}

func (m *Manual) After(key string, d time.Duration, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[key] = manualTask{delay: d, fn: fn}
}

func (m *Manual) Cancel(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, key)
}

func (m *Manual) CancelAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = make(map[string]manualTask)
}

func (m *Manual) Pending(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tasks[key]
	return ok
}

// Fire runs and clears the pending work for key, reporting whether there
// was any.
func (m *Manual) Fire(key string) bool {
	m.mu.Lock()
	task, ok := m.tasks[key]
	if ok {
		delete(m.tasks, key)
	}
	m.mu.Unlock()
	if ok {
		task.fn()
	}
	return ok
}

// FireAll runs every pending task once. Tasks scheduled while firing are
// left pending.
func (m *Manual) FireAll() int {
	m.mu.Lock()
	pending := make([]manualTask, 0, len(m.tasks))
	for key, task := range m.tasks {
		pending = append(pending, task)
		delete(m.tasks, key)
	}
	m.mu.Unlock()
	for _, task := range pending {
		task.fn()
	}
	return len(pending)
}

// Delay reports the recorded delay for key's pending work.
func (m *Manual) Delay(key string) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[key]
	return task.delay, ok
}
