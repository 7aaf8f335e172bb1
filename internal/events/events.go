// Package events carries run and stage lifecycle notifications over a small
// synchronous bus. Consumers inside the process (history store, metrics,
// report) subscribe directly; an optional NATS publisher forwards every event
// to the releasekit.run.<runID>.<name> subject space for external observers.
package events

import (
	"sync"
	"time"
)

// Event is a run-scoped notification.
type Event interface {
	Name() string
	Run() string
}

// RunStarted is published once, after the run identity is fixed and before
// any unit runs.
type RunStarted struct {
	RunID   string    `json:"run_id"`
	Branch  string    `json:"branch"`
	Channel string    `json:"channel"`
	Version string    `json:"version"`
	Units   int       `json:"units"`
	At      time.Time `json:"at"`
}

func (e RunStarted) Name() string { return "run.started" }
func (e RunStarted) Run() string  { return e.RunID }

// StageFinished is published after every executed stage, successful or not.
// Skipped stages do not publish.
type StageFinished struct {
	RunID     string        `json:"run_id"`
	Unit      string        `json:"unit"`
	Stage     string        `json:"stage"`
	Succeeded bool          `json:"succeeded"`
	ExitCode  int           `json:"exit_code"`
	Duration  time.Duration `json:"duration"`
}

func (e StageFinished) Name() string { return "stage.finished" }
func (e StageFinished) Run() string  { return e.RunID }

// UnitFinished is published when a unit reaches a terminal state.
type UnitFinished struct {
	RunID string `json:"run_id"`
	Unit  string `json:"unit"`
	State string `json:"state"` // done | failed
}

func (e UnitFinished) Name() string { return "unit.finished" }
func (e UnitFinished) Run() string  { return e.RunID }

// RunCompleted is published once, after fan-out.
type RunCompleted struct {
	RunID          string        `json:"run_id"`
	ExitCode       int           `json:"exit_code"`
	FailedUnits    int           `json:"failed_units"`
	FanOutFailures int           `json:"fanout_failures"`
	Duration       time.Duration `json:"duration"`
}

func (e RunCompleted) Name() string { return "run.completed" }
func (e RunCompleted) Run() string  { return e.RunID }

// Handler processes an Event; return error to signal failure.
type Handler func(Event) error

// Bus is a simple synchronous pub/sub event bus.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]Handler
	all         []Handler
}

// NewBus returns an empty bus.
func NewBus() *Bus { return &Bus{subscribers: map[string][]Handler{}} }

// Subscribe registers a handler for a given event name.
func (b *Bus) Subscribe(event string, h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	b.subscribers[event] = append(b.subscribers[event], h)
	b.mu.Unlock()
}

// SubscribeAll registers a handler for every event.
func (b *Bus) SubscribeAll(h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	b.all = append(b.all, h)
	b.mu.Unlock()
}

// Publish delivers an event to all handlers synchronously. The first handler
// error stops delivery and is returned.
func (b *Bus) Publish(e Event) error {
	b.mu.RLock()
	hs := append([]Handler(nil), b.all...)
	hs = append(hs, b.subscribers[e.Name()]...)
	b.mu.RUnlock()

	for _, h := range hs {
		if err := h(e); err != nil {
			return err
		}
	}
	return nil
}
