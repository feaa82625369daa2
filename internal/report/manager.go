package report

import (
	"errors"
	"fmt"
	"sync"

	"isafw/internal/analysis"
)

// Sink receives the lifecycle of one audit run.
type Sink interface {
	WriteEvent(Event) error
	WriteSummary(Summary) error
	Close() error
}

// Outcome tallies the target summaries of a run.
type Outcome struct {
	Targets  int
	Failed   int
	Problems int
}

// Manager fans the lifecycle of one audit run out to its sinks and tallies
// every finished target. Calls are serialized, so all sinks see the same
// order of events.
type Manager struct {
	mu      sync.Mutex
	sinks   []Sink
	outcome Outcome
}

func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) AddSink(s Sink) error {
	if m == nil {
		return fmt.Errorf("report manager is nil")
	}
	if s == nil {
		return fmt.Errorf("sink must not be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sinks = append(m.sinks, s)
	return nil
}

func (m *Manager) RunStarted(targets int) error {
	return m.event(Event{Type: "run.started", Targets: targets})
}

func (m *Manager) TargetStarted(t analysis.Target) error {
	return m.event(Event{Type: "target.started", Target: t.ID()})
}

// TargetFinished records sum and forwards it to every sink.
func (m *Manager) TargetFinished(sum Summary) error {
	if m == nil {
		return fmt.Errorf("report manager is nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.outcome.Targets++
	switch sum.Status {
	case StatusFailed:
		m.outcome.Failed++
	case StatusProblems:
		m.outcome.Problems++
	}
	return m.each("write", func(s Sink) error { return s.WriteSummary(sum) })
}

func (m *Manager) RunFinished(exitCode int) error {
	return m.event(Event{Type: "run.finished", ExitCode: exitCode})
}

// Outcome returns the tally of the targets finished so far.
func (m *Manager) Outcome() Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outcome
}

func (m *Manager) event(ev Event) error {
	if m == nil {
		return fmt.Errorf("report manager is nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.each("write", func(s Sink) error { return s.WriteEvent(ev) })
}

func (m *Manager) Close() error {
	if m == nil {
		return fmt.Errorf("report manager is nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.each("close", Sink.Close)
}

// each calls fn on every sink and joins the failures.
func (m *Manager) each(op string, fn func(Sink) error) error {
	var errs []error
	for _, s := range m.sinks {
		if err := fn(s); err != nil {
			errs = append(errs, fmt.Errorf("%s %T: %w", op, s, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors in report sinks: %w", errors.Join(errs...))
	}
	return nil
}
