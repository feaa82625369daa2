package report

import (
	"errors"
	"strings"
	"testing"

	"isafw/internal/analysis"
)

type recordingSink struct {
	events    []string
	summaries []Summary
	writeErr  error
	closeErr  error
	closed    bool
}

func (s *recordingSink) WriteEvent(ev Event) error {
	s.events = append(s.events, ev.Type)
	return s.writeErr
}

func (s *recordingSink) WriteSummary(sum Summary) error {
	s.events = append(s.events, "summary")
	s.summaries = append(s.summaries, sum)
	return s.writeErr
}

func (s *recordingSink) Close() error {
	s.closed = true
	return s.closeErr
}

func TestManager(t *testing.T) {
	t.Run("writes the run lifecycle to all sinks", func(t *testing.T) {
		a := &recordingSink{}
		b := &recordingSink{}

		mgr := NewManager()
		if err := mgr.AddSink(a); err != nil {
			t.Fatalf("AddSink(a) error: %v", err)
		}
		if err := mgr.AddSink(b); err != nil {
			t.Fatalf("AddSink(b) error: %v", err)
		}

		tg := analysis.Target{Kind: analysis.KindKernel, Path: "/boot/config"}
		if err := mgr.RunStarted(1); err != nil {
			t.Fatalf("RunStarted error: %v", err)
		}
		_ = mgr.TargetStarted(tg)
		_ = mgr.TargetFinished(Summary{Target: tg.ID(), Status: StatusProblems, Problems: 2})
		_ = mgr.RunFinished(1)

		want := "run.started,target.started,summary,run.finished"
		for _, s := range []*recordingSink{a, b} {
			if got := strings.Join(s.events, ","); got != want {
				t.Fatalf("events = %s, want %s", got, want)
			}
		}
		if err := mgr.Close(); err != nil {
			t.Fatalf("Close error: %v", err)
		}
		if !a.closed || !b.closed {
			t.Fatal("expected all sinks to be closed")
		}
	})

	t.Run("tallies finished targets", func(t *testing.T) {
		mgr := NewManager()
		for _, st := range []Status{StatusClean, StatusProblems, StatusFailed, StatusFailed} {
			_ = mgr.TargetFinished(Summary{Status: st})
		}
		got := mgr.Outcome()
		if got != (Outcome{Targets: 4, Failed: 2, Problems: 1}) {
			t.Fatalf("Outcome() = %+v", got)
		}
	})

	t.Run("joins sink errors", func(t *testing.T) {
		mgr := NewManager()
		ok := &recordingSink{}
		_ = mgr.AddSink(&recordingSink{writeErr: errors.New("disk full")})
		_ = mgr.AddSink(ok)
		_ = mgr.AddSink(&recordingSink{closeErr: errors.New("closed twice")})

		err := mgr.TargetFinished(Summary{})
		if err == nil || !strings.Contains(err.Error(), "disk full") {
			t.Fatalf("expected write error, got %v", err)
		}
		if len(ok.summaries) != 1 {
			t.Fatal("a failing sink must not stop the others")
		}
		err = mgr.Close()
		if err == nil || !strings.Contains(err.Error(), "closed twice") {
			t.Fatalf("expected close error, got %v", err)
		}
	})

	t.Run("rejects nil sink", func(t *testing.T) {
		if err := NewManager().AddSink(nil); err == nil {
			t.Fatal("expected error for nil sink")
		}
	})

	t.Run("nil manager", func(t *testing.T) {
		var mgr *Manager
		if err := mgr.RunStarted(0); err == nil {
			t.Fatal("expected error for nil manager")
		}
	})
}
