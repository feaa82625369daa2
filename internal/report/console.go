package report

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
)

// ConsoleSink prints one line per target as it finishes and a summary table
// when closed.
type ConsoleSink struct {
	writer    io.Writer
	mu        sync.Mutex
	summaries []Summary
}

func NewConsoleSink(w io.Writer) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleSink{writer: w}
}

var (
	cleanColor    = color.New(color.FgGreen, color.Bold)
	problemsColor = color.New(color.FgYellow, color.Bold)
	failedColor   = color.New(color.FgRed, color.Bold)
)

func statusColor(s Status) *color.Color {
	switch s {
	case StatusClean:
		return cleanColor
	case StatusProblems:
		return problemsColor
	}
	return failedColor
}

// WriteEvent ignores lifecycle events; the console only shows targets.
func (s *ConsoleSink) WriteEvent(Event) error { return nil }

func (s *ConsoleSink) WriteSummary(sum Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries = append(s.summaries, sum)

	if _, err := statusColor(sum.Status).Fprintf(s.writer, "[%s]", sum.Status); err != nil {
		return err
	}
	if sum.Status == StatusFailed {
		_, err := fmt.Fprintf(s.writer, " %s: %s\n", sum.Target, sum.Error)
		return err
	}
	if _, err := fmt.Fprintf(s.writer, " %s: %d facts, %d problems", sum.Target, sum.Facts, sum.Problems); err != nil {
		return err
	}
	if sum.Skipped > 0 {
		if _, err := fmt.Fprintf(s.writer, ", %d skipped", sum.Skipped); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(s.writer); err != nil {
		return err
	}
	for _, p := range []string{sum.Files.Full, sum.Files.Problems} {
		if p == "" {
			continue
		}
		if _, err := fmt.Fprintf(s.writer, "  %s\n", p); err != nil {
			return err
		}
	}
	return nil
}

func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.summaries) < 2 {
		return nil
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(s.writer)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Target", "Kind", "Facts", "Problems", "Skipped", "Status"})
	for _, sum := range s.summaries {
		tw.AppendRow(table.Row{
			sum.Target,
			string(sum.Kind),
			strconv.Itoa(sum.Facts),
			strconv.Itoa(sum.Problems),
			strconv.Itoa(sum.Skipped),
			statusColor(sum.Status).Sprint(string(sum.Status)),
		})
	}
	tw.Render()
	return nil
}
