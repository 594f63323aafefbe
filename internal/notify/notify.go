// Package notify reports export progress and outcomes to the user.
package notify

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Sink receives progress and outcome messages from an export job.
type Sink interface {
	Progress(stage string, done, total int)
	Success(msg string)
	Error(err error)
}

// =============================================================================
// TERMINAL SINK
// =============================================================================

// Terminal writes a progress bar and coloured outcome lines.
type Terminal struct {
	mu    sync.Mutex
	out   io.Writer
	width int
	open  bool // a progress line is being redrawn
}

// NewTerminal creates a sink writing to out. The progress bar is sized to the
// terminal when out is one, otherwise to 80 columns.
func NewTerminal(out io.Writer) *Terminal {
	width := 80
	if f, ok := out.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			width = w
		}
	}
	return &Terminal{out: out, width: width}
}

func (t *Terminal) Progress(stage string, done, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.out, "\r%s", progressLine(stage, done, total, t.width))
	t.open = true
	if done >= total {
		fmt.Fprintln(t.out)
		t.open = false
	}
}

func (t *Terminal) Success(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.breakLine()
	fmt.Fprintln(t.out, color.GreenString("✓ ")+msg)
}

func (t *Terminal) Error(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.breakLine()
	fmt.Fprintln(t.out, color.RedString("✗ ")+err.Error())
}

func (t *Terminal) breakLine() {
	if t.open {
		fmt.Fprintln(t.out)
		t.open = false
	}
}

// progressLine formats "stage [#####     ] done/total" to fit width columns.
func progressLine(stage string, done, total, width int) string {
	if total <= 0 {
		total = 1
	}
	if done > total {
		done = total
	}
	counter := fmt.Sprintf(" %d/%d", done, total)

	bar := width - len(stage) - len(counter) - 4
	if bar > 40 {
		bar = 40
	}
	if bar < 10 {
		bar = 10
	}
	filled := bar * done / total

	return color.CyanString(stage) + " [" +
		strings.Repeat("#", filled) + strings.Repeat(" ", bar-filled) + "]" + counter
}

// =============================================================================
// LOG SINK
// =============================================================================

// Log records job events in the structured log.
type Log struct {
	l *slog.Logger
}

func NewLog(l *slog.Logger) *Log {
	return &Log{l: l}
}

func (s *Log) Progress(stage string, done, total int) {
	s.l.Debug("export.progress", "stage", stage, "done", done, "total", total)
}

func (s *Log) Success(msg string) {
	s.l.Info("export.succeeded", "message", msg)
}

func (s *Log) Error(err error) {
	s.l.Error("export.failed", "error", err)
}

// =============================================================================
// FAN-OUT
// =============================================================================

type multi []Sink

// Multi delivers every message to each sink in order.
func Multi(sinks ...Sink) Sink {
	return multi(sinks)
}

func (m multi) Progress(stage string, done, total int) {
	for _, s := range m {
		s.Progress(stage, done, total)
	}
}

func (m multi) Success(msg string) {
	for _, s := range m {
		s.Success(msg)
	}
}

func (m multi) Error(err error) {
	for _, s := range m {
		s.Error(err)
	}
}

// Nop discards everything.
type Nop struct{}

func (Nop) Progress(string, int, int) {}
func (Nop) Success(string)            {}
func (Nop) Error(error)               {}
