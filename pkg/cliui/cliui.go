// Package cliui provides terminal helpers (step indicators, key/value lines,
// markdown rendering) shared by driftlens commands.
package cliui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var (
	SuccessMark = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("✓")
	KeyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	ValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	DimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	failMark     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")
	warnMark     = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Render("!")
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
)

const frameInterval = 80 * time.Millisecond

var frames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

// spinner redraws a single status line on w until stop is called.
type spinner struct {
	w   io.Writer
	msg string

	mu      sync.Mutex
	done    chan struct{}
	stopped chan struct{}
}

func startSpinner(w io.Writer, msg string) *spinner {
	s := &spinner{
		w:       w,
		msg:     msg,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *spinner) loop() {
	defer close(s.stopped)

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		s.mu.Lock()
		fmt.Fprintf(s.w, "\r  %s %s", spinnerStyle.Render(frames[frame%len(frames)]), s.msg)
		s.mu.Unlock()

		select {
		case <-s.done:
			return
		case <-ticker.C:
		}
	}
}

// stop halts the animation and overwrites the line with the final mark.
// The spinner goroutine has exited when stop returns.
func (s *spinner) stop(err error, took time.Duration) {
	close(s.done)
	<-s.stopped

	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "\r  %s %s %s\n", mark(err), s.msg, DimStyle.Render("("+elapsed(took)+")"))
}

// Step shows a spinner next to msg while fn runs, then a ✓ or ✗ mark with
// the elapsed time. fn's error is returned unchanged.
func Step(w io.Writer, msg string, fn func() error) error {
	s := startSpinner(w, msg)
	start := time.Now()
	err := fn()
	s.stop(err, time.Since(start))
	return err
}

func mark(err error) string {
	if err != nil {
		return failMark
	}
	return SuccessMark
}

// elapsed renders d as "12ms" below a second and "3.2s" above.
func elapsed(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// KeyValue prints an indented "key: value" line.
func KeyValue(w io.Writer, key string, value any) {
	fmt.Fprintf(w, "  %s %s\n", KeyStyle.Render(key+":"), ValueStyle.Render(fmt.Sprint(value)))
}

// Warn prints an indented warning line.
func Warn(w io.Writer, msg string) {
	fmt.Fprintf(w, "  %s %s\n", warnMark, msg)
}

// RenderMarkdown renders a drift report for the terminal. On failure the raw
// markdown is returned along with the error, so callers can still print it.
func RenderMarkdown(content string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return content, err
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content, err
	}
	return rendered, nil
}
