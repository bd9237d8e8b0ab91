// Package ui provides terminal UI helpers.
package ui

import (
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

// Spinner wraps a terminal spinner shown while waiting for the first token.
// A nil *Spinner is valid and does nothing, which is how --raw output
// disables decoration.
type Spinner struct {
	s *spinner.Spinner
	w io.Writer
}

// NewSpinner creates a spinner on stderr with the given message.
func NewSpinner(msg string) *Spinner {
	return newSpinner(os.Stderr, msg)
}

func newSpinner(w io.Writer, msg string) *Spinner {
	s := spinner.New(spinner.CharSets[14], 80*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = "  " + msg
	s.Color("cyan")
	return &Spinner{s: s, w: w}
}

// Start begins the spinner animation.
func (sp *Spinner) Start() {
	if sp == nil {
		return
	}
	sp.s.Start()
}

// Stop halts the spinner and clears the line. Stopping twice is harmless.
func (sp *Spinner) Stop() {
	if sp == nil {
		return
	}
	sp.s.Stop()
}

// Success stops the spinner and prints a green check.
func (sp *Spinner) Success(msg string) {
	sp.Stop()
	color.New(color.FgGreen).Fprintf(sp.writer(), "  ✓ %s\n", msg)
}

// Fail stops the spinner and prints a red cross.
func (sp *Spinner) Fail(msg string) {
	sp.Stop()
	color.New(color.FgRed).Fprintf(sp.writer(), "  ✗ %s\n", msg)
}

// Note stops the spinner and prints a dim remark, e.g. after a cancel.
func (sp *Spinner) Note(msg string) {
	sp.Stop()
	color.New(color.FgHiBlack).Fprintf(sp.writer(), "  %s\n", msg)
}

func (sp *Spinner) writer() io.Writer {
	if sp == nil || sp.w == nil {
		return os.Stderr
	}
	return sp.w
}
