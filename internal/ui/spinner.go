package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a one-line progress indicator while waiting on the node.
// It writes to stderr so command output on stdout stays pipeable.
type Spinner struct {
	out  io.Writer
	msg  string
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// NewSpinner creates a spinner writing to stderr.
func NewSpinner(msg string) *Spinner {
	return NewSpinnerTo(os.Stderr, msg)
}

// NewSpinnerTo creates a spinner writing to out.
func NewSpinnerTo(out io.Writer, msg string) *Spinner {
	return &Spinner{
		out:  out,
		msg:  msg,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Start begins the animation in a goroutine.
func (s *Spinner) Start() {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()
		for i := 0; ; i++ {
			fmt.Fprintf(s.out, "\r%s  %s", StyleToken.Render(spinnerFrames[i%len(spinnerFrames)]), s.msg)
			select {
			case <-s.stop:
				fmt.Fprintf(s.out, "\r%-70s\r", "")
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop halts the spinner and waits for the line to be cleared. Safe to call twice.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		close(s.stop)
		<-s.done
	})
}

// Run shows the spinner while fn runs.
func Run(msg string, fn func() error) error {
	sp := NewSpinner(msg)
	sp.Start()
	defer sp.Stop()
	return fn()
}
