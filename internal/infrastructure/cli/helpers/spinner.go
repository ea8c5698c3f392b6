package helpers

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/doeshing/datatalk/internal/ports"
)

// Spinner displays an animated spinner while a question is in flight.
// It implements ports.LoadingIndicator and can be shown again after Hide.
type Spinner struct {
	frames   []string
	interval time.Duration
	writer   io.Writer
	label    string

	mu       sync.Mutex
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

// NewSpinner creates a new spinner
func NewSpinner(w io.Writer, label string) *Spinner {
	return &Spinner{
		frames:   []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		interval: 80 * time.Millisecond,
		writer:   w,
		label:    label,
	}
}

// Show begins the spinner animation
func (s *Spinner) Show() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stopChan = make(chan struct{})

	stop := s.stopChan
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		idx := 0
		for {
			fmt.Fprintf(s.writer, "\r%s %s", s.frames[idx%len(s.frames)], s.label)
			idx++
			select {
			case <-stop:
				// clear the spinner line
				fmt.Fprintf(s.writer, "\r\033[K")
				return
			case <-ticker.C:
			}
		}
	}()
}

// Hide stops the spinner animation and waits for the line to be cleared.
func (s *Spinner) Hide() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopChan)
	s.mu.Unlock()

	s.wg.Wait()
}

var _ ports.LoadingIndicator = (*Spinner)(nil)
