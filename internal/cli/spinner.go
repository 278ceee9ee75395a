package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const (
	spinnerInterval = 80 * time.Millisecond
	// Elapsed time is appended once a request is slower than this.
	spinnerShowElapsed = time.Second
)

// Spinner shows progress on stderr while a submission is in flight. It stops
// on its own when the parent context ends.
type Spinner struct {
	message string
	out     io.Writer
	parent  context.Context
	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}

	mu      sync.Mutex
	started bool
	width   int
	once    sync.Once
}

func newSpinner(ctx context.Context, message string) *Spinner {
	spinnerCtx, cancel := context.WithCancel(ctx)
	return &Spinner{
		message: message,
		out:     os.Stderr,
		parent:  ctx,
		ctx:     spinnerCtx,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
}

// Start begins the animation.
func (s *Spinner) Start() {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()

	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()
		start := time.Now()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-ticker.C:
				s.render(i, time.Since(start))
			}
		}
	}()
}

// Stop ends the animation and clears the line. It is safe to call more than
// once and before Start.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		s.cancel()
		s.mu.Lock()
		started := s.started
		s.mu.Unlock()
		if started {
			<-s.stopped
		}
	})
}

func (s *Spinner) render(frame int, elapsed time.Duration) {
	line := s.message
	if elapsed >= spinnerShowElapsed {
		line += fmt.Sprintf(" (%s)", elapsed.Truncate(time.Second))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, "\r%s %s", styleIconSpinner.Render(spinnerFrames[frame%len(spinnerFrames)]), StyleDim.Render(line))
	s.width = max(s.width, len(line)+2)
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", max(s.width, len(s.message)+2)))
}

// Cancelled reports whether the parent context ended before Stop.
func (s *Spinner) Cancelled() bool {
	return s.parent.Err() != nil
}
