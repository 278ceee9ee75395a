package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestSpinnerBasic(t *testing.T) {
	s := newSpinner(context.Background(), "Submitting...")
	var buf bytes.Buffer
	s.out = &buf
	s.Start()
	time.Sleep(100 * time.Millisecond)
	s.Stop()

	if s.Cancelled() {
		t.Error("Cancelled() = true after a plain Stop, want false")
	}
	if buf.Len() == 0 {
		t.Error("spinner should have drawn at least one frame")
	}
}

func TestSpinnerWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	s := newSpinner(ctx, "Testing with context...")
	s.out = &bytes.Buffer{}
	s.Start()
	cancel()
	s.Stop()

	if !s.Cancelled() {
		t.Error("Spinner should be cancelled after context cancellation")
	}
}

func TestSpinnerWithTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	s := newSpinner(ctx, "Testing with timeout...")
	s.out = &bytes.Buffer{}
	s.Start()
	<-ctx.Done()
	s.Stop()

	if !s.Cancelled() {
		t.Error("Spinner should be cancelled after context timeout")
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinner(context.Background(), "Testing idempotent stop...")
	s.out = &bytes.Buffer{}
	s.Start()

	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopBeforeStart(t *testing.T) {
	s := newSpinner(context.Background(), "never started")
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop() before Start() blocked")
	}
}

func TestSpinnerRenderElapsed(t *testing.T) {
	s := newSpinner(context.Background(), "Submitting")
	var buf bytes.Buffer
	s.out = &buf

	s.render(0, 200*time.Millisecond)
	if strings.Contains(buf.String(), "(") {
		t.Errorf("short waits should not show elapsed time: %q", buf.String())
	}

	buf.Reset()
	s.render(1, 2500*time.Millisecond)
	if !strings.Contains(buf.String(), "(2s)") {
		t.Errorf("render() = %q, want elapsed suffix (2s)", buf.String())
	}
}
