package submit

import (
	"sync"
	"time"
)

// Tone is the severity of a notice.
type Tone string

const (
	ToneInfo    Tone = "info"
	ToneWarn    Tone = "warn"
	ToneSuccess Tone = "success"
	ToneError   Tone = "error"
)

// DefaultNoticeDuration is how long a notice stays visible.
const DefaultNoticeDuration = 3600 * time.Millisecond

// Notice is a transient user-facing message.
type Notice struct {
	Text string `json:"text"`
	Tone Tone   `json:"tone"`
}

// IsZero reports whether n carries no message.
func (n Notice) IsZero() bool { return n.Text == "" }

// Notifier holds the current notice and expires it after Duration. Showing
// a new notice replaces the old one and restarts the timer.
type Notifier struct {
	mu       sync.Mutex
	current  Notice
	timer    *time.Timer
	gen      uint64
	duration time.Duration
	onChange func(Notice)
}

// NewNotifier creates a notifier. onChange, if not nil, is called with every
// new notice and with the zero Notice when one expires.
func NewNotifier(d time.Duration, onChange func(Notice)) *Notifier {
	if d <= 0 {
		d = DefaultNoticeDuration
	}
	return &Notifier{duration: d, onChange: onChange}
}

// Show displays n.
func (nf *Notifier) Show(n Notice) {
	nf.mu.Lock()
	if nf.timer != nil {
		nf.timer.Stop()
	}
	nf.gen++
	gen := nf.gen
	nf.current = n
	nf.timer = time.AfterFunc(nf.duration, func() { nf.expire(gen) })
	cb := nf.onChange
	nf.mu.Unlock()

	if cb != nil {
		cb(n)
	}
}

func (nf *Notifier) expire(gen uint64) {
	nf.mu.Lock()
	if gen != nf.gen {
		nf.mu.Unlock()
		return
	}
	nf.current = Notice{}
	nf.timer = nil
	cb := nf.onChange
	nf.mu.Unlock()

	if cb != nil {
		cb(Notice{})
	}
}

// Current returns the visible notice, or the zero Notice.
func (nf *Notifier) Current() Notice {
	nf.mu.Lock()
	defer nf.mu.Unlock()
	return nf.current
}

// Stop cancels a pending expiry.
func (nf *Notifier) Stop() {
	nf.mu.Lock()
	defer nf.mu.Unlock()
	if nf.timer != nil {
		nf.timer.Stop()
		nf.timer = nil
	}
}
