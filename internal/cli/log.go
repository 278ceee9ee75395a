package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns the CLI logger. Lines are prefixed with the app name and
// carry a short wall-clock stamp.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Prefix:          appName,
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly + ".00",
	})
}

// progress times a command and its phases. Phase timings are logged at
// debug level; the total goes out at info.
type progress struct {
	logger *log.Logger
	start  time.Time
	last   time.Time
	phases []any
}

func newProgress(l *log.Logger) *progress {
	now := time.Now()
	return &progress{logger: l, start: now, last: now}
}

// lap closes the current phase under name.
func (p *progress) lap(name string) {
	now := time.Now()
	p.phases = append(p.phases, name, now.Sub(p.last).Round(time.Microsecond))
	p.last = now
}

// done logs msg with the total elapsed time, e.g. "Rendered svg (12ms)".
func (p *progress) done(msg string) {
	if len(p.phases) > 0 {
		p.logger.Debug("Phases", p.phases...)
	}
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type loggerCtxKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, l)
}

// loggerFromContext falls back to log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*log.Logger); ok && l != nil {
		return l
	}
	return log.Default()
}
