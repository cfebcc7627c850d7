// Package poller runs the job progress poll loops.
//
// Each loop is sequential: fetch, render, wait, repeat. The wait starts when
// the previous fetch completes, so requests never overlap and no attempt is
// made to hold a fixed wall-clock rate.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/raphaelgruber/jobwatch/internal/client"
	"github.com/raphaelgruber/jobwatch/internal/metrics"
	"github.com/raphaelgruber/jobwatch/internal/status"
	"github.com/raphaelgruber/jobwatch/internal/view"
)

// Defaults applied when Config leaves a field zero.
const (
	DefaultInterval    = time.Second
	DefaultMaxFailures = 5
	DefaultMaxBackoff  = 30 * time.Second
)

// ErrTooManyFailures ends a status loop after MaxFailures consecutive
// transport failures.
var ErrTooManyFailures = errors.New("too many consecutive fetch failures")

// StatusFetcher retrieves one status snapshot.
type StatusFetcher interface {
	FetchStatus(ctx context.Context, jobID string) (*status.Snapshot, error)
}

// PercentFetcher retrieves one raw percentage body.
type PercentFetcher interface {
	FetchPercent(ctx context.Context, jobID string) (string, error)
}

// Config is the immutable runtime config of a poller.
type Config struct {
	JobID    string
	Interval time.Duration

	// MaxFailures is the number of consecutive transport failures after
	// which the status loop gives up. Negative retries forever.
	MaxFailures int
	// MaxBackoff caps the retry delay after a failure.
	MaxBackoff time.Duration
}

func (c Config) withDefaults() (Config, error) {
	if c.JobID == "" {
		return c, errors.New("poller: job id required")
	}
	if c.Interval < 0 {
		return c, errors.New("poller: interval must be >= 0")
	}
	if c.Interval == 0 {
		c.Interval = DefaultInterval
	}
	if c.MaxFailures == 0 {
		c.MaxFailures = DefaultMaxFailures
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = DefaultMaxBackoff
	}
	if c.MaxBackoff < c.Interval {
		c.MaxBackoff = c.Interval
	}
	return c, nil
}

// Option configures a poller.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	metrics *metrics.Collector
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics records fetch timings and failures on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *options) {
		o.metrics = c
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// logFetchFailure logs a failed request with endpoint and status text
// when the error carries them.
// The logger already carries job_id.
func logFetchFailure(logger *slog.Logger, msg string, err error) {
	attrs := []any{"error", err}

	var te *client.TransportError
	if errors.As(err, &te) {
		attrs = append(attrs, "endpoint", te.Endpoint)
		if te.StatusText != "" {
			attrs = append(attrs, "status_text", te.StatusText)
		}
	}
	logger.Error(msg, attrs...)
}

// sleep waits for d or until ctx is done. Reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// newRetryPolicy builds the backoff used between failed status fetches.
func newRetryPolicy(cfg Config) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = cfg.Interval
	exp.MaxInterval = cfg.MaxBackoff
	exp.Multiplier = 2
	exp.RandomizationFactor = 0.2
	exp.MaxElapsedTime = 0

	var b backoff.BackOff = exp
	if cfg.MaxFailures > 0 {
		// the failure that exhausts the budget gets no retry
		b = backoff.WithMaxRetries(exp, uint64(cfg.MaxFailures-1))
	}
	b.Reset()
	return b
}

func recordFetch(c *metrics.Collector, op string, start time.Time, err error) {
	if c == nil {
		return
	}
	if err != nil {
		c.RecordFailure(op)
		return
	}
	c.RecordTiming(op, time.Since(start))
}

// wrapExhausted joins the sentinel with the last failure.
func wrapExhausted(err error) error {
	return fmt.Errorf("%w: %w", ErrTooManyFailures, err)
}

type noopRenderer struct{}

func (noopRenderer) Render(status.Snapshot) {}
func (noopRenderer) RenderPercent(string)   {}

var (
	_ view.Renderer        = noopRenderer{}
	_ view.PercentRenderer = noopRenderer{}
)
