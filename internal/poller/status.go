package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/raphaelgruber/jobwatch/internal/metrics"
	"github.com/raphaelgruber/jobwatch/internal/status"
	"github.com/raphaelgruber/jobwatch/internal/view"
)

var errEmptySnapshot = errors.New("fetcher returned no snapshot")

// StatusPoller polls the status endpoint of one job until the job reaches
// a terminal status.
type StatusPoller struct {
	cfg      Config
	fetcher  StatusFetcher
	renderer view.Renderer
	logger   *slog.Logger
	metrics  *metrics.Collector

	mu   sync.RWMutex
	last *status.Snapshot
}

// New creates a status poller. A nil renderer discards snapshots.
func New(cfg Config, fetcher StatusFetcher, renderer view.Renderer, opts ...Option) (*StatusPoller, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	if fetcher == nil {
		return nil, errors.New("poller: fetcher required")
	}
	if renderer == nil {
		renderer = noopRenderer{}
	}

	o := buildOptions(opts)
	return &StatusPoller{
		cfg:      cfg,
		fetcher:  fetcher,
		renderer: renderer,
		logger:   o.logger.With("job_id", cfg.JobID),
		metrics:  o.metrics,
	}, nil
}

// Config returns the effective configuration.
func (p *StatusPoller) Config() Config {
	return p.cfg
}

// Last returns the most recent snapshot, if any was received.
func (p *StatusPoller) Last() (status.Snapshot, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.last == nil {
		return status.Snapshot{}, false
	}
	return *p.last, true
}

// PollOnce performs exactly one fetch and, on success, renders the result.
// A transport failure is logged and returned; nothing is rendered for it.
func (p *StatusPoller) PollOnce(ctx context.Context) (status.Snapshot, error) {
	start := time.Now()
	snap, err := p.fetcher.FetchStatus(ctx, p.cfg.JobID)
	if err == nil && snap == nil {
		err = errEmptySnapshot
	}
	recordFetch(p.metrics, metrics.OpStatusFetch, start, err)
	if err != nil {
		if ctx.Err() == nil {
			logFetchFailure(p.logger, "status fetch failed", err)
		}
		return status.Snapshot{}, err
	}

	if err := snap.Check(); err != nil {
		p.logger.Warn("unrecognised job status", "error", err)
	}

	p.logger.Debug("status received",
		"status", snap.Status,
		"duration_ms", time.Since(start).Milliseconds())

	p.mu.Lock()
	s := *snap
	p.last = &s
	p.mu.Unlock()

	p.renderer.Render(*snap)
	return *snap, nil
}

// Start runs the poll loop in the background.
//
// The loop ends with a nil error on a terminal status (complete or error),
// with ErrTooManyFailures once the failure budget is spent, or with the
// context's error when cancelled or stopped.
func (p *StatusPoller) Start(ctx context.Context) *Task {
	return startTask(ctx, p.run)
}

func (p *StatusPoller) run(ctx context.Context) error {
	retry := newRetryPolicy(p.cfg)
	failures := 0

	for {
		snap, err := p.PollOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		delay := p.cfg.Interval
		if err != nil {
			failures++
			delay = retry.NextBackOff()
			if delay == backoff.Stop {
				p.logger.Error("giving up on status polling", "failures", failures)
				return wrapExhausted(err)
			}
			p.logger.Warn("retrying status fetch",
				"failures", failures,
				"retry_in_ms", delay.Milliseconds())
		} else {
			if failures > 0 {
				p.logger.Info("status fetch recovered", "failures", failures)
			}
			failures = 0
			retry.Reset()

			if snap.Status.Terminal() {
				p.logger.Info("job reached terminal status", "status", snap.Status)
				return nil
			}
		}

		if !sleep(ctx, delay) {
			return ctx.Err()
		}
	}
}
