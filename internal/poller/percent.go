package poller

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/raphaelgruber/jobwatch/internal/metrics"
	"github.com/raphaelgruber/jobwatch/internal/view"
)

// PercentPoller polls the plain-text percentage endpoint on a fixed
// interval. It has no terminal condition: any body, including out-of-range
// or non-numeric ones, is rendered as-is and the loop continues. Failures
// are logged and the next poll is still scheduled. Only cancellation ends it.
type PercentPoller struct {
	cfg      Config
	fetcher  PercentFetcher
	renderer view.PercentRenderer
	logger   *slog.Logger
	metrics  *metrics.Collector
}

// NewPercent creates a percentage poller. MaxFailures and MaxBackoff are
// ignored. A nil renderer discards bodies.
func NewPercent(cfg Config, fetcher PercentFetcher, renderer view.PercentRenderer, opts ...Option) (*PercentPoller, error) {
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
	return &PercentPoller{
		cfg:      cfg,
		fetcher:  fetcher,
		renderer: renderer,
		logger:   o.logger.With("job_id", cfg.JobID),
		metrics:  o.metrics,
	}, nil
}

// PollOnce fetches and renders one percentage body.
func (p *PercentPoller) PollOnce(ctx context.Context) (string, error) {
	start := time.Now()
	body, err := p.fetcher.FetchPercent(ctx, p.cfg.JobID)
	recordFetch(p.metrics, metrics.OpPercentFetch, start, err)
	if err != nil {
		if ctx.Err() == nil {
			logFetchFailure(p.logger, "percent fetch failed", err)
		}
		return "", err
	}

	p.renderer.RenderPercent(body)
	return body, nil
}

// Start runs the poll loop in the background until ctx is cancelled or the
// task is stopped. The task's error is always the context's error.
func (p *PercentPoller) Start(ctx context.Context) *Task {
	return startTask(ctx, p.run)
}

func (p *PercentPoller) run(ctx context.Context) error {
	for {
		_, _ = p.PollOnce(ctx)
		if !sleep(ctx, p.cfg.Interval) {
			return ctx.Err()
		}
	}
}
