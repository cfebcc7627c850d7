package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/raphaelgruber/jobwatch/internal/metrics"
	"github.com/raphaelgruber/jobwatch/internal/poller"
	"github.com/raphaelgruber/jobwatch/internal/view"
	"github.com/spf13/cobra"
)

var percentStats bool

var percentCmd = &cobra.Command{
	Use:   "percent <job-id>",
	Short: "Print a job's progress percentage until interrupted",
	Long: `Poll a job's percentage endpoint once per interval and print each value.

The percentage endpoint carries no status, so this command never stops on
its own. Press Ctrl+C to stop.

Examples:
  jobwatch percent 3f2a9c
  jobwatch percent 3f2a9c --interval 2s
  jobwatch percent 3f2a9c --stats`,
	Args: cobra.ExactArgs(1),
	RunE: runPercent,
}

func init() {
	percentCmd.Flags().BoolVar(&percentStats, "stats", false, "print fetch statistics when done")
}

func runPercent(cmd *cobra.Command, args []string) error {
	jobID := args[0]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, cleanup := newLogger(os.Stderr)
	defer cleanup()

	collector := metrics.NewCollector()
	task, err := startPercent(ctx, apiClient, jobID, os.Stdout, logger, collector)
	if err != nil {
		return err
	}

	logger.Info("polling percentage", "job_id", jobID, "url", apiClient.PercentURL(jobID))
	err = task.Wait()

	if percentStats {
		fmt.Println()
		printStats(os.Stdout, collector.Snapshot())
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// startPercent starts a percentage poller printing each value to out.
func startPercent(ctx context.Context, fetcher poller.PercentFetcher, jobID string, out io.Writer, logger *slog.Logger, collector *metrics.Collector) (*poller.Task, error) {
	page := view.NewPage()
	p, err := poller.NewPercent(pollerConfig(jobID), fetcher,
		percentLineRenderer{out: out, page: page},
		poller.WithLogger(logger),
		poller.WithMetrics(collector),
	)
	if err != nil {
		return nil, err
	}
	return p.Start(ctx), nil
}
