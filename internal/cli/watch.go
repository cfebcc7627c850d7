package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/raphaelgruber/jobwatch/internal/metrics"
	"github.com/raphaelgruber/jobwatch/internal/poller"
	"github.com/raphaelgruber/jobwatch/internal/view"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	watchPlain bool
	watchStats bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <job-id>",
	Short: "Follow a job until it completes or fails",
	Long: `Poll a job's status once per interval until it reaches complete or error.

On a terminal the progress is shown as a live display; otherwise one line is
printed per poll. Transient request failures are retried with backoff; the
command gives up after the configured number of consecutive failures.

Press Ctrl+C to stop watching. The job keeps running on the server.

Examples:
  jobwatch watch 3f2a9c
  jobwatch watch 3f2a9c --plain
  jobwatch watch 3f2a9c --interval 5s --stats
  jobwatch watch 3f2a9c --server https://jobs.example.org`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchPlain, "plain", false, "print one line per poll instead of the live display")
	watchCmd.Flags().BoolVar(&watchStats, "stats", false, "print fetch statistics when done")
}

func runWatch(cmd *cobra.Command, args []string) error {
	jobID := args[0]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	interactive := !watchPlain && term.IsTerminal(int(os.Stdout.Fd()))

	// The live display owns the screen, so logs go to the file only.
	var console io.Writer = os.Stderr
	if interactive {
		console = nil
	}
	logger, cleanup := newLogger(console)
	defer cleanup()

	collector := metrics.NewCollector()
	page := view.NewPage()

	start := func(r view.Renderer) (*poller.Task, error) {
		p, err := poller.New(pollerConfig(jobID), apiClient, r,
			poller.WithLogger(logger),
			poller.WithMetrics(collector),
		)
		if err != nil {
			return nil, err
		}
		logger.Info("watching job", "job_id", jobID, "url", apiClient.StatusURL(jobID))
		return p.Start(ctx), nil
	}

	var err error
	if interactive {
		err = runWatchUI(ctx, jobID, page, start)
	} else {
		err = runWatchPlain(page, start)
	}

	if watchStats {
		fmt.Println()
		printStats(os.Stdout, collector.Snapshot())
	}
	return err
}

// runWatchPlain prints a line per snapshot until the poll loop exits.
func runWatchPlain(page *view.Page, start func(view.Renderer) (*poller.Task, error)) error {
	task, err := start(newLineRenderer(os.Stdout, page))
	if err != nil {
		return err
	}
	return pollResult(page, task.Wait())
}
