package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/raphaelgruber/jobwatch/internal/view"
	"github.com/spf13/cobra"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Show the current status of a job",
	Long: `Fetch a job's status once and print it.

Examples:
  jobwatch status 3f2a9c
  jobwatch status 3f2a9c --json`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print the decoded snapshot as JSON")
}

func runStatus(cmd *cobra.Command, args []string) error {
	jobID := args[0]

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	snap, err := apiClient.FetchStatus(ctx, jobID)
	if err != nil {
		return fmt.Errorf("get status: %w", err)
	}

	if statusJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}

	if err := snap.Check(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	page := view.NewPage()
	page.Render(*snap)

	fmt.Printf("Job: %s\n", jobID)
	fmt.Printf("  Status: %s\n", page.Text(view.RegionJobStatus))
	if page.Visible(view.RegionQueue) {
		fmt.Printf("  Position in queue: %s\n", page.Text(view.RegionQueueLength))
	}
	if page.Visible(view.RegionProgress) {
		fmt.Printf("  Progress: %s%%\n", page.Text(view.RegionPercent))
	}
	if page.Visible(view.RegionError) {
		fmt.Printf("  Error: %s\n", page.Text(view.RegionErrorMessage))
	}
	if page.Visible(view.RegionDownload) {
		fmt.Printf("  Download: %s\n", page.Text(view.RegionDownloadLink))
	}
	return nil
}
