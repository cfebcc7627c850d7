// Package cli provides the command-line interface for jobwatch.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/raphaelgruber/jobwatch/internal/client"
	"github.com/raphaelgruber/jobwatch/internal/config"
	"github.com/raphaelgruber/jobwatch/internal/poller"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose      bool
	serverURL    string
	pollInterval time.Duration
	useJSONP     bool

	// Global config and progress client
	cfg       config.Config
	apiClient *client.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "jobwatch",
	Short: "Watch the progress of a submitted job",
	Long: `Jobwatch follows a job on a progress server. It polls the job's status
endpoint once per second and shows the queue position, the progress
percentage, the error message or the download link, depending on where the
job is, until the job completes or fails.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip client setup for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		// Load config, flags win over environment
		cfg = config.Load()
		if cmd.Flags().Changed("server") {
			cfg.ServerURL = serverURL
		}
		if cmd.Flags().Changed("interval") {
			if pollInterval <= 0 {
				return fmt.Errorf("interval must be > 0, got %s", pollInterval)
			}
			cfg.PollInterval = pollInterval
		}
		if cmd.Flags().Changed("jsonp") {
			cfg.JSONP = useJSONP
		}
		if verbose {
			cfg.LogLevel = slog.LevelDebug
		}

		apiClient = client.New(cfg.ServerURL,
			client.WithTimeout(cfg.ClientTimeout),
			client.WithJSONP(cfg.JSONP),
		)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "", "progress server base URL (default $JOBWATCH_SERVER_URL)")
	rootCmd.PersistentFlags().DurationVarP(&pollInterval, "interval", "i", time.Second, "delay between polls")
	rootCmd.PersistentFlags().BoolVar(&useJSONP, "jsonp", false, "request callback-wrapped responses")

	// Add subcommands
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(percentCmd)
	rootCmd.AddCommand(facetsCmd)
}

// newLogger builds the process logger. Pass a nil console when the
// terminal UI owns the screen so logs go to the file only.
func newLogger(console io.Writer) (*slog.Logger, func() error) {
	return config.SetupLogger(console, cfg.LogFile, cfg.LogLevel)
}

// pollerConfig builds the poll loop configuration for a job.
func pollerConfig(jobID string) poller.Config {
	return poller.Config{
		JobID:       jobID,
		Interval:    cfg.PollInterval,
		MaxFailures: cfg.MaxFailures,
		MaxBackoff:  cfg.MaxBackoff,
	}
}
