package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/raphaelgruber/jobwatch/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedPercent string

func (f fixedPercent) FetchPercent(context.Context, string) (string, error) {
	return string(f), nil
}

func TestStartPercentRecordsStats(t *testing.T) {
	var out bytes.Buffer
	collector := metrics.NewCollector()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	task, err := startPercent(context.Background(), fixedPercent("61.5"), "job-1", &out, logger, collector)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		op := collector.Snapshot().PercentFetch
		return op != nil && op.Count >= 1
	}, 2*time.Second, time.Millisecond)
	task.Stop()

	assert.Contains(t, out.String(), "61.5%\n")

	var stats bytes.Buffer
	printStats(&stats, collector.Snapshot())
	assert.Contains(t, stats.String(), "Percent fetches:")
	assert.NotContains(t, stats.String(), "Status fetches:")
}

func TestStartPercentRequiresJobID(t *testing.T) {
	_, err := startPercent(context.Background(), fixedPercent("1"), "", io.Discard, slog.Default(), nil)
	assert.Error(t, err)
}
