package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/raphaelgruber/jobwatch/internal/metrics"
	"github.com/raphaelgruber/jobwatch/internal/status"
	"github.com/raphaelgruber/jobwatch/internal/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribePage(t *testing.T) {
	tests := []struct {
		name string
		snap status.Snapshot
		want string
	}{
		{"submitted", status.Snapshot{Status: status.Submitted, Queue: "5"}, "[submitted] Position in queue: 5"},
		{"queue text", status.Snapshot{Status: status.Submitted, Queue: "11 or more"}, "[submitted] Position in queue: 11 or more"},
		{"processing", status.Snapshot{Status: status.Processing, PC: 42.46}, "[processing] 42.5% (Download current progress)"},
		{"error", status.Snapshot{Status: status.Error, Message: "disk full"}, "[error] disk full"},
		{"complete", status.Snapshot{Status: status.Complete}, "[complete] (Download final result)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := view.NewPage()
			page.Render(tt.snap)
			assert.Equal(t, tt.want, describePage(page))
		})
	}
}

func TestLineRendererPrintsEverySnapshot(t *testing.T) {
	var out bytes.Buffer
	page := view.NewPage()
	r := newLineRenderer(&out, page)

	r.Render(status.Snapshot{Status: status.Submitted, Queue: "2"})
	r.Render(status.Snapshot{Status: status.Processing, PC: 10})
	r.Render(status.Snapshot{Status: status.Complete})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "[submitted] Position in queue: 2", lines[0])
	assert.Equal(t, "[processing] 10% (Download current progress)", lines[1])
	assert.Equal(t, "[complete] (Download final result)", lines[2])
	assert.Equal(t, "complete", page.Text(view.RegionJobStatus))
}

func TestPercentLineRenderer(t *testing.T) {
	var out bytes.Buffer
	page := view.NewPage()
	r := percentLineRenderer{out: &out, page: page}

	r.RenderPercent("37.5")
	r.RenderPercent("n/a")

	assert.Equal(t, "37.5%\nn/a%\n", out.String())
	assert.Equal(t, "n/a", page.Text(view.RegionPercent))
}

func TestPrintStats(t *testing.T) {
	c := metrics.NewCollector()
	c.RecordTiming(metrics.OpStatusFetch, 20*time.Millisecond)
	c.RecordTiming(metrics.OpStatusFetch, 40*time.Millisecond)
	c.RecordFailure(metrics.OpStatusFetch)

	var out bytes.Buffer
	printStats(&out, c.Snapshot())

	s := out.String()
	assert.Contains(t, s, "Poll Statistics")
	assert.Contains(t, s, "Status fetches:")
	assert.Contains(t, s, "Calls: 2, Failures: 1")
	assert.Contains(t, s, "Avg: 30.0ms, Min: 20ms, Max: 40ms")
	assert.NotContains(t, s, "Percent fetches:")
}
