package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/raphaelgruber/jobwatch/internal/metrics"
	"github.com/raphaelgruber/jobwatch/internal/status"
	"github.com/raphaelgruber/jobwatch/internal/view"
)

// describePage formats the visible regions of a page as one line.
func describePage(page *view.Page) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s]", page.Text(view.RegionJobStatus))

	if page.Visible(view.RegionQueue) {
		fmt.Fprintf(&b, " Position in queue: %s", page.Text(view.RegionQueueLength))
	}
	if page.Visible(view.RegionProgress) {
		fmt.Fprintf(&b, " %s%%", page.Text(view.RegionPercent))
	}
	if page.Visible(view.RegionError) {
		fmt.Fprintf(&b, " %s", page.Text(view.RegionErrorMessage))
	}
	if page.Visible(view.RegionDownload) {
		fmt.Fprintf(&b, " (%s)", page.Text(view.RegionDownloadLink))
	}
	return b.String()
}

// lineRenderer prints one line per snapshot for non-interactive output.
type lineRenderer struct {
	mu   sync.Mutex
	out  io.Writer
	page *view.Page
}

func newLineRenderer(out io.Writer, page *view.Page) *lineRenderer {
	return &lineRenderer{out: out, page: page}
}

func (r *lineRenderer) Render(snap status.Snapshot) {
	r.page.Render(snap)

	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, describePage(r.page))
}

// percentLineRenderer prints each percentage body as it arrives.
type percentLineRenderer struct {
	out  io.Writer
	page *view.Page
}

func (r percentLineRenderer) RenderPercent(body string) {
	r.page.RenderPercent(body)
	fmt.Fprintf(r.out, "%s%%\n", r.page.Text(view.RegionPercent))
}

// printStats prints fetch statistics for a watch or percent session.
func printStats(out io.Writer, stats metrics.Snapshot) {
	fmt.Fprintln(out, "Poll Statistics")
	fmt.Fprintln(out, "═══════════════")
	fmt.Fprintf(out, "Uptime: %.1fs\n", stats.UptimeSeconds)

	printOpStats(out, "Status fetches", stats.StatusFetch)
	printOpStats(out, "Percent fetches", stats.PercentFetch)
}

func printOpStats(out io.Writer, name string, op *metrics.OperationSnapshot) {
	if op == nil {
		return
	}
	fmt.Fprintf(out, "\n%s:\n", name)
	fmt.Fprintf(out, "  Calls: %d, Failures: %d\n", op.Count, op.Failures)
	if op.Count > 0 {
		fmt.Fprintf(out, "  Avg: %.1fms, Min: %dms, Max: %dms\n", op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
	}
}
