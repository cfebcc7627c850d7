package view_test

import (
	"testing"

	"github.com/raphaelgruber/jobwatch/internal/status"
	"github.com/raphaelgruber/jobwatch/internal/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisibilityIsPureFunctionOfStatus(t *testing.T) {
	tests := []struct {
		status status.Status
		want   []view.Region
	}{
		{status.Submitted, []view.Region{view.RegionQueue}},
		{status.Processing, []view.Region{view.RegionDownload, view.RegionProgress}},
		{status.Error, []view.Region{view.RegionError}},
		{status.Complete, []view.Region{view.RegionDownload}},
	}

	// Each status must produce the same container set no matter what was
	// rendered before it.
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			for _, prior := range tests {
				page := view.NewPage()
				page.Render(status.Snapshot{Status: prior.status, Queue: "3", PC: 10, Message: "x"})
				page.Render(status.Snapshot{Status: tt.status})
				assert.Equal(t, tt.want, page.VisibleContainers(), "after %s", prior.status)
			}
		})
	}
}

func TestVisibilityUnknownStatus(t *testing.T) {
	vis, ok := view.Visibility("paused")
	assert.False(t, ok)
	assert.Nil(t, vis)

	page := view.NewPage()
	page.Render(status.Snapshot{Status: status.Submitted, Queue: "2"})
	page.Render(status.Snapshot{Status: "paused"})

	assert.Equal(t, "paused", page.Text(view.RegionJobStatus))
	assert.Equal(t, []view.Region{view.RegionQueue}, page.VisibleContainers(), "visibility must be untouched")
}

func TestRenderSubmitted(t *testing.T) {
	page := view.NewPage()
	page.Render(status.Snapshot{Status: status.Submitted, Queue: "5"})

	assert.Equal(t, "5", page.Text(view.RegionQueueLength))
	assert.True(t, page.Visible(view.RegionQueueNotify))
	assert.True(t, page.Visible(view.RegionQueue))
	assert.False(t, page.Visible(view.RegionProgress))
	assert.False(t, page.Visible(view.RegionDownload))
	assert.False(t, page.Visible(view.RegionError))
	assert.Equal(t, "submitted", page.Text(view.RegionJobStatus))
}

func TestRenderProcessing(t *testing.T) {
	page := view.NewPage()
	page.Render(status.Snapshot{Status: status.Processing, PC: 42.37})

	assert.Equal(t, "42.4", page.Text(view.RegionPercent))
	assert.Equal(t, view.LabelInProgress, page.Text(view.RegionDownloadLink))
	assert.True(t, page.Visible(view.RegionProgress))
	assert.True(t, page.Visible(view.RegionDownload))
	assert.False(t, page.Visible(view.RegionQueue))
	assert.False(t, page.Visible(view.RegionError))
}

func TestRenderError(t *testing.T) {
	page := view.NewPage()
	page.Render(status.Snapshot{Status: status.Processing, PC: 50})
	page.Render(status.Snapshot{Status: status.Error, Message: "disk full"})

	assert.Equal(t, "disk full", page.Text(view.RegionErrorMessage))
	assert.True(t, page.Visible(view.RegionError))
	assert.False(t, page.Visible(view.RegionQueue))
	assert.False(t, page.Visible(view.RegionProgress))
	assert.False(t, page.Visible(view.RegionDownload))
}

func TestRenderCompleteUsesFinalLabel(t *testing.T) {
	page := view.NewPage()
	page.Render(status.Snapshot{Status: status.Processing, PC: 99.99})
	require.Equal(t, view.LabelInProgress, page.Text(view.RegionDownloadLink))

	page.Render(status.Snapshot{Status: status.Complete})

	assert.Equal(t, view.LabelFinal, page.Text(view.RegionDownloadLink))
	assert.NotEqual(t, view.LabelInProgress, page.Text(view.RegionDownloadLink))
	assert.Equal(t, []view.Region{view.RegionDownload}, page.VisibleContainers())
}

func TestRenderPercentWritesRawBody(t *testing.T) {
	page := view.NewPage()
	for _, body := range []string{"12.5", "250", "not a number", ""} {
		page.RenderPercent(body)
		assert.Equal(t, body, page.Text(view.RegionPercent))
	}
}

func TestPageImplementsRenderers(t *testing.T) {
	var _ view.Renderer = (*view.Page)(nil)
	var _ view.PercentRenderer = (*view.Page)(nil)
}
