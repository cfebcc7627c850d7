package cli

import (
	"context"
	"errors"
	"fmt"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/raphaelgruber/jobwatch/internal/poller"
	"github.com/raphaelgruber/jobwatch/internal/status"
	"github.com/raphaelgruber/jobwatch/internal/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollResult(t *testing.T) {
	transport := fmt.Errorf("%w: connection refused", poller.ErrTooManyFailures)

	tests := []struct {
		name    string
		snap    *status.Snapshot
		err     error
		wantErr string
	}{
		{"complete", &status.Snapshot{Status: status.Complete}, nil, ""},
		{"job error", &status.Snapshot{Status: status.Error, Message: "disk full"}, nil, "job failed: disk full"},
		{"cancelled", &status.Snapshot{Status: status.Processing}, context.Canceled, ""},
		{"gave up", nil, transport, "too many consecutive fetch failures"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := view.NewPage()
			if tt.snap != nil {
				page.Render(*tt.snap)
			}

			err := pollResult(page, tt.err)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPollResultKeepsSentinel(t *testing.T) {
	err := pollResult(view.NewPage(), fmt.Errorf("%w: %w", poller.ErrTooManyFailures, errors.New("boom")))
	assert.ErrorIs(t, err, poller.ErrTooManyFailures)
}

func TestPercentFraction(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"42.5", 0.425},
		{"100", 1},
		{"0", 0},
		{"150", 1},
		{"-3", 0},
		{"n/a", 0},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.InDelta(t, tt.want, percentFraction(tt.in), 1e-9)
		})
	}
}

func TestProgressModelRendersPage(t *testing.T) {
	page := view.NewPage()
	m := newProgressModel("job-1", page)

	assert.Contains(t, m.renderContent(), "Waiting for job status")

	page.Render(status.Snapshot{Status: status.Submitted, Queue: "4"})
	out := m.renderContent()
	assert.Contains(t, out, "[submitted]")
	assert.Contains(t, out, "Position in queue: 4")

	page.Render(status.Snapshot{Status: status.Processing, PC: 12.34})
	out = m.renderContent()
	assert.Contains(t, out, "[processing]")
	assert.Contains(t, out, "12.3%")
	assert.Contains(t, out, view.LabelInProgress)
	assert.NotContains(t, out, "Position in queue")
}

func TestProgressModelPollDone(t *testing.T) {
	page := view.NewPage()
	page.Render(status.Snapshot{Status: status.Error, Message: "out of memory"})

	model, cmd := newProgressModel("job-1", page).Update(pollDoneMsg{})
	require.NotNil(t, cmd)

	m := model.(progressModel)
	assert.True(t, m.done)
	require.Error(t, m.err)
	assert.Contains(t, m.renderContent(), "job failed: out of memory")
}

func TestProgressModelCompleted(t *testing.T) {
	page := view.NewPage()
	page.Render(status.Snapshot{Status: status.Complete})

	model, _ := newProgressModel("job-1", page).Update(pollDoneMsg{})
	m := model.(progressModel)

	assert.NoError(t, m.err)
	out := m.renderContent()
	assert.Contains(t, out, "Completed")
	assert.Contains(t, out, view.LabelFinal)
}

func TestProgressModelQuit(t *testing.T) {
	page := view.NewPage()
	model, cmd := newProgressModel("job-1", page).Update(tea.KeyPressMsg{Code: 'q', Text: "q"})
	require.NotNil(t, cmd)

	m := model.(progressModel)
	assert.True(t, m.quitting)
	assert.Contains(t, m.renderContent(), "Stopped watching job job-1")
}
