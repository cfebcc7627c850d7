package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/jobwatch/internal/poller"
	"github.com/raphaelgruber/jobwatch/internal/status"
	"github.com/raphaelgruber/jobwatch/internal/view"
)

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status     lipgloss.Color
	Success    lipgloss.Color
	Error      lipgloss.Color
	Hint       lipgloss.Color
	ProgressBg lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:     lipgloss.Color("#5FAFD7"), // light blue
	Success:    lipgloss.Color("#00D787"), // green
	Error:      lipgloss.Color("#FF005F"), // red
	Hint:       lipgloss.Color("#6C6C6C"), // dim gray
	ProgressBg: lipgloss.Color("#3A3A3A"), // dark gray
}

// Style functions for dynamic theming
func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// pageUpdateMsg signals that the poller rendered a new snapshot into the page.
type pageUpdateMsg struct{}

// pollDoneMsg carries the poll loop's exit error.
type pollDoneMsg struct {
	err error
}

// progressModel is the bubbletea model for job progress. It only reads the
// page; the poller owns fetching and writes.
type progressModel struct {
	jobID    string
	page     *view.Page
	progress progress.Model
	theme    Theme
	done     bool
	quitting bool
	err      error
}

// newProgressModel creates a new progress model.
func newProgressModel(jobID string, page *view.Page) progressModel {
	// Create progress bar with color blend
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)

	return progressModel{
		jobID:    jobID,
		page:     page,
		progress: prog,
		theme:    defaultTheme,
	}
}

// Init returns the initial command.
func (m progressModel) Init() tea.Cmd {
	return m.progress.Init()
}

// Update handles messages and returns the updated model.
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case pageUpdateMsg:
		return m, nil

	case pollDoneMsg:
		m.done = true
		m.err = pollResult(m.page, msg.err)
		return m, tea.Quit

	case progress.FrameMsg:
		// Update progress bar animation
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m progressModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

// renderContent builds the display string from the visible regions.
func (m progressModel) renderContent() string {
	if m.done || m.quitting {
		return m.finalView()
	}

	current := m.page.Text(view.RegionJobStatus)
	if current == "" {
		return "Waiting for job status...\n"
	}

	line := m.theme.statusStyle().Render(fmt.Sprintf("[%s]", current))

	switch {
	case m.page.Visible(view.RegionQueue):
		line += fmt.Sprintf(" Position in queue: %s", m.page.Text(view.RegionQueueLength))
	case m.page.Visible(view.RegionProgress):
		pc := m.page.Text(view.RegionPercent)
		line += " " + m.progress.ViewAs(percentFraction(pc)) + " " + pc + "%"
	}

	var b strings.Builder
	b.WriteString(line + "\n")
	if m.page.Visible(view.RegionDownload) {
		b.WriteString(fmt.Sprintf("  %s\n", m.page.Text(view.RegionDownloadLink)))
	}
	b.WriteString(m.theme.hintStyle().Render("Press Ctrl+C to stop watching"))
	b.WriteString("\n")
	return b.String()
}

// finalView renders the completion message.
func (m progressModel) finalView() string {
	if m.quitting {
		msg := fmt.Sprintf("\nStopped watching job %s.\nUse 'jobwatch status %s' to check status.\n",
			m.jobID, m.jobID)
		return m.theme.hintStyle().Render(msg)
	}

	if m.err != nil {
		return m.theme.errorStyle().Render(fmt.Sprintf("\n✗ %s\n", m.err))
	}

	out := m.theme.completedStyle().Render("✓ Completed") + "\n"
	if m.page.Visible(view.RegionDownload) {
		out += fmt.Sprintf("  %s\n", m.page.Text(view.RegionDownloadLink))
	}
	return out
}

// pollResult maps the poll loop's exit to the command result. A job that
// ended in the error status is a failure even though the loop exited cleanly.
func pollResult(page *view.Page, err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return nil
	case err != nil:
		return err
	}
	if page.Text(view.RegionJobStatus) == string(status.Error) {
		return fmt.Errorf("job failed: %s", page.Text(view.RegionErrorMessage))
	}
	return nil
}

// percentFraction converts a displayed percentage into the bar's 0..1 range.
func percentFraction(pc string) float64 {
	v, err := strconv.ParseFloat(pc, 64)
	if err != nil {
		return 0
	}
	return min(max(v/100, 0), 1)
}

// teaRenderer writes snapshots into the page and wakes the program.
type teaRenderer struct {
	page    *view.Page
	program *tea.Program
}

func (r teaRenderer) Render(snap status.Snapshot) {
	r.page.Render(snap)
	r.program.Send(pageUpdateMsg{})
}

// runWatchUI runs the interactive progress UI while p polls the job.
// Returns nil on completion or Ctrl+C, error on job failure or when polling
// gives up.
func runWatchUI(ctx context.Context, jobID string, page *view.Page, start func(view.Renderer) (*poller.Task, error)) error {
	model := newProgressModel(jobID, page)
	p := tea.NewProgram(model, tea.WithContext(ctx))

	task, err := start(teaRenderer{page: page, program: p})
	if err != nil {
		return err
	}
	defer task.Stop()

	go func() {
		p.Send(pollDoneMsg{err: task.Wait()})
	}()

	finalModel, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("progress UI error: %w", err)
	}

	// Check final state
	if m, ok := finalModel.(progressModel); ok {
		// Ctrl+C only stops watching; the job keeps running on the server
		if m.quitting {
			return nil
		}
		return m.err
	}

	return nil
}
