// Package view models the progress page as a set of named regions that are
// shown, hidden and filled in response to job status snapshots.
package view

import (
	"slices"
	"sync"

	"github.com/raphaelgruber/jobwatch/internal/status"
)

// Region names a display area on the progress page.
type Region string

const (
	RegionJobStatus    Region = "job_status"
	RegionQueueLength  Region = "queue_length"
	RegionQueueNotify  Region = "queue_notify"
	RegionQueue        Region = "queue_container"
	RegionPercent      Region = "pc_container"
	RegionProgress     Region = "progress_container"
	RegionDownload     Region = "download_container"
	RegionDownloadLink Region = "download_link"
	RegionError        Region = "error_container"
	RegionErrorMessage Region = "error_message"
)

// Containers are the regions whose visibility depends on status.
var Containers = []Region{RegionQueue, RegionProgress, RegionDownload, RegionError}

// Download link labels.
const (
	LabelInProgress = "Download current progress"
	LabelFinal      = "Download final result"
)

// Renderer receives each status snapshot as it is observed.
type Renderer interface {
	Render(snap status.Snapshot)
}

// PercentRenderer receives each raw percentage body.
type PercentRenderer interface {
	RenderPercent(body string)
}

// Visibility returns which containers are visible for s.
// The second result is false for an unknown status, in which case
// visibility must be left as it was.
func Visibility(s status.Status) (map[Region]bool, bool) {
	vis := map[Region]bool{
		RegionQueue:    false,
		RegionProgress: false,
		RegionDownload: false,
		RegionError:    false,
	}

	switch s {
	case status.Submitted:
		vis[RegionQueue] = true
	case status.Processing:
		vis[RegionProgress] = true
		vis[RegionDownload] = true
	case status.Error:
		vis[RegionError] = true
	case status.Complete:
		vis[RegionDownload] = true
	default:
		return nil, false
	}
	return vis, true
}

// Page holds region state. It is safe for concurrent use.
type Page struct {
	mu      sync.RWMutex
	visible map[Region]bool
	text    map[Region]string
}

// NewPage returns a page with every region hidden and empty.
func NewPage() *Page {
	return &Page{
		visible: make(map[Region]bool),
		text:    make(map[Region]string),
	}
}

// Render applies a snapshot. Fields that do not belong to the snapshot's
// status are never read.
func (p *Page) Render(snap status.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.text[RegionJobStatus] = string(snap.Status)
	p.visible[RegionJobStatus] = true

	vis, ok := Visibility(snap.Status)
	if !ok {
		return
	}
	for r, v := range vis {
		p.visible[r] = v
	}

	switch snap.Status {
	case status.Submitted:
		p.text[RegionQueueLength] = snap.Queue.String()
		p.visible[RegionQueueNotify] = true
	case status.Processing:
		p.text[RegionPercent] = status.FormatPercent(snap.PC)
		p.text[RegionDownloadLink] = LabelInProgress
	case status.Error:
		p.text[RegionErrorMessage] = snap.Message
	case status.Complete:
		p.text[RegionDownloadLink] = LabelFinal
	}
}

// RenderPercent writes a raw percentage body into the percentage region.
func (p *Page) RenderPercent(body string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.text[RegionPercent] = body
}

// Visible reports whether r is shown.
func (p *Page) Visible(r Region) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.visible[r]
}

// Text returns the content of r.
func (p *Page) Text(r Region) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.text[r]
}

// VisibleContainers returns the shown containers in a stable order.
func (p *Page) VisibleContainers() []Region {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var out []Region
	for _, r := range Containers {
		if p.visible[r] {
			out = append(out, r)
		}
	}
	slices.Sort(out)
	return out
}
