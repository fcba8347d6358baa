// Package poller watches in-flight render jobs. Each watched project
// gets a fixed-interval re-fetch loop that runs until the job completes
// or the poller is shut down.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"voxvid-client/internal/models"
)

// Fetcher re-checks a single project's status on the remote API.
// Satisfied by *backend.Client.
type Fetcher interface {
	RefreshProjectStatus(ctx context.Context, id string) (models.ServerProject, error)
}

// UpdateFunc receives every freshly mapped project record, completed or
// not. Last write wins on the receiver's side.
type UpdateFunc func(models.Project)

type Poller struct {
	logger   *slog.Logger
	fetch    Fetcher
	interval time.Duration
	onUpdate UpdateFunc

	mu      sync.Mutex
	watches map[string]context.CancelFunc
}

func New(logger *slog.Logger, fetch Fetcher, interval time.Duration, onUpdate UpdateFunc) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Poller{
		logger:   logger,
		fetch:    fetch,
		interval: interval,
		onUpdate: onUpdate,
		watches:  make(map[string]context.CancelFunc),
	}
}

// Watch starts polling the given project. Projects that are not
// in-flight, or already watched, are ignored.
func (p *Poller) Watch(ctx context.Context, project models.Project) {
	if !project.InFlight() {
		return
	}

	p.mu.Lock()
	if _, exists := p.watches[project.ID]; exists {
		p.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.watches[project.ID] = cancel
	p.mu.Unlock()

	go p.run(runCtx, project.ID)
}

// WatchAll starts a watch for every in-flight project in the list.
func (p *Poller) WatchAll(ctx context.Context, projects []models.Project) {
	for _, project := range projects {
		p.Watch(ctx, project)
	}
}

// Stop ends the watch for one project id, if any.
func (p *Poller) Stop(id string) {
	p.mu.Lock()
	cancel, ok := p.watches[id]
	if ok {
		delete(p.watches, id)
	}
	p.mu.Unlock()
	if ok {
		cancel()
	}
}

// StopAll cancels every watch. Safe to call more than once.
func (p *Poller) StopAll() {
	p.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(p.watches))
	for id, cancel := range p.watches {
		cancels = append(cancels, cancel)
		delete(p.watches, id)
	}
	p.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
}

// Watching reports whether a watch is active for id.
func (p *Poller) Watching(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.watches[id]
	return ok
}

// run is the per-project loop. The fetch happens synchronously inside
// the tick handler, so a slow round trip makes later ticks coalesce
// instead of stacking concurrent requests for the same id.
func (p *Poller) run(ctx context.Context, id string) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.Stop(id)
			return
		case <-ticker.C:
			if done := p.poll(ctx, id); done {
				p.Stop(id)
				return
			}
		}
	}
}

// poll re-fetches once and reports whether watching should end. A
// failed poll is logged and silently retried on the next tick.
func (p *Poller) poll(ctx context.Context, id string) bool {
	rec, err := p.fetch.RefreshProjectStatus(ctx, id)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		p.logger.Warn("status poll failed", "project_id", id, "error", err)
		return false
	}

	project := models.MapServerProject(rec)
	p.onUpdate(project)
	return project.Phase == models.PhaseCompleted
}
