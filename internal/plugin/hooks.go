package plugin

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ayusman/blinktalk/internal/log"
)

// Hooks fans events out to subscribed plugins in the background.
type Hooks struct {
	manager  *Manager
	executor *Executor
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// NewHooks creates a dispatcher over manager's plugins.
func NewHooks(manager *Manager, executor *Executor) *Hooks {
	return &Hooks{
		manager:  manager,
		executor: executor,
		logger:   log.Component("hooks"),
	}
}

// SetLogger overrides the component logger.
func (h *Hooks) SetLogger(l *slog.Logger) {
	h.logger = l
}

// Fire runs every plugin subscribed to req.Event without blocking the caller.
// Failures are logged.
func (h *Hooks) Fire(req Request) {
	for _, p := range h.manager.ForEvent(req.Event) {
		h.wg.Add(1)
		go func(p *Plugin, req Request) {
			defer h.wg.Done()
			resp, err := h.executor.Execute(context.Background(), p, &req)
			switch {
			case err != nil:
				h.logger.Warn("plugin failed", "plugin", p.Manifest.Name, "event", req.Event, "error", err)
			case !resp.Success:
				h.logger.Warn("plugin reported failure", "plugin", p.Manifest.Name, "event", req.Event, "error", resp.Error)
			default:
				h.logger.Debug("plugin ran", "plugin", p.Manifest.Name, "event", req.Event)
			}
		}(p, req)
	}
}

// Wait blocks until all fired plugins have finished.
func (h *Hooks) Wait() {
	h.wg.Wait()
}
