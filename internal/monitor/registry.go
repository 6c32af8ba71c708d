package monitor

import (
	"sync"

	"ai-grammar-companion/internal/pkg/logger"
)

// NotifierFactory builds the page-bound notifier for one page session.
type NotifierFactory func(pageSessionID string) PageNotifier

// Registry owns the live monitors, one per page session.
type Registry struct {
	cfg        Config
	dispatcher CheckDispatcher
	notifiers  NotifierFactory
	logger     logger.ILogger

	mu       sync.Mutex
	monitors map[string]*Monitor
}

func NewRegistry(cfg Config, dispatcher CheckDispatcher, notifiers NotifierFactory, log logger.ILogger) *Registry {
	return &Registry{
		cfg:        cfg,
		dispatcher: dispatcher,
		notifiers:  notifiers,
		logger:     log,
		monitors:   make(map[string]*Monitor),
	}
}

// GetOrCreate returns the monitor for a page session, creating it on
// first contact.
func (r *Registry) GetOrCreate(pageSessionID string) *Monitor {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.monitors[pageSessionID]; ok {
		return m
	}
	m := NewMonitor(pageSessionID, r.cfg, r.dispatcher, r.notifiers(pageSessionID), r.logger)
	r.monitors[pageSessionID] = m
	return m
}

// Get returns the monitor for a page session if one exists.
func (r *Registry) Get(pageSessionID string) (*Monitor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.monitors[pageSessionID]
	return m, ok
}

// Remove drops a page session's monitor after resetting it; called when
// the page unloads.
func (r *Registry) Remove(pageSessionID string) {
	r.mu.Lock()
	m, ok := r.monitors[pageSessionID]
	delete(r.monitors, pageSessionID)
	r.mu.Unlock()

	if ok {
		m.Reset()
	}
}
