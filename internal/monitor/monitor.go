// Package monitor decides, per field-activity event on a page, whether
// and when to issue a grammar check. One Monitor instance exists per
// page session; it owns that session's debounce timers and
// last-checked text.
package monitor

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"ai-grammar-companion/internal/dto"
	"ai-grammar-companion/internal/model"
	"ai-grammar-companion/internal/pkg/logger"
	"ai-grammar-companion/internal/repository/memory"
	"ai-grammar-companion/pkg/events"
)

// CheckDispatcher accepts check requests; the coordinator implements it.
type CheckDispatcher interface {
	HandleCheckRequest(ctx context.Context, req model.CheckRequest) model.CheckResult
}

// PageNotifier pushes a message toward the page's DOM binding. An error
// means the channel to the page has been invalidated.
type PageNotifier interface {
	Notify(push dto.PagePush) error
}

// Config holds the scheduling knobs a monitor consults.
type Config struct {
	TypingPause   time.Duration
	SettleDelay   time.Duration
	MinTextLength int
}

// Monitor tracks one page session's editable-field activity.
type Monitor struct {
	pageSessionID string
	cfg           Config
	dispatcher    CheckDispatcher
	notifier      PageNotifier
	logger        logger.ILogger

	mu             sync.Mutex
	timers         map[string]*time.Timer
	lastChecked    *memory.LastCheckedRepository
	activeFieldID  string
	viewerAttached bool
}

func NewMonitor(
	pageSessionID string,
	cfg Config,
	dispatcher CheckDispatcher,
	notifier PageNotifier,
	log logger.ILogger,
) *Monitor {
	return &Monitor{
		pageSessionID: pageSessionID,
		cfg:           cfg,
		dispatcher:    dispatcher,
		notifier:      notifier,
		logger:        log,
		timers:        make(map[string]*time.Timer),
		lastChecked:   memory.NewLastCheckedRepository(),
	}
}

func (m *Monitor) PageSessionID() string {
	return m.pageSessionID
}

// OnInput (re)schedules a debounced check for the field. A new input
// event cancels and replaces any pending timer for the same field, so
// at most one check is pending per field at a time.
func (m *Monitor) OnInput(field dto.FieldDescriptor, text string) {
	m.schedule(field, text, m.cfg.TypingPause)
}

// OnFocus marks the field active and schedules a near-immediate check
// after a short settle delay.
func (m *Monitor) OnFocus(field dto.FieldDescriptor, text string) {
	m.setActive(field)
	m.schedule(field, text, m.cfg.SettleDelay)
}

// OnClick behaves like OnFocus; the page binding resolves clicks on
// descendants to the owning editable field before delivering them.
func (m *Monitor) OnClick(field dto.FieldDescriptor, text string) {
	m.setActive(field)
	m.schedule(field, text, m.cfg.SettleDelay)
}

func (m *Monitor) setActive(field dto.FieldDescriptor) {
	id := DeriveFieldID(field)
	m.mu.Lock()
	m.activeFieldID = id
	m.mu.Unlock()
}

func (m *Monitor) schedule(field dto.FieldDescriptor, text string, delay time.Duration) {
	fieldID := DeriveFieldID(field)

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.viewerAttached {
		return
	}

	if t, ok := m.timers[fieldID]; ok {
		t.Stop()
	}
	m.timers[fieldID] = time.AfterFunc(delay, func() {
		m.fire(fieldID, text)
	})
}

// fire runs when a pending timer elapses. The length and duplicate
// guards are applied here, at fire time, not at scheduling time.
func (m *Monitor) fire(fieldID, text string) {
	trimmed := strings.TrimSpace(text)

	m.mu.Lock()
	delete(m.timers, fieldID)

	if !m.viewerAttached {
		m.mu.Unlock()
		return
	}
	// Character count, not bytes; multibyte scripts hit the minimum at
	// the same visible length as ASCII.
	if utf8.RuneCountInString(trimmed) < m.cfg.MinTextLength {
		m.mu.Unlock()
		return
	}
	if last, ok := m.lastChecked.Get(fieldID); ok && last == trimmed {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	res := m.dispatcher.HandleCheckRequest(context.Background(), model.CheckRequest{
		PageSessionID: m.pageSessionID,
		FieldID:       fieldID,
		Text:          trimmed,
	})
	if res.Accepted {
		// Dispatch confirmed; an unchanged field is never re-sent.
		m.lastChecked.Save(fieldID, trimmed)
	}
}

// SetViewerAttached toggles the gate on all scheduling. The transition
// to detached cancels every pending timer and wipes the last-checked
// map; the transition to attached has no immediate side effect.
func (m *Monitor) SetViewerAttached(attached bool) {
	m.mu.Lock()
	wasAttached := m.viewerAttached
	m.viewerAttached = attached
	if wasAttached && !attached {
		m.cancelTimersLocked()
		m.lastChecked.Flush()
	}
	m.mu.Unlock()
}

func (m *Monitor) cancelTimersLocked() {
	for id, t := range m.timers {
		t.Stop()
		delete(m.timers, id)
	}
}

// Reset stops all pending work and clears cached state. Invoked when
// the channel to the page turns out to be invalidated.
func (m *Monitor) Reset() {
	m.mu.Lock()
	m.cancelTimersLocked()
	m.lastChecked.Flush()
	m.mu.Unlock()
}

// HandleNotification applies one coordinator-originated notification:
// viewer attachment changes, suggestion deliveries, and highlight
// requests. Notification failures mean the page channel is gone; the
// session's pending state is cleared rather than retried.
func (m *Monitor) HandleNotification(n events.PageNotification) {
	switch n.Type {
	case events.TypeViewerStatus:
		m.SetViewerAttached(n.ViewerOpen)
		m.notify(dto.PagePush{
			Action: dto.PageActionViewerStatus,
			IsOpen: n.ViewerOpen,
		})

	case events.TypeSuggestionDelivered:
		m.notify(dto.PagePush{
			Action:       dto.PageActionShowSuggestion,
			ElementID:    m.resolveFieldID(n.ElementID),
			Suggestion:   n.Suggestion,
			OriginalText: n.OriginalText,
		})

	case events.TypeHighlightField:
		m.notify(dto.PagePush{
			Action:    dto.PageActionHighlightElement,
			ElementID: m.resolveFieldID(n.ElementID),
		})
	}
}

// resolveFieldID falls back to the currently tracked active field when
// the requested id is empty; element-level resolution happens in the
// page and its failure is silently ignored there.
func (m *Monitor) resolveFieldID(fieldID string) string {
	if fieldID != "" {
		return fieldID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeFieldID
}

func (m *Monitor) notify(push dto.PagePush) {
	if err := m.notifier.Notify(push); err != nil {
		m.logger.Warn("Monitor", "Page channel invalidated, clearing session state", map[string]interface{}{
			"page_session_id": m.pageSessionID,
			"action":          push.Action,
			"error":           err.Error(),
		})
		m.Reset()
	}
}

// PendingChecks reports the number of armed timers; used by tests.
func (m *Monitor) PendingChecks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}
