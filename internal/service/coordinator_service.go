package service

import (
	"context"
	"sync"
	"time"

	"ai-grammar-companion/internal/config"
	"ai-grammar-companion/internal/constant"
	"ai-grammar-companion/internal/dto"
	"ai-grammar-companion/internal/model"
	"ai-grammar-companion/internal/pkg/logger"
	"ai-grammar-companion/internal/repository/contract"
	"ai-grammar-companion/pkg/events"
	"ai-grammar-companion/pkg/llm"
	"ai-grammar-companion/pkg/parser"
)

// ViewerConn is one live viewer connection as the coordinator sees it.
type ViewerConn interface {
	ID() string
	Push(push dto.ViewerPush) error
}

// ICoordinatorService is the process-wide authority mediating between
// page sessions and viewer sessions. It owns history and the viewer
// registry and gates all outbound model calls.
type ICoordinatorService interface {
	// HandleCheckRequest gates on viewer presence and, when accepted,
	// dispatches the model call asynchronously. The returned result
	// confirms dispatch, not completion.
	HandleCheckRequest(ctx context.Context, req model.CheckRequest) model.CheckResult

	// RegisterViewer adds a connection to the registry, unbound to any
	// page session, and returns the current history snapshot.
	RegisterViewer(conn ViewerConn) []model.SuggestionRecord

	// BindViewerToPage associates a registered connection with a page
	// session; the first binding notifies that page's monitor that a
	// viewer attached.
	BindViewerToPage(conn ViewerConn, pageSessionID string)

	// UnregisterViewer removes the connection; the last binding for its
	// page session notifies that page's monitor that the viewer detached.
	UnregisterViewer(conn ViewerConn)

	// RequestHistory returns the full history, or the slice scoped to
	// one page session when pageSessionID is non-empty.
	RequestHistory(pageSessionID string) []model.SuggestionRecord

	// DismissEntry removes one history entry by (timestamp, fieldID) and
	// broadcasts the removal to every connected viewer. A non-existent
	// key is a no-op.
	DismissEntry(timestamp int64, fieldID string)

	// RequestHighlight forwards a highlight instruction to the page
	// session's monitor; delivery failures are logged, not surfaced.
	RequestHighlight(pageSessionID, fieldID string)

	// IsPageObserved reports whether at least one viewer is bound to the
	// page session.
	IsPageObserved(pageSessionID string) bool
}

type viewerEntry struct {
	conn          ViewerConn
	pageSessionID string // empty until registerTab
}

type coordinatorService struct {
	cfg       config.CheckConfig
	provider  llm.LLMProvider
	history   contract.HistoryRepository
	publisher IPublisherService
	logger    logger.ILogger

	mu            sync.Mutex
	viewers       map[string]*viewerEntry
	lastTimestamp int64
}

// NewCoordinatorService builds a fresh coordinator; tests construct one
// per case. All state lives behind the returned interface.
func NewCoordinatorService(
	cfg config.CheckConfig,
	provider llm.LLMProvider,
	history contract.HistoryRepository,
	publisher IPublisherService,
	log logger.ILogger,
) ICoordinatorService {
	return &coordinatorService{
		cfg:       cfg,
		provider:  provider,
		history:   history,
		publisher: publisher,
		logger:    log,
		viewers:   make(map[string]*viewerEntry),
	}
}

func (c *coordinatorService) HandleCheckRequest(ctx context.Context, req model.CheckRequest) model.CheckResult {
	c.mu.Lock()
	observed := c.observedLocked(req.PageSessionID)
	c.mu.Unlock()

	if !observed {
		return model.CheckResult{Accepted: false, Reason: constant.ReasonNoViewerAttached}
	}

	c.pushToPageViewers(req.PageSessionID, dto.ViewerPush{
		Action:     dto.ViewerActionStatusUpdate,
		Message:    "Checking grammar...",
		StatusType: dto.StatusTypeWorking,
	})

	// The check runs to completion off the caller's goroutine. A viewer
	// detaching mid-flight does not abort it; attachment is rechecked
	// before anything is delivered.
	go c.runCheck(context.WithoutCancel(ctx), req)

	return model.CheckResult{Accepted: true}
}

func (c *coordinatorService) runCheck(ctx context.Context, req model.CheckRequest) {
	reply, err := c.provider.Chat(ctx, []llm.Message{
		{Role: constant.ChatMessageRoleSystem, Content: constant.GrammarSystemPromptV1},
		{Role: constant.ChatMessageRoleUser, Content: constant.GrammarUserPrompt(req.Text)},
	}, llm.WithTemperature(0.3))
	if err != nil {
		c.logger.Error("Coordinator", "Grammar check failed", map[string]interface{}{
			"page_session_id": req.PageSessionID,
			"element_id":      req.FieldID,
			"kind":            llm.KindOf(err).String(),
			"error":           err.Error(),
		})
		// Failures surface to viewers only; the page layer never sees them.
		c.pushToPageViewers(req.PageSessionID, dto.ViewerPush{
			Action: dto.ViewerActionDisplayError,
			Error:  llm.UserMessage(err),
		})
		return
	}

	parsed := parser.Parse(req.Text, reply)

	record := model.SuggestionRecord{
		Timestamp:     c.nextTimestamp(),
		PageSessionID: req.PageSessionID,
		FieldID:       req.FieldID,
		OriginalText:  req.Text,
		CorrectedText: parsed.CorrectedText,
		Issues:        parsed.Issues,
		Alternative:   parsed.Alternative,
		Summary:       parsed.Summary,
		Explanation:   reply,
		Suggestion:    parsed.Formatted,
		NoIssues:      !parsed.HasIssues,
	}

	c.history.Prepend(record)

	if err := c.publisher.PublishPageNotification(ctx, events.PageNotification{
		Type:          events.TypeSuggestionDelivered,
		PageSessionID: req.PageSessionID,
		ElementID:     req.FieldID,
		Suggestion:    record.Suggestion,
		OriginalText:  record.OriginalText,
	}); err != nil {
		c.logger.Warn("Coordinator", "Failed to notify page of suggestion", map[string]interface{}{
			"page_session_id": req.PageSessionID,
			"error":           err.Error(),
		})
	}

	c.pushToPageViewers(req.PageSessionID, dto.ViewerPush{
		Action: dto.ViewerActionDisplaySuggestion,
		Data:   &record,
	})
}

func (c *coordinatorService) RegisterViewer(conn ViewerConn) []model.SuggestionRecord {
	c.mu.Lock()
	c.viewers[conn.ID()] = &viewerEntry{conn: conn}
	c.mu.Unlock()

	c.logger.Info("Coordinator", "Viewer registered", map[string]interface{}{"viewer_id": conn.ID()})

	return c.history.All()
}

func (c *coordinatorService) BindViewerToPage(conn ViewerConn, pageSessionID string) {
	c.mu.Lock()
	entry, ok := c.viewers[conn.ID()]
	if !ok {
		entry = &viewerEntry{conn: conn}
		c.viewers[conn.ID()] = entry
	}
	previous := entry.pageSessionID
	entry.pageSessionID = pageSessionID

	firstOnPage := c.countBoundLocked(pageSessionID) == 1
	lastOnPrevious := previous != "" && previous != pageSessionID && c.countBoundLocked(previous) == 0
	c.mu.Unlock()

	if lastOnPrevious {
		c.publishViewerStatus(previous, false)
	}
	if firstOnPage {
		c.publishViewerStatus(pageSessionID, true)
	}
}

func (c *coordinatorService) UnregisterViewer(conn ViewerConn) {
	c.mu.Lock()
	entry, ok := c.viewers[conn.ID()]
	if !ok {
		c.mu.Unlock()
		return
	}
	delete(c.viewers, conn.ID())
	page := entry.pageSessionID
	wasLast := page != "" && c.countBoundLocked(page) == 0
	c.mu.Unlock()

	c.logger.Info("Coordinator", "Viewer unregistered", map[string]interface{}{"viewer_id": conn.ID()})

	if wasLast {
		c.publishViewerStatus(page, false)
	}
}

func (c *coordinatorService) RequestHistory(pageSessionID string) []model.SuggestionRecord {
	if pageSessionID == "" {
		return c.history.All()
	}
	return c.history.ByPageSession(pageSessionID)
}

func (c *coordinatorService) DismissEntry(timestamp int64, fieldID string) {
	removed, ok := c.history.Remove(timestamp, fieldID)
	if !ok {
		return
	}

	// Broadcast so multiple open panels stay consistent.
	c.mu.Lock()
	conns := make([]ViewerConn, 0, len(c.viewers))
	for _, entry := range c.viewers {
		conns = append(conns, entry.conn)
	}
	c.mu.Unlock()

	push := dto.ViewerPush{
		Action:    dto.ViewerActionRemoveSuggestion,
		Timestamp: removed.Timestamp,
		ElementID: removed.FieldID,
	}
	for _, conn := range conns {
		c.push(conn, push)
	}
}

func (c *coordinatorService) RequestHighlight(pageSessionID, fieldID string) {
	err := c.publisher.PublishPageNotification(context.Background(), events.PageNotification{
		Type:          events.TypeHighlightField,
		PageSessionID: pageSessionID,
		ElementID:     fieldID,
	})
	if err != nil {
		c.logger.Warn("Coordinator", "Failed to forward highlight", map[string]interface{}{
			"page_session_id": pageSessionID,
			"element_id":      fieldID,
			"error":           err.Error(),
		})
	}
}

func (c *coordinatorService) IsPageObserved(pageSessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.observedLocked(pageSessionID)
}

// --- internal helpers ---

func (c *coordinatorService) observedLocked(pageSessionID string) bool {
	return c.countBoundLocked(pageSessionID) > 0
}

func (c *coordinatorService) countBoundLocked(pageSessionID string) int {
	n := 0
	for _, entry := range c.viewers {
		if entry.pageSessionID == pageSessionID {
			n++
		}
	}
	return n
}

// nextTimestamp returns unix milliseconds, strictly increasing so a
// timestamp can key a history entry.
func (c *coordinatorService) nextTimestamp() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UnixMilli()
	if now <= c.lastTimestamp {
		now = c.lastTimestamp + 1
	}
	c.lastTimestamp = now
	return now
}

func (c *coordinatorService) publishViewerStatus(pageSessionID string, open bool) {
	err := c.publisher.PublishPageNotification(context.Background(), events.PageNotification{
		Type:          events.TypeViewerStatus,
		PageSessionID: pageSessionID,
		ViewerOpen:    open,
	})
	if err != nil {
		c.logger.Warn("Coordinator", "Failed to publish viewer status", map[string]interface{}{
			"page_session_id": pageSessionID,
			"open":            open,
			"error":           err.Error(),
		})
	}
}

// pushToPageViewers delivers to the viewers currently bound to the page
// session; attachment is evaluated at send time.
func (c *coordinatorService) pushToPageViewers(pageSessionID string, push dto.ViewerPush) {
	c.mu.Lock()
	conns := make([]ViewerConn, 0)
	for _, entry := range c.viewers {
		if entry.pageSessionID == pageSessionID {
			conns = append(conns, entry.conn)
		}
	}
	c.mu.Unlock()

	for _, conn := range conns {
		c.push(conn, push)
	}
}

func (c *coordinatorService) push(conn ViewerConn, push dto.ViewerPush) {
	if err := conn.Push(push); err != nil {
		c.logger.Warn("Coordinator", "Viewer push failed", map[string]interface{}{
			"viewer_id": conn.ID(),
			"action":    push.Action,
			"error":     err.Error(),
		})
	}
}
