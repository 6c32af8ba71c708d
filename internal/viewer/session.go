// Package viewer holds the side panel's client-side session: a
// persistent connection to the coordinator plus the bounded list of
// suggestion cards currently on display.
package viewer

import (
	"context"
	"sync"
	"time"

	"ai-grammar-companion/internal/dto"
	"ai-grammar-companion/internal/model"
	"ai-grammar-companion/internal/pkg/logger"
)

// Conn is one established connection to the coordinator.
type Conn interface {
	Send(cmd dto.ViewerCommand) error
	Receive() (dto.ViewerPush, error)
	Close() error
}

// Dialer establishes a fresh connection; the session redials through it
// after every disconnect.
type Dialer func(ctx context.Context) (Conn, error)

const redialDelay = time.Second

// Session drives the panel's lifetime: register on connect, rebind when
// the active page changes, and fold every push into local display state.
type Session struct {
	dialer     Dialer
	displayCap int
	logger     logger.ILogger

	mu          sync.Mutex
	conn        Conn
	activePage  string
	suggestions []model.SuggestionRecord
	status      string
	statusType  string
	lastError   string
}

func NewSession(dialer Dialer, displayCap int, log logger.ILogger) *Session {
	return &Session{
		dialer:     dialer,
		displayCap: displayCap,
		logger:     log,
	}
}

// Run connects and keeps reconnecting until ctx is cancelled. Every
// successful connect re-registers the active page so the coordinator's
// binding survives restarts on either side.
func (s *Session) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := s.dialer(ctx)
		if err != nil {
			s.logger.Warn("ViewerSession", "Dial failed, retrying", map[string]interface{}{
				"error": err.Error(),
			})
			select {
			case <-ctx.Done():
				return
			case <-time.After(redialDelay):
			}
			continue
		}

		s.mu.Lock()
		s.conn = conn
		page := s.activePage
		s.mu.Unlock()

		if page != "" {
			s.sendOrLog(conn, dto.ViewerCommand{Action: dto.ViewerActionRegisterTab, TabID: page})
			s.sendOrLog(conn, dto.ViewerCommand{Action: dto.ViewerActionRequestHistory, TabID: page})
		}

		s.readLoop(ctx, conn)

		s.mu.Lock()
		if s.conn == conn {
			s.conn = nil
		}
		s.mu.Unlock()
		conn.Close()
	}
}

func (s *Session) readLoop(ctx context.Context, conn Conn) {
	for {
		if ctx.Err() != nil {
			return
		}
		push, err := conn.Receive()
		if err != nil {
			s.logger.Warn("ViewerSession", "Connection lost", map[string]interface{}{
				"error": err.Error(),
			})
			return
		}
		s.HandlePush(push)
	}
}

// SetActivePage rebinds the session to a different page session; the
// coordinator answers with that page's viewer-status transitions and a
// fresh history follows.
func (s *Session) SetActivePage(pageSessionID string) {
	s.mu.Lock()
	s.activePage = pageSessionID
	conn := s.conn
	s.mu.Unlock()

	if conn == nil {
		return
	}
	s.sendOrLog(conn, dto.ViewerCommand{Action: dto.ViewerActionRegisterTab, TabID: pageSessionID})
	s.sendOrLog(conn, dto.ViewerCommand{Action: dto.ViewerActionRequestHistory, TabID: pageSessionID})
}

// Dismiss removes one card locally and asks the coordinator to drop it
// from history; the confirming removeSuggestion push is then a no-op
// here but keeps other panels in sync.
func (s *Session) Dismiss(timestamp int64, fieldID string) {
	s.removeSuggestion(timestamp, fieldID)

	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return
	}
	s.sendOrLog(conn, dto.ViewerCommand{
		Action:    dto.ViewerActionDismissEntry,
		Timestamp: timestamp,
		ElementID: fieldID,
	})
}

// Highlight asks the page to flash the field a card came from.
func (s *Session) Highlight(fieldID string) {
	s.mu.Lock()
	conn := s.conn
	page := s.activePage
	s.mu.Unlock()
	if conn == nil {
		return
	}
	s.sendOrLog(conn, dto.ViewerCommand{
		Action:    dto.ViewerActionHighlightElement,
		TabID:     page,
		ElementID: fieldID,
	})
}

// HandlePush folds one coordinator push into display state.
func (s *Session) HandlePush(push dto.ViewerPush) {
	switch push.Action {
	case dto.ViewerActionHistoryUpdate:
		s.replaceHistory(push.History)

	case dto.ViewerActionDisplaySuggestion:
		if push.Data != nil {
			s.upsertSuggestion(*push.Data)
		}

	case dto.ViewerActionRemoveSuggestion:
		s.removeSuggestion(push.Timestamp, push.ElementID)

	case dto.ViewerActionDisplayError:
		s.mu.Lock()
		s.lastError = push.Error
		s.status = ""
		s.statusType = ""
		s.mu.Unlock()

	case dto.ViewerActionStatusUpdate:
		s.mu.Lock()
		s.status = push.Message
		s.statusType = push.StatusType
		s.mu.Unlock()
	}
}

// replaceHistory swaps display state wholesale. An empty snapshot is
// ignored when cards are already showing so a race between the connect
// snapshot and an in-flight suggestion cannot blank the panel.
func (s *Session) replaceHistory(history []model.SuggestionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(history) == 0 && len(s.suggestions) > 0 {
		return
	}
	if len(history) > s.displayCap {
		history = history[:s.displayCap]
	}
	s.suggestions = append([]model.SuggestionRecord(nil), history...)
}

func (s *Session) upsertSuggestion(record model.SuggestionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.suggestions {
		if existing.Timestamp == record.Timestamp && existing.FieldID == record.FieldID {
			s.suggestions = append(s.suggestions[:i], s.suggestions[i+1:]...)
			break
		}
	}
	s.suggestions = append([]model.SuggestionRecord{record}, s.suggestions...)
	if len(s.suggestions) > s.displayCap {
		s.suggestions = s.suggestions[:s.displayCap]
	}
	s.status = ""
	s.statusType = ""
	s.lastError = ""
}

func (s *Session) removeSuggestion(timestamp int64, fieldID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.suggestions {
		if existing.Timestamp == timestamp && (fieldID == "" || existing.FieldID == fieldID) {
			s.suggestions = append(s.suggestions[:i], s.suggestions[i+1:]...)
			return
		}
	}
}

// Suggestions returns the cards currently on display, newest first.
func (s *Session) Suggestions() []model.SuggestionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.SuggestionRecord(nil), s.suggestions...)
}

// Status returns the transient status line and its type.
func (s *Session) Status() (message, statusType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.statusType
}

// LastError returns the most recent error card text, empty when clear.
func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

func (s *Session) sendOrLog(conn Conn, cmd dto.ViewerCommand) {
	if err := conn.Send(cmd); err != nil {
		s.logger.Warn("ViewerSession", "Send failed", map[string]interface{}{
			"action": cmd.Action,
			"error":  err.Error(),
		})
	}
}
