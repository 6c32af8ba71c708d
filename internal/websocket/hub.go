package websocket

import (
	"encoding/json"
	"errors"
	"sync"

	"ai-grammar-companion/internal/dto"
	"ai-grammar-companion/internal/pkg/logger"

	"github.com/google/uuid"
)

// ErrPageChannelGone reports that no live connection to the page
// remains; callers clear that page session's cached state instead of
// retrying.
var ErrPageChannelGone = errors.New("page channel invalidated")

// Hub tracks the live page and viewer connections.
type Hub struct {
	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	// Page clients keyed by page-session id (multiple frames may share
	// one page session).
	pages map[string][]*Client

	// Viewer clients keyed by connection id.
	viewers map[uuid.UUID]*Client

	// Dedicated Logger
	logger logger.ILogger
}

func NewHub(log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		pages:      make(map[string][]*Client),
		viewers:    make(map[uuid.UUID]*Client),
		logger:     log,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			switch client.Kind {
			case KindPage:
				h.pages[client.PageSessionID] = append(h.pages[client.PageSessionID], client)
			case KindViewer:
				h.viewers[client.ID] = client
			}
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{
				"client_id": client.ID,
				"kind":      client.Kind,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			removed := false
			switch client.Kind {
			case KindPage:
				clients := h.pages[client.PageSessionID]
				for i, c := range clients {
					if c == client {
						h.pages[client.PageSessionID] = append(clients[:i], clients[i+1:]...)
						removed = true
						break
					}
				}
				if len(h.pages[client.PageSessionID]) == 0 {
					delete(h.pages, client.PageSessionID)
				}
			case KindViewer:
				if _, ok := h.viewers[client.ID]; ok {
					delete(h.viewers, client.ID)
					removed = true
				}
			}
			if removed {
				// Flagged under the lock so no sender can race the close.
				client.closed = true
			}
			h.mu.Unlock()

			if removed {
				close(client.Send)
				if client.OnClose != nil {
					client.OnClose()
				}
				h.logger.Info("Hub", "Client unregistered", map[string]interface{}{
					"client_id": client.ID,
					"kind":      client.Kind,
				})
			}
		}
	}
}

// PageClientCount reports the live connections for a page session.
func (h *Hub) PageClientCount(pageSessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.pages[pageSessionID])
}

// trySend queues data on the client's Send channel. It holds the hub
// lock for the attempt: Run flags closed under the same lock before
// closing Send, so a send can never hit a closed channel. Callers from
// any goroutine are safe.
func (h *Hub) trySend(client *Client, data []byte) (sent, full bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if client.closed {
		return false, false
	}
	select {
	case client.Send <- data:
		return true, false
	default:
		return false, true
	}
}

// SendToPage delivers a push to every live connection of the page
// session. Returns ErrPageChannelGone when nothing accepted it.
func (h *Hub) SendToPage(pageSessionID string, push dto.PagePush) error {
	data, err := json.Marshal(push)
	if err != nil {
		return err
	}

	h.mu.RLock()
	clients := make([]*Client, len(h.pages[pageSessionID]))
	copy(clients, h.pages[pageSessionID])
	h.mu.RUnlock()

	delivered := 0
	for _, client := range clients {
		sent, full := h.trySend(client, data)
		if sent {
			delivered++
			continue
		}
		if full {
			h.logger.Warn("Hub", "Page client send buffer full, dropping connection", map[string]interface{}{
				"page_session_id": pageSessionID,
			})
			h.unregister <- client
		}
	}

	if delivered == 0 {
		return ErrPageChannelGone
	}
	return nil
}

// SendToViewer delivers a push to one viewer connection.
func (h *Hub) SendToViewer(client *Client, push dto.ViewerPush) error {
	data, err := json.Marshal(push)
	if err != nil {
		return err
	}

	sent, full := h.trySend(client, data)
	if sent {
		return nil
	}
	if full {
		h.logger.Warn("Hub", "Viewer send buffer full, dropping connection", map[string]interface{}{
			"client_id": client.ID,
		})
		h.unregister <- client
		return errors.New("viewer send buffer full")
	}
	return errors.New("viewer connection closed")
}
