package handler

import (
	"encoding/json"

	"ai-grammar-companion/internal/dto"
	"ai-grammar-companion/internal/monitor"
	"ai-grammar-companion/internal/pkg/logger"
	"ai-grammar-companion/internal/pkg/serverutils"
	internalWS "ai-grammar-companion/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// PageHandler owns the page-side channel: field events in, suggestion
// and status pushes out.
type PageHandler struct {
	hub      *internalWS.Hub
	registry *monitor.Registry
	logger   logger.ILogger
}

func NewPageHandler(hub *internalWS.Hub, registry *monitor.Registry, log logger.ILogger) *PageHandler {
	return &PageHandler{
		hub:      hub,
		registry: registry,
		logger:   log,
	}
}

// NewPageNotifierFactory builds per-session notifiers backed by the hub.
func NewPageNotifierFactory(hub *internalWS.Hub) monitor.NotifierFactory {
	return func(pageSessionID string) monitor.PageNotifier {
		return &hubPageNotifier{hub: hub, pageSessionID: pageSessionID}
	}
}

type hubPageNotifier struct {
	hub           *internalWS.Hub
	pageSessionID string
}

func (n *hubPageNotifier) Notify(push dto.PagePush) error {
	return n.hub.SendToPage(n.pageSessionID, push)
}

// ServeWs upgrades the page binding's connection. The page supplies its
// session id, minted once per page load.
func (h *PageHandler) ServeWs(c *fiber.Ctx) error {
	pageSessionID, err := uuid.Parse(c.Query("pageSessionId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid or missing pageSessionId"})
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		client := &internalWS.Client{
			Hub:           h.hub,
			Conn:          conn,
			ID:            uuid.New(),
			Kind:          internalWS.KindPage,
			PageSessionID: pageSessionID.String(),
			Send:          make(chan []byte, 256),
		}
		client.OnMessage = func(data []byte) {
			h.handleFieldEvent(pageSessionID.String(), data)
		}
		client.OnClose = func() {
			// Last frame gone means the page unloaded; its pending
			// timers and cached text go with it.
			if h.hub.PageClientCount(pageSessionID.String()) == 0 {
				h.registry.Remove(pageSessionID.String())
			}
		}

		h.logger.Info("PageHandler", "Page session connected", map[string]interface{}{
			"page_session_id": pageSessionID.String(),
		})
		internalWS.ServeClient(client)
		h.logger.Info("PageHandler", "Page session disconnected", map[string]interface{}{
			"page_session_id": pageSessionID.String(),
		})
	})(c)
}

func (h *PageHandler) handleFieldEvent(pageSessionID string, data []byte) {
	var evt dto.FieldEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		h.logger.Warn("PageHandler", "Undecodable field event", map[string]interface{}{
			"page_session_id": pageSessionID,
			"error":           err.Error(),
		})
		return
	}
	if err := serverutils.ValidateRequest(evt); err != nil {
		h.logger.Warn("PageHandler", "Invalid field event", map[string]interface{}{
			"page_session_id": pageSessionID,
			"error":           err.Error(),
		})
		return
	}

	m := h.registry.GetOrCreate(pageSessionID)

	switch evt.Type {
	case dto.FieldEventInput:
		m.OnInput(evt.Field, evt.Text)
	case dto.FieldEventFocus:
		m.OnFocus(evt.Field, evt.Text)
	case dto.FieldEventClick:
		m.OnClick(evt.Field, evt.Text)
	}
}

// RegisterRoutes registers the page channel.
func (h *PageHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws/page", h.ServeWs)
}
