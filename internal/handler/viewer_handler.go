package handler

import (
	"encoding/json"
	"sync"

	"ai-grammar-companion/internal/dto"
	"ai-grammar-companion/internal/pkg/logger"
	"ai-grammar-companion/internal/pkg/serverutils"
	"ai-grammar-companion/internal/service"
	internalWS "ai-grammar-companion/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ViewerHandler owns the side-panel channel: commands in, history and
// suggestion pushes out.
type ViewerHandler struct {
	hub         *internalWS.Hub
	coordinator service.ICoordinatorService
	logger      logger.ILogger
}

func NewViewerHandler(hub *internalWS.Hub, coordinator service.ICoordinatorService, log logger.ILogger) *ViewerHandler {
	return &ViewerHandler{
		hub:         hub,
		coordinator: coordinator,
		logger:      log,
	}
}

// viewerConn adapts one hub client to the coordinator's view of a
// viewer. It remembers the page session the viewer registered so
// highlight commands need not repeat it.
type viewerConn struct {
	hub    *internalWS.Hub
	client *internalWS.Client

	mu        sync.Mutex
	boundPage string
}

func (v *viewerConn) ID() string {
	return v.client.ID.String()
}

func (v *viewerConn) Push(push dto.ViewerPush) error {
	return v.hub.SendToViewer(v.client, push)
}

func (v *viewerConn) setBoundPage(pageSessionID string) {
	v.mu.Lock()
	v.boundPage = pageSessionID
	v.mu.Unlock()
}

func (v *viewerConn) getBoundPage() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.boundPage
}

// ServeWs upgrades a side-panel connection. The connection is handed to
// the coordinator immediately so it receives the history snapshot and
// all subsequent broadcasts.
func (h *ViewerHandler) ServeWs(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		client := &internalWS.Client{
			Hub:  h.hub,
			Conn: conn,
			ID:   uuid.New(),
			Kind: internalWS.KindViewer,
			Send: make(chan []byte, 256),
		}
		vc := &viewerConn{hub: h.hub, client: client}

		client.OnMessage = func(data []byte) {
			h.handleCommand(vc, data)
		}
		client.OnClose = func() {
			h.coordinator.UnregisterViewer(vc)
		}

		// Send buffers until the write pump starts, so the snapshot can
		// be queued before ServeClient runs.
		snapshot := h.coordinator.RegisterViewer(vc)
		if err := vc.Push(dto.ViewerPush{
			Action:  dto.ViewerActionHistoryUpdate,
			History: snapshot,
		}); err != nil {
			h.logger.Warn("ViewerHandler", "Failed to queue history snapshot", map[string]interface{}{
				"viewer_id": vc.ID(),
				"error":     err.Error(),
			})
		}

		internalWS.ServeClient(client)
	})(c)
}

func (h *ViewerHandler) handleCommand(vc *viewerConn, data []byte) {
	var cmd dto.ViewerCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		h.logger.Warn("ViewerHandler", "Undecodable viewer command", map[string]interface{}{
			"viewer_id": vc.ID(),
			"error":     err.Error(),
		})
		return
	}
	if err := serverutils.ValidateRequest(cmd); err != nil {
		h.logger.Warn("ViewerHandler", "Invalid viewer command", map[string]interface{}{
			"viewer_id": vc.ID(),
			"error":     err.Error(),
		})
		return
	}

	switch cmd.Action {
	case dto.ViewerActionRegisterTab:
		vc.setBoundPage(cmd.TabID)
		h.coordinator.BindViewerToPage(vc, cmd.TabID)

	case dto.ViewerActionRequestHistory:
		history := h.coordinator.RequestHistory(cmd.TabID)
		if err := vc.Push(dto.ViewerPush{
			Action:  dto.ViewerActionHistoryUpdate,
			History: history,
		}); err != nil {
			h.logger.Warn("ViewerHandler", "Failed to push history", map[string]interface{}{
				"viewer_id": vc.ID(),
				"error":     err.Error(),
			})
		}

	case dto.ViewerActionDismissEntry:
		h.coordinator.DismissEntry(cmd.Timestamp, cmd.ElementID)

	case dto.ViewerActionHighlightElement:
		page := cmd.TabID
		if page == "" {
			page = vc.getBoundPage()
		}
		h.coordinator.RequestHighlight(page, cmd.ElementID)
	}
}

// RegisterRoutes registers the viewer channel.
func (h *ViewerHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws/viewer", h.ServeWs)
}
