package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"ai-grammar-companion/internal/dto"
	"ai-grammar-companion/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHubForTest(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(logger.NewNopLogger())
	go hub.Run()
	return hub
}

func waitUnregistered(t *testing.T, hub *Hub, client *Client) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		hub.mu.RLock()
		closed := client.closed
		hub.mu.RUnlock()
		if closed {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("client never unregistered")
}

func TestSendToViewerDelivers(t *testing.T) {
	hub := newHubForTest(t)

	client := &Client{Hub: hub, ID: uuid.New(), Kind: KindViewer, Send: make(chan []byte, 4)}
	hub.register <- client

	require.NoError(t, hub.SendToViewer(client, dto.ViewerPush{Action: dto.ViewerActionStatusUpdate, Message: "hi"}))

	var push dto.ViewerPush
	require.NoError(t, json.Unmarshal(<-client.Send, &push))
	assert.Equal(t, dto.ViewerActionStatusUpdate, push.Action)
	assert.Equal(t, "hi", push.Message)
}

// A push racing a disconnect must fail cleanly, not crash the process
// on the closed Send channel.
func TestSendToViewerAfterUnregisterFailsCleanly(t *testing.T) {
	hub := newHubForTest(t)

	closed := make(chan struct{})
	client := &Client{
		Hub:     hub,
		ID:      uuid.New(),
		Kind:    KindViewer,
		Send:    make(chan []byte, 4),
		OnClose: func() { close(closed) },
	}
	hub.register <- client
	hub.unregister <- client
	waitUnregistered(t, hub, client)
	<-closed

	err := hub.SendToViewer(client, dto.ViewerPush{Action: dto.ViewerActionStatusUpdate})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")
}

func TestSendToPageAfterLastConnectionGone(t *testing.T) {
	hub := newHubForTest(t)

	client := &Client{Hub: hub, ID: uuid.New(), Kind: KindPage, PageSessionID: "page-1", Send: make(chan []byte, 4)}
	hub.register <- client

	require.NoError(t, hub.SendToPage("page-1", dto.PagePush{Action: dto.PageActionViewerStatus, IsOpen: true}))
	<-client.Send

	hub.unregister <- client
	waitUnregistered(t, hub, client)
	assert.Equal(t, 0, hub.PageClientCount("page-1"))

	err := hub.SendToPage("page-1", dto.PagePush{Action: dto.PageActionViewerStatus})
	assert.ErrorIs(t, err, ErrPageChannelGone)
}

func TestSendToPageSkipsDeadConnectionAmongLive(t *testing.T) {
	hub := newHubForTest(t)

	dead := &Client{Hub: hub, ID: uuid.New(), Kind: KindPage, PageSessionID: "page-1", Send: make(chan []byte, 4)}
	live := &Client{Hub: hub, ID: uuid.New(), Kind: KindPage, PageSessionID: "page-1", Send: make(chan []byte, 4)}
	hub.register <- dead
	hub.register <- live

	hub.unregister <- dead
	waitUnregistered(t, hub, dead)

	// A sender holding a stale reference to the dead connection (a
	// snapshot taken before removal) gets a clean refusal.
	sent, full := hub.trySend(dead, []byte("{}"))
	assert.False(t, sent)
	assert.False(t, full)

	require.NoError(t, hub.SendToPage("page-1", dto.PagePush{Action: dto.PageActionShowSuggestion, ElementID: "bio"}))

	var push dto.PagePush
	require.NoError(t, json.Unmarshal(<-live.Send, &push))
	assert.Equal(t, "bio", push.ElementID)
}
