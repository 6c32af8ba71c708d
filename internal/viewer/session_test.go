package viewer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"ai-grammar-companion/internal/dto"
	"ai-grammar-companion/internal/model"
	"ai-grammar-companion/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu   sync.Mutex
	sent []dto.ViewerCommand

	pushes chan dto.ViewerPush
	done   chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		pushes: make(chan dto.ViewerPush, 16),
		done:   make(chan struct{}),
	}
}

func (c *fakeConn) Send(cmd dto.ViewerCommand) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, cmd)
	return nil
}

func (c *fakeConn) Receive() (dto.ViewerPush, error) {
	select {
	case push := <-c.pushes:
		return push, nil
	case <-c.done:
		return dto.ViewerPush{}, errors.New("connection closed")
	}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func (c *fakeConn) sentCommands() []dto.ViewerCommand {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]dto.ViewerCommand(nil), c.sent...)
}

func record(ts int64, fieldID string) model.SuggestionRecord {
	return model.SuggestionRecord{Timestamp: ts, FieldID: fieldID, PageSessionID: "page-1"}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestHistoryUpdateReplacesDisplay(t *testing.T) {
	s := NewSession(nil, 10, logger.NewNopLogger())

	s.HandlePush(dto.ViewerPush{
		Action:  dto.ViewerActionHistoryUpdate,
		History: []model.SuggestionRecord{record(2, "bio"), record(1, "title")},
	})
	require.Len(t, s.Suggestions(), 2)

	s.HandlePush(dto.ViewerPush{
		Action:  dto.ViewerActionHistoryUpdate,
		History: []model.SuggestionRecord{record(3, "bio")},
	})

	got := s.Suggestions()
	require.Len(t, got, 1)
	assert.Equal(t, int64(3), got[0].Timestamp)
}

func TestEmptyHistoryDoesNotBlankThePanel(t *testing.T) {
	s := NewSession(nil, 10, logger.NewNopLogger())

	s.HandlePush(dto.ViewerPush{
		Action: dto.ViewerActionDisplaySuggestion,
		Data:   ptr(record(1, "bio")),
	})
	require.Len(t, s.Suggestions(), 1)

	s.HandlePush(dto.ViewerPush{Action: dto.ViewerActionHistoryUpdate, History: nil})

	assert.Len(t, s.Suggestions(), 1)
}

func TestHistoryUpdateTrimsToDisplayCapacity(t *testing.T) {
	s := NewSession(nil, 3, logger.NewNopLogger())

	history := make([]model.SuggestionRecord, 0, 5)
	for i := 5; i >= 1; i-- {
		history = append(history, record(int64(i), fmt.Sprintf("f%d", i)))
	}
	s.HandlePush(dto.ViewerPush{Action: dto.ViewerActionHistoryUpdate, History: history})

	got := s.Suggestions()
	require.Len(t, got, 3)
	assert.Equal(t, int64(5), got[0].Timestamp)
}

func TestDisplaySuggestionUpsertsNewestFirst(t *testing.T) {
	s := NewSession(nil, 3, logger.NewNopLogger())

	for i := 1; i <= 4; i++ {
		s.HandlePush(dto.ViewerPush{
			Action: dto.ViewerActionDisplaySuggestion,
			Data:   ptr(record(int64(i), fmt.Sprintf("f%d", i))),
		})
	}

	got := s.Suggestions()
	require.Len(t, got, 3)
	assert.Equal(t, int64(4), got[0].Timestamp)
	assert.Equal(t, int64(2), got[2].Timestamp)

	// Re-delivering an existing card moves it to the front, not duplicates it.
	s.HandlePush(dto.ViewerPush{
		Action: dto.ViewerActionDisplaySuggestion,
		Data:   ptr(record(3, "f3")),
	})
	got = s.Suggestions()
	require.Len(t, got, 3)
	assert.Equal(t, int64(3), got[0].Timestamp)
}

func TestRemoveSuggestion(t *testing.T) {
	s := NewSession(nil, 10, logger.NewNopLogger())
	s.HandlePush(dto.ViewerPush{Action: dto.ViewerActionDisplaySuggestion, Data: ptr(record(1, "bio"))})
	s.HandlePush(dto.ViewerPush{Action: dto.ViewerActionDisplaySuggestion, Data: ptr(record(2, "title"))})

	s.HandlePush(dto.ViewerPush{
		Action:    dto.ViewerActionRemoveSuggestion,
		Timestamp: 1,
		ElementID: "bio",
	})

	got := s.Suggestions()
	require.Len(t, got, 1)
	assert.Equal(t, "title", got[0].FieldID)

	// Unknown key is a no-op.
	s.HandlePush(dto.ViewerPush{Action: dto.ViewerActionRemoveSuggestion, Timestamp: 42})
	assert.Len(t, s.Suggestions(), 1)
}

func TestStatusAndErrorLifecycle(t *testing.T) {
	s := NewSession(nil, 10, logger.NewNopLogger())

	s.HandlePush(dto.ViewerPush{
		Action:     dto.ViewerActionStatusUpdate,
		Message:    "Checking grammar...",
		StatusType: dto.StatusTypeWorking,
	})
	msg, statusType := s.Status()
	assert.Equal(t, "Checking grammar...", msg)
	assert.Equal(t, dto.StatusTypeWorking, statusType)

	s.HandlePush(dto.ViewerPush{
		Action: dto.ViewerActionDisplayError,
		Error:  "Could not reach the local model service.",
	})
	assert.Equal(t, "Could not reach the local model service.", s.LastError())
	msg, _ = s.Status()
	assert.Empty(t, msg)

	// A delivered suggestion clears both.
	s.HandlePush(dto.ViewerPush{Action: dto.ViewerActionDisplaySuggestion, Data: ptr(record(1, "bio"))})
	assert.Empty(t, s.LastError())
	msg, _ = s.Status()
	assert.Empty(t, msg)
}

func TestRunRegistersActivePageAndReconnects(t *testing.T) {
	first := newFakeConn()
	second := newFakeConn()

	var mu sync.Mutex
	conns := []*fakeConn{first, second}
	dials := 0

	dialer := func(ctx context.Context) (Conn, error) {
		mu.Lock()
		defer mu.Unlock()
		if dials >= len(conns) {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		conn := conns[dials]
		dials++
		return conn, nil
	}

	s := NewSession(dialer, 10, logger.NewNopLogger())
	s.SetActivePage("page-1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	waitFor(t, func() bool { return len(first.sentCommands()) == 2 })
	cmds := first.sentCommands()
	assert.Equal(t, dto.ViewerActionRegisterTab, cmds[0].Action)
	assert.Equal(t, "page-1", cmds[0].TabID)
	assert.Equal(t, dto.ViewerActionRequestHistory, cmds[1].Action)

	// A push folds into display state.
	first.pushes <- dto.ViewerPush{Action: dto.ViewerActionDisplaySuggestion, Data: ptr(record(1, "bio"))}
	waitFor(t, func() bool { return len(s.Suggestions()) == 1 })

	// Drop the connection: the session redials and re-registers.
	first.Close()
	waitFor(t, func() bool { return len(second.sentCommands()) == 2 })
	assert.Equal(t, dto.ViewerActionRegisterTab, second.sentCommands()[0].Action)
}

func TestDismissSendsCommandAndRemovesLocally(t *testing.T) {
	conn := newFakeConn()
	dialer := func(ctx context.Context) (Conn, error) { return conn, nil }

	s := NewSession(dialer, 10, logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	conn.pushes <- dto.ViewerPush{Action: dto.ViewerActionDisplaySuggestion, Data: ptr(record(9, "bio"))}
	waitFor(t, func() bool { return len(s.Suggestions()) == 1 })

	s.Dismiss(9, "bio")

	assert.Empty(t, s.Suggestions())
	waitFor(t, func() bool {
		for _, cmd := range conn.sentCommands() {
			if cmd.Action == dto.ViewerActionDismissEntry && cmd.Timestamp == 9 && cmd.ElementID == "bio" {
				return true
			}
		}
		return false
	})
}

func TestSetActivePageRebindsLiveConnection(t *testing.T) {
	conn := newFakeConn()
	dialer := func(ctx context.Context) (Conn, error) { return conn, nil }

	s := NewSession(dialer, 10, logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	waitFor(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.conn != nil
	})

	s.SetActivePage("page-2")

	waitFor(t, func() bool { return len(conn.sentCommands()) == 2 })
	cmds := conn.sentCommands()
	assert.Equal(t, dto.ViewerActionRegisterTab, cmds[0].Action)
	assert.Equal(t, "page-2", cmds[0].TabID)
	assert.Equal(t, dto.ViewerActionRequestHistory, cmds[1].Action)
}

func ptr(r model.SuggestionRecord) *model.SuggestionRecord {
	return &r
}
