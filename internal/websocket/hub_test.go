package websocket

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "contractpulse/internal/errors"
	"contractpulse/internal/infrastructure"
	"contractpulse/pkg/contracts/events"
)

// fakeConn is an in-memory Connection. ReadMessage blocks until Close.
type fakeConn struct {
	mu      sync.Mutex
	written [][]byte
	closed  chan struct{}
	once    sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{closed: make(chan struct{})}
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if messageType == websocket.TextMessage {
		f.written = append(f.written, append([]byte(nil), data...))
	}
	return nil
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	<-f.closed
	return 0, nil, errors.New("closed")
}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) SetReadDeadline(time.Time) error  { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }
func (f *fakeConn) SetReadLimit(int64)               {}
func (f *fakeConn) SetPongHandler(func(string) error) {}

func (f *fakeConn) messages() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Message, 0, len(f.written))
	for _, b := range f.written {
		var m Message
		if json.Unmarshal(b, &m) == nil {
			out = append(out, m)
		}
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func connect(t *testing.T, hub *Hub) (*Client, *fakeConn) {
	t.Helper()
	conn := newFakeConn()
	client := NewClient(hub, conn, "127.0.0.1:5000", "trace-1")
	hub.Register(client)
	go client.WritePump()
	go client.ReadPump()
	return client, conn
}

func TestHub_StartStopIdempotent(t *testing.T) {
	hub := NewHub(discardLogger(), nil)
	hub.Start()
	hub.Start()
	hub.Stop()
	hub.Stop()
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_ConnectionMessage(t *testing.T) {
	hub := NewHub(discardLogger(), nil)
	hub.Start()
	defer hub.Stop()

	client, conn := connect(t, hub)
	require.Eventually(t, func() bool { return len(conn.messages()) == 1 }, time.Second, 5*time.Millisecond)

	msg := conn.messages()[0]
	assert.Equal(t, events.TypeConnection, msg.Type)
	assert.Equal(t, "trace-1", msg.TraceID)
	data, ok := msg.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "connected", data["status"])
	assert.Equal(t, client.ID(), data["client_id"])
	assert.Equal(t, 1, hub.ClientCount())
}

func TestHub_BroadcastReachesAllClients(t *testing.T) {
	hub := NewHub(discardLogger(), nil)
	hub.Start()
	defer hub.Stop()

	_, a := connect(t, hub)
	_, b := connect(t, hub)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	ctx := infrastructure.WithTraceID(context.Background(), "import-42")
	hub.Broadcast(ctx, events.TypeZonesReplaced, map[string]int{"zones": 3})

	for _, conn := range []*fakeConn{a, b} {
		conn := conn
		require.Eventually(t, func() bool { return len(conn.messages()) == 2 }, time.Second, 5*time.Millisecond)
		msg := conn.messages()[1]
		assert.Equal(t, events.TypeZonesReplaced, msg.Type)
		assert.Equal(t, "import-42", msg.TraceID)
		assert.NotEmpty(t, msg.Timestamp)
	}
}

func TestHub_ClientDisconnectUnregisters(t *testing.T) {
	hub := NewHub(discardLogger(), nil)
	hub.Start()
	defer hub.Stop()

	_, conn := connect(t, hub)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_StopDisconnectsClients(t *testing.T) {
	hub := NewHub(discardLogger(), nil)
	hub.Start()

	_, conn := connect(t, hub)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Stop()
	assert.Equal(t, 0, hub.ClientCount())
	select {
	case <-conn.closed:
	case <-time.After(time.Second):
		t.Fatal("connection not closed after hub stop")
	}

	// Publishing after stop is a no-op
	hub.Broadcast(context.Background(), events.TypeReceiptsChanged, nil)
}

func TestHub_BroadcastNeverBlocks(t *testing.T) {
	hub := NewHub(discardLogger(), nil)
	// Not started: the queue fills and further events are dropped
	done := make(chan struct{})
	go func() {
		for i := 0; i < broadcastQueue*2; i++ {
			hub.Broadcast(context.Background(), events.TypeReceiptsChanged, i)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked")
	}
}

func TestHandler_Upgrade(t *testing.T) {
	logger := discardLogger()
	hub := NewHub(logger, nil)
	hub.Start()
	defer hub.Stop()

	h := NewHandler(hub, HandlerConfig{ReadBufferSize: 1024, WriteBufferSize: 1024}, logger, apierrors.NewErrorHandler(logger, false))
	srv := httptest.NewServer(h)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	defer resp.Body.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(payload, &msg))
	assert.Equal(t, events.TypeConnection, msg.Type)
}

func TestHandler_RejectsForeignOrigin(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(buf, nil))
	hub := NewHub(logger, nil)

	h := NewHandler(hub, HandlerConfig{AllowedOrigins: []string{"http://localhost:8080"}}, logger, apierrors.NewErrorHandler(logger, false))

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Connection", "upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
	req.Header.Set("Origin", "http://evil.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, buf.String(), "websocket upgrade rejected")
}
