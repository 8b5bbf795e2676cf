package web

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markestedt/textrewriter/workflow"
)

type wsFixture struct {
	server *Server
	ts     *httptest.Server
	cancel context.CancelFunc
	done   chan struct{}
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()
	ctrl := &fakeController{status: "idle"}
	srv := NewServer(ctrl, nil, 0)
	h, err := srv.Handler()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	f := &wsFixture{server: srv, ts: httptest.NewServer(h), cancel: cancel, done: make(chan struct{})}
	go func() {
		srv.hub.Run(ctx)
		close(f.done)
	}()
	t.Cleanup(func() {
		cancel()
		f.ts.Close()
	})
	return f
}

func (f *wsFixture) dial(t *testing.T, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.ts.URL, "http") + "/ws"
	return websocket.DefaultDialer.Dial(url, header)
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestWebSocketBroadcasts(t *testing.T) {
	f := newWSFixture(t)

	conn, _, err := f.dial(t, nil)
	require.NoError(t, err)
	defer conn.Close()

	// the greeting arrives once the hub has registered the client
	greeting := readMessage(t, conn)
	assert.Equal(t, MessageTypeStatus, greeting.Type)
	assert.Equal(t, map[string]any{"status": "idle"}, greeting.Data)

	f.server.BroadcastResult(workflow.Result{ID: "r1", SelectAll: true, Original: "helo", Text: "Hello.", StartedAt: time.Now()})
	msg := readMessage(t, conn)
	assert.Equal(t, MessageTypeResult, msg.Type)
	data := msg.Data.(map[string]any)
	assert.Equal(t, "r1", data["id"])
	assert.Equal(t, "Hello.", data["text"])
	assert.Equal(t, true, data["success"])
	assert.Equal(t, true, data["selectAll"])

	f.server.BroadcastStatus("rewriting")
	msg = readMessage(t, conn)
	assert.Equal(t, MessageTypeStatus, msg.Type)
	assert.Equal(t, map[string]any{"status": "rewriting"}, msg.Data)
}

func TestWebSocketRejectsForeignOrigin(t *testing.T) {
	f := newWSFixture(t)

	_, resp, err := f.dial(t, http.Header{"Origin": []string{"https://evil.example"}})
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := f.dial(t, http.Header{"Origin": []string{f.ts.URL}})
	require.NoError(t, err)
	conn.Close()
}

func TestWebSocketAfterHubStops(t *testing.T) {
	f := newWSFixture(t)

	conn, _, err := f.dial(t, nil)
	require.NoError(t, err)
	readMessage(t, conn)

	f.cancel()
	<-f.done

	// the hub closes existing clients
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			assert.False(t, isTimeout(err), "connection was not closed: %v", err)
			break
		}
	}
	conn.Close()

	// new connections are closed instead of waiting on the hub
	late, _, err := f.dial(t, nil)
	require.NoError(t, err)
	defer late.Close()
	require.NoError(t, late.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = late.ReadMessage()
	require.Error(t, err)
	assert.False(t, isTimeout(err), "late connection was left open: %v", err)
}

func TestHubLeaveAfterStop(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	left := make(chan struct{})
	go func() {
		h.leave(&Client{hub: h, send: make(chan []byte)})
		close(left)
	}()

	select {
	case <-left:
	case <-time.After(time.Second):
		t.Fatal("leave blocked after the hub stopped")
	}
	assert.False(t, h.join(&Client{hub: h, send: make(chan []byte, 1)}))
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
