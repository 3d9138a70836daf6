package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(zerolog.Nop())
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, conn, "local")
		hub.Register(client)
		client.Serve()
	}))
	t.Cleanup(srv.Close)

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

// dial connects and waits for a pong, which also proves the client is registered.
func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, conn.WriteJSON(WebSocketMessage{Type: MessagePing}))
	msg := readMessage(t, conn)
	require.Equal(t, MessagePong, msg.Type)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) WebSocketMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg WebSocketMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHubBroadcastsToAllClients(t *testing.T) {
	hub, url := startHub(t)
	first := dial(t, url)
	second := dial(t, url)

	hub.Broadcast(WebSocketMessage{Type: MessageSnapshot, Data: map[string]int{"tasks": 2}})

	for _, conn := range []*websocket.Conn{first, second} {
		msg := readMessage(t, conn)
		assert.Equal(t, MessageSnapshot, msg.Type)
		assert.Equal(t, map[string]any{"tasks": float64(2)}, msg.Data)
	}
}

func TestHubIgnoresClientMessages(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url)

	require.NoError(t, conn.WriteJSON(WebSocketMessage{Type: "snapshot", Data: "forged"}))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{oops")))
	hub.Broadcast(WebSocketMessage{Type: MessageSnapshot, Data: "real"})

	msg := readMessage(t, conn)
	assert.Equal(t, "real", msg.Data)
}

func TestHubStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(zerolog.Nop())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("hub did not stop")
	}

	// Calls after shutdown must not block.
	hub.Broadcast(WebSocketMessage{Type: MessageSnapshot})
}
