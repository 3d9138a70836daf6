package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024

	sendBuffer = 16
)

// Message types pushed to clients.
const (
	MessageSnapshot = "snapshot"
	MessagePing     = "ping"
	MessagePong     = "pong"
)

// Client is one connected browser tab
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte // owned by the hub, which closes it
	pong chan []byte
	User string
}

// WebSocketMessage is the standard message format for WebSocket communication
type WebSocketMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// NewClient wraps an upgraded connection. Call Hub.Register, then Serve.
func NewClient(hub *Hub, conn *websocket.Conn, user string) *Client {
	return &Client{hub: hub, conn: conn, send: make(chan []byte, sendBuffer), pong: make(chan []byte, 1), User: user}
}

// Serve starts the read and write pumps.
func (c *Client) Serve() {
	go c.writePump()
	go c.readPump()
}

// readPump answers pings. Clients never push document changes over the socket.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn().Err(err).Str("user", c.User).Msg("websocket read failed")
			}
			return
		}

		var msg WebSocketMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.hub.log.Debug().Err(err).Msg("dropping malformed websocket message")
			continue
		}
		if msg.Type != MessagePing {
			c.hub.log.Debug().Str("type", msg.Type).Msg("ignoring websocket message")
			continue
		}

		pong, err := json.Marshal(WebSocketMessage{
			Type: MessagePong,
			Data: map[string]string{"timestamp": time.Now().Format(time.RFC3339)},
		})
		if err == nil {
			select {
			case c.pong <- pong:
			default:
			}
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case message := <-c.pong:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Hub fans document snapshots out to every connected client
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	log        zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log,
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast sends message to all connected clients.
func (h *Hub) Broadcast(message WebSocketMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		h.log.Error().Err(err).Str("type", message.Type).Msg("failed to marshal websocket message")
		return
	}
	select {
	case h.broadcast <- data:
	case <-h.done:
	}
}

// Run is the hub's main loop. It returns when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
			h.log.Debug().Str("user", client.User).Int("clients", len(h.clients)).Msg("client connected")
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.log.Debug().Str("user", client.User).Int("clients", len(h.clients)).Msg("client disconnected")
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client's send buffer is full, assume disconnected
					h.log.Warn().Str("user", client.User).Msg("client send buffer full, dropping client")
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}
