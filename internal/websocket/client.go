package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/recycle-rewards/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096
	sendBuffer     = 256
	snapshotWait   = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Dashboards are served from other origins
	CheckOrigin: func(*http.Request) bool { return true },
}

// Client is one websocket connection
type Client struct {
	id     string
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	logger *slog.Logger
}

// ClientMessage is a request sent by a client. Type is the message type;
// Filter selects the leaderboard ("all", "individual", "family", "school").
type ClientMessage struct {
	Type   string `json:"type"`
	Filter string `json:"filter,omitempty"`
}

// NewClient creates a new WebSocket client
func NewClient(hub *Hub, conn *websocket.Conn, logger *slog.Logger) *Client {
	id := uuid.NewString()
	return &Client{
		id:     id,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		logger: logger.With("client_id", id),
	}
}

// ServeWs upgrades the request and starts the client's pumps
func ServeWs(hub *Hub, logger *slog.Logger, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := NewClient(hub, conn, logger)
	hub.Register(client)
	client.logger.Debug("new websocket connection", "remote_addr", r.RemoteAddr)

	go client.writePump()
	go client.readPump()
}

// readPump decodes client requests until the connection drops
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg ClientMessage
		err := c.conn.ReadJSON(&msg)
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case err == nil:
			c.handle(msg)
		case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
			c.reply(Message{Type: MessageTypeError, Data: errorData("invalid message format")})
		default:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket closed unexpectedly", "error", err)
			}
			return
		}
	}
}

func (c *Client) handle(msg ClientMessage) {
	switch msg.Type {
	case MessageTypeSubscribe:
		filter, ok := c.filter(msg)
		if !ok {
			return
		}
		c.hub.Subscribe(c, filter)
		c.reply(Message{Type: MessageTypeSubscribed, Filter: filter})
		c.pushSnapshot(filter)

	case MessageTypeUnsubscribe:
		filter, ok := c.filter(msg)
		if !ok {
			return
		}
		c.hub.Unsubscribe(c, filter)
		c.reply(Message{Type: MessageTypeUnsubscribed, Filter: filter})

	case MessageTypePing:
		c.reply(Message{Type: MessageTypePong})

	default:
		c.logger.Debug("unknown message type", "type", msg.Type)
		c.reply(Message{Type: MessageTypeError, Data: errorData("unknown message type")})
	}
}

func (c *Client) filter(msg ClientMessage) (domain.KindFilter, bool) {
	filter, err := domain.ParseKindFilter(msg.Filter)
	if err != nil {
		c.reply(Message{Type: MessageTypeError, Data: errorData(err.Error())})
		return "", false
	}
	return filter, true
}

// pushSnapshot sends the current rankings so a new subscriber does not wait for the next change
func (c *Client) pushSnapshot(filter domain.KindFilter) {
	snapshot := c.hub.snapshotFunc()
	if snapshot == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), snapshotWait)
	defer cancel()
	entries, err := snapshot(ctx, filter)
	if err != nil {
		c.logger.Warn("failed to load leaderboard snapshot", "filter", filter, "error", err)
		return
	}
	c.reply(leaderboardMessage(filter, entries))
}

// reply queues a message for this client only, dropping it when the buffer is full
func (c *Client) reply(msg Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("failed to marshal message", "error", err)
		return
	}
	select {
	case c.send <- data:
	default:
		c.logger.Warn("client buffer full, dropping reply", "type", msg.Type)
	}
}

// writePump writes queued messages and keeps the connection alive with pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		var (
			kind    int
			payload []byte
		)
		select {
		case message, ok := <-c.send:
			if !ok {
				// The hub closed the channel
				c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			kind, payload = websocket.TextMessage, message
		case <-ticker.C:
			kind = websocket.PingMessage
		}

		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(kind, payload); err != nil {
			return
		}
	}
}

func errorData(msg string) map[string]string {
	return map[string]string{"error": msg}
}
