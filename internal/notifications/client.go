package notifications

import (
	"log/slog"
	"time"

	"mangafas/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// The stream is push-only; peers have nothing to say beyond control
	// frames, so inbound frames are capped tight.
	maxIncomingSize = 512

	// Outbound buffer per connection. A reader that falls this far behind
	// gets a gap notice and re-syncs from the inbox.
	sendBuffer = 256
)

// streamGapNotice tells the client that live events were dropped. The inbox
// is the durable record; on receiving this the client re-fetches from it.
var streamGapNotice = []byte(`{"type":"stream_gap","payload":{"reason":"buffer_full"}}`)

// Client is one websocket connection on the notification stream.
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	// Buffered channel of outbound messages.
	Send chan []byte

	// UserID for this client
	UserID uint
}

// NewClient creates a new Client instance
func NewClient(hub *Hub, conn *websocket.Conn, userID uint) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		UserID: userID,
		Send:   make(chan []byte, sendBuffer),
	}
}

// ReadPump services the connection's read side. The stream carries no client
// commands, so inbound frames are drained only to keep the pong handler and
// close detection alive.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.UnregisterClient(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxIncomingSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { _ = c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("notification stream read failed",
					slog.Any("user_id", c.UserID), slog.String("error", err.Error()))
			}
			return
		}
	}
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// TrySend enqueues a message without blocking. A full buffer drops the message
// and leaves a gap notice so the client knows to re-sync from its inbox; a
// closed channel is absorbed.
func (c *Client) TrySend(message []byte) {
	defer func() {
		if r := recover(); r != nil {
			observability.NotificationStreamDrops.WithLabelValues("closed").Inc()
		}
	}()

	select {
	case c.Send <- message:
	default:
		observability.NotificationStreamDrops.WithLabelValues("full").Inc()
		slog.Warn("notification stream buffer full, dropping message",
			slog.Any("user_id", c.UserID))

		select {
		case c.Send <- streamGapNotice:
		default:
			// Not even the notice fits; the reconnect welcome carries the
			// unread count, so the client still recovers there.
		}
	}
}
