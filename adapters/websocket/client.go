package websocket

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/aidbridge/backend/domain"
	"github.com/aidbridge/backend/utils/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 16 * 1024
	sendBuffer     = 256
)

// Frame types sent to clients
const (
	ChatReplyFrame     = "chat_reply"
	HelpRequestFrame   = "help_request"
	EmailVerifiedFrame = "email_verified"
	ErrorFrame         = "error"
)

// Frame is the envelope of every server-to-client message.
type Frame struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text,omitempty"`
	Source    string    `json:"source,omitempty"`
	Data      any       `json:"data,omitempty"`
}

// Inbound is the JSON form of a client frame. Plain text frames are taken as the message itself.
type Inbound struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Client struct {
	conn         *websocket.Conn
	send         chan []byte
	incomingPing chan string
	utterances   chan string
	ctx          context.Context
	cancel       context.CancelFunc
	mu           sync.RWMutex
	closed       bool

	uid  string
	role domain.Role
}

// NewClient wraps conn. uid and role are empty for anonymous connections.
func NewClient(parent context.Context, conn *websocket.Conn, uid string, role domain.Role) *Client {
	ctx := parent
	if uid != "" {
		ctx = log.ContextWithUser(ctx, uid, string(role))
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Client{
		conn:         conn,
		send:         make(chan []byte, sendBuffer),
		incomingPing: make(chan string, 1),
		utterances:   make(chan string),
		ctx:          ctx,
		cancel:       cancel,
		uid:          uid,
		role:         role,
	}
}

func (c *Client) UID() string       { return c.uid }
func (c *Client) Role() domain.Role { return c.role }

// Run starts the pumps and returns the channel of utterances read from the socket.
// The channel is closed when the read side ends.
func (c *Client) Run() <-chan string {
	c.setupHandlers()

	go c.Ping()
	go c.readPump()
	go c.writePump()
	return c.utterances
}

func (c *Client) setupHandlers() {
	c.conn.SetCloseHandler(func(code int, text string) error {
		log.WithCtx(c.ctx).Debug("WebSocket connection closed", zap.Int("code", code), zap.String("text", text))
		c.Close()
		return nil
	})

	c.conn.SetPingHandler(func(appData string) error {
		select {
		case c.incomingPing <- appData:
		default:
		}
		return c.conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
	})

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

// Close gracefully closes the client connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	c.cancel()
	c.conn.Close()
}

func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

func (c *Client) Context() context.Context {
	return c.ctx
}

// Ping keeps the connection alive; a ping from the peer postpones ours.
func (c *Client) Ping() {
	for {
		select {
		case <-c.incomingPing:
		case <-time.After(pingPeriod):
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.WithCtx(c.ctx).Debug("Failed to send ping", zap.Error(err))
				c.Close()
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		close(c.utterances)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		kind, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithCtx(c.ctx).Error("WebSocket error", zap.Error(err))
			}
			return
		}
		if kind != websocket.TextMessage {
			c.SendFrame(Frame{Type: ErrorFrame, Data: ErrorResponse{Code: "unsupported_frame", Message: "only text frames are accepted"}})
			continue
		}

		utterance, ok := decodeUtterance(message)
		if !ok {
			c.SendFrame(Frame{Type: ErrorFrame, Data: ErrorResponse{Code: "unsupported_type", Message: "only chat messages are accepted"}})
			continue
		}

		select {
		case c.utterances <- utterance:
		case <-c.ctx.Done():
			return
		}
	}
}

// decodeUtterance accepts either {"type":"chat","message":...} or a raw text frame.
// Only frames that look like a JSON object are decoded.
func decodeUtterance(message []byte) (string, bool) {
	if trimmed := bytes.TrimSpace(message); len(trimmed) == 0 || trimmed[0] != '{' {
		return string(message), true
	}
	var in Inbound
	if err := json.Unmarshal(message, &in); err != nil {
		return string(message), true
	}
	if in.Type != "" && in.Type != "chat" {
		return "", false
	}
	return in.Message, true
}

func (c *Client) writePump() {
	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.WithCtx(c.ctx).Debug("Failed to write message", zap.Error(err))
				c.Close()
				return
			}

		case <-c.ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// SendMessage queues message for the client. A client that cannot keep up is dropped.
func (c *Client) SendMessage(message []byte) error {
	if c.IsClosed() {
		return websocket.ErrCloseSent
	}

	select {
	case c.send <- message:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		log.WithCtx(c.ctx).Warn("Send buffer full, dropping client")
		c.Close()
		return websocket.ErrCloseSent
	}
}

func (c *Client) SendFrame(frame Frame) error {
	if frame.Timestamp.IsZero() {
		frame.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return c.SendMessage(data)
}
