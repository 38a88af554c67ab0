package host

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/jask/solvetree/internal/protocol"
)

const writeWait = 10 * time.Second

// DialOptions configures a websocket connection.
type DialOptions struct {
	Token   string
	Timeout time.Duration
	Logger  *zap.Logger
}

// WebSocket is a Conn over a gorilla websocket, one envelope per text frame.
type WebSocket struct {
	ws  *websocket.Conn
	log *zap.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    chan struct{}
}

// Dial connects to a host websocket endpoint.
func Dial(ctx context.Context, url string, opts DialOptions) (*WebSocket, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = opts.Timeout

	header := http.Header{}
	if opts.Token != "" {
		header.Set("Authorization", "Bearer "+opts.Token)
	}
	ws, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %s: %w", url, resp.Status, err)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return NewWebSocket(ws, opts.Logger), nil
}

// NewWebSocket wraps an established connection.
func NewWebSocket(ws *websocket.Conn, log *zap.Logger) *WebSocket {
	if log == nil {
		log = zap.NewNop()
	}
	return &WebSocket{ws: ws, log: log, closed: make(chan struct{})}
}

// Receive blocks for the next envelope. It returns ErrClosed on a normal
// close or after Close.
func (c *WebSocket) Receive(ctx context.Context) (protocol.Envelope, error) {
	if err := ctx.Err(); err != nil {
		return protocol.Envelope{}, err
	}
	for {
		kind, data, err := c.ws.ReadMessage()
		if err != nil {
			select {
			case <-c.closed:
				return protocol.Envelope{}, ErrClosed
			default:
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return protocol.Envelope{}, ErrClosed
			}
			return protocol.Envelope{}, fmt.Errorf("read: %w", err)
		}
		if kind != websocket.TextMessage {
			c.log.Debug("skipping non-text frame", zap.Int("kind", kind))
			continue
		}
		return protocol.ParseEnvelope(data)
	}
}

// Send writes one request frame.
func (c *WebSocket) Send(ctx context.Context, req protocol.Request) error {
	b, err := protocol.Encode(req)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}
	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = c.ws.SetWriteDeadline(deadline)
	if err := c.ws.WriteMessage(websocket.TextMessage, b); err != nil {
		return fmt.Errorf("write %s: %w", req.Command, err)
	}
	return nil
}

// Close sends a close frame and releases the connection. It is safe to call
// more than once.
func (c *WebSocket) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		close(c.closed)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		werr := c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		c.writeMu.Unlock()
		if werr != nil && !errors.Is(werr, websocket.ErrCloseSent) {
			c.log.Debug("close frame not sent", zap.Error(werr))
		}
		err = c.ws.Close()
	})
	return err
}
