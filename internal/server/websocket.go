// Package server adapts gorilla WebSocket connections to the non-blocking
// Conn contract so browser participants share the registry with TCP ones.
package server

import (
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// maxFrameSize bounds one inbound WebSocket frame; larger frames end the session.
const maxFrameSize = 64 << 10

// wsConn buffers inbound frames from a background reader so that Read can
// return immediately. A frame longer than the caller's buffer is handed out
// over consecutive reads, the way a TCP stream is.
type wsConn struct {
	ws           *websocket.Conn
	addr         net.Addr
	inbox        chan []byte
	pending      []byte
	done         chan struct{}
	readErr      error
	writeTimeout time.Duration
	closeOnce    sync.Once
	closeErr     error
}

func newWSConn(ws *websocket.Conn, writeTimeout time.Duration) *wsConn {
	ws.SetReadLimit(maxFrameSize)
	c := &wsConn{
		ws:           ws,
		addr:         ws.RemoteAddr(),
		inbox:        make(chan []byte, 16),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
	}
	go c.readPump()
	return c
}

// readPump owns every read on the socket; readErr is published by closing inbox.
func (c *wsConn) readPump() {
	defer close(c.inbox)
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			c.readErr = err
			return
		}
		select {
		case c.inbox <- data:
		case <-c.done:
			return
		}
	}
}

// Read is only called from the hub goroutine.
func (c *wsConn) Read(p []byte) (int, error) {
	if len(c.pending) > 0 {
		n := copy(p, c.pending)
		c.pending = c.pending[n:]
		return n, nil
	}

	select {
	case data, ok := <-c.inbox:
		if !ok {
			if c.readErr == nil || websocket.IsCloseError(c.readErr,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return 0, io.EOF
			}
			return 0, c.readErr
		}
		n := copy(p, data)
		if n < len(data) {
			c.pending = data[n:]
		}
		return n, nil
	default:
		return 0, ErrWouldBlock
	}
}

// Write sends p as one text frame without its trailing newline.
func (c *wsConn) Write(p []byte) (int, error) {
	if c.writeTimeout > 0 {
		if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return 0, err
		}
	}
	text := strings.TrimSuffix(string(p), "\n")
	if err := c.ws.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		deadline := time.Now().Add(time.Second)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, deadline)
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}

func (c *wsConn) RemoteAddr() net.Addr {
	return c.addr
}

// WebSocketGateway upgrades HTTP requests and queues the resulting
// connections until the hub accepts them.
type WebSocketGateway struct {
	upgrader     websocket.Upgrader
	origins      originPolicy
	writeTimeout time.Duration
	log          *slog.Logger

	mu      sync.Mutex
	closed  bool
	pending chan *wsConn
	addr    net.Addr
}

// NewWebSocketGateway creates a gateway configured from cfg.
func NewWebSocketGateway(cfg Config, log *slog.Logger) *WebSocketGateway {
	if log == nil {
		log = slog.Default()
	}
	cfg = sanitizeConfig(cfg)
	g := &WebSocketGateway{
		origins:      newOriginPolicy(cfg.OriginList(), log),
		writeTimeout: cfg.WriteTimeout,
		log:          log,
		pending:      make(chan *wsConn, cfg.WebSocketBacklog),
	}
	g.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     g.origins.checkOrigin,
	}
	return g
}

// enqueue hands an upgraded connection to the hub, refusing when the backlog is full.
func (g *WebSocketGateway) enqueue(conn *wsConn) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrGatewayClosed
	}
	select {
	case g.pending <- conn:
		return nil
	default:
		return ErrWouldBlock
	}
}

// Accept returns one upgraded connection if any is waiting.
func (g *WebSocketGateway) Accept() (Conn, error) {
	select {
	case conn := <-g.pending:
		return conn, nil
	default:
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil, ErrGatewayClosed
	}
	return nil, ErrWouldBlock
}

// Close stops handing out connections and closes those still waiting.
func (g *WebSocketGateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	g.closed = true
	for {
		select {
		case conn := <-g.pending:
			_ = conn.Close()
		default:
			return nil
		}
	}
}

// Addr returns the HTTP listener address once the server has bound it.
func (g *WebSocketGateway) Addr() net.Addr {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addr
}

func (g *WebSocketGateway) setAddr(addr net.Addr) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.addr = addr
}
