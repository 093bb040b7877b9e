// Package server runs the relay event loop via the Hub type.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"time"
)

const shutdownNotice = "Server is shutting down."

// Hub is the event loop. Each iteration polls every acceptor once, then
// attempts one non-blocking read on every registered client, and finally
// pauses for the poll interval. All registry mutations happen inside Poll.
type Hub struct {
	registry     *Registry
	router       *Router
	acceptors    []Acceptor
	framing      Framing
	maxSize      int
	rateLimit    RateLimitConfig
	pollInterval time.Duration
	buf          []byte
	log          *slog.Logger

	started atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewHub creates a hub from cfg. censor may be nil; acceptors may also be
// added with AddAcceptor before Run is called.
func NewHub(cfg Config, censor Censor, log *slog.Logger, acceptors ...Acceptor) *Hub {
	if log == nil {
		log = slog.Default()
	}
	cfg = sanitizeConfig(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		acceptors:    acceptors,
		framing:      Framing(cfg.Framing),
		maxSize:      cfg.MaxMessageSize,
		rateLimit:    cfg.RateLimit(),
		pollInterval: cfg.PollInterval,
		buf:          make([]byte, cfg.MaxMessageSize),
		log:          log,
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}
	h.registry = NewRegistry(NewBroadcaster(log), h.newClient, log)
	h.router = NewRouter(h.registry, censor, log)
	return h
}

func (h *Hub) newClient(conn Conn) *Client {
	var limiter *rateLimiter
	if h.rateLimit.Burst > 0 {
		limiter = newRateLimiter(h.rateLimit)
	}
	return NewClient(conn, newFramer(h.framing, h.maxSize), limiter)
}

// AddAcceptor registers another source of connections. Call it before Run.
func (h *Hub) AddAcceptor(a Acceptor) {
	h.acceptors = append(h.acceptors, a)
}

// Registry exposes the client registry.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Participants returns the number of registered clients; safe from any goroutine.
func (h *Hub) Participants() int {
	return h.registry.Len()
}

// Roster returns the registered participants; safe from any goroutine.
func (h *Hub) Roster() []Participant {
	return h.registry.Roster()
}

// Poll runs exactly one loop iteration.
func (h *Hub) Poll() {
	h.acceptPending()

	for _, client := range h.registry.Clients() {
		// an earlier entry of this iteration may have removed it
		if !h.registry.Contains(client.conn) {
			continue
		}
		h.serve(client)
	}
}

func (h *Hub) acceptPending() {
	active := make([]Acceptor, 0, len(h.acceptors))
	for _, acceptor := range h.acceptors {
		conn, err := acceptor.Accept()
		switch {
		case err == nil:
			h.register(conn)
		case errors.Is(err, ErrWouldBlock):
		case errors.Is(err, ErrSetup):
			h.log.Warn("Failed setting up client; aborting connection", "error", err)
		case errors.Is(err, net.ErrClosed), errors.Is(err, ErrGatewayClosed):
			h.log.Info("Acceptor closed; no longer polled", "addr", acceptor.Addr())
			continue
		default:
			h.log.Warn("Accept failed", "addr", acceptor.Addr(), "error", err)
		}
		active = append(active, acceptor)
	}
	h.acceptors = active
}

func (h *Hub) register(conn Conn) {
	client, err := h.registry.Insert(conn)
	if errors.Is(err, ErrAlreadyRegistered) {
		h.log.Warn("Connection is registered already", "session", client.id, "addr", client.addr)
		return
	}
	h.log.Info("New connection established", "session", client.id, "addr", client.addr,
		"participants", h.registry.Len())
}

func (h *Hub) serve(client *Client) {
	n, err := client.conn.Read(h.buf)
	if n > 0 {
		for _, msg := range client.framer.Feed(h.buf[:n]) {
			h.log.Info("Server received message", "session", client.id, "message", msg)
			if h.router.Dispatch(client, msg) == ActionQuit {
				h.log.Info("Client quit", "session", client.id, "addr", client.addr)
				h.registry.Remove(client.conn)
				return
			}
		}
	}

	switch {
	case err == nil && n > 0:
	case errors.Is(err, ErrWouldBlock):
	case err == nil, errors.Is(err, io.EOF):
		h.log.Info("Client disconnected", "session", client.id, "addr", client.addr)
		h.registry.Remove(client.conn)
	default:
		h.log.Info("Client read failed; treating as disconnect", "session", client.id,
			"addr", client.addr, "error", err)
		h.registry.Remove(client.conn)
	}
}

// Run polls until ctx is cancelled or Shutdown is called, then closes every
// client and acceptor. It must be called at most once.
func (h *Hub) Run(ctx context.Context) error {
	if !h.started.CompareAndSwap(false, true) {
		return errors.New("server.Hub: already running")
	}
	defer close(h.done)
	defer h.shutdownClients()

	h.log.Info("Hub started", "poll_interval", h.pollInterval, "framing", h.framing)
	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	for {
		h.Poll()
		select {
		case <-ctx.Done():
			return nil
		case <-h.ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// shutdownClients gracefully closes all client connections and acceptors.
func (h *Hub) shutdownClients() {
	h.log.Info("Shutting down all client connections...")
	closed := h.registry.CloseAll(shutdownNotice)
	for _, acceptor := range h.acceptors {
		if err := acceptor.Close(); err != nil && !isExpectedCloseError(err) {
			h.log.Warn("Error closing acceptor", "addr", acceptor.Addr(), "error", err)
		}
	}
	h.acceptors = nil
	h.log.Info("Closed client connections", "count", closed)
}

// Shutdown stops Run and waits for it to finish, or until the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.cancel()
	if !h.started.Load() {
		return nil
	}

	select {
	case <-h.done:
		h.log.Info("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		h.log.Warn("Hub shutdown timeout reached")
		return context.DeadlineExceeded
	}
}
