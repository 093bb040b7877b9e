// Package server assembles the relay process: the TCP acceptor, the hub and
// the optional HTTP surface.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/Tyrowin/gorelay/internal/moderation"
)

// Server owns every listener of one relay process.
type Server struct {
	cfg          Config
	log          *slog.Logger
	hub          *Hub
	tcp          *TCPAcceptor
	gateway      *WebSocketGateway
	httpServer   *http.Server
	httpListener net.Listener
}

// NewServer binds the TCP listener and, when HTTPAddr is set, the HTTP
// listener. Binding failures are returned before anything is served.
func NewServer(cfg Config, log *slog.Logger) (*Server, error) {
	if log == nil {
		log = slog.Default()
	}
	cfg = sanitizeConfig(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var censor Censor
	if words := cfg.CensoredWordList(); len(words) > 0 {
		char, _ := cfg.CensorRune()
		mod, err := moderation.NewModerator(words, char, log)
		if err != nil {
			return nil, fmt.Errorf("moderation setup failed: %w", err)
		}
		censor = mod
	}

	tcp, err := ListenTCP(cfg.ListenAddr(), cfg.ReadWindow, cfg.WriteTimeout)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.ListenAddr(), err)
	}

	s := &Server{
		cfg: cfg,
		log: log,
		hub: NewHub(cfg, censor, log, tcp),
		tcp: tcp,
	}

	if cfg.HTTPAddr != "" {
		ln, err := net.Listen("tcp", cfg.HTTPAddr)
		if err != nil {
			_ = tcp.Close()
			return nil, fmt.Errorf("listen on %s: %w", cfg.HTTPAddr, err)
		}
		s.gateway = NewWebSocketGateway(cfg, log)
		s.gateway.setAddr(ln.Addr())
		s.hub.AddAcceptor(s.gateway)
		s.httpListener = ln
		s.httpServer = CreateServer(cfg.HTTPAddr, SetupRoutes(s.hub, s.gateway, log))
	}
	return s, nil
}

// Hub returns the relay event loop.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Addr is the bound TCP relay address.
func (s *Server) Addr() net.Addr {
	return s.tcp.Addr()
}

// HTTPAddr is the bound HTTP address, or nil when HTTP is disabled.
func (s *Server) HTTPAddr() net.Addr {
	if s.httpListener == nil {
		return nil
	}
	return s.httpListener.Addr()
}

// Run serves until ctx is cancelled, then shuts the HTTP server and the hub
// down within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("Relay listening", "addr", s.Addr(), "framing", s.cfg.Framing)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.hub.Run(gctx)
	})

	if s.httpServer != nil {
		s.log.Info("HTTP server listening", "addr", s.HTTPAddr())
		g.Go(func() error {
			if err := s.httpServer.Serve(s.httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		var errs []error
		if s.httpServer != nil {
			if err := ShutdownServer(s.httpServer, s.cfg.ShutdownTimeout, s.log); err != nil {
				errs = append(errs, err)
			}
		}
		if err := s.hub.Shutdown(s.cfg.ShutdownTimeout); err != nil {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}
