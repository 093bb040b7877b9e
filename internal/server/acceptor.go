// Package server implements the TCP connection acceptor polled by the hub.
package server

import (
	"fmt"
	"net"
	"time"
)

// TCPAcceptor owns the listening endpoint and hands out configured connections.
type TCPAcceptor struct {
	ln           *net.TCPListener
	readWindow   time.Duration
	writeTimeout time.Duration
	configure    func(net.Conn) error
}

// ListenTCP binds addr (":port" binds all local interfaces) and returns an acceptor.
func ListenTCP(addr string, readWindow, writeTimeout time.Duration) (*TCPAcceptor, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", addr, err)
	}
	ln, err := net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		return nil, fmt.Errorf("listen %q: %w", addr, err)
	}
	return NewTCPAcceptor(ln, readWindow, writeTimeout), nil
}

// NewTCPAcceptor wraps an existing listener.
func NewTCPAcceptor(ln *net.TCPListener, readWindow, writeTimeout time.Duration) *TCPAcceptor {
	return &TCPAcceptor{
		ln:           ln,
		readWindow:   readWindow,
		writeTimeout: writeTimeout,
		configure:    configureConn,
	}
}

// Accept waits at most the read window for a pending connection.
func (a *TCPAcceptor) Accept() (Conn, error) {
	if err := a.ln.SetDeadline(time.Now().Add(a.readWindow)); err != nil {
		return nil, err
	}
	raw, err := a.ln.Accept()
	if err != nil {
		if isTimeout(err) {
			return nil, ErrWouldBlock
		}
		return nil, err
	}
	if err := a.configure(raw); err != nil {
		addr := raw.RemoteAddr()
		_ = raw.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrSetup, addr, err)
	}
	return newTCPConn(raw, a.readWindow, a.writeTimeout), nil
}

// Close stops listening. Connections already handed out are not affected.
func (a *TCPAcceptor) Close() error {
	return a.ln.Close()
}

// Addr returns the bound address, useful when listening on port 0.
func (a *TCPAcceptor) Addr() net.Addr {
	return a.ln.Addr()
}

// configureConn prepares a freshly accepted connection for deadline-driven polling.
func configureConn(conn net.Conn) error {
	if tc, ok := conn.(*net.TCPConn); ok {
		if err := tc.SetNoDelay(true); err != nil {
			return err
		}
		if err := tc.SetKeepAlive(true); err != nil {
			return err
		}
	}
	return conn.SetDeadline(time.Time{})
}
