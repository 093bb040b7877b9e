//go:generate go run go.uber.org/mock/mockgen -source=conn.go -destination=mocks/mock_conn.go -package=mocks

// Package server defines the connection contracts the event loop polls and the
// TCP implementation of a non-blocking connection.
package server

import (
	"errors"
	"net"
	"os"
	"time"
)

// Conn is a bidirectional byte stream owned by exactly one registry entry.
// Read must never block indefinitely: when no data is ready it returns
// (0, ErrWouldBlock). A (0, nil) or io.EOF result means the peer closed the stream.
type Conn interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	RemoteAddr() net.Addr
}

// Acceptor produces new connections without blocking the event loop.
// Accept returns (nil, ErrWouldBlock) when no connection is pending and an
// error wrapping ErrSetup when a pending connection had to be discarded.
type Acceptor interface {
	Accept() (Conn, error)
	Close() error
	Addr() net.Addr
}

// tcpConn turns a net.Conn into a non-blocking Conn with short read deadlines.
type tcpConn struct {
	net.Conn
	readWindow   time.Duration
	writeTimeout time.Duration
}

func newTCPConn(conn net.Conn, readWindow, writeTimeout time.Duration) *tcpConn {
	return &tcpConn{Conn: conn, readWindow: readWindow, writeTimeout: writeTimeout}
}

func (c *tcpConn) Read(p []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.readWindow)); err != nil {
		return 0, err
	}
	n, err := c.Conn.Read(p)
	if n == 0 && isTimeout(err) {
		return 0, ErrWouldBlock
	}
	if n > 0 && isTimeout(err) {
		return n, nil
	}
	return n, err
}

func (c *tcpConn) Write(p []byte) (int, error) {
	if c.writeTimeout > 0 {
		if err := c.Conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Write(p)
}

// isTimeout reports whether err is the "no data currently available" outcome
// of a deadline-bounded read or accept.
func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
