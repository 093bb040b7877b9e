// Package testhelpers provides common utilities shared by the relay tests.
//
// It wraps loopback TCP peers and WebSocket dialers behind small helpers that
// send one message and assert on the lines the relay delivers back, so tests
// read as a conversation instead of socket plumbing.
package testhelpers

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// DefaultTimeout bounds every blocking helper.
const DefaultTimeout = 2 * time.Second

// TestOrigin is the origin accepted by the default configuration.
const TestOrigin = "http://localhost:8080"

// TCPPeer is a relay participant speaking the raw TCP protocol.
type TCPPeer struct {
	t      *testing.T
	conn   net.Conn
	reader *bufio.Reader
}

// DialTCP connects a participant to addr and closes it when the test ends.
func DialTCP(t *testing.T, addr string) *TCPPeer {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, DefaultTimeout)
	require.NoError(t, err, "dial %s", addr)
	t.Cleanup(func() { _ = conn.Close() })
	return &TCPPeer{t: t, conn: conn, reader: bufio.NewReader(conn)}
}

// Send writes text as a single write, exactly as typed.
func (p *TCPPeer) Send(text string) {
	p.t.Helper()
	_, err := p.conn.Write([]byte(text))
	require.NoError(p.t, err, "send %q", text)
}

// Expect reads the next line and compares it without its newline.
func (p *TCPPeer) Expect(want string) {
	p.t.Helper()
	line, err := p.ReadLine(DefaultTimeout)
	require.NoError(p.t, err, "waiting for %q", want)
	require.Equal(p.t, want, line)
}

// ReadLine waits up to timeout for one newline-terminated line.
func (p *TCPPeer) ReadLine(timeout time.Duration) (string, error) {
	if err := p.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return "", err
	}
	line, err := p.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(line, "\n"), nil
}

// ExpectSilence fails if any line arrives within d.
func (p *TCPPeer) ExpectSilence(d time.Duration) {
	p.t.Helper()
	line, err := p.ReadLine(d)
	if err == nil {
		p.t.Fatalf("expected no message, got %q", line)
	}
	require.True(p.t, errors.Is(err, os.ErrDeadlineExceeded), "unexpected read error: %v", err)
}

// ExpectClosed fails unless the relay closes the connection within the timeout,
// skipping any lines still in flight.
func (p *TCPPeer) ExpectClosed() {
	p.t.Helper()
	deadline := time.Now().Add(DefaultTimeout)
	for time.Now().Before(deadline) {
		if _, err := p.ReadLine(time.Until(deadline)); err != nil {
			require.False(p.t, errors.Is(err, os.ErrDeadlineExceeded), "connection still open")
			return
		}
	}
	p.t.Fatal("connection still open")
}

// Close hangs up without sending anything.
func (p *TCPPeer) Close() {
	_ = p.conn.Close()
}

// WaitFor polls cond until it holds or the timeout elapses.
func WaitFor(t *testing.T, cond func() bool, msgAndArgs ...any) {
	t.Helper()
	require.Eventually(t, cond, DefaultTimeout, 5*time.Millisecond, msgAndArgs...)
}

// MakeRequest creates and executes an HTTP request, returning the response.
func MakeRequest(t *testing.T, method, url string) *http.Response {
	t.Helper()

	client := &http.Client{
		Timeout: DefaultTimeout,
	}

	req, err := http.NewRequest(method, url, http.NoBody)
	require.NoError(t, err, "create request")

	resp, err := client.Do(req)
	require.NoError(t, err, "make request")
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// ConnectWebSocket dials url with the given Origin header.
func ConnectWebSocket(url, origin string) (*websocket.Conn, *http.Response, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: DefaultTimeout,
	}

	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn, resp, err
}

// ReceiveText reads one text frame within the timeout.
func ReceiveText(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(DefaultTimeout)))
	messageType, data, err := conn.ReadMessage()
	require.NoError(t, err, "read websocket frame")
	require.Equal(t, websocket.TextMessage, messageType)
	return string(data)
}

// CloseWebSocket gracefully closes a WebSocket connection.
func CloseWebSocket(conn *websocket.Conn) error {
	err := conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		return err
	}
	return conn.Close()
}
