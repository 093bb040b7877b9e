// Package server defines shared payload types and utility helpers that are
// reused across the registry, the hub and the HTTP handlers.
package server

import (
	"errors"
	"net"
	"strings"
	"syscall"
)

// Participant is the JSON view of a registered client.
type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Addr string `json:"addr"`
}

// isExpectedCloseError checks if an error is expected while a peer goes away.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, net.ErrClosed) || errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
