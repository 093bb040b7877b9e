package server

import "errors"

var (
	// ErrWouldBlock - returned by non-blocking reads and accepts when nothing is ready yet.
	// It is not a failure: the loop simply tries again on its next iteration.
	ErrWouldBlock = errors.New("server: operation would block")

	// ErrSetup - an accepted connection could not be configured and was discarded.
	ErrSetup = errors.New("server: connection setup failed")

	// ErrAlreadyRegistered - the connection handle is kept by the registry already.
	// Do not close such connection after this error, the registry still owns it.
	ErrAlreadyRegistered = errors.New("server: connection is registered already")

	// ErrGatewayClosed - the WebSocket gateway does not hand out connections anymore.
	ErrGatewayClosed = errors.New("server: websocket gateway is closed")
)
