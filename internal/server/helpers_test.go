package server_test

import (
	"log/slog"
	"net"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/Tyrowin/gorelay/internal/server/mocks"
)

var discardLog = slog.New(slog.DiscardHandler)

// newMockConn returns a connection double answering RemoteAddr with a loopback address.
func newMockConn(ctrl *gomock.Controller, port int) *mocks.MockConn {
	conn := mocks.NewMockConn(ctrl)
	conn.EXPECT().RemoteAddr().Return(&net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port}).AnyTimes()
	return conn
}

// reads returns a Read implementation delivering text in one call.
func reads(text string) func([]byte) (int, error) {
	return func(p []byte) (int, error) {
		return copy(p, text), nil
	}
}

func line(text string) []byte {
	return []byte(text + "\n")
}

func newController(t *testing.T) *gomock.Controller {
	t.Helper()
	return gomock.NewController(t)
}
