package server_test

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/gorelay/internal/server"
)

func TestBroadcaster_SkipsExcludedSender(t *testing.T) {
	req := require.New(t)
	ctrl := newController(t)
	reg := server.NewRegistry(nil, nil, discardLog)

	sender, other := newMockConn(ctrl, 1001), newMockConn(ctrl, 1002)
	_, err := reg.Insert(sender)
	req.NoError(err)
	_, err = reg.Insert(other)
	req.NoError(err)

	// Then only the other participant receives the chat line
	other.EXPECT().Write(line("hello")).Return(6, nil)

	delivered := server.NewBroadcaster(discardLog).Broadcast(reg.Clients(), sender, "hello", false)
	req.Equal(1, delivered)
}

func TestBroadcaster_IncludeExcludedReachesEveryone(t *testing.T) {
	req := require.New(t)
	ctrl := newController(t)
	reg := server.NewRegistry(nil, nil, discardLog)

	a, b := newMockConn(ctrl, 1001), newMockConn(ctrl, 1002)
	_, _ = reg.Insert(a)
	_, _ = reg.Insert(b)

	a.EXPECT().Write(line("announcement")).Return(13, nil)
	b.EXPECT().Write(line("announcement")).Return(13, nil)

	req.Equal(2, reg.Broadcast(a, "announcement", true))
}

func TestBroadcaster_ContinuesPastBrokenRecipient(t *testing.T) {
	req := require.New(t)
	ctrl := newController(t)
	reg := server.NewRegistry(nil, nil, discardLog)

	sender := newMockConn(ctrl, 1000)
	healthy1, broken, healthy2 := newMockConn(ctrl, 1001), newMockConn(ctrl, 1002), newMockConn(ctrl, 1003)
	for _, conn := range []server.Conn{sender, healthy1, broken, healthy2} {
		_, err := reg.Insert(conn)
		req.NoError(err)
	}

	// Given one recipient whose pipe is broken
	broken.EXPECT().Write(line("alice: hi")).Return(0, syscall.EPIPE)
	healthy1.EXPECT().Write(line("alice: hi")).Return(10, nil)
	healthy2.EXPECT().Write(line("alice: hi")).Return(10, nil)

	// When a chat line is broadcast
	delivered := reg.Broadcast(sender, "alice: hi", false)

	// Then everybody else still got it and the broken one is not removed yet
	req.Equal(2, delivered)
	req.True(reg.Contains(broken))
	req.Equal(4, reg.Len())
}
