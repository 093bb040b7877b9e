package server_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/gorelay/internal/server"
)

func TestRegistry_InsertUsesDefaultName(t *testing.T) {
	req := require.New(t)
	ctrl := newController(t)
	reg := server.NewRegistry(nil, nil, discardLog)
	conn := newMockConn(ctrl, 2001)

	client, err := reg.Insert(conn)

	req.NoError(err)
	req.Equal(server.DefaultName, client.Name())
	req.Equal("127.0.0.1:2001", client.Addr())
	req.Same(conn, client.Conn())
	req.True(reg.Contains(conn))
	req.Equal(1, reg.Len())
}

func TestRegistry_InsertTwiceKeepsOneEntry(t *testing.T) {
	req := require.New(t)
	ctrl := newController(t)
	reg := server.NewRegistry(nil, nil, discardLog)
	conn := newMockConn(ctrl, 2001)

	first, err := reg.Insert(conn)
	req.NoError(err)

	again, err := reg.Insert(conn)
	req.ErrorIs(err, server.ErrAlreadyRegistered)
	req.Same(first, again)
	req.Equal(1, reg.Len())
}

func TestRegistry_RemoveAnnouncesThenCloses(t *testing.T) {
	req := require.New(t)
	ctrl := newController(t)
	reg := server.NewRegistry(nil, nil, discardLog)

	leaving, b, c := newMockConn(ctrl, 2001), newMockConn(ctrl, 2002), newMockConn(ctrl, 2003)
	for _, conn := range []server.Conn{leaving, b, c} {
		_, err := reg.Insert(conn)
		req.NoError(err)
	}
	_, _, ok := reg.Rename(leaving, "bob")
	req.True(ok)

	// Then the others hear about it exactly once, before the connection closes
	bWrite := b.EXPECT().Write(line("User bob has disconnected.")).Return(27, nil)
	cWrite := c.EXPECT().Write(line("User bob has disconnected.")).Return(27, nil)
	leaving.EXPECT().Close().Return(nil).After(bWrite).After(cWrite)

	// When it is removed
	req.True(reg.Remove(leaving))

	req.False(reg.Contains(leaving))
	req.Equal(2, reg.Len())

	// Then removing it again is a no-op
	req.False(reg.Remove(leaving))
}

func TestRegistry_RemoveLastClient(t *testing.T) {
	req := require.New(t)
	ctrl := newController(t)
	reg := server.NewRegistry(nil, nil, discardLog)
	conn := newMockConn(ctrl, 2001)
	_, _ = reg.Insert(conn)

	conn.EXPECT().Close().Return(errors.New("use of closed network connection"))

	req.True(reg.Remove(conn))
	req.Zero(reg.Len())
}

func TestRegistry_RenameTruncates(t *testing.T) {
	req := require.New(t)
	ctrl := newController(t)
	reg := server.NewRegistry(nil, nil, discardLog)
	conn := newMockConn(ctrl, 2001)
	_, _ = reg.Insert(conn)

	previous, stored, ok := reg.Rename(conn, strings.Repeat("x", 40))

	req.True(ok)
	req.Equal(server.DefaultName, previous)
	req.Equal(strings.Repeat("x", server.NameCapacity-1), stored)

	client, found := reg.Get(conn)
	req.True(found)
	req.Equal(stored, client.Name())

	_, _, ok = reg.Rename(newMockConn(ctrl, 2999), "ghost")
	req.False(ok)
}

func TestRegistry_RosterIsSorted(t *testing.T) {
	req := require.New(t)
	ctrl := newController(t)
	reg := server.NewRegistry(nil, nil, discardLog)

	zed, amy, anon := newMockConn(ctrl, 2001), newMockConn(ctrl, 2002), newMockConn(ctrl, 2003)
	for _, conn := range []server.Conn{zed, amy, anon} {
		_, _ = reg.Insert(conn)
	}
	reg.Rename(zed, "zed")
	reg.Rename(amy, "amy")

	roster := reg.Roster()

	req.Len(roster, 3)
	req.Equal([]string{"Unknown User", "amy", "zed"},
		[]string{roster[0].Name, roster[1].Name, roster[2].Name})
	req.Equal("127.0.0.1:2002", roster[1].Addr)
	req.NotEmpty(roster[1].ID)
}

func TestRegistry_CloseAll(t *testing.T) {
	req := require.New(t)
	ctrl := newController(t)
	reg := server.NewRegistry(nil, nil, discardLog)

	a, b := newMockConn(ctrl, 2001), newMockConn(ctrl, 2002)
	_, _ = reg.Insert(a)
	_, _ = reg.Insert(b)

	aw := a.EXPECT().Write(line("Server is shutting down.")).Return(25, nil)
	bw := b.EXPECT().Write(line("Server is shutting down.")).Return(25, nil)
	a.EXPECT().Close().Return(nil).After(aw)
	b.EXPECT().Close().Return(nil).After(bw)

	req.Equal(2, reg.CloseAll("Server is shutting down."))
	req.Zero(reg.Len())
	req.Empty(reg.Clients())
}
