// Package server describes a connected participant and the per-client state
// the hub keeps next to its connection.
package server

import (
	"unicode/utf8"

	"github.com/google/uuid"
)

// Client represents one connected participant. It is identified by its
// connection handle; the session id only labels it in logs and rosters.
type Client struct {
	id          uuid.UUID
	conn        Conn
	name        string
	addr        string
	framer      framer
	rateLimiter *rateLimiter
}

// NewClient creates a Client with the default display name.
func NewClient(conn Conn, framer framer, limiter *rateLimiter) *Client {
	addr := ""
	if conn != nil && conn.RemoteAddr() != nil {
		addr = conn.RemoteAddr().String()
	}
	if framer == nil {
		framer = readFramer{}
	}
	return &Client{
		id:          uuid.New(),
		conn:        conn,
		name:        DefaultName,
		addr:        addr,
		framer:      framer,
		rateLimiter: limiter,
	}
}

// ID returns the session id.
func (c *Client) ID() uuid.UUID { return c.id }

// Conn returns the connection handle identifying the client.
func (c *Client) Conn() Conn { return c.conn }

// Name returns the current display name.
func (c *Client) Name() string { return c.name }

// Addr returns the remote address captured at accept time.
func (c *Client) Addr() string { return c.addr }

// truncateName cuts a name to NameCapacity-1 bytes without splitting a UTF-8 sequence.
func truncateName(name string) string {
	limit := NameCapacity - 1
	if len(name) <= limit {
		return name
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return name[:cut]
}
