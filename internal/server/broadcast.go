// Package server delivers one text payload to a subset of the registry.
package server

import (
	"log/slog"
)

// Broadcaster sends text to clients at most once each, with no retry and no
// acknowledgement. A failing recipient is logged and skipped; its removal is
// left to its own next failed read.
type Broadcaster struct {
	log *slog.Logger
}

// NewBroadcaster creates a Broadcaster logging to log (slog.Default when nil).
func NewBroadcaster(log *slog.Logger) *Broadcaster {
	if log == nil {
		log = slog.Default()
	}
	return &Broadcaster{log: log}
}

// Broadcast writes text followed by a newline to every member whose connection
// differs from exclude, or to every member when includeExcluded is true.
// It returns the number of successful deliveries.
func (b *Broadcaster) Broadcast(members []*Client, exclude Conn, text string, includeExcluded bool) int {
	payload := []byte(text + "\n")
	delivered := 0
	for _, member := range members {
		if !includeExcluded && member.conn == exclude {
			continue
		}
		if _, err := member.conn.Write(payload); err != nil {
			b.log.Warn("Could not send message to client",
				"session", member.id, "addr", member.addr, "error", err)
			continue
		}
		delivered++
	}
	return delivered
}
