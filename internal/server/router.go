// Package server interprets inbound lines and turns them into broadcasts.
package server

import (
	"fmt"
	"log/slog"
	"strings"
)

const (
	quitCommand = "quit"
	nameCommand = "name"
)

// Action is what the router decided for one inbound message.
type Action int

const (
	// ActionNone - nothing to do (empty message or rename without a name).
	ActionNone Action = iota
	// ActionQuit - the sender asked to leave; the hub removes it.
	ActionQuit
	// ActionRename - the sender changes its display name.
	ActionRename
	// ActionChat - the message is relayed to everybody else.
	ActionChat
)

func (a Action) String() string {
	switch a {
	case ActionQuit:
		return "quit"
	case ActionRename:
		return "rename"
	case ActionChat:
		return "chat"
	default:
		return "none"
	}
}

// Decision is the result of Decide. Name is set for ActionRename only.
type Decision struct {
	Action Action
	Name   string
}

// Decide classifies a stripped message. The first matching rule wins:
// exact "quit", then "name <new name>", then any other non-empty text.
func Decide(msg string) Decision {
	switch {
	case msg == quitCommand:
		return Decision{Action: ActionQuit}
	case msg == nameCommand:
		return Decision{Action: ActionNone}
	case strings.HasPrefix(msg, nameCommand+" "):
		name := msg[len(nameCommand)+1:]
		if name == "" {
			return Decision{Action: ActionNone}
		}
		return Decision{Action: ActionRename, Name: name}
	case msg == "":
		return Decision{Action: ActionNone}
	default:
		return Decision{Action: ActionChat}
	}
}

// Censor rewrites chat text before it is relayed.
type Censor interface {
	Censor(text string) string
}

// Router applies decisions against the registry. It never changes membership:
// ActionQuit is returned to the caller, which owns removal.
type Router struct {
	registry *Registry
	censor   Censor
	log      *slog.Logger
}

// NewRouter creates a Router. censor may be nil.
func NewRouter(registry *Registry, censor Censor, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{registry: registry, censor: censor, log: log}
}

// Dispatch routes msg from sender and reports the action taken.
func (rt *Router) Dispatch(sender *Client, msg string) Action {
	decision := Decide(msg)
	switch decision.Action {
	case ActionRename:
		rt.rename(sender, decision.Name)
	case ActionChat:
		if !rt.chat(sender, msg) {
			return ActionNone
		}
	}
	return decision.Action
}

func (rt *Router) rename(sender *Client, name string) {
	previous, stored, ok := rt.registry.Rename(sender.conn, name)
	if !ok {
		return
	}
	announcement := fmt.Sprintf("User has changed their name from: %s to %s", previous, stored)
	rt.registry.Broadcast(sender.conn, announcement, true)
	rt.log.Info("Name change successful", "session", sender.id, "from", previous, "to", stored)
}

func (rt *Router) chat(sender *Client, msg string) bool {
	if !sender.rateLimiter.allow() {
		rt.log.Warn("Rate limit exceeded; discarding message", "session", sender.id, "addr", sender.addr)
		return false
	}
	if rt.censor != nil {
		msg = rt.censor.Censor(msg)
	}
	line := fmt.Sprintf("%s: %s", sender.name, msg)
	delivered := rt.registry.Broadcast(sender.conn, line, false)
	rt.log.Info("Message broadcast successful", "session", sender.id, "message", line, "recipients", delivered)
	return true
}
