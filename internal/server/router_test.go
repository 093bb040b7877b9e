package server

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want Decision
	}{
		{name: "quit", msg: "quit", want: Decision{Action: ActionQuit}},
		{name: "quit with trailing space is chat", msg: "quit ", want: Decision{Action: ActionChat}},
		{name: "quit prefix is chat", msg: "quitx", want: Decision{Action: ActionChat}},
		{name: "upper case quit is chat", msg: "QUIT", want: Decision{Action: ActionChat}},
		{name: "rename", msg: "name alice", want: Decision{Action: ActionRename, Name: "alice"}},
		{name: "rename keeps inner spaces", msg: "name Alice Smith", want: Decision{Action: ActionRename, Name: "Alice Smith"}},
		{name: "rename keeps extra leading spaces", msg: "name  bob", want: Decision{Action: ActionRename, Name: " bob"}},
		{name: "name alone is ignored", msg: "name", want: Decision{Action: ActionNone}},
		{name: "name with empty remainder is ignored", msg: "name ", want: Decision{Action: ActionNone}},
		{name: "name without space is chat", msg: "nameX", want: Decision{Action: ActionChat}},
		{name: "empty message is ignored", msg: "", want: Decision{Action: ActionNone}},
		{name: "plain chat", msg: "hello everyone", want: Decision{Action: ActionChat}},
		{name: "whitespace is chat", msg: " ", want: Decision{Action: ActionChat}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Decide(tt.msg))
		})
	}
}

func TestAction_String(t *testing.T) {
	req := require.New(t)
	req.Equal("none", ActionNone.String())
	req.Equal("quit", ActionQuit.String())
	req.Equal("rename", ActionRename.String())
	req.Equal("chat", ActionChat.String())
}
