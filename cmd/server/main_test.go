package main

import (
	"io"
	"net"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_ExitCodes(t *testing.T) {
	// Given a port that is already bound
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = taken.Close() })
	takenPort := strconv.Itoa(taken.Addr().(*net.TCPAddr).Port)

	tests := []struct {
		name    string
		args    []string
		framing string
		want    int
	}{
		{name: "too many arguments", args: []string{"9000", "9001"}, framing: "read", want: exitConfig},
		{name: "port is not a number", args: []string{"abc"}, framing: "read", want: exitConfig},
		{name: "port out of range", args: []string{"70000"}, framing: "read", want: exitConfig},
		{name: "invalid environment", args: nil, framing: "frames", want: exitConfig},
		{name: "port already in use", args: []string{takenPort}, framing: "read", want: exitRuntime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			t.Setenv("RELAY_HOST", "127.0.0.1")
			t.Setenv("FRAMING", tt.framing)
			t.Setenv("LOG_LEVEL", "ERROR")

			code, err := run(tt.args, io.Discard)

			req.Error(err)
			req.Equal(tt.want, code)
		})
	}
}
