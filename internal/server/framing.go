// Package server splits inbound bytes into messages according to the configured framing.
package server

import (
	"bytes"
	"strings"
)

// Framing selects how inbound reads are turned into messages.
type Framing string

const (
	// FramingRead treats every read as exactly one message.
	FramingRead Framing = "read"
	// FramingLine buffers reads and emits one message per newline-terminated line.
	FramingLine Framing = "line"
)

type framer interface {
	// Feed consumes one read and returns the complete messages it produced.
	Feed(p []byte) []string
}

func newFramer(f Framing, maxSize int) framer {
	if f == FramingLine {
		return &lineFramer{max: maxSize}
	}
	return readFramer{}
}

type readFramer struct{}

// Feed keeps the text before the first newline; anything after it is dropped
// so one read can never carry more than one line.
func (readFramer) Feed(p []byte) []string {
	if i := bytes.IndexByte(p, '\n'); i >= 0 {
		p = p[:i]
	}
	return []string{strings.TrimSuffix(string(p), "\r")}
}

type lineFramer struct {
	buf []byte
	max int
}

func (f *lineFramer) Feed(p []byte) []string {
	f.buf = append(f.buf, p...)
	var out []string
	for {
		i := bytes.IndexByte(f.buf, '\n')
		if i < 0 {
			break
		}
		out = append(out, stripNewline(string(f.buf[:i+1])))
		f.buf = f.buf[i+1:]
	}
	for f.max > 0 && len(f.buf) >= f.max {
		out = append(out, string(f.buf[:f.max]))
		f.buf = f.buf[f.max:]
	}
	if len(f.buf) == 0 {
		f.buf = nil
	}
	return out
}

// stripNewline removes one trailing "\n" and a "\r" right before it.
func stripNewline(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}
