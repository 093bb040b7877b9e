//go:build tools
// +build tools

// Package tools declares tool dependencies for this module.
//
// mockgen is invoked through `go generate` and is not imported at runtime;
// the blank import keeps it pinned in go.mod.
package tools

import (
	_ "go.uber.org/mock/mockgen"
)
