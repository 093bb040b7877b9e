// Package server implements the multi-client text relay.
//
// A single Hub goroutine polls every Acceptor and every registered Client with
// non-blocking reads, routes each inbound line through the Router and fans the
// result out with the Broadcaster. The Registry is only mutated from that
// goroutine; HTTP handlers read it through locked snapshots.
//
// The package is split into files per concern: connection contracts and the
// TCP acceptor, the client registry, routing, broadcasting, the event loop,
// configuration, and the optional WebSocket/HTTP surface.
package server
