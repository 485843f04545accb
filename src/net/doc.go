// Package net implements the messages exchanged between nodes and the
// transports that carry them.
//
// Messages
//
// A node understands exactly five messages: Identify, Payload, AddEdge,
// RemoveEdge and Terminate. They implement the closed Message interface, and
// receivers switch on the concrete type rather than on the contents of the
// message. Every message travels in an Envelope which records the advertised
// address of the sender. That address is the only handle a node ever learns
// about another node.
//
// Transports
//
// All transports are fire-and-forget: Send returns once the envelope has left
// the local transport, and nothing is acknowledged. There are two
// implementations:
//
// - Inmem: in-memory transport used for tests and for single-process graphs.
// An InmemNetwork creates transports that are connected to each other.
//
// - TCP: a NetworkTransport over plain TCP. Each envelope is framed by the
// message kind byte followed by the msgpack encoding of the sender address and
// of the message. Binding to port 0 gives each node a fresh ephemeral port.
package net
