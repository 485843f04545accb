package net

import "errors"

var (
	// ErrTransportShutdown is returned when operations on a transport are
	// invoked after it's been terminated.
	ErrTransportShutdown = errors.New("transport shutdown")

	// ErrUnknownPeer is returned by the in-memory transport when the target
	// address was never connected.
	ErrUnknownPeer = errors.New("unknown peer")
)

// Transport provides an interface for network transports to allow a node to
// communicate with other nodes. Sends are fire-and-forget: a nil error only
// means the envelope left this transport.
type Transport interface {

	// Starts the transport listening
	Listen()

	// Consumer returns a channel that can be used to consume incoming
	// envelopes.
	Consumer() <-chan Envelope

	// LocalAddr is used to return our local address
	LocalAddr() string

	// AdvertiseAddr is used to return our advertise address where other peers
	// can reach us
	AdvertiseAddr() string

	// Send delivers an envelope to the transport listening on target.
	Send(target string, env Envelope) error

	// Close permanently closes a transport, stopping
	// any associated goroutines and freeing other resources.
	Close() error
}
