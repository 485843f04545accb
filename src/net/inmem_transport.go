package net

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// NewInmemAddr returns a new in-memory addr with
// a randomly generate UUID as the ID.
func NewInmemAddr() string {
	return uuid.NewString()
}

// InmemTransport Implements the Transport interface, to allow nodes to be
// tested in-memory without going over a network.
type InmemTransport struct {
	sync.RWMutex
	consumerCh chan Envelope
	localAddr  string
	peers      map[string]*InmemTransport
	timeout    time.Duration

	shutdownCh   chan struct{}
	shutdownOnce sync.Once
}

// NewInmemTransport is used to initialize a new transport
// and generates a random local address if none is specified
func NewInmemTransport(addr string) (string, *InmemTransport) {
	if addr == "" {
		addr = NewInmemAddr()
	}
	trans := &InmemTransport{
		consumerCh: make(chan Envelope, 1024),
		localAddr:  addr,
		peers:      make(map[string]*InmemTransport),
		timeout:    500 * time.Millisecond,
		shutdownCh: make(chan struct{}),
	}
	return addr, trans
}

// Consumer implements the Transport interface.
func (i *InmemTransport) Consumer() <-chan Envelope {
	return i.consumerCh
}

// LocalAddr implements the Transport interface.
func (i *InmemTransport) LocalAddr() string {
	return i.localAddr
}

// AdvertiseAddr implements the Transport interface.
func (i *InmemTransport) AdvertiseAddr() string {
	return i.localAddr
}

// Send implements the Transport interface.
func (i *InmemTransport) Send(target string, env Envelope) error {
	if i.isShutdown() {
		return ErrTransportShutdown
	}

	var peer *InmemTransport
	if target == i.localAddr {
		peer = i
	} else {
		i.RLock()
		p, ok := i.peers[target]
		i.RUnlock()
		if !ok {
			return fmt.Errorf("%w: %v", ErrUnknownPeer, target)
		}
		peer = p
	}

	if peer.isShutdown() {
		return ErrTransportShutdown
	}

	select {
	case peer.consumerCh <- env:
		return nil
	case <-peer.shutdownCh:
		return ErrTransportShutdown
	case <-time.After(i.timeout):
		return fmt.Errorf("send to %v timed out", target)
	}
}

func (i *InmemTransport) isShutdown() bool {
	select {
	case <-i.shutdownCh:
		return true
	default:
		return false
	}
}

// Connect is used to connect this transport to another transport for
// a given peer name. This allows for local routing.
func (i *InmemTransport) Connect(peer string, t Transport) {
	trans := t.(*InmemTransport)
	i.Lock()
	defer i.Unlock()
	i.peers[peer] = trans
}

// Disconnect is used to remove the ability to route to a given peer.
func (i *InmemTransport) Disconnect(peer string) {
	i.Lock()
	defer i.Unlock()
	delete(i.peers, peer)
}

// DisconnectAll is used to remove all routes to peers.
func (i *InmemTransport) DisconnectAll() {
	i.Lock()
	defer i.Unlock()
	i.peers = make(map[string]*InmemTransport)
}

// Close is used to permanently disable the transport. Envelopes already
// queued stay in the consumer channel.
func (i *InmemTransport) Close() error {
	i.shutdownOnce.Do(func() {
		close(i.shutdownCh)
	})
	i.DisconnectAll()
	return nil
}

// Listen is an empty function as there is no need to defer
// initialisation of the InMem service
func (i *InmemTransport) Listen() {
}

// InmemNetwork connects every in-memory transport it creates to every other
// one, which stands in for a fully routable network.
type InmemNetwork struct {
	sync.Mutex
	transports map[string]*InmemTransport
}

// NewInmemNetwork ...
func NewInmemNetwork() *InmemNetwork {
	return &InmemNetwork{
		transports: make(map[string]*InmemTransport),
	}
}

// NewTransport creates a transport with a fresh address and connects it both
// ways with all the transports created before it.
func (n *InmemNetwork) NewTransport() *InmemTransport {
	n.Lock()
	defer n.Unlock()

	addr, trans := NewInmemTransport("")
	for a, other := range n.transports {
		other.Connect(addr, trans)
		trans.Connect(a, other)
	}
	n.transports[addr] = trans

	return trans
}

// Remove closes the transport registered under addr and stops routing to it.
func (n *InmemNetwork) Remove(addr string) {
	n.Lock()
	defer n.Unlock()

	trans, ok := n.transports[addr]
	if !ok {
		return
	}
	delete(n.transports, addr)
	for _, other := range n.transports {
		other.Disconnect(addr)
	}
	trans.Close()
}
