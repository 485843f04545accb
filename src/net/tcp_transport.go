package net

import (
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

var errNotAdvertisable = errors.New("local bind address is not advertisable")

// TCPStreamLayer is a StreamLayer over a TCP listener. Each node owns one,
// usually bound to an ephemeral port.
type TCPStreamLayer struct {
	advertise string
	listener  *net.TCPListener
}

// NewTCPStreamLayer binds bindAddr and works out the address peers should
// dial. An empty advertise address means the bound one; a port of 0 in
// advertise is replaced by the bound port.
func NewTCPStreamLayer(bindAddr, advertise string) (*TCPStreamLayer, error) {
	laddr, err := net.ResolveTCPAddr("tcp", bindAddr)
	if err != nil {
		return nil, err
	}

	list, err := net.ListenTCP("tcp", laddr)
	if err != nil {
		return nil, err
	}

	stream := &TCPStreamLayer{listener: list}

	if stream.advertise, err = advertiseAddr(list.Addr().(*net.TCPAddr), advertise); err != nil {
		list.Close()
		return nil, err
	}

	return stream, nil
}

func advertiseAddr(bound *net.TCPAddr, advertise string) (string, error) {
	if advertise == "" {
		if bound.IP.IsUnspecified() {
			return "", errNotAdvertisable
		}
		return bound.String(), nil
	}

	if host, port, err := net.SplitHostPort(advertise); err == nil && port == "0" {
		advertise = net.JoinHostPort(host, strconv.Itoa(bound.Port))
	}

	resolved, err := net.ResolveTCPAddr("tcp", advertise)
	if err != nil {
		return "", err
	}
	if resolved.IP == nil || resolved.IP.IsUnspecified() {
		return "", errNotAdvertisable
	}

	return advertise, nil
}

// Dial opens a connection to another node.
func (t *TCPStreamLayer) Dial(address string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout("tcp", address, timeout)
}

// Accept waits for the next inbound connection.
func (t *TCPStreamLayer) Accept() (net.Conn, error) {
	return t.listener.Accept()
}

// Close stops listening.
func (t *TCPStreamLayer) Close() error {
	return t.listener.Close()
}

// Addr is the bound address.
func (t *TCPStreamLayer) Addr() net.Addr {
	return t.listener.Addr()
}

// AdvertiseAddr is the address announced in the membership feed.
func (t *TCPStreamLayer) AdvertiseAddr() string {
	return t.advertise
}

// NewTCPTransport returns a NetworkTransport over a TCPStreamLayer bound to
// bindAddr. Binding to port 0 picks a fresh ephemeral port.
func NewTCPTransport(
	bindAddr string,
	advertise string,
	maxPool int,
	timeout time.Duration,
	logger *logrus.Entry,
) (*NetworkTransport, error) {
	stream, err := NewTCPStreamLayer(bindAddr, advertise)
	if err != nil {
		return nil, err
	}
	return NewNetworkTransport(stream, maxPool, timeout, logger), nil
}
