package net

import (
	"net"
	"testing"
	"time"

	"github.com/mosaicnetworks/weave/src/common"
)

func TestTCPTransport_BadAddr(t *testing.T) {
	_, err := NewTCPTransport("0.0.0.0:0", "", 1, 0, common.NewTestEntry(t, common.TestLogLevel))
	if err != errNotAdvertisable {
		t.Fatalf("err: %v", err)
	}
}

func TestTCPTransport_WithAdvertise(t *testing.T) {
	trans, err := NewTCPTransport("0.0.0.0:0", "127.0.0.1:12345", 1, 0, common.NewTestEntry(t, common.TestLogLevel))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	defer trans.Close()

	if trans.AdvertiseAddr() != "127.0.0.1:12345" {
		t.Fatalf("bad: %v", trans.AdvertiseAddr())
	}
}

func TestTCPTransport_AdvertiseEphemeralPort(t *testing.T) {
	trans, err := NewTCPTransport("0.0.0.0:0", "127.0.0.1:0", 1, 0, common.NewTestEntry(t, common.TestLogLevel))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	defer trans.Close()

	_, port, _ := net.SplitHostPort(trans.LocalAddr())
	if trans.AdvertiseAddr() != "127.0.0.1:"+port {
		t.Fatalf("advertise address should carry the bound port %s: %v", port, trans.AdvertiseAddr())
	}
}

func TestTCPTransport_SendAfterClose(t *testing.T) {
	trans, err := NewTCPTransport("127.0.0.1:0", "", 1, time.Second, common.NewTestEntry(t, common.TestLogLevel))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	go trans.Listen()

	addr := trans.AdvertiseAddr()
	trans.Close()

	if err := trans.Send(addr, Envelope{Message: Payload{Text: "x"}}); err != ErrTransportShutdown {
		t.Fatalf("err should be ErrTransportShutdown, not %v", err)
	}
}

func TestTCPTransport_ConnectionReuse(t *testing.T) {
	logger := common.NewTestEntry(t, common.TestLogLevel)

	receiver, err := NewTCPTransport("127.0.0.1:0", "", 2, time.Second, logger)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	defer receiver.Close()
	go receiver.Listen()

	sender, err := NewTCPTransport("127.0.0.1:0", "", 2, time.Second, logger)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	defer sender.Close()

	for i := 0; i < 10; i++ {
		if err := sender.Send(receiver.AdvertiseAddr(), Envelope{From: sender.AdvertiseAddr(), Message: Identify{ID: uint32(i)}}); err != nil {
			t.Fatalf("err: %v", err)
		}
	}

	for i := 0; i < 10; i++ {
		select {
		case env := <-receiver.Consumer():
			id, ok := env.Message.(Identify)
			if !ok || id.ID != uint32(i) {
				t.Fatalf("envelope %d out of order: %#v", i, env)
			}
		case <-time.After(time.Second):
			t.Fatalf("timeout")
		}
	}

	if l := len(sender.connPool[receiver.AdvertiseAddr()]); l != 1 {
		t.Fatalf("sequential sends should reuse a single pooled connection, pool has %d", l)
	}
}

func TestTCPStreamLayer_Advertise(t *testing.T) {
	stream, err := NewTCPStreamLayer("127.0.0.1:0", "")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	defer stream.Close()

	if stream.AdvertiseAddr() != stream.Addr().String() {
		t.Fatalf("advertise address should be the bound one: %s != %s", stream.AdvertiseAddr(), stream.Addr())
	}

	if _, err := NewTCPStreamLayer("127.0.0.1:0", ":12345"); err != errNotAdvertisable {
		t.Fatalf("an advertise address without host should be rejected, err: %v", err)
	}
}
