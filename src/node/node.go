package node

import (
	"sync"
	"time"

	"github.com/mosaicnetworks/weave/src/common"
	"github.com/mosaicnetworks/weave/src/membership"
	"github.com/mosaicnetworks/weave/src/metrics"
	"github.com/mosaicnetworks/weave/src/net"
	"github.com/sirupsen/logrus"
)

// Node is one vertex of the graph. It processes transport envelopes and
// membership events one at a time in the goroutine started by Run.
type Node struct {
	state

	conf   *Config
	logger *logrus.Entry

	id   uint32
	core *Core

	trans net.Transport
	netCh <-chan net.Envelope

	members membership.Membership
	sub     *membership.Subscription

	queryCh chan func()

	readyCh   chan struct{}
	readyOnce sync.Once

	shutdownCh   chan struct{}
	shutdownOnce sync.Once
	doneCh       chan struct{}

	payloads *common.RollingList[string]
	label    string
	start    time.Time
}

// NewNode is a factory method that returns a Node instance
func NewNode(conf *Config,
	id uint32,
	children []uint32,
	trans net.Transport,
	members membership.Membership,
) *Node {

	logger := conf.Logger.WithFields(logrus.Fields{
		"node_id": id,
		"addr":    trans.AdvertiseAddr(),
	})

	node := Node{
		conf:       conf,
		logger:     logger,
		id:         id,
		core:       NewCore(id, trans.AdvertiseAddr(), children, trans, logger),
		trans:      trans,
		netCh:      trans.Consumer(),
		members:    members,
		queryCh:    make(chan func()),
		readyCh:    make(chan struct{}),
		shutdownCh: make(chan struct{}),
		doneCh:     make(chan struct{}),
		payloads:   common.NewRollingList[string](conf.PayloadHistory),
		label:      metrics.NodeLabel(id),
	}

	return &node
}

// Init subscribes to the membership feed and joins the cluster with role
// Node. The subscription comes first so that the node's own MemberUp is part
// of its feed.
func (n *Node) Init() error {
	n.sub = n.members.Subscribe()

	if err := n.members.Join(n.trans.AdvertiseAddr(), membership.RoleNode); err != nil {
		n.sub.Unsubscribe()
		return err
	}

	n.logger.WithField("children", n.core.Children()).Debug("Init")

	return nil
}

// RunAsync calls Run in a separate goroutine
func (n *Node) RunAsync() {
	go n.Run()
}

// Run is the main loop of the node. It returns when the node is terminated.
func (n *Node) Run() {
	defer close(n.doneCh)

	n.start = time.Now()

	var events <-chan membership.Event
	if n.sub != nil {
		events = n.sub.Events()
	}

	for {
		select {
		case env := <-n.netCh:
			n.processMessage(env)
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			n.processEvent(ev)
		case q := <-n.queryCh:
			q()
		case <-n.shutdownCh:
			return
		}
	}
}

func (n *Node) processEvent(ev membership.Event) {
	if n.getState() == Terminated {
		return
	}

	switch e := ev.(type) {
	case membership.Snapshot:
		metrics.MembershipEvents.WithLabelValues(n.label, "snapshot").Inc()
		n.logger.WithField("members", len(e.Members)).Debug("Snapshot")
		for _, m := range e.Members {
			if m.IsUpNode() {
				n.announce(m.Addr)
			}
		}
		if n.advance(Running) {
			n.logger.Debug("Running")
		}
		n.markReady()
	case membership.MemberUp:
		metrics.MembershipEvents.WithLabelValues(n.label, "up").Inc()
		n.logger.WithField("member", e.Member.Addr).Debug("Member up")
		if e.Member.IsUpNode() {
			n.announce(e.Member.Addr)
		}
	case membership.MemberUnreachable:
		metrics.MembershipEvents.WithLabelValues(n.label, "unreachable").Inc()
		n.logger.WithField("member", e.Member.Addr).Info("Member detected as unreachable")
	case membership.MemberRemoved:
		metrics.MembershipEvents.WithLabelValues(n.label, "removed").Inc()
		n.logger.WithField("member", e.Member.Addr).Info("Member removed")
	}
}

func (n *Node) announce(peer string) {
	if err := n.core.Announce(peer); err != nil {
		n.logger.WithError(err).WithField("peer", peer).Debug("Announce failed")
	}
}

func (n *Node) processMessage(env net.Envelope) {
	if n.getState() == Terminated {
		n.logger.WithField("from", env.From).Debug("Terminated, discarding message")
		return
	}

	if env.Message == nil {
		n.logger.WithField("from", env.From).Warn("Empty envelope")
		return
	}

	metrics.MessagesReceived.WithLabelValues(n.label, env.Message.Kind().String()).Inc()

	switch msg := env.Message.(type) {
	case net.Identify:
		n.core.Identify(msg.ID, env.From)
	case net.Payload:
		n.processPayload(env, msg)
	case net.AddEdge:
		if msg.Target != n.id {
			return
		}
		if n.core.AddEdge(msg.Child) {
			n.logger.WithField("child", msg.Child).Info("Child added")
		}
	case net.RemoveEdge:
		if msg.Target != n.id {
			return
		}
		if n.core.RemoveEdge(msg.Child) {
			n.logger.WithField("child", msg.Child).Info("Child removed")
		}
	case net.Terminate:
		if msg.Target == n.id {
			n.logger.Info("Terminating")
			n.Shutdown()
			return
		}
		// Only reachable if Terminate is delivered to nodes other than its
		// target; treated as a hint that the target is gone.
		if n.core.DropPeer(msg.Target) {
			n.logger.WithField("child", msg.Target).Info("Dropped edge to stopped node")
		}
	default:
		n.logger.WithField("kind", env.Message.Kind()).Warn("Unknown message")
	}
}

func (n *Node) processPayload(env net.Envelope, payload net.Payload) {
	n.logger.WithFields(logrus.Fields{
		"from": env.From,
		"text": payload.Text,
	}).Info("Payload received")

	n.payloads.Add(payload.Text)

	if n.conf.OnPayload != nil {
		n.conf.OnPayload(n.id, env.From, payload)
	}

	n.core.Forward(env)
}

func (n *Node) markReady() {
	n.readyOnce.Do(func() {
		close(n.readyCh)
	})
}

// Shutdown terminates the node: it leaves the cluster, drops its
// subscription and closes its transport. Messages still queued are discarded.
// It is safe to call Shutdown more than once and from any goroutine.
func (n *Node) Shutdown() {
	n.shutdownOnce.Do(func() {
		n.logger.Debug("Shutdown")

		n.advance(Terminated)

		// A node terminated before its first snapshot will never discover
		// anything; it must not hold up readiness.
		n.markReady()

		if n.sub != nil {
			n.sub.Unsubscribe()
			if err := n.members.Leave(n.trans.AdvertiseAddr()); err != nil {
				n.logger.WithError(err).Debug("Leave")
			}
		}

		close(n.shutdownCh)

		if err := n.trans.Close(); err != nil {
			n.logger.WithError(err).Debug("Closing transport")
		}
	})
}

// ID ...
func (n *Node) ID() uint32 {
	return n.id
}

// Addr returns the address other nodes see in the membership feed.
func (n *Node) Addr() string {
	return n.trans.AdvertiseAddr()
}

// GetState ...
func (n *Node) GetState() State {
	return n.getState()
}

// Ready is closed once the node has processed its first membership snapshot,
// or has been terminated.
func (n *Node) Ready() <-chan struct{} {
	return n.readyCh
}

// Done is closed when the loop started by Run has returned.
func (n *Node) Done() <-chan struct{} {
	return n.doneCh
}
