package node

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/mosaicnetworks/weave/src/metrics"
	"github.com/mosaicnetworks/weave/src/net"
	"github.com/sirupsen/logrus"
)

// Sender hands envelopes to the transport. net.Transport implements it.
type Sender interface {
	Send(target string, env net.Envelope) error
}

// Core is the edge state of a node. It is not safe for concurrent use; the
// node loop is its only caller.
//
// children is the set of configured child ids. edges maps each resolved child
// id to the address of the peer that identified as that id, and reverse is the
// exact inverse of edges. The keys of edges are always a subset of children.
type Core struct {
	id   uint32
	addr string

	children mapset.Set[uint32]
	edges    map[uint32]string
	reverse  map[string]uint32

	sender Sender

	label  string
	logger *logrus.Entry
}

// NewCore ...
func NewCore(id uint32,
	addr string,
	children []uint32,
	sender Sender,
	logger *logrus.Entry) *Core {

	if logger == nil {
		log := logrus.New()
		log.Level = logrus.DebugLevel
		logger = logrus.NewEntry(log)
	}

	return &Core{
		id:       id,
		addr:     addr,
		children: mapset.NewThreadUnsafeSet[uint32](children...),
		edges:    make(map[uint32]string),
		reverse:  make(map[string]uint32),
		sender:   sender,
		label:    metrics.NodeLabel(id),
		logger:   logger,
	}
}

// ID ...
func (c *Core) ID() uint32 {
	return c.id
}

// Announce sends Identify(id) to peer.
func (c *Core) Announce(peer string) error {
	c.logger.WithField("peer", peer).Debug("Announce")
	return c.send(peer, net.Envelope{
		From:    c.addr,
		Message: net.Identify{ID: c.id},
	})
}

// Identify records that peer identified itself as child. It returns true if a
// new edge was resolved. Ids that are not configured, and peers that are
// already resolved, are ignored. If child was resolved to another address,
// the edge moves to the new one.
func (c *Core) Identify(child uint32, peer string) bool {
	if !c.children.Contains(child) {
		return false
	}
	if _, ok := c.reverse[peer]; ok {
		return false
	}

	if old, ok := c.edges[child]; ok {
		c.logger.WithFields(logrus.Fields{
			"child": child,
			"old":   old,
			"peer":  peer,
		}).Debug("Child moved")
		delete(c.reverse, old)
	}

	c.edges[child] = peer
	c.reverse[peer] = child

	c.logger.WithFields(logrus.Fields{
		"child": child,
		"peer":  peer,
	}).Debug("Edge resolved")

	c.updateGauge()

	return true
}

// Forward sends env, unchanged, to every resolved edge and returns the number
// of envelopes handed to the transport.
func (c *Core) Forward(env net.Envelope) int {
	sent := 0
	for _, child := range c.resolvedIDs() {
		if err := c.send(c.edges[child], env); err != nil {
			c.logger.WithError(err).WithField("child", child).Debug("Forward")
			continue
		}
		sent++
	}
	metrics.PayloadsForwarded.WithLabelValues(c.label).Add(float64(sent))
	return sent
}

// AddEdge adds child to the configured children. The edge resolves only when
// the child identifies itself.
func (c *Core) AddEdge(child uint32) bool {
	return c.children.Add(child)
}

// RemoveEdge removes child from the configured children and drops its
// resolved edge, if any. It reports whether anything changed.
func (c *Core) RemoveEdge(child uint32) bool {
	configured := c.children.Contains(child)
	c.children.Remove(child)
	dropped := c.DropPeer(child)
	return configured || dropped
}

// DropPeer removes the resolved edge whose value is child, leaving the
// configured children untouched.
func (c *Core) DropPeer(child uint32) bool {
	for peer, id := range c.reverse {
		if id == child {
			delete(c.reverse, peer)
			delete(c.edges, child)
			c.updateGauge()
			return true
		}
	}
	return false
}

// Children returns the configured children, sorted.
func (c *Core) Children() []uint32 {
	res := c.children.ToSlice()
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}

// Edges returns a copy of the resolved edges.
func (c *Core) Edges() map[uint32]string {
	res := make(map[uint32]string, len(c.edges))
	for k, v := range c.edges {
		res[k] = v
	}
	return res
}

// Resolved returns the id resolved for peer.
func (c *Core) Resolved(peer string) (uint32, bool) {
	id, ok := c.reverse[peer]
	return id, ok
}

func (c *Core) resolvedIDs() []uint32 {
	res := make([]uint32, 0, len(c.edges))
	for id := range c.edges {
		res = append(res, id)
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}

func (c *Core) send(target string, env net.Envelope) error {
	err := c.sender.Send(target, env)
	if err != nil {
		metrics.SendErrors.WithLabelValues(c.label).Inc()
	}
	return err
}

func (c *Core) updateGauge() {
	metrics.ResolvedEdges.WithLabelValues(c.label).Set(float64(len(c.edges)))
}
