package membership

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Membership is the part of the cluster substrate a node depends on.
type Membership interface {
	Subscribe() *Subscription
	Join(addr string, role Role) error
	Leave(addr string) error
}

// Cluster is an in-process membership substrate. It keeps the list of members
// and broadcasts every change to all subscribers.
type Cluster struct {
	sync.Mutex

	members []*Member
	byAddr  map[string]*Member

	subscribers map[uint64]*Subscription
	nextSubID   uint64

	logger *logrus.Entry
}

// NewCluster ...
func NewCluster(logger *logrus.Entry) *Cluster {
	if logger == nil {
		log := logrus.New()
		log.Level = logrus.DebugLevel
		logger = logrus.NewEntry(log)
	}

	return &Cluster{
		byAddr:      make(map[string]*Member),
		subscribers: make(map[uint64]*Subscription),
		logger:      logger.WithField("prefix", "cluster"),
	}
}

// Subscribe registers a new subscriber. Its first event is a Snapshot of the
// current members.
func (c *Cluster) Subscribe() *Subscription {
	c.Lock()
	defer c.Unlock()

	c.nextSubID++
	sub := newSubscription(c.nextSubID, c)
	sub.push(Snapshot{Members: c.snapshot()})
	c.subscribers[sub.id] = sub

	return sub
}

// Join adds a member with status Up. Joining again with an address that is
// currently unreachable brings it back Up.
func (c *Cluster) Join(addr string, role Role) error {
	c.Lock()
	defer c.Unlock()

	if m, ok := c.byAddr[addr]; ok {
		if m.Status == Up {
			return fmt.Errorf("%s is already a member", addr)
		}
		m.Status = Up
		m.Role = role
		c.broadcast(MemberUp{Member: *m})
		return nil
	}

	m := &Member{Addr: addr, Role: role, Status: Up}
	c.members = append(c.members, m)
	c.byAddr[addr] = m

	c.logger.WithFields(logrus.Fields{
		"addr": addr,
		"role": role,
	}).Debug("Member up")

	c.broadcast(MemberUp{Member: *m})

	return nil
}

// MarkUnreachable flags a member as unreachable.
func (c *Cluster) MarkUnreachable(addr string) error {
	c.Lock()
	defer c.Unlock()

	m, ok := c.byAddr[addr]
	if !ok {
		return fmt.Errorf("%s is not a member", addr)
	}
	if m.Status == Unreachable {
		return nil
	}
	m.Status = Unreachable

	c.logger.WithField("addr", addr).Debug("Member unreachable")

	c.broadcast(MemberUnreachable{Member: *m})

	return nil
}

// Leave removes a member from the cluster.
func (c *Cluster) Leave(addr string) error {
	c.Lock()
	defer c.Unlock()

	m, ok := c.byAddr[addr]
	if !ok {
		return fmt.Errorf("%s is not a member", addr)
	}
	delete(c.byAddr, addr)
	for i, mm := range c.members {
		if mm == m {
			c.members = append(c.members[:i], c.members[i+1:]...)
			break
		}
	}
	m.Status = Removed

	c.logger.WithField("addr", addr).Debug("Member removed")

	c.broadcast(MemberRemoved{Member: *m})

	return nil
}

// Members returns a copy of the current members in join order.
func (c *Cluster) Members() []Member {
	c.Lock()
	defer c.Unlock()
	return c.snapshot()
}

// Len returns the number of members.
func (c *Cluster) Len() int {
	c.Lock()
	defer c.Unlock()
	return len(c.members)
}

// Close drops every subscription.
func (c *Cluster) Close() {
	c.Lock()
	subs := make([]*Subscription, 0, len(c.subscribers))
	for _, s := range c.subscribers {
		subs = append(subs, s)
	}
	c.Unlock()

	for _, s := range subs {
		s.Unsubscribe()
	}
}

func (c *Cluster) unsubscribe(id uint64) {
	c.Lock()
	defer c.Unlock()
	delete(c.subscribers, id)
}

func (c *Cluster) snapshot() []Member {
	res := make([]Member, len(c.members))
	for i, m := range c.members {
		res[i] = *m
	}
	return res
}

// broadcast must be called with the lock held, which keeps the order of
// events identical for every subscriber.
func (c *Cluster) broadcast(ev Event) {
	for _, s := range c.subscribers {
		s.push(ev)
	}
}
