package weave

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/mosaicnetworks/weave/src/common"
	"github.com/mosaicnetworks/weave/src/config"
	"github.com/mosaicnetworks/weave/src/membership"
	"github.com/mosaicnetworks/weave/src/metrics"
	"github.com/mosaicnetworks/weave/src/net"
	"github.com/mosaicnetworks/weave/src/node"
	"github.com/mosaicnetworks/weave/src/registry"
	"github.com/mosaicnetworks/weave/src/service"
	"github.com/mosaicnetworks/weave/src/topology"
	"github.com/sirupsen/logrus"
)

// Engine hosts the nodes of a topology in one process. It owns the cluster
// membership, the registry of node handles, and a client transport used to
// address nodes on behalf of the operator.
type Engine struct {
	Config   *config.Config
	Cluster  *membership.Cluster
	Registry *registry.Registry
	Store    topology.Store
	Service  *service.Service

	// Client is the transport operator commands are sent from. It never
	// joins the cluster.
	Client net.Transport

	network *net.InmemNetwork

	nodes     map[uint32]*node.Node
	nodesLock sync.RWMutex

	// serializes operator commands that read and update stored declarations
	opLock sync.Mutex

	logger *logrus.Entry
	start  time.Time
}

// NewEngine ...
func NewEngine(conf *config.Config) *Engine {
	engine := &Engine{
		Config:   conf,
		Registry: registry.NewRegistry(),
		nodes:    make(map[uint32]*node.Node),
	}

	return engine
}

// Init builds the store, the cluster and the client transport, then starts
// one node per declaration. It fails if the topology cannot be loaded, in
// which case no node is started.
func (e *Engine) Init() error {
	e.logger = e.Config.Logger()
	e.start = time.Now()

	if err := e.initStore(); err != nil {
		return err
	}

	decls, err := e.initTopology()
	if err != nil {
		return err
	}

	e.Cluster = membership.NewCluster(e.logger)

	if e.Config.InmemTransport {
		e.network = net.NewInmemNetwork()
	}

	if err := e.initClient(); err != nil {
		return err
	}

	if err := e.initNodes(decls); err != nil {
		return err
	}

	if err := e.initService(); err != nil {
		return err
	}

	return nil
}

func (e *Engine) initStore() error {
	if !e.Config.Store {
		e.Store = topology.NewInmemStore()

		e.logger.Debug("created new in-mem store")

		return nil
	}

	e.logger.WithField("path", e.Config.DatabaseDir).Debug("Attempting to load or create database")

	store, err := topology.NewBadgerStore(e.Config.DatabaseDir, e.logger)
	if err != nil {
		return err
	}

	e.Store = store

	return nil
}

// initTopology returns the stored declarations if there are any. Otherwise it
// loads the topology file and seeds the store with it.
func (e *Engine) initTopology() ([]topology.Declaration, error) {
	decls, err := e.Store.Declarations()
	if err != nil {
		return nil, err
	}

	if len(decls) > 0 {
		e.logger.WithField("nodes", len(decls)).Info("Loaded topology from store")
		return decls, nil
	}

	decls, err = topology.Load(e.Config.TopologyFile)
	if err != nil {
		return nil, err
	}

	for _, d := range decls {
		if err := e.Store.Put(d); err != nil {
			return nil, err
		}
	}

	e.logger.WithFields(logrus.Fields{
		"file":  e.Config.TopologyFile,
		"nodes": len(decls),
	}).Info("Loaded topology from file")

	return decls, nil
}

func (e *Engine) initClient() error {
	trans, err := e.newTransport()
	if err != nil {
		return err
	}

	e.Client = trans

	return nil
}

func (e *Engine) initNodes(decls []topology.Declaration) error {
	for _, d := range decls {
		if err := e.startNode(d.ID, d.Children); err != nil {
			return fmt.Errorf("failed to start node %d: %w", d.ID, err)
		}
	}
	return nil
}

func (e *Engine) initService() error {
	if !e.Config.NoService {
		e.Service = service.NewService(e.Config.ServiceAddr, e, e.logger)
	}
	return nil
}

// newTransport returns a transport with a fresh address: a new in-memory
// transport, or a TCP transport bound to an ephemeral port.
func (e *Engine) newTransport() (net.Transport, error) {
	if e.network != nil {
		return e.network.NewTransport(), nil
	}

	trans, err := net.NewTCPTransport(
		e.Config.BindAddr(),
		e.Config.AdvertiseAddr(),
		e.Config.MaxPool,
		e.Config.TCPTimeout,
		e.logger.WithField("prefix", "net"),
	)
	if err != nil {
		return nil, err
	}

	go trans.Listen()

	return trans, nil
}

func (e *Engine) nodeConfig() *node.Config {
	return node.NewConfig(
		e.Config.TCPTimeout,
		e.Config.PayloadHistory,
		node.PayloadHandler(e.Config.OnPayload),
		e.logger.Logger,
	)
}

func (e *Engine) startNode(id uint32, children []uint32) error {
	trans, err := e.newTransport()
	if err != nil {
		return err
	}

	n := node.NewNode(e.nodeConfig(), id, children, trans, e.Cluster)

	if err := e.Registry.Register(registry.Handle{ID: id, Addr: n.Addr()}); err != nil {
		trans.Close()
		return err
	}

	if err := n.Init(); err != nil {
		e.Registry.Remove(id)
		trans.Close()
		return err
	}

	e.nodesLock.Lock()
	e.nodes[id] = n
	e.nodesLock.Unlock()

	metrics.NodesRunning.Inc()

	n.RunAsync()

	go e.reap(n)

	e.logger.WithFields(logrus.Fields{
		"id":       id,
		"addr":     n.Addr(),
		"children": children,
	}).Debug("Started node")

	return nil
}

// reap forgets a node once its loop has returned.
func (e *Engine) reap(n *node.Node) {
	<-n.Done()

	e.forget(n)

	if h, err := e.Registry.Lookup(n.ID()); err == nil && h.Addr == n.Addr() {
		e.Registry.Remove(n.ID())
	}

	if e.network != nil {
		e.network.Remove(n.Addr())
	}

	metrics.NodesRunning.Dec()
}

// forget removes a stopped node and its metric series, unless its id has
// already been taken by a newer node. The series are labelled by id only.
func (e *Engine) forget(n *node.Node) {
	e.nodesLock.Lock()
	defer e.nodesLock.Unlock()

	if cur, ok := e.nodes[n.ID()]; ok {
		if cur != n {
			return
		}
		delete(e.nodes, n.ID())
	}

	metrics.Forget(n.ID())
}

// Run starts the HTTP service, if any. It does not block.
func (e *Engine) Run() {
	if e.Service != nil {
		go e.Service.Serve()
	}
}

// WaitReady blocks until every node has processed its first membership
// snapshot, or ctx is done.
func (e *Engine) WaitReady(ctx context.Context) error {
	e.nodesLock.RLock()
	nodes := make([]*node.Node, 0, len(e.nodes))
	for _, n := range e.nodes {
		nodes = append(nodes, n)
	}
	e.nodesLock.RUnlock()

	for _, n := range nodes {
		select {
		case <-n.Ready():
		case <-ctx.Done():
			return fmt.Errorf("waiting for node %d: %w", n.ID(), ctx.Err())
		}
	}

	e.logger.WithField("nodes", len(nodes)).Debug("Ready")

	return nil
}

func (e *Engine) send(id uint32, msg net.Message) error {
	h, err := e.Registry.Lookup(id)
	if err != nil {
		return err
	}

	return e.Client.Send(h.Addr, net.Envelope{
		From:    e.Client.AdvertiseAddr(),
		Message: msg,
	})
}

// SendPayload sends a payload to a node.
func (e *Engine) SendPayload(id uint32, text string) error {
	return e.send(id, net.Payload{Text: text})
}

// CreateNode starts a new node with a fresh address. It fails with NodeExists
// if the id is already taken.
func (e *Engine) CreateNode(id uint32, children []uint32) error {
	e.opLock.Lock()
	defer e.opLock.Unlock()

	if _, err := e.Registry.Lookup(id); err == nil {
		return common.NewNodeErr("Engine", common.NodeExists, id)
	}

	if err := e.startNode(id, children); err != nil {
		return err
	}

	return e.Store.Put(topology.NewDeclaration(id, children))
}

// AddChild asks a node to add a configured child.
func (e *Engine) AddChild(id, child uint32) error {
	e.opLock.Lock()
	defer e.opLock.Unlock()

	if err := e.send(id, net.AddEdge{Target: id, Child: child}); err != nil {
		return err
	}

	return e.updateDeclaration(id, func(d topology.Declaration) topology.Declaration {
		return d.WithChild(child)
	})
}

// RemoveChild asks a node to remove a configured child.
func (e *Engine) RemoveChild(id, child uint32) error {
	e.opLock.Lock()
	defer e.opLock.Unlock()

	if err := e.send(id, net.RemoveEdge{Target: id, Child: child}); err != nil {
		return err
	}

	return e.updateDeclaration(id, func(d topology.Declaration) topology.Declaration {
		return d.WithoutChild(child)
	})
}

// Kill sends Terminate to a node and forgets its handle.
func (e *Engine) Kill(id uint32) error {
	e.opLock.Lock()
	defer e.opLock.Unlock()

	if err := e.send(id, net.Terminate{Target: id}); err != nil {
		return err
	}

	if err := e.Registry.Remove(id); err != nil {
		return err
	}

	return e.Store.Delete(id)
}

func (e *Engine) updateDeclaration(id uint32, f func(topology.Declaration) topology.Declaration) error {
	d, err := e.Store.Get(id)
	if err != nil {
		if !common.IsNodeErr(err, common.NodeNotFound) {
			return err
		}
		d = topology.NewDeclaration(id, nil)
	}
	return e.Store.Put(f(d))
}

// Nodes returns the handles of the registered nodes.
func (e *Engine) Nodes() []registry.Handle {
	return e.Registry.Handles()
}

// Node returns the current view of a node.
func (e *Engine) Node(id uint32) (node.Info, error) {
	e.nodesLock.RLock()
	n, ok := e.nodes[id]
	e.nodesLock.RUnlock()

	if !ok {
		return node.Info{}, common.NewNodeErr("Engine", common.NodeNotFound, id)
	}

	return n.Info()
}

// Stats returns a few counters describing the engine.
func (e *Engine) Stats() map[string]string {
	e.nodesLock.RLock()
	running := len(e.nodes)
	e.nodesLock.RUnlock()

	transport := "tcp"
	if e.network != nil {
		transport = "inmem"
	}

	return map[string]string{
		"nodes":      strconv.Itoa(running),
		"registered": strconv.Itoa(e.Registry.Len()),
		"members":    strconv.Itoa(e.Cluster.Len()),
		"transport":  transport,
		"store":      strconv.FormatBool(e.Config.Store),
		"uptime":     time.Since(e.start).Truncate(time.Second).String(),
	}
}

// Shutdown stops every node, the service and the store.
func (e *Engine) Shutdown() {
	e.logger.Debug("Shutdown")

	e.nodesLock.RLock()
	nodes := make([]*node.Node, 0, len(e.nodes))
	for _, n := range e.nodes {
		nodes = append(nodes, n)
	}
	e.nodesLock.RUnlock()

	for _, n := range nodes {
		n.Shutdown()
	}

	if e.Service != nil {
		e.Service.Shutdown()
	}

	if e.Client != nil {
		e.Client.Close()
	}

	if e.Cluster != nil {
		e.Cluster.Close()
	}

	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			e.logger.WithError(err).Error("Closing store")
		}
	}
}
