package weave

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/mosaicnetworks/weave/src/common"
	"github.com/mosaicnetworks/weave/src/config"
	"github.com/mosaicnetworks/weave/src/metrics"
	"github.com/mosaicnetworks/weave/src/net"
	"github.com/mosaicnetworks/weave/src/node"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type delivery struct {
	id   uint32
	text string
}

func writeTopology(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), config.DefaultTopologyFile)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestEngine(t *testing.T, inmem bool, topologyFile string) (*Engine, chan delivery) {
	deliveries := make(chan delivery, 100)

	conf := config.NewTestConfig(t, common.TestLogLevel)
	conf.InmemTransport = inmem
	conf.TopologyFile = topologyFile
	conf.OnPayload = func(id uint32, from string, p net.Payload) {
		deliveries <- delivery{id, p.Text}
	}

	engine := NewEngine(conf)
	require.NoError(t, engine.Init())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, engine.WaitReady(ctx))

	return engine, deliveries
}

// waitNode polls a node until cond holds.
func waitNode(t *testing.T, e *Engine, id uint32, cond func(node.Info) bool) node.Info {
	t.Helper()

	timeout := time.After(5 * time.Second)
	for {
		info, err := e.Node(id)
		require.NoError(t, err)
		if cond(info) {
			return info
		}
		select {
		case <-timeout:
			t.Fatalf("timeout waiting on node %d: %#v", id, info)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// waitGone waits until a killed node has stopped and been forgotten.
func waitGone(t *testing.T, e *Engine, id uint32) {
	t.Helper()

	timeout := time.After(5 * time.Second)
	for {
		if _, err := e.Node(id); common.IsNodeErr(err, common.NodeNotFound) {
			return
		}
		select {
		case <-timeout:
			t.Fatalf("node %d still running", id)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func edgesEqual(expected map[uint32]string) func(node.Info) bool {
	return func(info node.Info) bool {
		return reflect.DeepEqual(info.Edges, expected)
	}
}

func addr(t *testing.T, e *Engine, id uint32) string {
	h, err := e.Registry.Lookup(id)
	require.NoError(t, err)
	return h.Addr
}

// collect reads n deliveries and checks that nothing else arrives.
func collect(t *testing.T, deliveries chan delivery, n int) map[uint32][]string {
	t.Helper()

	res := make(map[uint32][]string)
	for i := 0; i < n; i++ {
		select {
		case d := <-deliveries:
			res[d.id] = append(res[d.id], d.text)
		case <-time.After(5 * time.Second):
			t.Fatalf("timeout after %d deliveries: %v", i, res)
		}
	}

	select {
	case d := <-deliveries:
		t.Fatalf("unexpected delivery %v, already got %v", d, res)
	case <-time.After(100 * time.Millisecond):
	}

	return res
}

func testEngine(t *testing.T, inmem bool) {
	engine, deliveries := newTestEngine(t, inmem, writeTopology(t, "1=2,3\n2=NO\n3=NO\n"))
	defer engine.Shutdown()

	assert.Equal(t, 3, engine.Registry.Len())

	waitNode(t, engine, 1, edgesEqual(map[uint32]string{
		2: addr(t, engine, 2),
		3: addr(t, engine, 3),
	}))

	require.NoError(t, engine.SendPayload(1, "x"))
	assert.Equal(t, map[uint32][]string{
		1: {"x"},
		2: {"x"},
		3: {"x"},
	}, collect(t, deliveries, 3))

	// two-phase add: declare 5 on node 1, then create node 5 which
	// identifies itself to every member
	require.NoError(t, engine.AddChild(1, 5))
	waitNode(t, engine, 1, func(info node.Info) bool {
		return reflect.DeepEqual(info.Children, []uint32{2, 3, 5})
	})

	require.NoError(t, engine.CreateNode(5, nil))
	waitNode(t, engine, 1, edgesEqual(map[uint32]string{
		2: addr(t, engine, 2),
		3: addr(t, engine, 3),
		5: addr(t, engine, 5),
	}))

	err := engine.CreateNode(5, nil)
	assert.True(t, common.IsNodeErr(err, common.NodeExists), "err: %v", err)

	require.NoError(t, engine.RemoveChild(1, 2))
	waitNode(t, engine, 1, edgesEqual(map[uint32]string{
		3: addr(t, engine, 3),
		5: addr(t, engine, 5),
	}))

	require.NoError(t, engine.Kill(3))
	_, err = engine.Registry.Lookup(3)
	assert.True(t, common.IsNodeErr(err, common.NodeNotFound), "err: %v", err)
	waitGone(t, engine, 3)

	// node 1 keeps its edge to the dead node 3, sends to it are lost
	require.NoError(t, engine.SendPayload(1, "y"))
	assert.Equal(t, map[uint32][]string{
		1: {"y"},
		5: {"y"},
	}, collect(t, deliveries, 2))

	// unknown ids are reported
	for _, err := range []error{
		engine.Kill(3),
		engine.SendPayload(9, "z"),
		engine.AddChild(9, 1),
		engine.RemoveChild(9, 1),
	} {
		assert.True(t, common.IsNodeErr(err, common.NodeNotFound), "err: %v", err)
	}

	decls, err := engine.Store.Declarations()
	require.NoError(t, err)
	assert.Equal(t, "[1=3,5 2=NO 5=NO]", fmtDecls(decls))
}

func TestEngineInmem(t *testing.T) {
	testEngine(t, true)
}

func TestEngineTCP(t *testing.T) {
	testEngine(t, false)
}

func TestEngineBadTopology(t *testing.T) {
	for _, path := range []string{
		filepath.Join(t.TempDir(), "missing.properties"),
		writeTopology(t, "1=2,x\n"),
	} {
		conf := config.NewTestConfig(t, common.TestLogLevel)
		conf.InmemTransport = true
		conf.TopologyFile = path

		engine := NewEngine(conf)
		assert.Error(t, engine.Init())
		assert.Equal(t, 0, engine.Registry.Len(), "no node should start")
	}
}

func TestEngineStore(t *testing.T) {
	dbDir := t.TempDir()

	conf := config.NewTestConfig(t, common.TestLogLevel)
	conf.InmemTransport = true
	conf.Store = true
	conf.DatabaseDir = dbDir
	conf.TopologyFile = writeTopology(t, "1=2\n2=NO\n")

	engine := NewEngine(conf)
	require.NoError(t, engine.Init())
	require.NoError(t, engine.CreateNode(4, []uint32{1}))
	require.NoError(t, engine.AddChild(2, 4))
	engine.Shutdown()

	// the store is authoritative once it holds declarations
	conf = config.NewTestConfig(t, common.TestLogLevel)
	conf.InmemTransport = true
	conf.Store = true
	conf.DatabaseDir = dbDir
	conf.TopologyFile = filepath.Join(t.TempDir(), "missing.properties")

	engine = NewEngine(conf)
	require.NoError(t, engine.Init())
	defer engine.Shutdown()

	assert.Equal(t, []uint32{1, 2, 4}, engine.Registry.IDs())

	info := waitNode(t, engine, 2, edgesEqual(map[uint32]string{4: addr(t, engine, 4)}))
	assert.Equal(t, []uint32{4}, info.Children)
}

func TestEngineStats(t *testing.T) {
	engine, _ := newTestEngine(t, true, writeTopology(t, "1=NO\n"))
	defer engine.Shutdown()

	stats := engine.Stats()
	assert.Equal(t, "1", stats["nodes"])
	assert.Equal(t, "1", stats["members"])
	assert.Equal(t, "inmem", stats["transport"])

	_, err := engine.Node(2)
	assert.True(t, common.IsNodeErr(err, common.NodeNotFound), "err: %v", err)
}

// hasSeries reports whether the default registry holds a series of the named
// metric for a node.
func hasSeries(t *testing.T, name, nodeLabel string) bool {
	mfs, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "node" && l.GetValue() == nodeLabel {
					return true
				}
			}
		}
	}
	return false
}

func TestEngineForgetKeepsNewerNode(t *testing.T) {
	engine, _ := newTestEngine(t, true, writeTopology(t, "77=NO\n"))
	defer engine.Shutdown()

	engine.nodesLock.RLock()
	old := engine.nodes[77]
	engine.nodesLock.RUnlock()

	// Same id, new instance, as after kill 77 / create 77.
	newer := node.NewNode(node.TestConfig(t), 77, nil, engine.network.NewTransport(), engine.Cluster)
	defer newer.Shutdown()

	metrics.ResolvedEdges.WithLabelValues(metrics.NodeLabel(77)).Set(7)

	engine.nodesLock.Lock()
	engine.nodes[77] = newer
	engine.nodesLock.Unlock()

	engine.forget(old)

	assert.True(t, hasSeries(t, "weave_node_resolved_edges", "77"), "series of the newer node should survive")

	engine.nodesLock.RLock()
	assert.Same(t, newer, engine.nodes[77])
	engine.nodesLock.RUnlock()

	// Once the old node is the current one again, stopping it forgets its
	// series.
	engine.nodesLock.Lock()
	engine.nodes[77] = old
	engine.nodesLock.Unlock()

	old.Shutdown()
	waitGone(t, engine, 77)

	assert.False(t, hasSeries(t, "weave_node_resolved_edges", "77"), "series of the stopped node should be gone")
}
