// Package weave wires the other packages into a running graph.
//
// An Engine loads the declared topology, from its store if it holds any
// declarations or else from the topology file, and starts one node per
// declaration, each on its own transport with a fresh address. All nodes join
// the same in-process cluster and discover each other through its membership
// feed. Operator commands are looked up in the registry and sent to the target
// node as messages from the engine's client transport.
//
//	conf := config.NewDefaultConfig()
//	conf.TopologyFile = "topology.properties"
//
//	engine := weave.NewEngine(conf)
//	if err := engine.Init(); err != nil {
//		return err
//	}
//	engine.Run()
//
//	ctx, cancel := context.WithTimeout(context.Background(), conf.ReadyTimeout)
//	defer cancel()
//	engine.WaitReady(ctx)
//
//	engine.SendPayload(1, "hello")
package weave
