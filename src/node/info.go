package node

import (
	"time"

	"github.com/mosaicnetworks/weave/src/common"
)

// Info is a point-in-time view of a node, used by the console and the HTTP
// service.
type Info struct {
	ID               uint32            `json:"id"`
	State            string            `json:"state"`
	Addr             string            `json:"addr"`
	Children         []uint32          `json:"children"`
	Edges            map[uint32]string `json:"edges"`
	PayloadsReceived int               `json:"payloads_received"`
	RecentPayloads   []string          `json:"recent_payloads"`
	Uptime           string            `json:"uptime"`
}

// Info asks the node loop for a snapshot of the node. It fails with a
// NodeErr if the node is terminated or does not answer within QueryTimeout.
func (n *Node) Info() (Info, error) {
	resCh := make(chan Info, 1)
	query := func() {
		resCh <- n.info()
	}

	timer := time.NewTimer(n.conf.QueryTimeout)
	defer timer.Stop()

	select {
	case n.queryCh <- query:
	case <-n.shutdownCh:
		return Info{}, common.NewNodeErr("Node", common.NodeTerminated, n.id)
	case <-timer.C:
		return Info{}, common.NewNodeErr("Node", common.Timeout, n.id)
	}

	return <-resCh, nil
}

func (n *Node) info() Info {
	recent, tot := n.payloads.Get()

	return Info{
		ID:               n.id,
		State:            n.getState().String(),
		Addr:             n.Addr(),
		Children:         n.core.Children(),
		Edges:            n.core.Edges(),
		PayloadsReceived: tot,
		RecentPayloads:   recent,
		Uptime:           time.Since(n.start).Truncate(time.Millisecond).String(),
	}
}
