package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "weave"
)

var (
	// MessagesReceived counts the envelopes processed by each node
	MessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "node",
			Name:      "messages_received_total",
			Help:      "Total number of messages processed by a node",
		},
		[]string{"node", "kind"}, // kind: Identify/Payload/AddEdge/RemoveEdge/Terminate
	)

	// PayloadsForwarded counts payload copies sent along resolved edges
	PayloadsForwarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "node",
			Name:      "payloads_forwarded_total",
			Help:      "Total number of payloads forwarded to children",
		},
		[]string{"node"},
	)

	// SendErrors counts failed sends
	SendErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "node",
			Name:      "send_errors_total",
			Help:      "Total number of messages that could not be handed to the transport",
		},
		[]string{"node"},
	)

	// ResolvedEdges tracks the number of resolved out-edges of each node
	ResolvedEdges = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "node",
			Name:      "resolved_edges",
			Help:      "Number of children with a resolved address",
		},
		[]string{"node"},
	)

	// MembershipEvents counts membership events observed by each node
	MembershipEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "node",
			Name:      "membership_events_total",
			Help:      "Total number of membership events observed by a node",
		},
		[]string{"node", "event"}, // event: snapshot/up/unreachable/removed
	)

	// NodesRunning tracks the number of nodes hosted by the engine
	NodesRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "nodes_running",
			Help:      "Number of nodes hosted by this process",
		},
	)
)

// NodeLabel formats a node id as a label value.
func NodeLabel(id uint32) string {
	return strconv.FormatUint(uint64(id), 10)
}

// Forget removes the series of a terminated node.
func Forget(id uint32) {
	label := NodeLabel(id)
	MessagesReceived.DeletePartialMatch(prometheus.Labels{"node": label})
	MembershipEvents.DeletePartialMatch(prometheus.Labels{"node": label})
	PayloadsForwarded.DeleteLabelValues(label)
	SendErrors.DeleteLabelValues(label)
	ResolvedEdges.DeleteLabelValues(label)
}
