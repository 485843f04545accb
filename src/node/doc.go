// Package node implements a vertex of the distributed graph.
//
// A node knows the numeric ids of the children it should route to, never
// their addresses. It learns addresses through a receiver-driven handshake:
// whenever the membership feed shows a member with role Node, the node sends
// it an Identify message carrying its own id. A node that receives
// Identify(k) from address P, where k is one of its configured children and P
// is not yet resolved, records the edge k -> P.
//
// Payloads are forwarded, unchanged and with their original sender, to every
// resolved edge. AddEdge and RemoveEdge amend the configured children of the
// node they target; an added child is only routed to once it identifies
// itself. Terminate stops the node it targets.
//
// Each node processes envelopes and membership events sequentially in the
// goroutine started by Run; Core holds the edge state and is only touched from
// that goroutine. State moves forward only, from Discovering to Running (after
// the first membership snapshot) and finally to Terminated.
package node
