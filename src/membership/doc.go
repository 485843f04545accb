// Package membership provides the cluster membership feed consumed by nodes.
//
// A Cluster tracks members, each identified by the routable address of its
// transport and carrying a role. Subscribers first receive a Snapshot of the
// current members and then a MemberUp, MemberUnreachable or MemberRemoved
// event for every change. Nodes act only on members with role Node and status
// Up; the other events are informational.
package membership
