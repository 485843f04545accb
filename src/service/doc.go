// Package service exposes the state of the hosted nodes over HTTP.
//
//	/stats      engine counters
//	/nodes      registered node handles
//	/node/{id}  configured children, resolved edges and recent payloads of a node
//	/metrics    prometheus metrics
package service
