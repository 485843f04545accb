package common

import (
	"errors"
	"fmt"
)

// NodeErrType enumerates the ways an operation addressed to a node id can
// fail.
type NodeErrType uint32

const (
	// NodeNotFound is returned when no node is registered under an id.
	NodeNotFound NodeErrType = iota
	// NodeExists is returned when registering an id that is already taken.
	NodeExists
	// NodeTerminated is returned when querying a node that has stopped.
	NodeTerminated
	// Timeout is returned when a node did not answer in time.
	Timeout
)

// NodeErr is the error type returned by the registry and the engine when an
// operation cannot be applied to a node id.
type NodeErr struct {
	component string
	errType   NodeErrType
	id        uint32
}

// NewNodeErr ...
func NewNodeErr(component string, errType NodeErrType, id uint32) NodeErr {
	return NodeErr{
		component: component,
		errType:   errType,
		id:        id,
	}
}

// ID returns the node id the error refers to.
func (e NodeErr) ID() uint32 {
	return e.id
}

// Error ...
func (e NodeErr) Error() string {
	m := ""
	switch e.errType {
	case NodeNotFound:
		m = "no such node"
	case NodeExists:
		m = "node already exists"
	case NodeTerminated:
		m = "node terminated"
	case Timeout:
		m = "node timed out"
	}

	return fmt.Sprintf("%s, %d, %s", e.component, e.id, m)
}

// IsNodeErr checks that an error is of type NodeErr and that its code matches
// the provided NodeErrType.
func IsNodeErr(err error, t NodeErrType) bool {
	var nodeErr NodeErr
	return errors.As(err, &nodeErr) && nodeErr.errType == t
}
