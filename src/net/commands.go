package net

// MessageKind tags each of the message types exchanged between nodes. It is
// also the first byte of every frame written by the NetworkTransport.
type MessageKind uint8

const (
	// KindIdentify tags Identify messages.
	KindIdentify MessageKind = iota
	// KindPayload tags Payload messages.
	KindPayload
	// KindAddEdge tags AddEdge messages.
	KindAddEdge
	// KindRemoveEdge tags RemoveEdge messages.
	KindRemoveEdge
	// KindTerminate tags Terminate messages.
	KindTerminate
)

// String returns the string representation of a MessageKind
func (k MessageKind) String() string {
	switch k {
	case KindIdentify:
		return "Identify"
	case KindPayload:
		return "Payload"
	case KindAddEdge:
		return "AddEdge"
	case KindRemoveEdge:
		return "RemoveEdge"
	case KindTerminate:
		return "Terminate"
	default:
		return "Unknown"
	}
}

// Message is implemented by the five message types of the node protocol, and
// only by them. Receivers switch on the concrete type.
type Message interface {
	Kind() MessageKind
	isMessage()
}

// Identify is the announcement a node sends to every node-role member it
// discovers. ID is the numeric id of the sender.
type Identify struct {
	ID uint32
}

// Payload is forwarded, unmodified, along every resolved out-edge of the node
// that receives it.
type Payload struct {
	Text string
}

// AddEdge asks node Target to declare Child as one of its children.
type AddEdge struct {
	Target uint32
	Child  uint32
}

// RemoveEdge asks node Target to forget child Child, both declared and
// resolved.
type RemoveEdge struct {
	Target uint32
	Child  uint32
}

// Terminate asks node Target to stop.
type Terminate struct {
	Target uint32
}

// Kind implements the Message interface.
func (Identify) Kind() MessageKind { return KindIdentify }

// Kind implements the Message interface.
func (Payload) Kind() MessageKind { return KindPayload }

// Kind implements the Message interface.
func (AddEdge) Kind() MessageKind { return KindAddEdge }

// Kind implements the Message interface.
func (RemoveEdge) Kind() MessageKind { return KindRemoveEdge }

// Kind implements the Message interface.
func (Terminate) Kind() MessageKind { return KindTerminate }

func (Identify) isMessage()   {}
func (Payload) isMessage()    {}
func (AddEdge) isMessage()    {}
func (RemoveEdge) isMessage() {}
func (Terminate) isMessage()  {}
