package membership

// Role is the role a member announces when it joins the cluster.
type Role string

const (
	// RoleNode is carried by graph nodes. Nodes only announce themselves to
	// members with this role.
	RoleNode Role = "Node"
	// RoleClient is carried by processes that send commands but do not take
	// part in discovery.
	RoleClient Role = "Client"
)

// Status ...
type Status uint32

const (
	// Up ...
	Up Status = iota
	// Unreachable ...
	Unreachable
	// Removed ...
	Removed
)

func (s Status) String() string {
	switch s {
	case Up:
		return "Up"
	case Unreachable:
		return "Unreachable"
	case Removed:
		return "Removed"
	default:
		return "Unknown"
	}
}

// Member is a routable handle together with its role and status. Addr is the
// advertise address of the member's transport.
type Member struct {
	Addr   string
	Role   Role
	Status Status
}

// IsUpNode returns true if the member is a reachable graph node.
func (m Member) IsUpNode() bool {
	return m.Role == RoleNode && m.Status == Up
}
