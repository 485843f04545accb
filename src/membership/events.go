package membership

// Event is one of Snapshot, MemberUp, MemberUnreachable or MemberRemoved.
type Event interface {
	isEvent()
}

// Snapshot lists the members known to the cluster at the time of the
// subscription, in join order.
type Snapshot struct {
	Members []Member
}

// MemberUp is emitted when a member joins, or when an unreachable member
// rejoins.
type MemberUp struct {
	Member Member
}

// MemberUnreachable is emitted when the failure detector marks a member as
// unreachable.
type MemberUnreachable struct {
	Member Member
}

// MemberRemoved is emitted when a member leaves the cluster.
type MemberRemoved struct {
	Member Member
}

func (Snapshot) isEvent()          {}
func (MemberUp) isEvent()          {}
func (MemberUnreachable) isEvent() {}
func (MemberRemoved) isEvent()     {}
