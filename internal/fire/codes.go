// Package fire orchestrates igniter firing: code arithmetic, the
// armed/authorized gate, and transient fired-state bookkeeping.
package fire

import "fmt"

// Grouped igniters expose channels 1..10; 9 and 10 are reserved for
// whole-group battery fire.
const (
	MinChannel = 1
	MaxChannel = 10
)

// ChannelCode returns the igniter code for one channel of a group.
// The mapping is deterministic: group base plus channel number.
func ChannelCode(groupBase, channel int) uint32 {
	return uint32(groupBase + channel)
}

// DirectCode returns the igniter code for a standalone igniter.
func DirectCode(firstBox, index int) uint32 {
	return uint32(firstBox + index - 1)
}

// TargetKind distinguishes grouped channels from standalone igniters.
type TargetKind int

const (
	// TargetGroup addresses one channel of a channel group.
	TargetGroup TargetKind = iota
	// TargetDirect addresses a standalone igniter by index.
	TargetDirect
)

// Target identifies one igniter output.
type Target struct {
	Kind TargetKind

	// Group and Channel select a grouped output (Kind == TargetGroup).
	Group   int
	Channel int

	// Index selects a standalone igniter (Kind == TargetDirect).
	Index int
}

// GroupTarget addresses channel of the given group.
func GroupTarget(group, channel int) Target {
	return Target{Kind: TargetGroup, Group: group, Channel: channel}
}

// DirectTarget addresses the standalone igniter with the given index.
func DirectTarget(index int) Target {
	return Target{Kind: TargetDirect, Index: index}
}

// Key returns the stable identifier used for fired-state bookkeeping.
func (t Target) Key() string {
	if t.Kind == TargetDirect {
		return fmt.Sprintf("d%d", t.Index)
	}
	return fmt.Sprintf("%d-%d", t.Group, t.Channel)
}

func (t Target) String() string {
	if t.Kind == TargetDirect {
		return fmt.Sprintf("igniter %d", t.Index)
	}
	return fmt.Sprintf("group %d channel %d", t.Group, t.Channel)
}
