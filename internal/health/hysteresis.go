package health

import "github.com/csheoganj-del/deora-plaza-sub004/internal/pool"

const (
	// DisableBelow disables an enabled node whose score drops strictly below it.
	DisableBelow = 30
	// EnableAbove re-enables a disabled node whose score rises strictly above it.
	EnableAbove = 70
)

// Transition is the outcome of applying hysteresis to a node.
type Transition int

const (
	TransitionNone Transition = iota
	TransitionDisabled
	TransitionEnabled
)

func (t Transition) String() string {
	switch t {
	case TransitionDisabled:
		return "disabled"
	case TransitionEnabled:
		return "enabled"
	default:
		return "none"
	}
}

// ApplyHysteresis flips n.Enabled based on its current HealthScore. Scores in
// [DisableBelow, EnableAbove] leave the node in its prior state.
func ApplyHysteresis(n *pool.Node) Transition {
	if n.Enabled && n.HealthScore < DisableBelow {
		n.Enabled = false
		return TransitionDisabled
	}
	if !n.Enabled && n.HealthScore > EnableAbove {
		n.Enabled = true
		return TransitionEnabled
	}
	return TransitionNone
}
