package growth

import "github.com/pthm-cable/herd/host"

// TreePath is the attribute subtree the resource persists under.
const TreePath = "wool"

const keyLastShear = "lastShear"

// State is the durable growth state of one creature.
type State struct {
	LastHarvestHour float64
}

// NewState returns the state of a creature spawned at hour now. Newborns
// start bare.
func NewState(now float64) State {
	return State{LastHarvestHour: now}
}

// ReadState decodes a State from an attribute tree, defaulting to def when
// the tree has never been written.
func ReadState(t host.Tree, def State) State {
	return State{LastHarvestHour: t.GetFloat(keyLastShear, def.LastHarvestHour)}
}

// Write encodes s into an attribute tree.
func (s State) Write(t host.Tree) {
	t.SetFloat(keyLastShear, s.LastHarvestHour)
}

// Normalize clamps a harvest timestamp that lies in the future.
func (s *State) Normalize(now float64) {
	if s.LastHarvestHour > now {
		s.LastHarvestHour = now
	}
}
