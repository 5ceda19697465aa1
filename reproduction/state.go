package reproduction

import "github.com/pthm-cable/herd/host"

// TreePath is the attribute subtree the engine persists under.
const TreePath = "multiplywithevolution"

const (
	keyIsPregnant     = "isPregnant"
	keyPregnancyStart = "totalDaysPregnancyStart"
	keyLastBirth      = "totalDaysLastBirth"
	keyCooldownUntil  = "totalDaysCooldownUntil"
)

// neverBorn marks a creature that has not given birth yet.
const neverBorn = -9999

// State is the durable reproduction state of one creature.
type State struct {
	IsPregnant        bool
	PregnancyStartDay float64
	LastBirthDay      float64
	CooldownUntilDay  float64
}

// NewState returns the state of a freshly spawned creature.
func NewState() State {
	return State{LastBirthDay: neverBorn}
}

// ReadState decodes a State from an attribute tree. Missing fields take
// their first-spawn defaults.
func ReadState(t host.Tree) State {
	return State{
		IsPregnant:        t.GetBool(keyIsPregnant, false),
		PregnancyStartDay: t.GetFloat(keyPregnancyStart, 0),
		LastBirthDay:      t.GetFloat(keyLastBirth, neverBorn),
		CooldownUntilDay:  t.GetFloat(keyCooldownUntil, 0),
	}
}

// Write encodes s into an attribute tree.
func (s State) Write(t host.Tree) {
	t.SetBool(keyIsPregnant, s.IsPregnant)
	t.SetFloat(keyPregnancyStart, s.PregnancyStartDay)
	t.SetFloat(keyLastBirth, s.LastBirthDay)
	t.SetFloat(keyCooldownUntil, s.CooldownUntilDay)
}

// Normalize restores the state invariants against the current day after a
// load: a pregnancy cannot have started in the future.
func (s *State) Normalize(now float64) {
	if s.IsPregnant && s.PregnancyStartDay > now {
		s.PregnancyStartDay = now
	}
}
