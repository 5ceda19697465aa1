package reproduction

import "fmt"

// Status is a read-only view of the reproduction state for presentation.
type Status struct {
	Alive         bool
	Pregnant      bool
	Saturation    float64
	HasHunger     bool
	DaysUntilMate float64 // <= 0 when ready
}

// Status summarises the engine at now (in days).
func (e *Engine) Status(now float64) Status {
	st := Status{
		Alive:         e.world.Alive(e.self),
		Pregnant:      e.State.IsPregnant,
		DaysUntilMate: e.State.CooldownUntilDay - now,
	}
	st.Saturation, st.HasHunger = e.world.Saturation(e.self)
	return st
}

// Lines renders the status as human-readable lines.
func (s Status) Lines() []string {
	if s.Pregnant {
		return []string{"Is pregnant"}
	}
	if !s.Alive {
		return nil
	}

	var lines []string
	if s.HasHunger {
		lines = append(lines, fmt.Sprintf("Portions eaten: %g", s.Saturation))
	}
	switch {
	case s.DaysUntilMate > 3:
		lines = append(lines, "Several days left before ready to mate")
	case s.DaysUntilMate > 0:
		lines = append(lines, "Less than 3 days before ready to mate")
	default:
		lines = append(lines, "Ready to mate")
	}
	return lines
}
