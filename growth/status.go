package growth

import (
	"fmt"
	"math"
)

// Status is a read-only view of the resource for presentation.
type Status struct {
	Alive               bool
	Generation          int
	MinGeneration       int
	Quantity            int
	ToolBonus           int
	MaxCapacity         int
	HoursUntilShearable int
	HoursUntilMax       int
}

// Status summarises the resource at hour now.
func (r *Resource) Status(now float64) Status {
	gen := r.world.Generation(r.self)
	rate := r.EffectiveRatePerUnit(gen)
	elapsed := math.Max(0, now-r.State.LastHarvestHour)
	capacity := r.MaxCapacity(gen)

	return Status{
		Alive:               r.world.Alive(r.self),
		Generation:          gen,
		MinGeneration:       r.snap.MinGeneration,
		Quantity:            r.CurrentQuantity(now, gen),
		ToolBonus:           r.snap.HarvestToolBonus,
		MaxCapacity:         capacity,
		HoursUntilShearable: hoursLeft(float64(r.snap.MinHarvestUnits)*rate, elapsed),
		HoursUntilMax:       hoursLeft(float64(capacity)*rate, elapsed),
	}
}

func hoursLeft(total, elapsed float64) int {
	return int(math.Ceil(math.Max(0, total-elapsed)))
}

// Lines renders the status as human-readable lines.
func (s Status) Lines() []string {
	if !s.Alive {
		return nil
	}
	if s.Generation < s.MinGeneration {
		return []string{fmt.Sprintf("Generation %d too low to shear (needs %d)", s.Generation, s.MinGeneration)}
	}

	var lines []string
	if s.Quantity == 0 {
		lines = append(lines,
			"Wool is growing",
			duration(s.HoursUntilShearable)+" until shearable",
		)
	} else {
		lines = append(lines,
			fmt.Sprintf("Shearable for %d wool", s.Quantity),
			fmt.Sprintf("Shears yield %d extra", s.ToolBonus),
		)
	}
	return append(lines,
		duration(s.HoursUntilMax)+" until maximum wool",
		fmt.Sprintf("Maximum wool: %d", s.MaxCapacity),
	)
}

// duration formats hours, switching to whole days from 25 hours up.
func duration(hours int) string {
	if hours >= 25 {
		return fmt.Sprintf("%d days", hours/24)
	}
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
