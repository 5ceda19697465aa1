// Package growth models wool: a harvestable quantity that accumulates with
// time since the last harvest, at a rate and cap that improve with
// generation.
package growth

import (
	"log/slog"
	"math"

	"github.com/pthm-cable/herd/host"
	"github.com/pthm-cable/herd/species"
)

// minRatePerUnit floors the hours-per-unit rate of a misconfigured species.
const minRatePerUnit = 1e-3

// scratchFloor is the lowest scratch chance any generation can reach.
const scratchFloor = 0.05

// scratchDamage is dealt to the creature by a scratched harvest.
const scratchDamage = 1.0

// itemDropHeight lifts dropped items above the creature's feet.
const itemDropHeight = 0.5

// HarvestResult is the outcome of a harvest attempt.
type HarvestResult struct {
	Reason    Reason
	Tool      Tool
	Quantity  int
	Scratched bool
	Item      string
	ItemStack host.Entity // 0 when nothing was dropped
	Sound     string
}

// Harvested reports whether anything was collected.
func (r HarvestResult) Harvested() bool {
	return r.Reason == ReasonNone
}

// Resource tracks wool growth for a single creature. All times are in hours.
type Resource struct {
	self   host.Entity
	snap   *species.Snapshot
	world  host.World
	rng    host.Rand
	logger *slog.Logger

	// State is the persisted growth state.
	State State

	// last quantity observed by Tick, used only to decide when to notify
	lastSeen int
}

// New creates a resource for self. A nil logger uses slog.Default().
func New(self host.Entity, snap *species.Snapshot, world host.World, rng host.Rand, logger *slog.Logger) *Resource {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resource{
		self:     self,
		snap:     snap,
		world:    world,
		rng:      rng,
		logger:   logger,
		lastSeen: -1,
	}
}

// Entity returns the creature this resource belongs to.
func (r *Resource) Entity() host.Entity {
	return r.self
}

// EffectiveRatePerUnit returns the hours needed to grow one unit.
func (r *Resource) EffectiveRatePerUnit(generation int) float64 {
	s := r.snap
	reduction := math.Min(math.Max(0, float64(generation-s.MinGeneration)*s.HoursPerUnitGenReduction), s.HoursPerUnitMaxReduction)
	rate := s.HoursPerUnit - reduction
	if rate <= 0 {
		return minRatePerUnit
	}
	return rate
}

// GenerationalCapBonus returns the extra capacity earned above MinGeneration.
func (r *Resource) GenerationalCapBonus(generation int) int {
	s := r.snap
	return min(max(0, generation-s.MinGeneration)*s.GenerationalGrowthCapBonus, s.MaxGenerationBonusCap)
}

// MaxCapacity returns the most units a creature of generation can carry.
func (r *Resource) MaxCapacity(generation int) int {
	return r.snap.MaxHarvestUnits + r.GenerationalCapBonus(generation)
}

// CurrentQuantity returns the harvestable units at hour now. It is zero until
// MinHarvestUnits have grown and never exceeds MaxCapacity.
func (r *Resource) CurrentQuantity(now float64, generation int) int {
	elapsed := math.Max(0, now-r.State.LastHarvestHour)
	u := elapsed / r.EffectiveRatePerUnit(generation)
	minUnits := r.snap.MinHarvestUnits
	if u < float64(minUnits) {
		return 0
	}
	q := int(math.Floor(math.Min(u, float64(math.MaxInt32))))
	return min(max(q, minUnits), r.MaxCapacity(generation))
}

// HarvestBonusQuantity returns the yield with shears.
func (r *Resource) HarvestBonusQuantity(now float64, generation int) int {
	q := r.CurrentQuantity(now, generation)
	if q == 0 {
		return 0
	}
	return q + r.snap.HarvestToolBonus
}

// ScratchChance returns the probability that a harvest injures the creature.
func (r *Resource) ScratchChance(generation int, multiplier float64) float64 {
	s := r.snap
	return math.Max(scratchFloor, (s.ScratchBaseChance-s.ScratchGenReduction*float64(generation))*multiplier)
}

// Harvest collects the wool grown so far. by is the harvesting entity and
// may be 0. Unmet preconditions are reported through the result's Reason and
// leave the state untouched.
func (r *Resource) Harvest(now float64, generation int, tool Tool, by host.Entity) HarvestResult {
	res := HarvestResult{Tool: tool, Item: r.snap.WoolItem, Sound: r.snap.ShearSound}

	switch {
	case !r.world.Alive(r.self):
		res.Reason = ReasonDead
		return res
	case generation < r.snap.MinGeneration:
		res.Reason = ReasonGenerationTooLow
		return res
	case r.CurrentQuantity(now, generation) == 0:
		res.Reason = ReasonNothingToHarvest
		return res
	}

	switch tool {
	case ToolKnife:
		res.Quantity = r.CurrentQuantity(now, generation)
	case ToolShears:
		res.Quantity = r.HarvestBonusQuantity(now, generation)
	default:
		res.Reason = ReasonInvalidTool
		return res
	}

	if r.rng.Float64() < r.ScratchChance(generation, 1) {
		res.Scratched = true
		r.world.ApplyDamage(r.self, scratchDamage, host.DamageSource{Kind: host.DamageSlashing, By: by})
	}

	r.State.LastHarvestHour = now
	r.lastSeen = 0
	r.world.MarkDirty(r.self, TreePath)

	pos := r.world.Position(r.self).Add(host.Vec3{Y: itemDropHeight})
	stack, err := r.world.SpawnItem(res.Item, res.Quantity, pos)
	if err != nil {
		r.logger.Error("drop harvest failed", "species", r.snap.Code, "item", res.Item, "quantity", res.Quantity, "error", err)
	} else {
		res.ItemStack = stack
	}
	return res
}

// Tick clamps the harvest timestamp to now and marks the wool subtree dirty
// when the harvestable quantity has changed since the previous tick.
func (r *Resource) Tick(now float64) {
	if !r.world.Alive(r.self) {
		return
	}
	dirty := false
	if r.State.LastHarvestHour > now {
		r.State.Normalize(now)
		dirty = true
	}
	q := r.CurrentQuantity(now, r.world.Generation(r.self))
	if q != r.lastSeen {
		r.lastSeen = q
		dirty = true
	}
	if dirty {
		r.world.MarkDirty(r.self, TreePath)
	}
}
