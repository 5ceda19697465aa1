// Package reproduction implements the pregnancy state machine: conception,
// gestation, birth and evolutionary branching of offspring type.
package reproduction

import (
	"log/slog"
	"math"

	"github.com/pthm-cable/herd/host"
	"github.com/pthm-cable/herd/species"
)

// OriginReproduction tags offspring spawned by a birth.
const OriginReproduction = "reproduction"

// motionJitter scales the random horizontal push given to each newborn.
const motionJitter = 1.0 / 20.0

// Attempt is the outcome of one conception attempt.
type Attempt struct {
	Reason  Reason
	Partner host.Entity // 0 when no partner was involved
}

// Conceived reports whether the attempt resulted in pregnancy.
func (a Attempt) Conceived() bool {
	return a.Reason == ReasonNone
}

// Birth records one completed gestation.
type Birth struct {
	Day         float64
	Quantity    float64 // sampled expected litter size
	Candidates  []string
	Offspring   []host.Entity
	Codes       []string // code of each spawned offspring, parallel to Offspring
	Diagnostics []species.Diagnostic
}

// TickResult reports what a tick did. At most one of the fields is set.
type TickResult struct {
	Attempt *Attempt
	Birth   *Birth
}

// Engine drives reproduction for a single creature.
type Engine struct {
	self   host.Entity
	snap   *species.Snapshot
	world  host.World
	rng    host.Rand
	logger *slog.Logger

	// State is the persisted reproduction state. The host loads it before
	// the first tick and saves it when TreePath is marked dirty.
	State State

	// EatAnyway forces ShouldEat to report true.
	EatAnyway bool
}

// New creates an engine for self. A nil logger uses slog.Default().
func New(self host.Entity, snap *species.Snapshot, world host.World, rng host.Rand, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		self:   self,
		snap:   snap,
		world:  world,
		rng:    rng,
		logger: logger,
		State:  NewState(),
	}
}

// Entity returns the creature this engine belongs to.
func (e *Engine) Entity() host.Entity {
	return e.self
}

// Species returns the snapshot the engine was built with.
func (e *Engine) Species() *species.Snapshot {
	return e.snap
}

// IsPregnant reports whether the creature is gestating.
func (e *Engine) IsPregnant() bool {
	return e.State.IsPregnant
}

// Tick advances the state machine to now (in days). Ticks for a creature
// that is no longer alive are ignored.
func (e *Engine) Tick(now float64) TickResult {
	if !e.world.Alive(e.self) {
		return TickResult{}
	}

	if !e.State.IsPregnant {
		a := e.TryConceive(now)
		return TickResult{Attempt: &a}
	}

	if now-e.State.PregnancyStartDay > e.snap.GestationDays {
		b := e.giveBirth(now)
		return TickResult{Birth: &b}
	}
	return TickResult{}
}

// TryConceive makes one conception attempt. Failed preconditions leave the
// state untouched; a botched attempt only costs one portion of saturation.
func (e *Engine) TryConceive(now float64) Attempt {
	if !e.world.Alive(e.self) {
		return Attempt{Reason: ReasonDead}
	}
	if e.State.IsPregnant {
		return Attempt{Reason: ReasonAlreadyPregnant}
	}
	if e.rng.Float64() >= e.snap.ConceptionChance {
		return Attempt{Reason: ReasonChance}
	}
	if e.State.CooldownUntilDay > now {
		return Attempt{Reason: ReasonCooldown}
	}

	saturation, ok := e.world.Saturation(e.self)
	if !ok {
		return Attempt{Reason: ReasonNoHunger}
	}
	if saturation < e.snap.PortionsForMultiply {
		return Attempt{Reason: ReasonInsufficientResource}
	}

	var partner host.Entity
	if e.snap.NeedsPartner() {
		p, found := e.findPartner()
		if !found {
			return Attempt{Reason: ReasonNoPartner}
		}
		partner = p
	}

	if e.rng.Float64() < e.snap.BotchedChance {
		e.world.AdjustResource(e.self, host.ResourceSaturation, -1)
		return Attempt{Reason: ReasonBotched, Partner: partner}
	}

	e.world.AdjustResource(e.self, host.ResourceSaturation, -e.snap.PortionsForMultiply)
	if partner != 0 {
		e.world.AdjustResource(partner, host.ResourceSaturation, -1)
	}

	e.State.IsPregnant = true
	e.State.PregnancyStartDay = now
	e.world.MarkDirty(e.self, TreePath)

	return Attempt{Reason: ReasonNone, Partner: partner}
}

// findPartner looks for the nearest creature matching the required codes
// that is not starving.
func (e *Engine) findPartner() (host.Entity, bool) {
	return e.world.FindNearest(e.world.Position(e.self), e.snap.RequiredNearbyRange, e.self, func(other host.Entity) bool {
		if !e.snap.MatchesPartner(e.world.Code(other)) {
			return false
		}
		if !e.world.DoesEat(other) {
			return true
		}
		sat, ok := e.world.Saturation(other)
		return ok && sat >= 1
	})
}

// giveBirth ends the pregnancy. The state transition commits before
// offspring are resolved, so a misconfigured species still cycles through
// its cooldown.
func (e *Engine) giveBirth(now float64) Birth {
	s := e.snap
	q := s.SpawnQuantityMin + e.rng.Float64()*(s.SpawnQuantityMax-s.SpawnQuantityMin)

	cooldown := now + s.CooldownDaysMin + e.rng.Float64()*(s.CooldownDaysMax-s.CooldownDaysMin)
	e.State.LastBirthDay = now
	e.State.CooldownUntilDay = math.Max(e.State.CooldownUntilDay, cooldown)
	e.State.IsPregnant = false
	e.world.MarkDirty(e.self, TreePath)

	generation := e.world.Generation(e.self)
	b := Birth{Day: now, Quantity: q}

	b.Candidates, b.Diagnostics = ResolveCandidates(generation, s)
	for _, d := range b.Diagnostics {
		e.logger.Warn("birth misconfiguration",
			"species", s.Code,
			"entity", uint64(e.self),
			"generation", generation,
			"diagnostic", d,
		)
	}
	if len(b.Candidates) == 0 {
		return b
	}

	pos := e.world.Position(e.self)
	for q > 1 || e.rng.Float64() < q {
		q--
		code := b.Candidates[e.rng.Intn(len(b.Candidates))]
		child := host.Offspring{
			Code:   code,
			Parent: e.self,
			Pos:    pos,
			Motion: host.Vec3{
				X: (e.rng.Float64() - 0.5) * motionJitter,
				Z: (e.rng.Float64() - 0.5) * motionJitter,
			},
			Origin:     OriginReproduction,
			Generation: generation + 1,
		}
		ent, err := e.world.Spawn(child)
		if err != nil {
			e.logger.Error("spawn offspring failed", "species", s.Code, "code", code, "error", err)
			continue
		}
		b.Offspring = append(b.Offspring, ent)
		b.Codes = append(b.Codes, code)
	}

	e.logger.Debug("birth",
		"species", s.Code,
		"entity", uint64(e.self),
		"generation", generation,
		"offspring", len(b.Offspring),
	)
	return b
}

// ShouldEat reports whether the creature wants food to become ready to mate.
func (e *Engine) ShouldEat(now float64) bool {
	if e.EatAnyway {
		return true
	}
	if e.State.IsPregnant || e.State.CooldownUntilDay > now {
		return false
	}
	sat, ok := e.world.Saturation(e.self)
	return ok && sat < e.snap.PortionsForMultiply
}
