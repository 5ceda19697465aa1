package game

import (
	"github.com/pthm-cable/herd/host"
	"github.com/pthm-cable/herd/reproduction"
	"github.com/pthm-cable/herd/telemetry"
	"github.com/pthm-cable/herd/traits"
)

// Update runs one simulation step of Scheduler.StepDT host seconds.
func (g *Game) Update() {
	dt := g.cfg.Scheduler.StepDT
	g.perfCollector.StartTick()

	// 1. Movement and spatial index
	g.perfCollector.StartPhase(telemetry.PhaseMovement)
	g.world.Step(dt)
	g.elapsed += dt

	// 2. Periodic callbacks: creature ticks, herder and save timers
	g.perfCollector.StartPhase(telemetry.PhaseScheduler)
	g.sched.Advance(g.elapsed)

	// 3. Grazing
	g.perfCollector.StartPhase(telemetry.PhaseGrazing)
	g.graze(dt * g.cfg.Derived.HoursPerSecond)

	// 4. Shearing round
	if g.herdDue {
		g.herdDue = false
		g.perfCollector.StartPhase(telemetry.PhaseHerder)
		g.runHerder()
	}

	// 5. Remove the dead, grow up the young, refill a collapsed herd
	g.perfCollector.StartPhase(telemetry.PhaseCleanup)
	g.cleanupDead()
	g.processMaturation()
	g.restock()

	// 6. Persistence
	if g.saveDue {
		g.saveDue = false
		g.perfCollector.StartPhase(telemetry.PhasePersistence)
		if err := g.save(g.ctx); err != nil {
			g.logger.Error("save failed", "error", err)
		}
	}

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.flushTelemetry()

	g.perfCollector.EndTick()
	g.steps++
}

// tickCreature is the periodic callback of a single creature.
func (g *Game) tickCreature(e host.Entity) {
	c := g.creatures[e]
	if c == nil || !g.world.Alive(e) {
		return
	}
	day := g.Days()

	if c.repro != nil {
		g.recordReproduction(c, c.repro.Tick(day), day)
	}
	if c.wool != nil {
		c.wool.Tick(g.Hours())
	}

	if !c.maturing && c.profile.MatureDays > 0 && len(c.profile.MaturesInto) > 0 &&
		day-c.bornDay >= c.profile.MatureDays {
		c.maturing = true
		g.maturing = append(g.maturing, e)
	}
}

// recordReproduction turns a reproduction tick into telemetry events.
func (g *Game) recordReproduction(c *creature, res reproduction.TickResult, day float64) {
	self := uint64(c.ent)
	switch {
	case res.Attempt != nil:
		a := res.Attempt
		if a.Conceived() {
			g.recordEvent(telemetry.NewConceptionEvent(day, self, c.code, uint64(a.Partner)))
		} else if a.Reason == reproduction.ReasonBotched {
			g.recordEvent(telemetry.NewBotchedEvent(day, self, c.code))
		}

	case res.Birth != nil:
		b := res.Birth
		g.collector.RecordLitter()
		g.lifetime.RecordLitter(self)
		for i, child := range b.Offspring {
			g.recordEvent(telemetry.NewBirthEvent(day, uint64(child), b.Codes[i], self))
		}
		for _, d := range b.Diagnostics {
			g.recordEvent(telemetry.NewMisconfigEvent(day, self, c.code, d.Kind.String()))
		}
	}
}

// graze feeds every eating creature that wants food.
func (g *Game) graze(hours float64) {
	gain := g.cfg.Grazing.RatePerHour * hours
	if gain <= 0 {
		return
	}
	day := g.Days()
	for e, c := range g.creatures {
		if !c.traits.Has(traits.Eats) || !g.world.Alive(e) {
			continue
		}
		if c.repro != nil && !c.repro.ShouldEat(day) {
			continue
		}
		g.world.AdjustResource(e, host.ResourceSaturation, gain)
	}
}

// runHerder shears every wool-bearing creature that has wool ready, then
// optionally gathers the dropped stacks into the stock.
func (g *Game) runHerder() {
	hours, day := g.Hours(), g.Days()
	tool := g.cfg.Derived.HerderTool

	sheared := 0
	for _, e := range g.world.Creatures() {
		c := g.creatures[e]
		if c == nil || c.wool == nil || !g.world.Alive(e) {
			continue
		}
		res := c.wool.Harvest(hours, g.world.Generation(e), tool, 0)
		if !res.Harvested() {
			continue
		}
		sheared++
		g.recordEvent(telemetry.NewHarvestEvent(day, uint64(e), c.code, 0, res.Quantity, res.Tool.String()))
		if res.Scratched {
			g.recordEvent(telemetry.NewScratchEvent(day, uint64(e), c.code, 0))
		}
	}

	collected := 0
	if g.cfg.Herder.Collect {
		collected = g.collectWool()
	}
	g.logger.Debug("herder round", "day", day, "sheared", sheared, "collected", collected, "stock", g.woolStock)
}

// collectWool picks up every dropped stack.
func (g *Game) collectWool() int {
	total := 0
	for _, it := range g.world.Items() {
		if g.world.Despawn(it.Entity) {
			total += it.Quantity
		}
	}
	g.woolStock += total
	return total
}
