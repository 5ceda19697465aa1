package game

import (
	"github.com/pthm-cable/herd/growth"
	"github.com/pthm-cable/herd/host"
	"github.com/pthm-cable/herd/reproduction"
	"github.com/pthm-cable/herd/telemetry"
	"github.com/pthm-cable/herd/traits"
	"github.com/pthm-cable/herd/world"
)

// Origin tags for creatures the game itself creates.
const (
	originMaturation = "maturation"
	originRestock    = "restock"
)

// spawnInitialPopulation creates the founders declared in the species catalog.
func (g *Game) spawnInitialPopulation() {
	for _, sp := range g.cfg.Species {
		for i := 0; i < sp.Initial; i++ {
			if _, err := g.world.SpawnCreature(sp.Code, g.randomPosition(), sp.InitialGeneration); err != nil {
				g.logger.Warn("founder spawn failed", "code", sp.Code, "error", err)
				break
			}
		}
	}
}

func (g *Game) randomPosition() host.Vec3 {
	return host.Vec3{
		X: g.rng.Float64() * g.cfg.World.Width,
		Z: g.rng.Float64() * g.cfg.World.Depth,
	}
}

// handleSpawn attaches engines to a creature that just entered the world and
// starts its periodic tick.
func (g *Game) handleSpawn(ev world.SpawnEvent) {
	sp, t, ok := g.cfg.Lookup(ev.Code)
	if !ok {
		return
	}
	e := ev.Entity
	c := &creature{
		ent:     e,
		code:    ev.Code,
		traits:  t,
		snap:    g.snapshots[ev.Code],
		profile: sp,
		bornDay: g.Days(),
	}
	if c.snap != nil && t.Has(traits.Multiply) {
		c.repro = reproduction.New(e, c.snap, g.world, g.rng, g.logger)
		g.dirty[dirtyKey{e, reproduction.TreePath}] = struct{}{}
	}
	if c.snap != nil && t.Has(traits.Wool) {
		c.wool = growth.New(e, c.snap, g.world, g.rng, g.logger)
		c.wool.State = growth.NewState(g.Hours())
		g.dirty[dirtyKey{e, growth.TreePath}] = struct{}{}
	}
	c.token = g.sched.Register(g.cfg.Scheduler.TickInterval, func(float64) { g.tickCreature(e) })
	g.creatures[e] = c

	g.lifetime.Register(uint64(e), ev.Code, c.bornDay, ev.Generation, uint64(ev.Parent))
}

func (g *Game) handleDirty(e host.Entity, path string) {
	g.dirty[dirtyKey{e, path}] = struct{}{}
}

func (g *Game) handleDeath(e host.Entity, src host.DamageSource) {
	g.recordEvent(telemetry.NewDeathEvent(g.Days(), uint64(e), g.world.Code(e), src.Kind.String()))
}

// handleDespawn stops a removed creature's tick, drops its saved state and
// offers its record to the hall of fame.
func (g *Game) handleDespawn(e host.Entity) {
	c := g.creatures[e]
	if c == nil {
		return
	}
	delete(g.creatures, e)
	g.sched.Unregister(c.token)
	delete(g.dirty, dirtyKey{e, reproduction.TreePath})
	delete(g.dirty, dirtyKey{e, growth.TreePath})

	if err := g.store.Delete(g.ctx, e); err != nil {
		g.logger.Error("failed to delete saved state", "entity", uint64(e), "error", err)
	}

	stats := g.lifetime.Remove(uint64(e), g.Days())
	if g.hallOfFame.Consider(uint64(e), stats) {
		g.logger.Debug("hall of fame entry", "entity", uint64(e), "stats", stats)
	}
}

// cleanupDead removes creatures whose HP reached zero.
func (g *Game) cleanupDead() {
	for _, e := range g.world.Dead() {
		g.world.Despawn(e)
	}
}

// processMaturation replaces every young creature that came of age with a
// randomly chosen adult form. The adult keeps the position and generation.
func (g *Game) processMaturation() {
	pending := g.maturing
	g.maturing = nil

	for _, e := range pending {
		c := g.creatures[e]
		if c == nil || !g.world.Alive(e) {
			continue
		}
		adults := c.profile.MaturesInto
		o := host.Offspring{
			Code:       adults[g.rng.Intn(len(adults))],
			Pos:        g.world.Position(e),
			Origin:     originMaturation,
			Generation: g.world.Generation(e),
		}
		if stats := g.lifetime.Get(uint64(e)); stats != nil {
			o.Parent = host.Entity(stats.ParentID)
		}

		g.world.Despawn(e)
		adult, err := g.world.Spawn(o)
		if err != nil {
			g.logger.Error("maturation failed", "entity", uint64(e), "code", o.Code, "error", err)
			continue
		}
		g.logger.Debug("creature matured",
			"from", uint64(e),
			"to", uint64(adult),
			"code", o.Code,
			"generation", o.Generation,
		)
	}
}

// restock refills a collapsed herd from the hall of fame.
func (g *Game) restock() {
	for g.world.Population() < g.cfg.Population.MinCreatures {
		entry, ok := g.hallOfFame.Sample()
		if !ok {
			return
		}
		e, err := g.world.Spawn(host.Offspring{
			Code:       entry.Code,
			Pos:        g.randomPosition(),
			Origin:     originRestock,
			Generation: entry.Generation,
		})
		if err != nil {
			g.logger.Warn("restock failed", "code", entry.Code, "error", err)
			return
		}
		g.logger.Info("restocked from hall of fame",
			"entity", uint64(e),
			"code", entry.Code,
			"generation", entry.Generation,
			"fitness", entry.Fitness,
		)
	}
}
