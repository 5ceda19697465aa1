package game

import (
	"context"
	"fmt"

	"github.com/pthm-cable/herd/growth"
	"github.com/pthm-cable/herd/host"
	"github.com/pthm-cable/herd/reproduction"
	"github.com/pthm-cable/herd/storage"
	"github.com/pthm-cable/herd/world"
)

// entityPath is the subtree holding what the world itself knows about a
// creature. Engine state lives under the engines' own paths.
const entityPath = "entity"

const (
	metaTotalHours = "totalHours"
	metaWoolStock  = "woolStock"
)

const (
	keyCode       = "code"
	keyGeneration = "generation"
	keyParent     = "parent"
	keyOrigin     = "origin"
	keyX          = "x"
	keyY          = "y"
	keyZ          = "z"
	keyHP         = "hp"
	keySaturation = "saturation"
	keyBornDay    = "bornDay"
)

// save writes every living creature's entity subtree and every dirty engine
// subtree, then the clock and the wool stock.
func (g *Game) save(ctx context.Context) error {
	recs := make([]storage.Record, 0, len(g.creatures)+len(g.dirty))
	for _, e := range g.world.Creatures() {
		c := g.creatures[e]
		if c == nil {
			continue
		}
		if !g.world.Alive(e) {
			// Dead but not yet removed; never revive it.
			if err := g.store.Delete(ctx, e); err != nil {
				return err
			}
			delete(g.dirty, dirtyKey{e, reproduction.TreePath})
			delete(g.dirty, dirtyKey{e, growth.TreePath})
			continue
		}
		recs = append(recs, storage.Record{Entity: e, Path: entityPath, Tree: g.entityTree(c)})
	}

	for key := range g.dirty {
		c := g.creatures[key.ent]
		if c == nil {
			continue
		}
		t := storage.Tree{}
		switch {
		case key.path == reproduction.TreePath && c.repro != nil:
			c.repro.State.Write(t)
		case key.path == growth.TreePath && c.wool != nil:
			c.wool.State.Write(t)
		default:
			continue
		}
		recs = append(recs, storage.Record{Entity: key.ent, Path: key.path, Tree: t})
	}

	if err := g.store.SaveAll(ctx, recs); err != nil {
		return fmt.Errorf("save creatures: %w", err)
	}
	clear(g.dirty)

	if err := g.store.SetMeta(ctx, metaTotalHours, g.Hours()); err != nil {
		return err
	}
	if err := g.store.SetMeta(ctx, metaWoolStock, float64(g.woolStock)); err != nil {
		return err
	}
	g.logger.Debug("state saved", "records", len(recs), "hours", g.Hours())
	return nil
}

func (g *Game) entityTree(c *creature) storage.Tree {
	e := c.ent
	pos := g.world.Position(e)
	t := storage.Tree{}
	t.SetString(keyCode, c.code)
	t.SetInt(keyGeneration, g.world.Generation(e))
	t.SetString(keyOrigin, g.world.Origin(e))
	t.SetFloat(keyX, pos.X)
	t.SetFloat(keyY, pos.Y)
	t.SetFloat(keyZ, pos.Z)
	t.SetFloat(keyHP, g.world.Health(e))
	t.SetFloat(keyBornDay, c.bornDay)
	if sat, ok := g.world.Saturation(e); ok {
		t.SetFloat(keySaturation, sat)
	}
	if stats := g.lifetime.Get(uint64(e)); stats != nil && stats.ParentID != 0 {
		t.SetInt(keyParent, int(stats.ParentID))
	}
	return t
}

// revive rebuilds the herd saved in the store. It reports whether any
// creature came back.
func (g *Game) revive() (bool, error) {
	ctx := g.ctx
	hours, ok, err := g.store.Meta(ctx, metaTotalHours)
	if err != nil {
		return false, err
	}
	if ok {
		g.startHour = hours
	}
	stock, _, err := g.store.Meta(ctx, metaWoolStock)
	if err != nil {
		return false, err
	}
	g.woolStock = int(stock)

	recs, err := g.store.LoadAll(ctx)
	if err != nil {
		return false, err
	}

	// Records arrive ordered by entity, so each creature's subtrees are
	// contiguous.
	restored := 0
	for i := 0; i < len(recs); {
		id := recs[i].Entity
		trees := make(map[string]storage.Tree)
		for ; i < len(recs) && recs[i].Entity == id; i++ {
			trees[recs[i].Path] = recs[i].Tree
		}
		if err := g.reviveCreature(id, trees); err != nil {
			g.logger.Warn("dropping saved creature", "entity", uint64(id), "error", err)
			if err := g.store.Delete(ctx, id); err != nil {
				return false, err
			}
			continue
		}
		restored++
	}
	clear(g.dirty)

	if restored > 0 {
		g.logger.Info("herd revived", "creatures", restored, "day", g.Days(), "wool_stock", g.woolStock)
	}
	return restored > 0, nil
}

func (g *Game) reviveCreature(id host.Entity, trees map[string]storage.Tree) error {
	base, ok := trees[entityPath]
	if !ok {
		return fmt.Errorf("missing %s subtree", entityPath)
	}
	o := host.Offspring{
		Code:   base.GetString(keyCode, ""),
		Parent: host.Entity(base.GetInt(keyParent, 0)),
		Pos: host.Vec3{
			X: base.GetFloat(keyX, 0),
			Y: base.GetFloat(keyY, 0),
			Z: base.GetFloat(keyZ, 0),
		},
		Origin:     base.GetString(keyOrigin, world.OriginSpawn),
		Generation: base.GetInt(keyGeneration, 0),
	}
	if err := g.world.Restore(id, o); err != nil {
		return err
	}

	if sat := base.GetFloat(keySaturation, -1); sat >= 0 {
		if cur, ok := g.world.Saturation(id); ok {
			g.world.AdjustResource(id, host.ResourceSaturation, sat-cur)
		}
	}
	if hp := base.GetFloat(keyHP, 0); hp > 0 {
		if lost := g.world.Health(id) - hp; lost > 0 {
			g.world.ApplyDamage(id, lost, host.DamageSource{Kind: host.DamageSlashing})
		}
	}

	c := g.creatures[id]
	if c == nil {
		return nil
	}
	c.bornDay = base.GetFloat(keyBornDay, c.bornDay)
	if c.repro != nil {
		if t, ok := trees[reproduction.TreePath]; ok {
			c.repro.State = reproduction.ReadState(t)
		}
		c.repro.State.Normalize(g.Days())
	}
	if c.wool != nil {
		if t, ok := trees[growth.TreePath]; ok {
			c.wool.State = growth.ReadState(t, c.wool.State)
		}
		c.wool.State.Normalize(g.Hours())
	}
	g.lifetime.Register(uint64(id), o.Code, c.bornDay, o.Generation, uint64(o.Parent))
	return nil
}
