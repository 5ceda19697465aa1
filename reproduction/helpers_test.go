package reproduction

import (
	"errors"
	"math"
	"sort"

	"github.com/pthm-cable/herd/host"
)

// seqRand replays scripted draws and panics when a test under-scripts it.
type seqRand struct {
	floats []float64
	ints   []int
}

func (r *seqRand) Float64() float64 {
	if len(r.floats) == 0 {
		panic("seqRand: out of floats")
	}
	f := r.floats[0]
	r.floats = r.floats[1:]
	return f
}

func (r *seqRand) Intn(n int) int {
	if len(r.ints) == 0 {
		panic("seqRand: out of ints")
	}
	i := r.ints[0]
	r.ints = r.ints[1:]
	return i % n
}

type fakeCreature struct {
	code       string
	pos        host.Vec3
	generation int
	saturation float64
	hasHunger  bool
	eats       bool
	alive      bool
}

type fakeWorld struct {
	creatures map[host.Entity]*fakeCreature
	next      host.Entity
	spawned   []host.Offspring
	dirty     []string
	failSpawn bool
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{creatures: make(map[host.Entity]*fakeCreature), next: 1}
}

func (w *fakeWorld) add(c fakeCreature) host.Entity {
	e := w.next
	w.next++
	c.alive = true
	w.creatures[e] = &c
	return e
}

func (w *fakeWorld) Alive(e host.Entity) bool {
	c, ok := w.creatures[e]
	return ok && c.alive
}

func (w *fakeWorld) Code(e host.Entity) string       { return w.creatures[e].code }
func (w *fakeWorld) Position(e host.Entity) host.Vec3 { return w.creatures[e].pos }
func (w *fakeWorld) Generation(e host.Entity) int     { return w.creatures[e].generation }
func (w *fakeWorld) DoesEat(e host.Entity) bool       { return w.creatures[e].eats }

func (w *fakeWorld) Saturation(e host.Entity) (float64, bool) {
	c := w.creatures[e]
	return c.saturation, c.hasHunger
}

func (w *fakeWorld) FindNearest(pos host.Vec3, rng float64, exclude host.Entity, match func(host.Entity) bool) (host.Entity, bool) {
	ids := make([]host.Entity, 0, len(w.creatures))
	for e := range w.creatures {
		ids = append(ids, e)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var best host.Entity
	bestDist := math.Inf(1)
	for _, e := range ids {
		c := w.creatures[e]
		if e == exclude || !c.alive {
			continue
		}
		dx, dy, dz := c.pos.X-pos.X, c.pos.Y-pos.Y, c.pos.Z-pos.Z
		if math.Abs(dx) > rng || math.Abs(dy) > rng || math.Abs(dz) > rng {
			continue
		}
		if !match(e) {
			continue
		}
		if d := dx*dx + dy*dy + dz*dz; d < bestDist {
			best, bestDist = e, d
		}
	}
	return best, best != 0
}

func (w *fakeWorld) Spawn(o host.Offspring) (host.Entity, error) {
	if w.failSpawn {
		return 0, errors.New("spawn refused")
	}
	w.spawned = append(w.spawned, o)
	return w.add(fakeCreature{code: o.Code, pos: o.Pos, generation: o.Generation}), nil
}

func (w *fakeWorld) SpawnItem(code string, quantity int, pos host.Vec3) (host.Entity, error) {
	return w.add(fakeCreature{code: code, pos: pos}), nil
}

func (w *fakeWorld) ApplyDamage(target host.Entity, amount float64, src host.DamageSource) {}

func (w *fakeWorld) AdjustResource(target host.Entity, name string, delta float64) {
	c := w.creatures[target]
	if name != host.ResourceSaturation || !c.hasHunger {
		return
	}
	c.saturation = math.Max(0, c.saturation+delta)
}

func (w *fakeWorld) MarkDirty(e host.Entity, path string) {
	w.dirty = append(w.dirty, path)
}
