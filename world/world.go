// Package world is an ECS-backed host for the creature engines. It stores
// creatures and dropped items in an ark world and answers the queries the
// engines make through host.World.
package world

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/herd/components"
	"github.com/pthm-cable/herd/host"
)

var (
	// ErrUnknownCode is returned when spawning a code with no profile.
	ErrUnknownCode = errors.New("unknown entity code")
	// ErrPopulationCap is returned when the world is full.
	ErrPopulationCap = errors.New("population cap reached")
)

// Origin tags for entities not created by reproduction.
const (
	OriginSpawn   = "spawn"
	OriginHarvest = "harvest"
)

// Profile describes how a creature code is instantiated.
type Profile struct {
	HasHunger         bool
	DoesEat           bool
	InitialSaturation float64
	MaxSaturation     float64
	MaxHP             float64
}

// ProfileFunc resolves the profile for a creature code.
type ProfileFunc func(code string) (Profile, bool)

// Config sizes the world.
type Config struct {
	Width    float64
	Depth    float64
	CellSize float64
	// Drag is the fraction of horizontal velocity retained after one second.
	Drag float64
	// MaxCreatures caps Spawn. Zero means unlimited.
	MaxCreatures int
}

// SpawnEvent describes a creature that entered the world.
type SpawnEvent struct {
	Entity     host.Entity
	Code       string
	Parent     host.Entity
	Origin     string
	Generation int
}

// ItemStack is a snapshot of a dropped item.
type ItemStack struct {
	Entity   host.Entity
	Code     string
	Quantity int
	Pos      host.Vec3
}

type entry struct {
	ent    ecs.Entity
	hunger bool
	item   bool
}

// World implements host.World on top of an ark ECS world.
type World struct {
	cfg      Config
	profiles ProfileFunc
	logger   *slog.Logger

	ecs *ecs.World

	// Archetype mappers
	hungryMapper *ecs.Map6[
		components.Identity,
		components.Position,
		components.Velocity,
		components.Lineage,
		components.Health,
		components.Hunger,
	]
	plainMapper *ecs.Map5[
		components.Identity,
		components.Position,
		components.Velocity,
		components.Lineage,
		components.Health,
	]
	itemMapper *ecs.Map3[
		components.Identity,
		components.Position,
		components.Item,
	]

	creatureFilter *ecs.Filter5[
		components.Identity,
		components.Position,
		components.Velocity,
		components.Lineage,
		components.Health,
	]
	itemFilter *ecs.Filter3[
		components.Identity,
		components.Position,
		components.Item,
	]

	// Individual component mappers for lookups
	idMap     *ecs.Map1[components.Identity]
	posMap    *ecs.Map1[components.Position]
	linMap    *ecs.Map1[components.Lineage]
	healthMap *ecs.Map1[components.Health]
	hungerMap *ecs.Map1[components.Hunger]

	index      map[host.Entity]entry
	population int
	nextID     host.Entity
	grid       *SpatialGrid
	scratch    []host.Entity

	onSpawn   []func(SpawnEvent)
	onDirty   []func(host.Entity, string)
	onDeath   []func(host.Entity, host.DamageSource)
	onDespawn []func(host.Entity)
}

var _ host.World = (*World)(nil)

// New creates an empty world. A nil logger uses slog.Default().
func New(cfg Config, profiles ProfileFunc, logger *slog.Logger) *World {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.CellSize <= 0 {
		cfg.CellSize = 8
	}
	w := ecs.NewWorld()

	return &World{
		cfg:      cfg,
		profiles: profiles,
		logger:   logger,
		ecs:      w,
		hungryMapper: ecs.NewMap6[
			components.Identity,
			components.Position,
			components.Velocity,
			components.Lineage,
			components.Health,
			components.Hunger,
		](w),
		plainMapper: ecs.NewMap5[
			components.Identity,
			components.Position,
			components.Velocity,
			components.Lineage,
			components.Health,
		](w),
		itemMapper: ecs.NewMap3[
			components.Identity,
			components.Position,
			components.Item,
		](w),
		creatureFilter: ecs.NewFilter5[
			components.Identity,
			components.Position,
			components.Velocity,
			components.Lineage,
			components.Health,
		](w),
		itemFilter: ecs.NewFilter3[
			components.Identity,
			components.Position,
			components.Item,
		](w),
		idMap:     ecs.NewMap1[components.Identity](w),
		posMap:    ecs.NewMap1[components.Position](w),
		linMap:    ecs.NewMap1[components.Lineage](w),
		healthMap: ecs.NewMap1[components.Health](w),
		hungerMap: ecs.NewMap1[components.Hunger](w),
		index:     make(map[host.Entity]entry),
		nextID:    1,
		grid:      NewSpatialGrid(cfg.Width, cfg.Depth, cfg.CellSize),
	}
}

// OnSpawn registers fn to run after every creature spawn.
func (w *World) OnSpawn(fn func(SpawnEvent)) { w.onSpawn = append(w.onSpawn, fn) }

// OnDirty registers fn to run whenever an attribute subtree is marked dirty.
func (w *World) OnDirty(fn func(host.Entity, string)) { w.onDirty = append(w.onDirty, fn) }

// OnDeath registers fn to run when a creature's HP reaches zero.
func (w *World) OnDeath(fn func(host.Entity, host.DamageSource)) { w.onDeath = append(w.onDeath, fn) }

// OnDespawn registers fn to run after an entity is removed.
func (w *World) OnDespawn(fn func(host.Entity)) { w.onDespawn = append(w.onDespawn, fn) }

// SpawnCreature creates a founder creature.
func (w *World) SpawnCreature(code string, pos host.Vec3, generation int) (host.Entity, error) {
	return w.Spawn(host.Offspring{Code: code, Pos: pos, Origin: OriginSpawn, Generation: generation})
}

// Spawn creates a creature from a spawn request. Must not be called while a
// world query is open.
func (w *World) Spawn(o host.Offspring) (host.Entity, error) {
	prof, ok := w.profiles(o.Code)
	if !ok {
		return 0, fmt.Errorf("spawn %q: %w", o.Code, ErrUnknownCode)
	}
	if w.cfg.MaxCreatures > 0 && w.population >= w.cfg.MaxCreatures {
		return 0, fmt.Errorf("spawn %q: %w", o.Code, ErrPopulationCap)
	}
	return w.spawnWithID(w.allocID(), o, prof), nil
}

// Restore recreates a creature under a previously issued handle, used when
// reviving a saved simulation.
func (w *World) Restore(id host.Entity, o host.Offspring) error {
	if _, exists := w.index[id]; exists || id == 0 {
		return fmt.Errorf("restore %d: handle in use", id)
	}
	prof, ok := w.profiles(o.Code)
	if !ok {
		return fmt.Errorf("restore %q: %w", o.Code, ErrUnknownCode)
	}
	if id >= w.nextID {
		w.nextID = id + 1
	}
	w.spawnWithID(id, o, prof)
	return nil
}

func (w *World) allocID() host.Entity {
	id := w.nextID
	w.nextID++
	return id
}

func (w *World) spawnWithID(id host.Entity, o host.Offspring, prof Profile) host.Entity {
	p := w.clamp(o.Pos)

	ident := components.Identity{ID: uint64(id), Code: o.Code, Origin: o.Origin}
	pos := components.Position{X: p.X, Y: p.Y, Z: p.Z}
	vel := components.Velocity{X: o.Motion.X, Y: o.Motion.Y, Z: o.Motion.Z}
	lin := components.Lineage{Generation: o.Generation, Parent: uint64(o.Parent)}
	health := components.Health{HP: prof.MaxHP, MaxHP: prof.MaxHP, Alive: true}

	var ent ecs.Entity
	if prof.HasHunger {
		hunger := components.Hunger{
			Saturation:    math.Min(prof.InitialSaturation, prof.MaxSaturation),
			MaxSaturation: prof.MaxSaturation,
			DoesEat:       prof.DoesEat,
		}
		ent = w.hungryMapper.NewEntity(&ident, &pos, &vel, &lin, &health, &hunger)
	} else {
		ent = w.plainMapper.NewEntity(&ident, &pos, &vel, &lin, &health)
	}
	w.index[id] = entry{ent: ent, hunger: prof.HasHunger}
	w.population++
	w.grid.Insert(id, p.X, p.Z)

	ev := SpawnEvent{Entity: id, Code: o.Code, Parent: o.Parent, Origin: o.Origin, Generation: o.Generation}
	for _, fn := range w.onSpawn {
		fn(ev)
	}
	return id
}

// SpawnItem drops an item stack.
func (w *World) SpawnItem(code string, quantity int, pos host.Vec3) (host.Entity, error) {
	if quantity <= 0 {
		return 0, fmt.Errorf("spawn item %q: quantity %d", code, quantity)
	}
	id := w.allocID()
	p := w.clamp(pos)

	ident := components.Identity{ID: uint64(id), Code: code, Origin: OriginHarvest}
	ppos := components.Position{X: p.X, Y: p.Y, Z: p.Z}
	item := components.Item{Code: code, Quantity: quantity}
	ent := w.itemMapper.NewEntity(&ident, &ppos, &item)
	w.index[id] = entry{ent: ent, item: true}
	return id, nil
}

// Despawn removes an entity. It reports whether the entity existed. Must not
// be called while a world query is open.
func (w *World) Despawn(e host.Entity) bool {
	en, ok := w.index[e]
	if !ok {
		return false
	}
	w.ecs.RemoveEntity(en.ent)
	delete(w.index, e)
	if !en.item {
		w.population--
	}
	for _, fn := range w.onDespawn {
		fn(e)
	}
	return true
}

func (w *World) creature(e host.Entity) (entry, bool) {
	en, ok := w.index[e]
	if !ok || en.item {
		return entry{}, false
	}
	return en, true
}

// Population returns the number of creatures in the world, dead or alive.
func (w *World) Population() int {
	return w.population
}

// Exists reports whether e is a creature still present in the world, dead
// or alive.
func (w *World) Exists(e host.Entity) bool {
	_, ok := w.creature(e)
	return ok
}

func (w *World) Alive(e host.Entity) bool {
	en, ok := w.creature(e)
	return ok && w.healthMap.Get(en.ent).Alive
}

func (w *World) Code(e host.Entity) string {
	en, ok := w.index[e]
	if !ok {
		return ""
	}
	return w.idMap.Get(en.ent).Code
}

func (w *World) Position(e host.Entity) host.Vec3 {
	en, ok := w.index[e]
	if !ok {
		return host.Vec3{}
	}
	p := w.posMap.Get(en.ent)
	return host.Vec3{X: p.X, Y: p.Y, Z: p.Z}
}

func (w *World) Generation(e host.Entity) int {
	en, ok := w.creature(e)
	if !ok {
		return 0
	}
	return w.linMap.Get(en.ent).Generation
}

func (w *World) Saturation(e host.Entity) (float64, bool) {
	en, ok := w.creature(e)
	if !ok || !en.hunger {
		return 0, false
	}
	return w.hungerMap.Get(en.ent).Saturation, true
}

func (w *World) DoesEat(e host.Entity) bool {
	en, ok := w.creature(e)
	if !ok || !en.hunger {
		return false
	}
	return w.hungerMap.Get(en.ent).DoesEat
}

// FindNearest returns the closest live creature whose position lies within
// rng of pos on every axis and for which match returns true. Ties go to the
// older handle.
func (w *World) FindNearest(pos host.Vec3, rng float64, exclude host.Entity, match func(host.Entity) bool) (host.Entity, bool) {
	w.scratch = w.grid.QueryInto(w.scratch[:0], pos.X, pos.Z, rng, exclude)
	candidates := append([]host.Entity(nil), w.scratch...)

	var best host.Entity
	bestDist := math.Inf(1)
	for _, e := range candidates {
		if !w.Alive(e) {
			continue
		}
		p := w.Position(e)
		dx, dy, dz := p.X-pos.X, p.Y-pos.Y, p.Z-pos.Z
		if math.Abs(dx) > rng || math.Abs(dy) > rng || math.Abs(dz) > rng {
			continue
		}
		d := dx*dx + dy*dy + dz*dz
		if d > bestDist || (d == bestDist && e > best) {
			continue
		}
		if match != nil && !match(e) {
			continue
		}
		best, bestDist = e, d
	}
	return best, best != 0
}

// ApplyDamage removes HP from a live creature, killing it at zero.
func (w *World) ApplyDamage(target host.Entity, amount float64, src host.DamageSource) {
	if !w.Alive(target) || amount <= 0 {
		return
	}
	h := w.healthMap.Get(w.index[target].ent)
	h.HP -= amount
	if h.HP > 0 {
		return
	}
	h.HP = 0
	h.Alive = false
	w.logger.Debug("creature died", "entity", uint64(target), "code", w.Code(target), "by", uint64(src.By))
	for _, fn := range w.onDeath {
		fn(target, src)
	}
}

// AdjustResource changes a named resource, clamped to [0, max].
func (w *World) AdjustResource(target host.Entity, name string, delta float64) {
	if name != host.ResourceSaturation {
		w.logger.Warn("adjust unknown resource", "entity", uint64(target), "resource", name)
		return
	}
	en, ok := w.creature(target)
	if !ok || !en.hunger {
		return
	}
	h := w.hungerMap.Get(en.ent)
	h.Saturation = math.Max(0, math.Min(h.Saturation+delta, h.MaxSaturation))
}

func (w *World) MarkDirty(e host.Entity, path string) {
	for _, fn := range w.onDirty {
		fn(e, path)
	}
}

// Health returns the HP of a creature, or zero when it is gone.
func (w *World) Health(e host.Entity) float64 {
	en, ok := w.creature(e)
	if !ok {
		return 0
	}
	return w.healthMap.Get(en.ent).HP
}

// Step integrates creature motion over dt seconds and rebuilds the spatial
// index.
func (w *World) Step(dt float64) {
	retain := math.Pow(w.cfg.Drag, dt)

	query := w.creatureFilter.Query()
	for query.Next() {
		_, pos, vel, _, health := query.Get()
		if !health.Alive {
			vel.X, vel.Y, vel.Z = 0, 0, 0
			continue
		}
		p := w.clamp(host.Vec3{X: pos.X + vel.X*dt, Y: pos.Y, Z: pos.Z + vel.Z*dt})
		pos.X, pos.Z = p.X, p.Z
		vel.X *= retain
		vel.Z *= retain
	}

	w.reindex()
}

func (w *World) reindex() {
	w.grid.Clear()
	query := w.creatureFilter.Query()
	for query.Next() {
		ident, pos, _, _, health := query.Get()
		if health.Alive {
			w.grid.Insert(host.Entity(ident.ID), pos.X, pos.Z)
		}
	}
}

// Creatures returns every creature handle, dead or alive, in ascending order.
func (w *World) Creatures() []host.Entity {
	var out []host.Entity
	query := w.creatureFilter.Query()
	for query.Next() {
		ident, _, _, _, _ := query.Get()
		out = append(out, host.Entity(ident.ID))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Dead returns the handles of creatures that died but were not yet removed.
func (w *World) Dead() []host.Entity {
	var out []host.Entity
	query := w.creatureFilter.Query()
	for query.Next() {
		ident, _, _, _, health := query.Get()
		if !health.Alive {
			out = append(out, host.Entity(ident.ID))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Items returns every dropped stack in ascending handle order.
func (w *World) Items() []ItemStack {
	var out []ItemStack
	query := w.itemFilter.Query()
	for query.Next() {
		ident, pos, item := query.Get()
		out = append(out, ItemStack{
			Entity:   host.Entity(ident.ID),
			Code:     item.Code,
			Quantity: item.Quantity,
			Pos:      host.Vec3{X: pos.X, Y: pos.Y, Z: pos.Z},
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Entity < out[j].Entity })
	return out
}

// Origin returns how an entity came to exist.
func (w *World) Origin(e host.Entity) string {
	en, ok := w.index[e]
	if !ok {
		return ""
	}
	return w.idMap.Get(en.ent).Origin
}

func (w *World) clamp(p host.Vec3) host.Vec3 {
	p.X = math.Max(0, math.Min(p.X, w.cfg.Width))
	p.Z = math.Max(0, math.Min(p.Z, w.cfg.Depth))
	return p
}
