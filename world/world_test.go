package world

import (
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/pthm-cable/herd/host"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func testProfiles(code string) (Profile, bool) {
	switch code {
	case "sheep-ewe", "sheep-ram", "sheep-lamb":
		return Profile{HasHunger: true, DoesEat: true, InitialSaturation: 2, MaxSaturation: 10, MaxHP: 4}, true
	case "scarecrow":
		return Profile{MaxHP: 1}, true
	}
	return Profile{}, false
}

func newTestWorld() *World {
	return New(Config{Width: 100, Depth: 100, CellSize: 8, Drag: 0.5}, testProfiles, quietLogger)
}

func mustSpawn(t *testing.T, w *World, code string, pos host.Vec3) host.Entity {
	t.Helper()
	e, err := w.SpawnCreature(code, pos, 0)
	if err != nil {
		t.Fatalf("SpawnCreature(%q): %v", code, err)
	}
	return e
}

func TestSpawnAndAccessors(t *testing.T) {
	w := newTestWorld()
	var events []SpawnEvent
	w.OnSpawn(func(ev SpawnEvent) { events = append(events, ev) })

	ewe := mustSpawn(t, w, "sheep-ewe", host.Vec3{X: 10, Y: 1, Z: 20})
	lamb, err := w.Spawn(host.Offspring{
		Code:       "sheep-lamb",
		Parent:     ewe,
		Pos:        host.Vec3{X: 10, Y: 1, Z: 20},
		Origin:     "reproduction",
		Generation: 1,
	})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	if !w.Alive(ewe) || !w.Alive(lamb) {
		t.Fatal("spawned creatures not alive")
	}
	if got := w.Code(lamb); got != "sheep-lamb" {
		t.Errorf("Code = %q", got)
	}
	if got := w.Generation(lamb); got != 1 {
		t.Errorf("Generation = %d, want 1", got)
	}
	if got := w.Position(ewe); got != (host.Vec3{X: 10, Y: 1, Z: 20}) {
		t.Errorf("Position = %+v", got)
	}
	if sat, ok := w.Saturation(ewe); !ok || sat != 2 {
		t.Errorf("Saturation = %v, %v", sat, ok)
	}
	if !w.DoesEat(ewe) {
		t.Error("DoesEat = false")
	}
	if got := w.Origin(lamb); got != "reproduction" {
		t.Errorf("Origin = %q", got)
	}
	if len(events) != 2 || events[1].Parent != ewe || events[1].Generation != 1 {
		t.Errorf("events = %+v", events)
	}
	if got := w.Creatures(); !reflect.DeepEqual(got, []host.Entity{ewe, lamb}) {
		t.Errorf("Creatures = %v", got)
	}
}

func TestSpawnUnknownCode(t *testing.T) {
	w := newTestWorld()
	_, err := w.SpawnCreature("dragon", host.Vec3{}, 0)
	if !errors.Is(err, ErrUnknownCode) {
		t.Errorf("err = %v, want ErrUnknownCode", err)
	}
}

func TestNoHungerProfile(t *testing.T) {
	w := newTestWorld()
	e := mustSpawn(t, w, "scarecrow", host.Vec3{})
	if _, ok := w.Saturation(e); ok {
		t.Error("scarecrow reports hunger")
	}
	w.AdjustResource(e, host.ResourceSaturation, 5)
	if _, ok := w.Saturation(e); ok {
		t.Error("adjusting created hunger")
	}
}

func TestAdjustResourceClamps(t *testing.T) {
	w := newTestWorld()
	e := mustSpawn(t, w, "sheep-ewe", host.Vec3{})

	w.AdjustResource(e, host.ResourceSaturation, -5)
	if sat, _ := w.Saturation(e); sat != 0 {
		t.Errorf("saturation = %v, want floored 0", sat)
	}
	w.AdjustResource(e, host.ResourceSaturation, 50)
	if sat, _ := w.Saturation(e); sat != 10 {
		t.Errorf("saturation = %v, want capped 10", sat)
	}
}

func TestFindNearest(t *testing.T) {
	w := newTestWorld()
	self := mustSpawn(t, w, "sheep-ewe", host.Vec3{X: 50, Z: 50})
	far := mustSpawn(t, w, "sheep-ram", host.Vec3{X: 54, Z: 50})
	near := mustSpawn(t, w, "sheep-ram", host.Vec3{X: 52, Z: 51})
	outside := mustSpawn(t, w, "sheep-ram", host.Vec3{X: 60, Z: 50})
	high := mustSpawn(t, w, "sheep-ram", host.Vec3{X: 50, Y: 9, Z: 50})
	_ = outside
	_ = high

	isRam := func(e host.Entity) bool { return w.Code(e) == "sheep-ram" }

	got, ok := w.FindNearest(w.Position(self), 5, self, isRam)
	if !ok || got != near {
		t.Fatalf("FindNearest = %v, %v; want %v", got, ok, near)
	}

	w.ApplyDamage(near, 100, host.DamageSource{Kind: host.DamageSlashing})
	got, ok = w.FindNearest(w.Position(self), 5, self, isRam)
	if !ok || got != far {
		t.Errorf("after death FindNearest = %v, %v; want %v", got, ok, far)
	}

	if _, ok := w.FindNearest(w.Position(self), 5, self, func(host.Entity) bool { return false }); ok {
		t.Error("predicate rejecting everything still matched")
	}
	if got, ok := w.FindNearest(w.Position(self), 5, 0, nil); !ok || got != self {
		t.Errorf("unexcluded search = %v, %v; want self", got, ok)
	}
}

func TestApplyDamageKills(t *testing.T) {
	w := newTestWorld()
	e := mustSpawn(t, w, "sheep-ewe", host.Vec3{})

	var deaths []host.Entity
	w.OnDeath(func(d host.Entity, _ host.DamageSource) { deaths = append(deaths, d) })

	w.ApplyDamage(e, 1, host.DamageSource{Kind: host.DamageSlashing, By: 99})
	if got := w.Health(e); got != 3 {
		t.Errorf("HP = %v, want 3", got)
	}
	w.ApplyDamage(e, 5, host.DamageSource{Kind: host.DamageSlashing})
	if w.Alive(e) {
		t.Error("creature survived lethal damage")
	}
	w.ApplyDamage(e, 5, host.DamageSource{Kind: host.DamageSlashing})
	if !reflect.DeepEqual(deaths, []host.Entity{e}) {
		t.Errorf("deaths = %v, want one", deaths)
	}
	if !reflect.DeepEqual(w.Dead(), []host.Entity{e}) {
		t.Errorf("Dead() = %v", w.Dead())
	}
}

func TestDespawn(t *testing.T) {
	w := newTestWorld()
	e := mustSpawn(t, w, "sheep-ewe", host.Vec3{X: 1, Z: 1})
	other := mustSpawn(t, w, "sheep-ram", host.Vec3{X: 2, Z: 1})

	var gone []host.Entity
	w.OnDespawn(func(d host.Entity) { gone = append(gone, d) })

	if !w.Despawn(e) {
		t.Fatal("Despawn returned false")
	}
	if w.Despawn(e) {
		t.Error("second Despawn returned true")
	}
	if w.Alive(e) || w.Exists(e) || w.Code(e) != "" {
		t.Error("despawned creature still visible")
	}
	if !w.Alive(other) {
		t.Error("unrelated creature affected")
	}
	if got, ok := w.FindNearest(host.Vec3{X: 1, Z: 1}, 5, 0, nil); !ok || got != other {
		t.Errorf("FindNearest = %v, %v; want %v", got, ok, other)
	}
	if !reflect.DeepEqual(gone, []host.Entity{e}) {
		t.Errorf("despawn events = %v", gone)
	}
}

func TestStepMovesAndClamps(t *testing.T) {
	w := newTestWorld()
	e, err := w.Spawn(host.Offspring{Code: "sheep-lamb", Pos: host.Vec3{X: 99, Z: 50}, Motion: host.Vec3{X: 4, Z: -2}})
	if err != nil {
		t.Fatal(err)
	}

	w.Step(1)
	if got := w.Position(e); got.X != 100 || got.Z != 48 {
		t.Errorf("Position = %+v, want X clamped to 100, Z 48", got)
	}
	w.Step(1)
	if got := w.Position(e); got.Z != 47 {
		t.Errorf("Position.Z = %v, want 47 after drag halves motion", got.Z)
	}
}

func TestSpawnItemAndRestore(t *testing.T) {
	w := newTestWorld()
	item, err := w.SpawnItem("hideandfabric:woolfibers", 6, host.Vec3{X: 3, Y: 0.5})
	if err != nil {
		t.Fatalf("SpawnItem: %v", err)
	}
	if w.Alive(item) {
		t.Error("items are not creatures")
	}
	items := w.Items()
	if len(items) != 1 || items[0].Quantity != 6 || items[0].Entity != item {
		t.Errorf("Items = %+v", items)
	}
	if _, err := w.SpawnItem("x", 0, host.Vec3{}); err == nil {
		t.Error("zero-quantity item accepted")
	}

	if err := w.Restore(40, host.Offspring{Code: "sheep-ewe", Generation: 7}); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if w.Generation(40) != 7 {
		t.Errorf("restored generation = %d", w.Generation(40))
	}
	if err := w.Restore(40, host.Offspring{Code: "sheep-ewe"}); err == nil {
		t.Error("restore over live handle accepted")
	}
	next := mustSpawn(t, w, "sheep-ram", host.Vec3{})
	if next <= 40 {
		t.Errorf("new handle %d collides with restored range", next)
	}
}

func TestPopulationCap(t *testing.T) {
	w := New(Config{Width: 10, Depth: 10, MaxCreatures: 2}, testProfiles, quietLogger)
	a := mustSpawn(t, w, "sheep-ewe", host.Vec3{})
	mustSpawn(t, w, "sheep-ram", host.Vec3{})

	if _, err := w.SpawnCreature("sheep-lamb", host.Vec3{}, 1); !errors.Is(err, ErrPopulationCap) {
		t.Fatalf("err = %v, want ErrPopulationCap", err)
	}
	if _, err := w.SpawnItem("wool", 3, host.Vec3{}); err != nil {
		t.Errorf("items count against the cap: %v", err)
	}

	w.Despawn(a)
	if got := w.Population(); got != 1 {
		t.Errorf("Population = %d, want 1", got)
	}
	mustSpawn(t, w, "sheep-lamb", host.Vec3{})
}
