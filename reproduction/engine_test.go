package reproduction

import (
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/pthm-cable/herd/host"
	"github.com/pthm-cable/herd/species"
	"github.com/pthm-cable/herd/storage"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func ewe(t *testing.T, attrs species.Attributes) *species.Snapshot {
	t.Helper()
	s, diags := species.Resolve("sheep-ewe", attrs)
	for _, d := range diags {
		t.Fatalf("unexpected diagnostic: %v", d)
	}
	return s
}

func TestTryConceiveInsufficientResource(t *testing.T) {
	w := newFakeWorld()
	self := w.add(fakeCreature{code: "sheep-ewe", saturation: 2, hasHunger: true})
	snap := ewe(t, species.Attributes{"spawnEntityCodes": []any{"sheep-lamb"}})

	e := New(self, snap, w, &seqRand{floats: []float64{0.01}}, quietLogger)
	before := e.State

	a := e.TryConceive(10)
	if a.Reason != ReasonInsufficientResource {
		t.Fatalf("reason = %v, want %v", a.Reason, ReasonInsufficientResource)
	}
	if e.State != before {
		t.Errorf("state mutated: %+v", e.State)
	}
	if got := w.creatures[self].saturation; got != 2 {
		t.Errorf("saturation = %v, want 2", got)
	}
	if len(w.dirty) != 0 {
		t.Errorf("dirty = %v, want none", w.dirty)
	}
}

func TestTryConceive(t *testing.T) {
	tests := []struct {
		name       string
		floats     []float64
		saturation float64
		cooldown   float64
		pregnant   bool
		noHunger   bool
		want       Reason
		wantSat    float64
	}{
		{name: "conceives", floats: []float64{0.01, 0.5}, saturation: 5, want: ReasonNone, wantSat: 2},
		{name: "botched", floats: []float64{0.01, 0.1}, saturation: 5, want: ReasonBotched, wantSat: 4},
		{name: "chance fails", floats: []float64{0.5}, saturation: 5, want: ReasonChance, wantSat: 5},
		{name: "cooldown", floats: []float64{0.01}, saturation: 5, cooldown: 20, want: ReasonCooldown, wantSat: 5},
		{name: "already pregnant", saturation: 5, pregnant: true, want: ReasonAlreadyPregnant, wantSat: 5},
		{name: "no hunger", floats: []float64{0.01}, noHunger: true, want: ReasonNoHunger},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newFakeWorld()
			self := w.add(fakeCreature{code: "sheep-ewe", saturation: tt.saturation, hasHunger: !tt.noHunger})
			snap := ewe(t, species.Attributes{"spawnEntityCodes": []any{"sheep-lamb"}})

			e := New(self, snap, w, &seqRand{floats: tt.floats}, quietLogger)
			e.State.CooldownUntilDay = tt.cooldown
			e.State.IsPregnant = tt.pregnant

			a := e.TryConceive(10)
			if a.Reason != tt.want {
				t.Fatalf("reason = %v, want %v", a.Reason, tt.want)
			}
			if got := w.creatures[self].saturation; got != tt.wantSat {
				t.Errorf("saturation = %v, want %v", got, tt.wantSat)
			}
			if tt.want == ReasonNone {
				if !e.State.IsPregnant || e.State.PregnancyStartDay != 10 {
					t.Errorf("state = %+v, want pregnant since day 10", e.State)
				}
				if !reflect.DeepEqual(w.dirty, []string{TreePath}) {
					t.Errorf("dirty = %v, want [%s]", w.dirty, TreePath)
				}
			} else if e.State.IsPregnant != tt.pregnant {
				t.Errorf("pregnancy changed on failed attempt")
			}
		})
	}
}

func TestTryConceivePartner(t *testing.T) {
	attrs := species.Attributes{
		"spawnEntityCodes":          []any{"sheep-lamb"},
		"requiresNearbyEntityCodes": []any{"sheep-ram-*"},
		"requiresNearbyEntityRange": 5,
		"portionsEatenForMultiply":  3,
	}

	tests := []struct {
		name     string
		partner  fakeCreature
		want     Reason
		wantPSat float64
	}{
		{
			name:     "fed partner in range",
			partner:  fakeCreature{code: "sheep-ram-merino", pos: host.Vec3{X: 3}, saturation: 2, hasHunger: true, eats: true},
			want:     ReasonNone,
			wantPSat: 1,
		},
		{
			name:     "partner out of range",
			partner:  fakeCreature{code: "sheep-ram-merino", pos: host.Vec3{X: 8}, saturation: 2, hasHunger: true, eats: true},
			want:     ReasonNoPartner,
			wantPSat: 2,
		},
		{
			name:     "starving partner",
			partner:  fakeCreature{code: "sheep-ram-merino", pos: host.Vec3{Z: 1}, saturation: 0.5, hasHunger: true, eats: true},
			want:     ReasonNoPartner,
			wantPSat: 0.5,
		},
		{
			name:     "partner that never eats",
			partner:  fakeCreature{code: "sheep-ram-merino", pos: host.Vec3{Z: 1}, saturation: 0, hasHunger: true},
			want:     ReasonNone,
			wantPSat: 0,
		},
		{
			name:     "wrong species",
			partner:  fakeCreature{code: "goat-buck", pos: host.Vec3{X: 1}, saturation: 5, hasHunger: true, eats: true},
			want:     ReasonNoPartner,
			wantPSat: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newFakeWorld()
			self := w.add(fakeCreature{code: "sheep-ewe", saturation: 4, hasHunger: true, eats: true})
			partner := w.add(tt.partner)
			snap := ewe(t, attrs)

			e := New(self, snap, w, &seqRand{floats: []float64{0.01, 0.9}}, quietLogger)
			a := e.TryConceive(1)
			if a.Reason != tt.want {
				t.Fatalf("reason = %v, want %v", a.Reason, tt.want)
			}
			if tt.want == ReasonNone && a.Partner != partner {
				t.Errorf("partner = %v, want %v", a.Partner, partner)
			}
			if got := w.creatures[partner].saturation; got != tt.wantPSat {
				t.Errorf("partner saturation = %v, want %v", got, tt.wantPSat)
			}
		})
	}
}

func TestTickGivesBirth(t *testing.T) {
	w := newFakeWorld()
	self := w.add(fakeCreature{code: "sheep-ewe", pos: host.Vec3{X: 10, Y: 2, Z: -4}, generation: 4, saturation: 1, hasHunger: true})
	snap := ewe(t, species.Attributes{"spawnEntityCodes": []any{"sheep-lamb"}})

	// litter of 1.5: one certain lamb, one coin-flip lamb that lands, then stop
	rng := &seqRand{
		floats: []float64{0.5, 0.5, 0.5, 0.5, 0.2, 0.5, 0.5, 0.0},
		ints:   []int{0, 0},
	}
	e := New(self, snap, w, rng, quietLogger)
	e.State.IsPregnant = true
	e.State.PregnancyStartDay = 0

	if r := e.Tick(3); r.Birth != nil || r.Attempt != nil {
		t.Fatalf("tick at exactly gestation length did something: %+v", r)
	}

	r := e.Tick(3.5)
	if r.Birth == nil {
		t.Fatal("expected birth")
	}
	if got := len(r.Birth.Offspring); got != 2 {
		t.Fatalf("offspring = %d, want 2", got)
	}
	for _, o := range w.spawned {
		if o.Code != "sheep-lamb" || o.Generation != 5 || o.Origin != OriginReproduction || o.Parent != self {
			t.Errorf("offspring = %+v", o)
		}
		if o.Pos != (host.Vec3{X: 10, Y: 2, Z: -4}) {
			t.Errorf("offspring pos = %+v", o.Pos)
		}
		if o.Motion != (host.Vec3{}) {
			t.Errorf("offspring motion = %+v, want zero for centred draws", o.Motion)
		}
	}
	if e.State.IsPregnant {
		t.Error("still pregnant after birth")
	}
	if e.State.LastBirthDay != 3.5 {
		t.Errorf("last birth = %v, want 3.5", e.State.LastBirthDay)
	}
	if want := 3.5 + 6 + 3; e.State.CooldownUntilDay != want {
		t.Errorf("cooldown = %v, want %v", e.State.CooldownUntilDay, want)
	}
	if len(rng.floats) != 0 || len(rng.ints) != 0 {
		t.Errorf("unused draws: %v %v", rng.floats, rng.ints)
	}
}

func TestBirthWithoutCandidatesStillCycles(t *testing.T) {
	w := newFakeWorld()
	self := w.add(fakeCreature{code: "sheep-ewe", hasHunger: true})
	snap, _ := species.Resolve("sheep-ewe", species.Attributes{})

	e := New(self, snap, w, &seqRand{floats: []float64{0.5, 0.0}}, quietLogger)
	e.State.IsPregnant = true
	e.State.PregnancyStartDay = 1

	r := e.Tick(5)
	if r.Birth == nil {
		t.Fatal("expected birth")
	}
	if len(w.spawned) != 0 {
		t.Errorf("spawned %d offspring, want 0", len(w.spawned))
	}
	if e.State.IsPregnant {
		t.Error("still pregnant")
	}
	if e.State.CooldownUntilDay != 11 {
		t.Errorf("cooldown = %v, want 11", e.State.CooldownUntilDay)
	}
	found := false
	for _, d := range r.Birth.Diagnostics {
		if d.Kind == species.DiagNoCandidates {
			found = true
		}
	}
	if !found {
		t.Errorf("diagnostics = %v, want no_candidates", r.Birth.Diagnostics)
	}
}

func TestBirthKeepsLaterCooldown(t *testing.T) {
	w := newFakeWorld()
	self := w.add(fakeCreature{code: "sheep-ewe", hasHunger: true})
	snap := ewe(t, species.Attributes{
		"spawnEntityCodes": []any{"sheep-lamb"},
		"spawnQuantityMin": 0,
		"spawnQuantityMax": 0,
	})

	e := New(self, snap, w, &seqRand{floats: []float64{0.5, 0.5, 0.9}}, quietLogger)
	e.State.IsPregnant = true
	e.State.CooldownUntilDay = 100

	e.Tick(4)
	if e.State.CooldownUntilDay != 100 {
		t.Errorf("cooldown = %v, want 100", e.State.CooldownUntilDay)
	}
}

func TestBirthSpawnFailureIsLogged(t *testing.T) {
	w := newFakeWorld()
	w.failSpawn = true
	self := w.add(fakeCreature{code: "sheep-ewe", hasHunger: true})
	snap := ewe(t, species.Attributes{"spawnEntityCodes": []any{"sheep-lamb"}, "spawnQuantityMin": 1, "spawnQuantityMax": 1})

	e := New(self, snap, w, &seqRand{floats: []float64{0, 0, 0.5, 0.5, 0.5, 0.9}, ints: []int{0}}, quietLogger)
	e.State.IsPregnant = true

	r := e.Tick(4)
	if r.Birth == nil || len(r.Birth.Offspring) != 0 {
		t.Fatalf("birth = %+v, want no offspring", r.Birth)
	}
	if e.State.IsPregnant {
		t.Error("still pregnant")
	}
}

func TestEvolvedBirthIncrementsGeneration(t *testing.T) {
	w := newFakeWorld()
	self := w.add(fakeCreature{code: "sheep-ewe", generation: 6, hasHunger: true})
	snap := ewe(t, species.Attributes{
		"spawnEntityCodes":              []any{"sheep-lamb"},
		"spawnEvolvedEntityCodes":       []any{"sheep-lamb-fine", "sheep-lamb-golden"},
		"evolutionGenerationThresholds": []any{2, 5},
		"exclusiveEvolution":            true,
		"spawnQuantityMin":              1,
		"spawnQuantityMax":              1,
	})

	e := New(self, snap, w, &seqRand{floats: []float64{0, 0, 0.5, 0.5, 0.5, 0.9}, ints: []int{1}}, quietLogger)
	e.State.IsPregnant = true

	r := e.Tick(4)
	if r.Birth == nil {
		t.Fatal("expected birth")
	}
	if !reflect.DeepEqual(r.Birth.Candidates, []string{"sheep-lamb-fine", "sheep-lamb-golden"}) {
		t.Errorf("candidates = %v", r.Birth.Candidates)
	}
	if !reflect.DeepEqual(r.Birth.Codes, []string{"sheep-lamb-golden"}) {
		t.Errorf("codes = %v", r.Birth.Codes)
	}
	if w.spawned[0].Generation != 7 {
		t.Errorf("generation = %d, want 7", w.spawned[0].Generation)
	}
}

func TestTickDeadIsNoop(t *testing.T) {
	w := newFakeWorld()
	self := w.add(fakeCreature{code: "sheep-ewe", saturation: 10, hasHunger: true})
	w.creatures[self].alive = false
	snap := ewe(t, species.Attributes{"spawnEntityCodes": []any{"sheep-lamb"}})

	e := New(self, snap, w, &seqRand{}, quietLogger)
	e.State.IsPregnant = true

	if r := e.Tick(100); r.Birth != nil || r.Attempt != nil {
		t.Errorf("tick on dead creature = %+v", r)
	}
	if !e.State.IsPregnant {
		t.Error("state changed on dead creature")
	}
	if a := e.TryConceive(100); a.Reason != ReasonDead {
		t.Errorf("reason = %v, want dead", a.Reason)
	}
}

func TestStateRoundTrip(t *testing.T) {
	tree := storage.Tree{}
	if got := ReadState(tree); got != NewState() {
		t.Errorf("empty tree = %+v, want %+v", got, NewState())
	}

	want := State{IsPregnant: true, PregnancyStartDay: 12.5, LastBirthDay: 3, CooldownUntilDay: 9}
	want.Write(tree)
	if got := ReadState(tree); got != want {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}

func TestStateNormalize(t *testing.T) {
	s := State{IsPregnant: true, PregnancyStartDay: 50}
	s.Normalize(20)
	if s.PregnancyStartDay != 20 {
		t.Errorf("start = %v, want 20", s.PregnancyStartDay)
	}
}

func TestShouldEat(t *testing.T) {
	w := newFakeWorld()
	self := w.add(fakeCreature{code: "sheep-ewe", saturation: 1, hasHunger: true})
	snap := ewe(t, species.Attributes{"spawnEntityCodes": []any{"sheep-lamb"}})
	e := New(self, snap, w, &seqRand{}, quietLogger)

	if !e.ShouldEat(0) {
		t.Error("hungry idle creature should eat")
	}
	e.State.CooldownUntilDay = 5
	if e.ShouldEat(1) {
		t.Error("creature in cooldown should not eat")
	}
	e.EatAnyway = true
	if !e.ShouldEat(1) {
		t.Error("EatAnyway should override")
	}
}

func TestStatusLines(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		want   []string
	}{
		{"pregnant", Status{Alive: true, Pregnant: true}, []string{"Is pregnant"}},
		{"dead", Status{}, nil},
		{"ready", Status{Alive: true, HasHunger: true, Saturation: 2}, []string{"Portions eaten: 2", "Ready to mate"}},
		{"soon", Status{Alive: true, DaysUntilMate: 2}, []string{"Less than 3 days before ready to mate"}},
		{"later", Status{Alive: true, DaysUntilMate: 7}, []string{"Several days left before ready to mate"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.Lines(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Lines() = %q, want %q", got, tt.want)
			}
		})
	}
}
