package species

import (
	"reflect"
	"testing"

	"gopkg.in/yaml.v3"
)

func hasKind(diags []Diagnostic, kind DiagnosticKind) bool {
	for _, d := range diags {
		if d.Kind == kind {
			return true
		}
	}
	return false
}

func TestResolveDefaults(t *testing.T) {
	s, diags := Resolve("sheep-ewe", Attributes{})

	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics for empty attributes: %v", diags)
	}
	if s.GestationDays != 3 {
		t.Errorf("GestationDays = %v, want 3", s.GestationDays)
	}
	if !s.ExclusiveEvolution {
		t.Error("ExclusiveEvolution should default to true")
	}
	if s.RequiredNearbyRange != 5 {
		t.Errorf("RequiredNearbyRange = %v, want 5", s.RequiredNearbyRange)
	}
	if s.SpawnQuantityMin != 1 || s.SpawnQuantityMax != 2 {
		t.Errorf("spawn quantity = [%v,%v], want [1,2]", s.SpawnQuantityMin, s.SpawnQuantityMax)
	}
	if s.HoursPerUnit != 24 || s.HoursPerUnitGenReduction != 0.5 || s.HoursPerUnitMaxReduction != 20 {
		t.Errorf("growth rate defaults = %v/%v/%v", s.HoursPerUnit, s.HoursPerUnitGenReduction, s.HoursPerUnitMaxReduction)
	}
	if s.MinHarvestUnits != 4 || s.MaxHarvestUnits != 12 || s.HarvestToolBonus != 4 || s.MinGeneration != 3 {
		t.Errorf("harvest defaults = min %d max %d bonus %d minGen %d", s.MinHarvestUnits, s.MaxHarvestUnits, s.HarvestToolBonus, s.MinGeneration)
	}
	if s.ConceptionChance != 0.06 || s.BotchedChance != 0.2 {
		t.Errorf("chance defaults = %v/%v", s.ConceptionChance, s.BotchedChance)
	}
	if s.WoolItem != DefaultWoolItem {
		t.Errorf("WoolItem = %q, want %q", s.WoolItem, DefaultWoolItem)
	}
}

func TestResolveFromYAML(t *testing.T) {
	doc := `
pregnancyDays: 4.5
spawnEntityCodes: [sheep-lamb]
spawnEvolvedEntityCodes: [sheep-lamb-fine, sheep-lamb-merino]
evolutionGenerationThresholds: [2, 5]
exclusiveEvolution: false
requiresNearbyEntityCodes: ["sheep-ram-*"]
requiresNearbyEntityCode: goat-buck
minGen: 1
`
	var attrs Attributes
	if err := yaml.Unmarshal([]byte(doc), &attrs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	s, diags := Resolve("sheep-ewe", attrs)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if s.GestationDays != 4.5 {
		t.Errorf("GestationDays = %v, want 4.5", s.GestationDays)
	}
	if !reflect.DeepEqual(s.EvolutionThresholds, []int{2, 5}) {
		t.Errorf("EvolutionThresholds = %v", s.EvolutionThresholds)
	}
	if !reflect.DeepEqual(s.RequiredNearbyCodes, []string{"sheep-ram-*", "goat-buck"}) {
		t.Errorf("RequiredNearbyCodes = %v", s.RequiredNearbyCodes)
	}
	if s.ExclusiveEvolution {
		t.Error("ExclusiveEvolution should be false")
	}
	if s.MinGeneration != 1 {
		t.Errorf("MinGeneration = %d, want 1", s.MinGeneration)
	}
}

func TestResolveDiagnostics(t *testing.T) {
	tests := []struct {
		name  string
		attrs Attributes
		want  DiagnosticKind
	}{
		{"wrong type", Attributes{KeyPregnancyDays: "soon"}, DiagBadValue},
		{"fractional int", Attributes{KeyMinGen: 2.5}, DiagBadValue},
		{"mixed list", Attributes{KeySpawnEntityCodes: []any{"a", 3}}, DiagBadValue},
		{"mismatched thresholds", Attributes{
			KeySpawnEntityCodes:        []any{"x"},
			KeySpawnEvolvedEntityCodes: []any{"a", "b", "c"},
			KeyEvolutionThresholds:     []any{1, 2},
		}, DiagMismatchedThresholds},
		{"evolved without thresholds", Attributes{
			KeySpawnEntityCodes:        []any{"x"},
			KeySpawnEvolvedEntityCodes: []any{"a"},
		}, DiagMismatchedThresholds},
		{"evolved without base", Attributes{
			KeySpawnEvolvedEntityCodes: []any{"a"},
			KeyEvolutionThresholds:     []any{1},
		}, DiagEvolvedWithoutBase},
		{"non-positive rate", Attributes{KeyHoursPerWoolUnit: 10, KeyHoursPerUnitMaxRed: 10}, DiagNonPositiveRate},
		{"min over max", Attributes{KeyMinQuantity: 20}, DiagInvalidRange},
		{"spawn range inverted", Attributes{KeySpawnQuantityMin: 3, KeySpawnQuantityMax: 1}, DiagInvalidRange},
		{"chance above one", Attributes{KeyScratchChance: 1.5}, DiagInvalidRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, diags := Resolve("test", tt.attrs)
			if s == nil {
				t.Fatal("Resolve returned nil snapshot")
			}
			if !hasKind(diags, tt.want) {
				t.Errorf("diagnostics %v missing kind %v", diags, tt.want)
			}
		})
	}
}

func TestResolveBadValueKeepsDefault(t *testing.T) {
	s, _ := Resolve("test", Attributes{KeyHoursPerWoolUnit: "fast"})
	if s.HoursPerUnit != 24 {
		t.Errorf("HoursPerUnit = %v, want default 24", s.HoursPerUnit)
	}
}
