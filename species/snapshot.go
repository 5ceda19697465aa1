// Package species resolves the declarative per-species attribute bag into an
// immutable Snapshot that the reproduction and growth engines consult.
package species

import (
	"fmt"
)

// Attribute keys understood by Resolve.
const (
	KeyPregnancyDays            = "pregnancyDays"
	KeySpawnEntityCodes         = "spawnEntityCodes"
	KeySpawnEvolvedEntityCodes  = "spawnEvolvedEntityCodes"
	KeyEvolutionThresholds      = "evolutionGenerationThresholds"
	KeyExclusiveEvolution       = "exclusiveEvolution"
	KeyRequiresNearbyCode       = "requiresNearbyEntityCode"
	KeyRequiresNearbyCodes      = "requiresNearbyEntityCodes"
	KeyRequiresNearbyRange      = "requiresNearbyEntityRange"
	KeySpawnQuantityMin         = "spawnQuantityMin"
	KeySpawnQuantityMax         = "spawnQuantityMax"
	KeyPortionsEatenForMultiply = "portionsEatenForMultiply"
	KeyCooldownDaysMin          = "multiplyCooldownDaysMin"
	KeyCooldownDaysMax          = "multiplyCooldownDaysMax"
	KeyConceptionChance         = "conceptionChance"
	KeyBotchedChance            = "botchedChance"

	KeyHoursPerWoolUnit        = "hoursPerWoolUnit"
	KeyHoursPerUnitGenRed      = "hoursPerWoolUnitGenerationalReduction"
	KeyHoursPerUnitMaxRed      = "hoursPerWoolUnitMaxReduction"
	KeyMaxGenBonus             = "maxGenBonus"
	KeyGenerationalGrowthBonus = "generationalMaxWoolGrowthBonus"
	KeyScratchGenReduction     = "generationalScratchChanceReduction"
	KeyMinQuantity             = "minQuantity"
	KeyMaxQuantity             = "maxQuantity"
	KeyShearsBonus             = "shearsBonus"
	KeyMinGen                  = "minGen"
	KeyScratchChance           = "scratchChance"
	KeyWoolItem                = "woolItem"
	KeyShearSound              = "shearSound"
)

// DefaultWoolItem is the item code produced by harvesting when the species
// does not declare one.
const DefaultWoolItem = "hideandfabric:woolfibers"

// Snapshot holds the resolved parameters for one species. It is built once
// and shared read-only by every creature of that species.
type Snapshot struct {
	Code string

	// Reproduction
	GestationDays         float64
	OffspringCodes        []string
	EvolvedOffspringCodes []string
	EvolutionThresholds   []int
	ExclusiveEvolution    bool
	RequiredNearbyCodes   []string
	RequiredNearbyRange   float64
	SpawnQuantityMin      float64
	SpawnQuantityMax      float64
	PortionsForMultiply   float64
	CooldownDaysMin       float64
	CooldownDaysMax       float64
	ConceptionChance      float64
	BotchedChance         float64

	// Growth
	HoursPerUnit               float64
	HoursPerUnitGenReduction   float64
	HoursPerUnitMaxReduction   float64
	MinHarvestUnits            int
	MaxHarvestUnits            int
	HarvestToolBonus           int
	MinGeneration              int
	MaxGenerationBonusCap      int
	GenerationalGrowthCapBonus int
	ScratchBaseChance          float64
	ScratchGenReduction        float64
	WoolItem                   string
	ShearSound                 string

	partnerPatterns []CodePattern
}

// Resolve builds a Snapshot from attrs, filling defaults for anything not
// declared. Every problem found is returned as a Diagnostic; the snapshot is
// always usable.
func Resolve(code string, attrs Attributes) (*Snapshot, []Diagnostic) {
	r := &attrReader{attrs: attrs}

	s := &Snapshot{
		Code:                  code,
		GestationDays:         r.Float(KeyPregnancyDays, 3),
		OffspringCodes:        r.Strings(KeySpawnEntityCodes),
		EvolvedOffspringCodes: r.Strings(KeySpawnEvolvedEntityCodes),
		EvolutionThresholds:   r.Ints(KeyEvolutionThresholds),
		ExclusiveEvolution:    r.Bool(KeyExclusiveEvolution, true),
		RequiredNearbyCodes:   r.Strings(KeyRequiresNearbyCodes),
		RequiredNearbyRange:   r.Float(KeyRequiresNearbyRange, 5),
		SpawnQuantityMin:      r.Float(KeySpawnQuantityMin, 1),
		SpawnQuantityMax:      r.Float(KeySpawnQuantityMax, 2),
		PortionsForMultiply:   r.Float(KeyPortionsEatenForMultiply, 3),
		CooldownDaysMin:       r.Float(KeyCooldownDaysMin, 6),
		CooldownDaysMax:       r.Float(KeyCooldownDaysMax, 12),
		ConceptionChance:      r.Float(KeyConceptionChance, 0.06),
		BotchedChance:         r.Float(KeyBotchedChance, 0.2),

		HoursPerUnit:               r.Float(KeyHoursPerWoolUnit, 24),
		HoursPerUnitGenReduction:   r.Float(KeyHoursPerUnitGenRed, 0.5),
		HoursPerUnitMaxReduction:   r.Float(KeyHoursPerUnitMaxRed, 20),
		MaxGenerationBonusCap:      r.Int(KeyMaxGenBonus, 8),
		GenerationalGrowthCapBonus: r.Int(KeyGenerationalGrowthBonus, 8),
		ScratchGenReduction:        r.Float(KeyScratchGenReduction, 0.05),
		MinHarvestUnits:            r.Int(KeyMinQuantity, 4),
		MaxHarvestUnits:            r.Int(KeyMaxQuantity, 12),
		HarvestToolBonus:           r.Int(KeyShearsBonus, 4),
		MinGeneration:              r.Int(KeyMinGen, 3),
		ScratchBaseChance:          r.Float(KeyScratchChance, 0.5),
		WoolItem:                   r.String(KeyWoolItem, DefaultWoolItem),
		ShearSound:                 r.String(KeyShearSound, ""),
	}

	// The single-code form predates the list form; fold it in.
	if single := r.String(KeyRequiresNearbyCode, ""); single != "" {
		s.RequiredNearbyCodes = append(s.RequiredNearbyCodes, single)
	}
	for _, raw := range s.RequiredNearbyCodes {
		p, err := ParsePattern(raw)
		if err != nil {
			r.diags = append(r.diags, Diagnostic{
				Kind:    DiagBadValue,
				Message: fmt.Sprintf("attribute %q: invalid pattern %q: %v", KeyRequiresNearbyCodes, raw, err),
			})
			continue
		}
		s.partnerPatterns = append(s.partnerPatterns, p)
	}

	diags := append(r.diags, s.Validate()...)
	return s, diags
}

// Validate reports inconsistencies in s. It does not modify s.
func (s *Snapshot) Validate() []Diagnostic {
	var diags []Diagnostic
	add := func(kind DiagnosticKind, format string, args ...any) {
		diags = append(diags, Diagnostic{Kind: kind, Message: fmt.Sprintf(format, args...)})
	}

	if s.GestationDays <= 0 {
		add(DiagInvalidRange, "%s must be > 0, got %v", KeyPregnancyDays, s.GestationDays)
	}
	if s.SpawnQuantityMin > s.SpawnQuantityMax {
		add(DiagInvalidRange, "%s (%v) exceeds %s (%v)", KeySpawnQuantityMin, s.SpawnQuantityMin, KeySpawnQuantityMax, s.SpawnQuantityMax)
	}
	if s.CooldownDaysMin > s.CooldownDaysMax {
		add(DiagInvalidRange, "%s (%v) exceeds %s (%v)", KeyCooldownDaysMin, s.CooldownDaysMin, KeyCooldownDaysMax, s.CooldownDaysMax)
	}
	if s.RequiredNearbyRange < 0 {
		add(DiagInvalidRange, "%s must be >= 0, got %v", KeyRequiresNearbyRange, s.RequiredNearbyRange)
	}
	for _, p := range []struct {
		key string
		v   float64
	}{
		{KeyConceptionChance, s.ConceptionChance},
		{KeyBotchedChance, s.BotchedChance},
		{KeyScratchChance, s.ScratchBaseChance},
		{KeyScratchGenReduction, s.ScratchGenReduction},
	} {
		if p.v < 0 || p.v > 1 {
			add(DiagInvalidRange, "%s must be in [0,1], got %v", p.key, p.v)
		}
	}

	n, m := len(s.EvolutionThresholds), len(s.EvolvedOffspringCodes)
	if n > 1 && n != m {
		add(DiagMismatchedThresholds, "%d %s but %d %s", n, KeyEvolutionThresholds, m, KeySpawnEvolvedEntityCodes)
	}
	if n == 0 && m > 0 {
		add(DiagMismatchedThresholds, "%d %s but no %s", m, KeySpawnEvolvedEntityCodes, KeyEvolutionThresholds)
	}
	if len(s.OffspringCodes) == 0 && m > 0 {
		add(DiagEvolvedWithoutBase, "no %s but %d %s", KeySpawnEntityCodes, m, KeySpawnEvolvedEntityCodes)
	}

	if s.HoursPerUnit-s.HoursPerUnitMaxReduction <= 0 {
		add(DiagNonPositiveRate, "%s (%v) minus %s (%v) is not positive", KeyHoursPerWoolUnit, s.HoursPerUnit, KeyHoursPerUnitMaxRed, s.HoursPerUnitMaxReduction)
	}
	if s.MinHarvestUnits < 0 || s.MinHarvestUnits > s.MaxHarvestUnits {
		add(DiagInvalidRange, "%s (%d) must be within [0, %s (%d)]", KeyMinQuantity, s.MinHarvestUnits, KeyMaxQuantity, s.MaxHarvestUnits)
	}
	for _, p := range []struct {
		key string
		v   int
	}{
		{KeyShearsBonus, s.HarvestToolBonus},
		{KeyMinGen, s.MinGeneration},
		{KeyMaxGenBonus, s.MaxGenerationBonusCap},
		{KeyGenerationalGrowthBonus, s.GenerationalGrowthCapBonus},
	} {
		if p.v < 0 {
			add(DiagInvalidRange, "%s must be >= 0, got %d", p.key, p.v)
		}
	}
	return diags
}

// NeedsPartner reports whether conception requires a nearby partner.
func (s *Snapshot) NeedsPartner() bool {
	return len(s.RequiredNearbyCodes) > 0
}

// MatchesPartner reports whether code matches any required-nearby pattern.
func (s *Snapshot) MatchesPartner(code string) bool {
	for _, p := range s.partnerPatterns {
		if p.Match(code) {
			return true
		}
	}
	return false
}
