// Package main searches herd parameters that keep a flock alive and
// productive.
package main

import (
	"fmt"

	"github.com/pthm-cable/herd/config"
	"github.com/pthm-cable/herd/species"
)

// Species the tuned attributes belong to.
const (
	breederCode = "sheep-ewe"
	lambCode    = "sheep-lamb"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value

	apply   func(cfg *config.Config, v float64) error
	extract func(cfg *config.Config) float64
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Feeding and shearing
			{
				Name: "grazing_rate", Path: "grazing.rate_per_hour", Min: 0.05, Max: 1.0, Default: 0.2,
				apply:   func(cfg *config.Config, v float64) error { cfg.Grazing.RatePerHour = v; return nil },
				extract: func(cfg *config.Config) float64 { return cfg.Grazing.RatePerHour },
			},
			{
				Name: "herder_interval", Path: "herder.interval_hours", Min: 6, Max: 96, Default: 24,
				apply:   func(cfg *config.Config, v float64) error { cfg.Herder.IntervalHours = v; return nil },
				extract: func(cfg *config.Config) float64 { return cfg.Herder.IntervalHours },
			},
			// Breeding
			attrParam("conception_chance", breederCode, species.KeyConceptionChance, 0.01, 0.3, 0.06),
			attrParam("pregnancy_days", breederCode, species.KeyPregnancyDays, 1, 10, 5),
			attrParam("portions_for_multiply", breederCode, species.KeyPortionsEatenForMultiply, 1, 6, 3),
			attrParam("cooldown_min", breederCode, species.KeyCooldownDaysMin, 1, 12, 6),
			attrParam("cooldown_max", breederCode, species.KeyCooldownDaysMax, 1, 24, 12),
			{
				Name: "lamb_mature_days", Path: "species[" + lambCode + "].mature_days", Min: 2, Max: 20, Default: 8,
				apply: func(cfg *config.Config, v float64) error {
					sp, _, ok := cfg.Lookup(lambCode)
					if !ok {
						return fmt.Errorf("species %q not declared", lambCode)
					}
					sp.MatureDays = v
					return nil
				},
				extract: func(cfg *config.Config) float64 {
					if sp, _, ok := cfg.Lookup(lambCode); ok {
						return sp.MatureDays
					}
					return 0
				},
			},
			// Population
			{
				Name: "max_creatures", Path: "population.max_creatures", Min: 50, Max: 1000, Default: 400,
				apply:   func(cfg *config.Config, v float64) error { cfg.Population.MaxCreatures = int(v); return nil },
				extract: func(cfg *config.Config) float64 { return float64(cfg.Population.MaxCreatures) },
			},
		},
	}
}

// attrParam tunes one numeric species attribute.
func attrParam(name, code, key string, lo, hi, def float64) ParamSpec {
	return ParamSpec{
		Name: name, Path: "species[" + code + "].attributes." + key, Min: lo, Max: hi, Default: def,
		apply: func(cfg *config.Config, v float64) error {
			sp, _, ok := cfg.Lookup(code)
			if !ok {
				return fmt.Errorf("species %q not declared", code)
			}
			if sp.Attributes == nil {
				sp.Attributes = species.Attributes{}
			}
			sp.Attributes[key] = v
			return nil
		},
		extract: func(cfg *config.Config) float64 {
			sp, _, ok := cfg.Lookup(code)
			if !ok {
				return def
			}
			switch v := sp.Attributes[key].(type) {
			case float64:
				return v
			case int:
				return float64(v)
			}
			return def
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = max(spec.Min, min(v[i], spec.Max))
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into cfg and recomputes its
// derived values. The cooldown bounds are kept ordered.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) error {
	clamped := pv.Clamp(values)
	for i, spec := range pv.Specs {
		if err := spec.apply(cfg, clamped[i]); err != nil {
			return fmt.Errorf("%s: %w", spec.Name, err)
		}
	}
	if sp, _, ok := cfg.Lookup(breederCode); ok {
		lo, _ := sp.Attributes[species.KeyCooldownDaysMin].(float64)
		hi, _ := sp.Attributes[species.KeyCooldownDaysMax].(float64)
		if lo > hi {
			sp.Attributes[species.KeyCooldownDaysMin] = hi
			sp.Attributes[species.KeyCooldownDaysMax] = lo
		}
	}
	return cfg.Refresh()
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.extract(cfg)
	}
	return v
}
