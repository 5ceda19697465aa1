// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/herd/growth"
	"github.com/pthm-cable/herd/species"
	"github.com/pthm-cable/herd/traits"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Calendar   CalendarConfig   `yaml:"calendar"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Grazing    GrazingConfig    `yaml:"grazing"`
	Herder     HerderConfig     `yaml:"herder"`
	Population PopulationConfig `yaml:"population"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	HallOfFame HallOfFameConfig `yaml:"hall_of_fame"`
	Storage    StorageConfig    `yaml:"storage"`
	Species    []SpeciesConfig  `yaml:"species"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds the pasture dimensions and motion settings.
type WorldConfig struct {
	Width    float64 `yaml:"width"`
	Depth    float64 `yaml:"depth"`
	CellSize float64 `yaml:"cell_size"` // spatial grid cell; should be >= the largest partner range
	Drag     float64 `yaml:"drag"`      // fraction of velocity kept after one second
	Seed     int64   `yaml:"seed"`      // 0 = time based
}

// CalendarConfig maps host seconds onto the in-game calendar.
type CalendarConfig struct {
	SecondsPerHour float64 `yaml:"seconds_per_hour"`
	HoursPerDay    float64 `yaml:"hours_per_day"`
	StartHour      float64 `yaml:"start_hour"`
}

// SchedulerConfig holds timing of the simulation loop.
type SchedulerConfig struct {
	TickInterval float64 `yaml:"tick_interval"` // host seconds between engine ticks
	StepDT       float64 `yaml:"step_dt"`       // host seconds per simulation step
}

// GrazingConfig holds saturation regain parameters.
type GrazingConfig struct {
	RatePerHour float64 `yaml:"rate_per_hour"` // saturation regained per game hour while hungry
}

// HerderConfig holds the automatic shearing settings.
type HerderConfig struct {
	Enabled       bool    `yaml:"enabled"`
	IntervalHours float64 `yaml:"interval_hours"`
	Tool          string  `yaml:"tool"`    // knife or shears
	Collect       bool    `yaml:"collect"` // pick up dropped wool into the stock
}

// PopulationConfig holds herd size limits.
type PopulationConfig struct {
	MaxCreatures int `yaml:"max_creatures"` // 0 = unlimited
	MinCreatures int `yaml:"min_creatures"` // restock from the hall of fame when below
}

// TelemetryConfig holds telemetry and logging parameters.
type TelemetryConfig struct {
	WindowHours     float64 `yaml:"window_hours"`
	PerfWindow      int     `yaml:"perf_window"`
	BookmarkHistory int     `yaml:"bookmark_history"`
}

// HallOfFameConfig holds the productive-lineage archive parameters.
type HallOfFameConfig struct {
	Size           int     `yaml:"size"`
	MinChildren    int     `yaml:"min_children"`
	MinWool        int     `yaml:"min_wool"`
	ChildrenWeight float64 `yaml:"children_weight"`
	WoolWeight     float64 `yaml:"wool_weight"`
	AgeWeight      float64 `yaml:"age_weight"` // per day lived
}

// StorageConfig holds persistence settings.
type StorageConfig struct {
	Path         string  `yaml:"path"`          // sqlite file; ":memory:" keeps nothing
	SaveInterval float64 `yaml:"save_interval"` // host seconds between save passes
}

// SpeciesConfig declares one creature code.
type SpeciesConfig struct {
	Code              string             `yaml:"code"`
	Behaviors         []string           `yaml:"behaviors"`
	Initial           int                `yaml:"initial"`
	InitialGeneration int                `yaml:"initial_generation"`
	MaxHP             float64            `yaml:"max_hp"`
	InitialSaturation float64            `yaml:"initial_saturation"`
	MaxSaturation     float64            `yaml:"max_saturation"`
	MaturesInto       []string           `yaml:"matures_into"`
	MatureDays        float64            `yaml:"mature_days"`
	Attributes        species.Attributes `yaml:"attributes"`
}

// DerivedConfig holds values computed from other config values.
type DerivedConfig struct {
	HoursPerSecond float64
	SpeciesIndex   map[string]int
	Traits         []traits.Trait // parallel to Species
	HerderTool     growth.Tool
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used. A species list in the
// file replaces the default catalog entirely.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := Overlay(cfg, data); err != nil {
			return nil, err
		}
	}

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Overlay applies a YAML document on top of cfg. Only fields present in the
// document are overwritten.
func Overlay(cfg *Config, data []byte) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// computeDerived calculates values derived from loaded config and rejects
// catalogs the simulation cannot run.
func (c *Config) computeDerived() error {
	if c.Calendar.SecondsPerHour <= 0 {
		return fmt.Errorf("calendar.seconds_per_hour must be > 0, got %v", c.Calendar.SecondsPerHour)
	}
	if c.Calendar.HoursPerDay <= 0 {
		c.Calendar.HoursPerDay = 24
	}
	if c.Scheduler.TickInterval <= 0 {
		return fmt.Errorf("scheduler.tick_interval must be > 0, got %v", c.Scheduler.TickInterval)
	}
	if c.Scheduler.StepDT <= 0 {
		c.Scheduler.StepDT = c.Scheduler.TickInterval
	}
	if c.Storage.SaveInterval <= 0 {
		c.Storage.SaveInterval = 10 * c.Scheduler.TickInterval
	}
	c.Derived.HoursPerSecond = 1 / c.Calendar.SecondsPerHour

	if c.Herder.Tool == "" {
		c.Herder.Tool = growth.ToolShears.String()
	}
	c.Derived.HerderTool = growth.ParseTool(c.Herder.Tool)
	if c.Herder.Enabled && c.Derived.HerderTool == growth.ToolNone {
		return fmt.Errorf("herder.tool %q is not a harvesting tool", c.Herder.Tool)
	}
	if c.Herder.Enabled && c.Herder.IntervalHours <= 0 {
		return fmt.Errorf("herder.interval_hours must be > 0, got %v", c.Herder.IntervalHours)
	}

	c.Derived.SpeciesIndex = make(map[string]int, len(c.Species))
	c.Derived.Traits = make([]traits.Trait, len(c.Species))
	for i := range c.Species {
		sp := &c.Species[i]
		if sp.Code == "" {
			return fmt.Errorf("species[%d]: missing code", i)
		}
		if _, dup := c.Derived.SpeciesIndex[sp.Code]; dup {
			return fmt.Errorf("species %q declared twice", sp.Code)
		}
		t, err := traits.Parse(sp.Behaviors)
		if err != nil {
			return fmt.Errorf("species %q: %w", sp.Code, err)
		}
		if len(sp.MaturesInto) > 0 {
			t = t.Add(traits.Matures)
		}
		if sp.MaxHP <= 0 {
			sp.MaxHP = 10
		}
		if t.Has(traits.Eats) && sp.MaxSaturation <= 0 {
			sp.MaxSaturation = 10
		}
		c.Derived.SpeciesIndex[sp.Code] = i
		c.Derived.Traits[i] = t
	}

	for _, sp := range c.Species {
		for _, adult := range sp.MaturesInto {
			if _, ok := c.Derived.SpeciesIndex[adult]; !ok {
				return fmt.Errorf("species %q matures into undeclared %q", sp.Code, adult)
			}
		}
	}
	return nil
}

// Lookup returns the species declaration and behaviours for code.
func (c *Config) Lookup(code string) (*SpeciesConfig, traits.Trait, bool) {
	i, ok := c.Derived.SpeciesIndex[code]
	if !ok {
		return nil, 0, false
	}
	return &c.Species[i], c.Derived.Traits[i], true
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Clone returns a deep copy of c with derived values recomputed.
func (c *Config) Clone() (*Config, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	out := &Config{}
	if err := yaml.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("copying config: %w", err)
	}
	if err := out.Refresh(); err != nil {
		return nil, err
	}
	return out, nil
}

// Refresh recomputes derived values after fields were edited in place.
func (c *Config) Refresh() error {
	return c.computeDerived()
}
