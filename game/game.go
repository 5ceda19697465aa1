// Package game runs the herd simulation: it owns the world, delivers
// periodic ticks to every creature's engines, and handles grazing, shearing,
// persistence and telemetry.
package game

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/pthm-cable/herd/config"
	"github.com/pthm-cable/herd/growth"
	"github.com/pthm-cable/herd/host"
	"github.com/pthm-cable/herd/reproduction"
	"github.com/pthm-cable/herd/scheduler"
	"github.com/pthm-cable/herd/species"
	"github.com/pthm-cable/herd/storage"
	"github.com/pthm-cable/herd/telemetry"
	"github.com/pthm-cable/herd/traits"
	"github.com/pthm-cable/herd/world"
)

// Options configures a Game beyond the loaded config.
type Options struct {
	Seed        int64   // 0 = time based (or config world.seed when set)
	LogStats    bool    // log window stats and bookmarks via slog
	WindowHours float64 // 0 = use config
	OutputDir   string  // CSV output; empty disables
	StorePath   string  // overrides config storage.path
	Fresh       bool    // ignore saved state in the store
	Logger      *slog.Logger
	Metrics     *telemetry.Metrics // nil disables Prometheus export

	// StatsCallback, if set, receives every flushed window.
	StatsCallback func(telemetry.WindowStats)
}

// creature ties the engines of one living entity together.
type creature struct {
	ent     host.Entity
	code    string
	traits  traits.Trait
	snap    *species.Snapshot
	profile *config.SpeciesConfig
	repro   *reproduction.Engine
	wool    *growth.Resource
	token   scheduler.Token
	bornDay float64

	maturing bool
}

type dirtyKey struct {
	ent  host.Entity
	path string
}

// Game holds the complete simulation state.
type Game struct {
	cfg    *config.Config
	ctx    context.Context
	rng    *rand.Rand
	logger *slog.Logger
	seed   int64
	runID  string

	world     *world.World
	sched     *scheduler.Scheduler
	store     *storage.Store
	snapshots map[string]*species.Snapshot

	creatures map[host.Entity]*creature
	dirty     map[dirtyKey]struct{}
	maturing  []host.Entity

	// Time
	elapsed   float64 // host seconds since this run started
	startHour float64
	steps     int64

	// Due flags set by scheduler callbacks and consumed by their phase.
	herdDue bool
	saveDue bool
	ready   bool

	woolStock int

	// Telemetry
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	lifetime      *telemetry.LifetimeTracker
	bookmarks     *telemetry.BookmarkDetector
	hallOfFame    *telemetry.HallOfFame
	outputManager *telemetry.OutputManager
	metrics       *telemetry.Metrics
	events        []telemetry.Event
	logStats      bool
	statsCallback func(telemetry.WindowStats)
}

// NewGameWithOptions builds a simulation from cfg. Saved state in the store
// is revived unless opts.Fresh is set; otherwise the initial population is
// spawned.
func NewGameWithOptions(ctx context.Context, cfg *config.Config, opts Options) (*Game, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	runID := uuid.NewString()
	logger = logger.With("run", runID)

	seed := opts.Seed
	if seed == 0 {
		seed = cfg.World.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	g := &Game{
		cfg:       cfg,
		ctx:       ctx,
		rng:       rand.New(rand.NewSource(seed)),
		logger:    logger,
		seed:      seed,
		runID:     runID,
		sched:     scheduler.New(0),
		snapshots: make(map[string]*species.Snapshot, len(cfg.Species)),
		creatures: make(map[host.Entity]*creature),
		dirty:     make(map[dirtyKey]struct{}),
		startHour: cfg.Calendar.StartHour,
		logStats:  opts.LogStats,
		metrics:   opts.Metrics,

		statsCallback: opts.StatsCallback,
	}

	g.world = world.New(world.Config{
		Width:        cfg.World.Width,
		Depth:        cfg.World.Depth,
		CellSize:     cfg.World.CellSize,
		Drag:         cfg.World.Drag,
		MaxCreatures: cfg.Population.MaxCreatures,
	}, g.profile, logger)
	g.world.OnSpawn(g.handleSpawn)
	g.world.OnDirty(g.handleDirty)
	g.world.OnDeath(g.handleDeath)
	g.world.OnDespawn(g.handleDespawn)

	g.resolveSpecies()

	storePath := cfg.Storage.Path
	if opts.StorePath != "" {
		storePath = opts.StorePath
	}
	store, err := storage.Open(storePath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	g.store = store

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		store.Close()
		return nil, err
	}
	g.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		logger.Error("failed to write config", "error", err)
	}

	g.perfCollector = telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow)
	g.lifetime = telemetry.NewLifetimeTracker()
	g.bookmarks = telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistory)
	g.hallOfFame = telemetry.NewHallOfFame(cfg.HallOfFame, g.rng)

	revived := false
	if !opts.Fresh {
		revived, err = g.revive()
		if err != nil {
			g.Close()
			return nil, fmt.Errorf("revive: %w", err)
		}
	} else if err := g.store.Clear(ctx); err != nil {
		g.Close()
		return nil, fmt.Errorf("clear store: %w", err)
	}

	windowHours := cfg.Telemetry.WindowHours
	if opts.WindowHours > 0 {
		windowHours = opts.WindowHours
	}
	g.collector = telemetry.NewCollector(windowHours, cfg.Calendar.HoursPerDay, g.Hours())

	if !revived {
		g.spawnInitialPopulation()
	}

	if cfg.Herder.Enabled {
		g.sched.Register(cfg.Herder.IntervalHours/g.cfg.Derived.HoursPerSecond, func(float64) { g.herdDue = true })
	}
	g.sched.Register(cfg.Storage.SaveInterval, func(float64) { g.saveDue = true })
	g.ready = true

	logger.Info("simulation ready",
		"seed", seed,
		"revived", revived,
		"creatures", g.world.Population(),
		"day", g.Days(),
		"store", g.store.Path(),
	)
	return g, nil
}

// resolveSpecies builds every snapshot once and reports misconfiguration.
func (g *Game) resolveSpecies() {
	for _, sp := range g.cfg.Species {
		snap, diags := species.Resolve(sp.Code, sp.Attributes)
		species.LogDiagnostics(g.logger, sp.Code, diags)
		for _, d := range diags {
			g.events = append(g.events, telemetry.NewMisconfigEvent(0, 0, sp.Code, d.Kind.String()))
		}
		g.snapshots[sp.Code] = snap
	}
}

// profile maps a creature code onto its world profile.
func (g *Game) profile(code string) (world.Profile, bool) {
	sp, t, ok := g.cfg.Lookup(code)
	if !ok {
		return world.Profile{}, false
	}
	return world.Profile{
		HasHunger:         t.Has(traits.Eats) || t.Has(traits.Multiply),
		DoesEat:           t.Has(traits.Eats),
		InitialSaturation: sp.InitialSaturation,
		MaxSaturation:     sp.MaxSaturation,
		MaxHP:             sp.MaxHP,
	}, true
}

// Hours returns the current in-game hour.
func (g *Game) Hours() float64 {
	return g.startHour + g.elapsed*g.cfg.Derived.HoursPerSecond
}

// Days returns the current in-game day.
func (g *Game) Days() float64 {
	return g.Hours() / g.cfg.Calendar.HoursPerDay
}

// Steps returns the number of simulation steps taken.
func (g *Game) Steps() int64 {
	return g.steps
}

// World exposes the simulation world.
func (g *Game) World() *world.World {
	return g.world
}

// WoolStock returns the wool collected by the herder.
func (g *Game) WoolStock() int {
	return g.woolStock
}

// Seed returns the RNG seed in use.
func (g *Game) Seed() int64 {
	return g.seed
}

// RunID identifies this process's run in logs; a revived herd gets a new one.
func (g *Game) RunID() string {
	return g.runID
}

// Status renders the human-readable state of a creature.
func (g *Game) Status(e host.Entity) []string {
	c := g.creatures[e]
	if c == nil {
		return nil
	}
	var lines []string
	if c.repro != nil {
		lines = append(lines, c.repro.Status(g.Days()).Lines()...)
	}
	if c.wool != nil {
		lines = append(lines, c.wool.Status(g.Hours()).Lines()...)
	}
	return lines
}

// Close saves everything and releases the store and output files.
func (g *Game) Close() error {
	var firstErr error
	if g.store != nil && g.ready {
		if err := g.save(context.WithoutCancel(g.ctx)); err != nil {
			firstErr = err
		}
	}
	if g.outputManager != nil {
		if err := g.outputManager.WriteEvents(g.events); err != nil && firstErr == nil {
			firstErr = err
		}
		g.events = nil
		if err := g.outputManager.WriteHallOfFame(g.hallOfFame); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := g.outputManager.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if g.store != nil {
		if err := g.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		g.store = nil
	}
	return firstErr
}

// HallOfFame returns the creatures recorded as most productive so far.
func (g *Game) HallOfFame() *telemetry.HallOfFame {
	return g.hallOfFame
}
