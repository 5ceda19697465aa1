package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/herd/config"
	"github.com/pthm-cable/herd/game"
	"github.com/pthm-cable/herd/storage"
	"github.com/pthm-cable/herd/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	days       float64
	seeds      []int64
	baseConfig *config.Config
	logger     *slog.Logger

	// Best run tracking
	mu             sync.Mutex
	bestFitness    float64
	bestHallOfFame *telemetry.HallOfFame
	lastQuality    float64 // quality from most recent Evaluate call
	lastWool       float64 // wool per day from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, days float64, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		days:        days,
		seeds:       seeds,
		baseConfig:  baseCfg,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		bestFitness: math.Inf(1),
	}
}

// BestHallOfFame returns the hall of fame from the best evaluation.
func (fe *FitnessEvaluator) BestHallOfFame() *telemetry.HallOfFame {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestHallOfFame
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// LastWool returns the mean wool per day of the most recent evaluation.
func (fe *FitnessEvaluator) LastWool() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastWool
}

// A herd smaller than this is treated as collapsed.
const minViableHerd = 3

// runResult holds the results from a single simulation run.
type runResult struct {
	survivedDays float64
	woolStock    int
	windowStats  []telemetry.WindowStats // collected via StatsCallback each window
	hallOfFame   *telemetry.HallOfFame
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness    float64
	quality    float64
	wool       float64
	hallOfFame *telemetry.HallOfFame
}

// Evaluate computes fitness for a parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg, err := fe.baseConfig.Clone()
	if err == nil {
		err = fe.params.ApplyToConfig(cfg, x)
	}
	if err != nil {
		fe.logger.Error("rejecting parameters", "error", err)
		return 0
	}

	// Run all seeds in parallel
	results := make([]seedResult, len(fe.seeds))
	var eg errgroup.Group
	eg.SetLimit(runtime.NumCPU())

	for i, seed := range fe.seeds {
		eg.Go(func() error {
			result, err := fe.runSimulation(cfg, seed)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			results[i] = seedResult{
				fitness:    fe.computeFitness(result),
				quality:    computeQuality(result.windowStats),
				wool:       woolPerDay(result),
				hallOfFame: result.hallOfFame,
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		fe.logger.Error("simulation failed", "error", err)
		return 0
	}

	// Aggregate results
	var totalFitness, totalQuality, totalWool float64
	bestSeedFitness := math.Inf(1)
	var bestSeedHallOfFame *telemetry.HallOfFame

	for _, r := range results {
		totalFitness += r.fitness
		totalQuality += r.quality
		totalWool += r.wool
		if r.fitness < bestSeedFitness {
			bestSeedFitness = r.fitness
			bestSeedHallOfFame = r.hallOfFame
		}
	}

	n := float64(len(fe.seeds))
	avgFitness := totalFitness / n

	fe.mu.Lock()
	if avgFitness < fe.bestFitness {
		fe.bestFitness = avgFitness
		fe.bestHallOfFame = bestSeedHallOfFame
	}
	fe.lastQuality = totalQuality / n
	fe.lastWool = totalWool / n
	fe.mu.Unlock()

	return avgFitness
}

// runSimulation executes a single headless run until the herd collapses or
// the configured number of days passes. cfg is shared between seeds and
// must not be modified.
func (fe *FitnessEvaluator) runSimulation(cfg *config.Config, seed int64) (*runResult, error) {
	result := &runResult{}

	g, err := game.NewGameWithOptions(context.Background(), cfg, game.Options{
		Seed:        seed,
		StorePath:   storage.MemoryPath,
		Fresh:       true,
		WindowHours: cfg.Calendar.HoursPerDay,
		Logger:      fe.logger,
		StatsCallback: func(stats telemetry.WindowStats) {
			result.windowStats = append(result.windowStats, stats)
		},
	})
	if err != nil {
		return nil, err
	}
	defer g.Close()

	// Let the herd establish before judging its size.
	const warmupDays = 2
	start := g.Days()
	for g.Days()-start < fe.days {
		g.Update()
		if g.Days()-start > warmupDays && g.World().Population() < minViableHerd {
			break
		}
	}

	result.survivedDays = g.Days() - start
	result.woolStock = g.WoolStock()
	result.hallOfFame = g.HallOfFame()
	return result, nil
}

func woolPerDay(r *runResult) float64 {
	if r.survivedDays <= 0 {
		return 0
	}
	return float64(r.woolStock) / r.survivedDays
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(survival × (1 + woolPerDay) × (1 + 0.2 × quality))
// where survival is the fraction of the run the herd stayed viable.
func (fe *FitnessEvaluator) computeFitness(r *runResult) float64 {
	survival := r.survivedDays / fe.days
	return -(survival * (1 + woolPerDay(r)) * (1 + 0.2*computeQuality(r.windowStats)))
}

// Quality component weights.
const (
	qualityWeightStability = 0.4
	qualityWeightFeeding   = 0.3
	qualityWeightHandling  = 0.3

	qualityWarmupWindows = 2 // skip first N windows (warmup)
)

// computeQuality computes herd quality ∈ [0, 1] from window stats.
func computeQuality(windows []telemetry.WindowStats) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}
	valid := windows[qualityWarmupWindows:]

	counts := make([]float64, 0, len(valid))
	var feedSum, handleSum float64
	var feedCount, handleCount int

	for _, w := range valid {
		if w.Creatures < minViableHerd {
			continue
		}
		counts = append(counts, float64(w.Creatures))

		// Saturation around half of a typical belly is healthy.
		feedSum += math.Exp(-math.Pow((w.SaturationP50-5)/3, 2))
		feedCount++

		if w.Harvests > 0 {
			handleSum += 1 - w.ScratchRate
			handleCount++
		}
	}
	if len(counts) == 0 {
		return 0
	}

	stability := 0.0
	if len(counts) >= 2 {
		mean, std := stat.MeanStdDev(counts, nil)
		if mean > 0 {
			cv := std / mean
			stability = math.Exp(-cv * cv)
		}
	}
	feeding := feedSum / float64(feedCount)
	handling := 0.0
	if handleCount > 0 {
		handling = handleSum / float64(handleCount)
	}

	quality := qualityWeightStability*stability +
		qualityWeightFeeding*feeding +
		qualityWeightHandling*handling
	return max(0, min(quality, 1))
}
