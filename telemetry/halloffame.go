package telemetry

import (
	"encoding/json"
	"math/rand"
	"sort"

	"github.com/pthm-cable/herd/config"
)

// HallEntry records a productive creature: enough to restock its line.
type HallEntry struct {
	EntityID   uint64  `json:"entity_id"`
	Code       string  `json:"code"`
	Generation int     `json:"generation"`
	Fitness    float64 `json:"fitness"`
	Children   int     `json:"children"`
	Wool       int     `json:"wool"`
	AgeDays    float64 `json:"age_days"`
}

// HallOfFame stores proven lineages for restocking when the herd crashes.
// Halls are indexed by species code.
type HallOfFame struct {
	halls map[string][]HallEntry
	cfg   config.HallOfFameConfig
	rng   *rand.Rand
}

// NewHallOfFame creates a hall of fame with cfg.Size entries per species.
func NewHallOfFame(cfg config.HallOfFameConfig, rng *rand.Rand) *HallOfFame {
	if cfg.Size < 1 {
		cfg.Size = 1
	}
	return &HallOfFame{
		halls: make(map[string][]HallEntry),
		cfg:   cfg,
		rng:   rng,
	}
}

// Consider evaluates a removed creature for hall of fame entry.
// Returns true if the creature was added to the hall.
func (hof *HallOfFame) Consider(entityID uint64, stats *LifetimeStats) bool {
	if stats == nil || !hof.meetsEntryCriteria(stats) {
		return false
	}

	entry := HallEntry{
		EntityID:   entityID,
		Code:       stats.Code,
		Generation: stats.Generation,
		Fitness:    hof.calculateFitness(stats),
		Children:   stats.Children,
		Wool:       stats.WoolTotal,
		AgeDays:    stats.AgeDays,
	}
	hall, added := hof.insertEntry(hof.halls[stats.Code], entry)
	hof.halls[stats.Code] = hall
	return added
}

// meetsEntryCriteria checks if a creature qualifies for the hall: it raised
// young or grew a worthwhile amount of wool.
func (hof *HallOfFame) meetsEntryCriteria(stats *LifetimeStats) bool {
	if hof.cfg.MinChildren > 0 && stats.Children >= hof.cfg.MinChildren {
		return true
	}
	return hof.cfg.MinWool > 0 && stats.WoolTotal >= hof.cfg.MinWool
}

// calculateFitness computes the weighted fitness score.
func (hof *HallOfFame) calculateFitness(stats *LifetimeStats) float64 {
	fitness := float64(stats.Children) * hof.cfg.ChildrenWeight
	fitness += float64(stats.WoolTotal) * hof.cfg.WoolWeight
	fitness += stats.AgeDays * hof.cfg.AgeWeight
	return fitness
}

// insertEntry adds an entry to the hall, maintaining sorted order by fitness.
// If the hall is full, the lowest-fitness entry is removed.
func (hof *HallOfFame) insertEntry(hall []HallEntry, entry HallEntry) ([]HallEntry, bool) {
	// Find insertion point (sorted descending by fitness)
	idx := sort.Search(len(hall), func(i int) bool {
		return hall[i].Fitness < entry.Fitness
	})

	// If hall is full and entry would be last (lowest), skip it
	if len(hall) >= hof.cfg.Size && idx >= hof.cfg.Size {
		return hall, false
	}

	hall = append(hall, HallEntry{})
	copy(hall[idx+1:], hall[idx:])
	hall[idx] = entry

	if len(hall) > hof.cfg.Size {
		hall = hall[:hof.cfg.Size]
	}
	return hall, true
}

// Sample selects an entry across all halls using tournament selection.
// Returns false if every hall is empty.
func (hof *HallOfFame) Sample() (HallEntry, bool) {
	var all []HallEntry
	for _, code := range hof.codes() {
		all = append(all, hof.halls[code]...)
	}
	if len(all) == 0 {
		return HallEntry{}, false
	}

	// Tournament selection with k=3
	const tournamentSize = 3
	best := all[hof.rng.Intn(len(all))]
	for i := 1; i < tournamentSize && i < len(all); i++ {
		candidate := all[hof.rng.Intn(len(all))]
		if candidate.Fitness > best.Fitness {
			best = candidate
		}
	}
	return best, true
}

// Size returns the number of entries for a species.
func (hof *HallOfFame) Size(code string) int {
	return len(hof.halls[code])
}

// TopFitness returns the highest fitness for a species, or 0 if its hall is empty.
func (hof *HallOfFame) TopFitness(code string) float64 {
	hall := hof.halls[code]
	if len(hall) == 0 {
		return 0
	}
	return hall[0].Fitness
}

func (hof *HallOfFame) codes() []string {
	codes := make([]string, 0, len(hof.halls))
	for code := range hof.halls {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// MarshalJSON serializes the hall of fame keyed by species code.
func (hof *HallOfFame) MarshalJSON() ([]byte, error) {
	return json.MarshalIndent(hof.halls, "", "  ")
}
