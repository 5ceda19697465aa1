package telemetry

import "log/slog"

// LifetimeStats tracks per-creature statistics over its lifetime.
type LifetimeStats struct {
	Code       string
	BirthDay   float64
	AgeDays    float64
	Generation int
	ParentID   uint64

	// Reproduction
	Conceptions int
	Botched     int
	Litters     int
	Children    int

	// Wool
	Harvests  int
	WoolTotal int
	Scratches int
}

// LogValue implements slog.LogValuer for structured logging.
func (s *LifetimeStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("code", s.Code),
		slog.Int("generation", s.Generation),
		slog.Float64("age_days", s.AgeDays),
		slog.Int("litters", s.Litters),
		slog.Int("children", s.Children),
		slog.Int("harvests", s.Harvests),
		slog.Int("wool", s.WoolTotal),
		slog.Int("scratches", s.Scratches),
	)
}

// LifetimeTracker manages per-creature lifetime statistics.
type LifetimeTracker struct {
	stats map[uint64]*LifetimeStats
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		stats: make(map[uint64]*LifetimeStats),
	}
}

// Register creates lifetime stats for a new creature.
func (lt *LifetimeTracker) Register(entityID uint64, code string, birthDay float64, generation int, parentID uint64) {
	lt.stats[entityID] = &LifetimeStats{
		Code:       code,
		BirthDay:   birthDay,
		Generation: generation,
		ParentID:   parentID,
	}
}

// Get returns the lifetime stats for a creature, or nil if not found.
func (lt *LifetimeTracker) Get(entityID uint64) *LifetimeStats {
	return lt.stats[entityID]
}

// Remove removes a creature's stats and returns them with the age filled
// in for the removal day.
func (lt *LifetimeTracker) Remove(entityID uint64, day float64) *LifetimeStats {
	stats := lt.stats[entityID]
	if stats == nil {
		return nil
	}
	delete(lt.stats, entityID)
	stats.AgeDays = day - stats.BirthDay
	return stats
}

// Record updates the stats touched by ev.
func (lt *LifetimeTracker) Record(ev Event) {
	switch ev.Type {
	case EventConception:
		if s := lt.stats[ev.EntityID]; s != nil {
			s.Conceptions++
		}
	case EventBotched:
		if s := lt.stats[ev.EntityID]; s != nil {
			s.Botched++
		}
	case EventBirth:
		if s := lt.stats[ev.TargetID]; s != nil {
			s.Children++
		}
	case EventHarvest:
		if s := lt.stats[ev.EntityID]; s != nil {
			s.Harvests++
			s.WoolTotal += int(ev.Amount)
		}
	case EventScratch:
		if s := lt.stats[ev.EntityID]; s != nil {
			s.Scratches++
		}
	}
}

// RecordLitter increments the litter count of a mother.
func (lt *LifetimeTracker) RecordLitter(motherID uint64) {
	if s := lt.stats[motherID]; s != nil {
		s.Litters++
	}
}

// Count returns the number of tracked creatures.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}

// LineageDepth returns the number of distinct generations among tracked
// creatures.
func (lt *LifetimeTracker) LineageDepth() int {
	seen := make(map[int]struct{})
	for _, stats := range lt.stats {
		seen[stats.Generation] = struct{}{}
	}
	return len(seen)
}
