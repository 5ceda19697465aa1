package game

import (
	"github.com/pthm-cable/herd/telemetry"
)

// recordEvent logs ev for output and feeds the window and lifetime counters.
func (g *Game) recordEvent(ev telemetry.Event) {
	g.events = append(g.events, ev)
	g.lifetime.Record(ev)
	if g.collector != nil {
		g.collector.Record(ev)
	}
}

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	now := g.Hours()
	if !g.collector.ShouldFlush(now) {
		return
	}

	stats := g.collector.Flush(now, g.samplePopulation())
	perfStats := g.perfCollector.Stats()

	g.metrics.Observe(stats, g.woolStock)
	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := g.outputManager.WriteTelemetry(stats); err != nil {
		g.logger.Error("failed to write telemetry", "error", err)
	}
	if err := g.outputManager.WritePerf(perfStats, stats.WindowEndHour); err != nil {
		g.logger.Error("failed to write perf", "error", err)
	}
	if err := g.outputManager.WriteEvents(g.events); err != nil {
		g.logger.Error("failed to write events", "error", err)
	}
	g.events = g.events[:0]

	for _, bm := range g.bookmarks.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}
		if err := g.outputManager.WriteBookmark(bm); err != nil {
			g.logger.Error("failed to write bookmark", "error", err)
		}
	}
}

// samplePopulation collects the distributions reported with each window.
func (g *Game) samplePopulation() telemetry.Population {
	var pop telemetry.Population
	hours := g.Hours()

	for _, e := range g.world.Creatures() {
		if !g.world.Alive(e) {
			continue
		}
		pop.Creatures++
		gen := g.world.Generation(e)
		pop.Generations = append(pop.Generations, float64(gen))
		if sat, ok := g.world.Saturation(e); ok {
			pop.Saturations = append(pop.Saturations, sat)
		}

		c := g.creatures[e]
		if c == nil {
			continue
		}
		if c.repro != nil && c.repro.IsPregnant() {
			pop.Pregnant++
		}
		if c.wool != nil {
			pop.Wool = append(pop.Wool, float64(c.wool.CurrentQuantity(hours, gen)))
		}
	}
	pop.Items = len(g.world.Items())
	return pop
}
