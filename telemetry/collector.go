package telemetry

// Population is the herd snapshot sampled when a window is flushed.
type Population struct {
	Creatures   int
	Pregnant    int
	Items       int
	Generations []float64
	Saturations []float64 // only creatures with hunger
	Wool        []float64 // harvestable wool of wool-bearing creatures
}

// Collector accumulates events within time windows and produces WindowStats.
// Windows are measured in simulation hours.
type Collector struct {
	windowHours float64
	hoursPerDay float64

	// Current window tracking
	windowStart float64

	// Event counters for current window
	conceptions   int
	botched       int
	births        int
	offspring     int
	harvests      int
	woolHarvested int
	scratches     int
	deaths        int
	misconfigs    int
}

// NewCollector creates a new stats collector that starts its first window
// at startHour.
func NewCollector(windowHours, hoursPerDay, startHour float64) *Collector {
	if windowHours <= 0 {
		windowHours = 24
	}
	if hoursPerDay <= 0 {
		hoursPerDay = 24
	}
	return &Collector{
		windowHours: windowHours,
		hoursPerDay: hoursPerDay,
		windowStart: startHour,
	}
}

// Record counts one event.
func (c *Collector) Record(ev Event) {
	switch ev.Type {
	case EventConception:
		c.conceptions++
	case EventBotched:
		c.botched++
	case EventBirth:
		c.offspring++
	case EventHarvest:
		c.harvests++
		c.woolHarvested += int(ev.Amount)
	case EventScratch:
		c.scratches++
	case EventDeath:
		c.deaths++
	case EventMisconfig:
		c.misconfigs++
	}
}

// RecordLitter counts a completed gestation. Offspring are counted through
// their birth events, so a litter of zero still counts as a birth.
func (c *Collector) RecordLitter() {
	c.births++
}

// ShouldFlush returns true if the current window has elapsed.
func (c *Collector) ShouldFlush(nowHour float64) bool {
	return nowHour-c.windowStart >= c.windowHours
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(nowHour float64, pop Population) WindowStats {
	var litterMean, scratchRate float64
	if c.births > 0 {
		litterMean = float64(c.offspring) / float64(c.births)
	}
	if c.harvests > 0 {
		scratchRate = float64(c.scratches) / float64(c.harvests)
	}

	gen := Summarize(pop.Generations)
	sat := Summarize(pop.Saturations)
	wool := Summarize(pop.Wool)

	stats := WindowStats{
		WindowStartHour: c.windowStart,
		WindowEndHour:   nowHour,
		Day:             nowHour / c.hoursPerDay,

		Creatures: pop.Creatures,
		Pregnant:  pop.Pregnant,
		Items:     pop.Items,

		Conceptions: c.conceptions,
		Botched:     c.botched,
		Births:      c.births,
		Offspring:   c.offspring,
		LitterMean:  litterMean,

		Harvests:      c.harvests,
		WoolHarvested: c.woolHarvested,
		Scratches:     c.scratches,
		ScratchRate:   scratchRate,
		Deaths:        c.deaths,
		Misconfigs:    c.misconfigs,

		GenerationMean: gen.Mean,
		GenerationStd:  gen.Std,
		GenerationMax:  gen.Max,

		SaturationMean: sat.Mean,
		SaturationP10:  sat.P10,
		SaturationP50:  sat.P50,
		SaturationP90:  sat.P90,

		WoolMean: wool.Mean,
		WoolP50:  wool.P50,
		WoolP90:  wool.P90,
	}

	// Reset for next window
	c.windowStart = nowHour
	c.conceptions = 0
	c.botched = 0
	c.births = 0
	c.offspring = 0
	c.harvests = 0
	c.woolHarvested = 0
	c.scratches = 0
	c.deaths = 0
	c.misconfigs = 0

	return stats
}

// WindowHours returns the window length in simulation hours.
func (c *Collector) WindowHours() float64 {
	return c.windowHours
}
