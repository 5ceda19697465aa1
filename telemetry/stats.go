package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartHour float64 `csv:"-"`
	WindowEndHour   float64 `csv:"window_end_hour"`
	Day             float64 `csv:"day"`

	// Population at window end
	Creatures int `csv:"creatures"`
	Pregnant  int `csv:"pregnant"`
	Items     int `csv:"item_stacks"`

	// Reproduction during window
	Conceptions int     `csv:"conceptions"`
	Botched     int     `csv:"botched"`
	Births      int     `csv:"births"`
	Offspring   int     `csv:"offspring"`
	LitterMean  float64 `csv:"litter_mean"`

	// Harvesting during window
	Harvests      int     `csv:"harvests"`
	WoolHarvested int     `csv:"wool_harvested"`
	Scratches     int     `csv:"scratches"`
	ScratchRate   float64 `csv:"scratch_rate"`
	Deaths        int     `csv:"deaths"`
	Misconfigs    int     `csv:"misconfigs"`

	// Distributions sampled at window end
	GenerationMean float64 `csv:"generation_mean"`
	GenerationStd  float64 `csv:"generation_std"`
	GenerationMax  float64 `csv:"generation_max"`

	SaturationMean float64 `csv:"saturation_mean"`
	SaturationP10  float64 `csv:"saturation_p10"`
	SaturationP50  float64 `csv:"saturation_p50"`
	SaturationP90  float64 `csv:"saturation_p90"`

	WoolMean float64 `csv:"wool_mean"`
	WoolP50  float64 `csv:"wool_p50"`
	WoolP90  float64 `csv:"wool_p90"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Summary is the mean, spread and percentiles of a sample.
type Summary struct {
	Mean, Std     float64
	P10, P50, P90 float64
	Max           float64
}

// Summarize computes a Summary of values. The population standard deviation
// is used since the sample is the whole herd.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean, std := stat.PopMeanStdDev(sorted, nil)
	return Summary{
		Mean: mean,
		Std:  std,
		P10:  Percentile(sorted, 0.10),
		P50:  Percentile(sorted, 0.50),
		P90:  Percentile(sorted, 0.90),
		Max:  sorted[len(sorted)-1],
	}
}

// LogStats outputs the window stats using structured logging.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("day", s.Day),
		slog.Int("creatures", s.Creatures),
		slog.Int("pregnant", s.Pregnant),
		slog.Int("conceptions", s.Conceptions),
		slog.Int("botched", s.Botched),
		slog.Int("births", s.Births),
		slog.Int("offspring", s.Offspring),
		slog.Int("harvests", s.Harvests),
		slog.Int("wool", s.WoolHarvested),
		slog.Int("scratches", s.Scratches),
		slog.Int("deaths", s.Deaths),
		slog.Float64("gen_mean", s.GenerationMean),
		slog.Float64("gen_max", s.GenerationMax),
		slog.Float64("sat_p50", s.SaturationP50),
		slog.Float64("wool_p50", s.WoolP50),
	)
}
