package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exports flushed windows as Prometheus series.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	day        prometheus.Gauge
	creatures  prometheus.Gauge
	pregnant   prometheus.Gauge
	items      prometheus.Gauge
	generation *prometheus.GaugeVec
	saturation *prometheus.GaugeVec
	events     *prometheus.CounterVec
	wool       prometheus.Counter
	woolStock  prometheus.Gauge
}

// NewMetrics registers the herd series on a private registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		day: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "herd", Name: "day",
			Help: "In-game day at the end of the last window.",
		}),
		creatures: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "herd", Name: "creatures",
			Help: "Living creatures.",
		}),
		pregnant: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "herd", Name: "pregnant",
			Help: "Creatures currently gestating.",
		}),
		items: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "herd", Name: "item_stacks",
			Help: "Item stacks lying on the ground.",
		}),
		generation: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "herd", Name: "generation",
			Help: "Generation distribution of the living herd.",
		}, []string{"stat"}),
		saturation: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "herd", Name: "saturation",
			Help: "Saturation distribution of eating creatures.",
		}, []string{"quantile"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "herd", Name: "events_total",
			Help: "Simulation events by type.",
		}, []string{"type"}),
		wool: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "herd", Name: "wool_harvested_total",
			Help: "Wool units sheared.",
		}),
		woolStock: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "herd", Name: "wool_stock",
			Help: "Wool units collected by the herder.",
		}),
	}
	reg.MustRegister(m.day, m.creatures, m.pregnant, m.items,
		m.generation, m.saturation, m.events, m.wool, m.woolStock)
	return m
}

// Observe folds one flushed window into the series.
func (m *Metrics) Observe(stats WindowStats, woolStock int) {
	if m == nil {
		return
	}
	m.day.Set(stats.Day)
	m.creatures.Set(float64(stats.Creatures))
	m.pregnant.Set(float64(stats.Pregnant))
	m.items.Set(float64(stats.Items))
	m.woolStock.Set(float64(woolStock))

	m.generation.WithLabelValues("mean").Set(stats.GenerationMean)
	m.generation.WithLabelValues("max").Set(stats.GenerationMax)
	m.saturation.WithLabelValues("0.1").Set(stats.SaturationP10)
	m.saturation.WithLabelValues("0.5").Set(stats.SaturationP50)
	m.saturation.WithLabelValues("0.9").Set(stats.SaturationP90)

	counts := map[EventType]int{
		EventConception: stats.Conceptions,
		EventBotched:    stats.Botched,
		EventBirth:      stats.Offspring,
		EventHarvest:    stats.Harvests,
		EventScratch:    stats.Scratches,
		EventDeath:      stats.Deaths,
		EventMisconfig:  stats.Misconfigs,
	}
	for t, n := range counts {
		m.events.WithLabelValues(t.String()).Add(float64(n))
	}
	m.wool.Add(float64(stats.WoolHarvested))
}

// Registry returns the registry the series live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the series in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
