package pixeloverlay

import (
	"github.com/bodgit/pixeloverlay/grid"
	"github.com/bodgit/pixeloverlay/progress"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the Prometheus collectors updated by an Overlay. A nil
// *Metrics disables collection.
type Metrics struct {
	Loads       prometheus.Counter
	Restores    *prometheus.CounterVec
	Activations *prometheus.CounterVec
	Saves       prometheus.Counter
	Cells       prometheus.Gauge
	DoneCells   prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Loads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pixeloverlay",
			Name:      "loads_total",
			Help:      "Images quantized and installed.",
		}),
		Restores: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pixeloverlay",
			Name:      "restores_total",
			Help:      "Progress restore attempts by outcome.",
		}, []string{"outcome"}),
		Activations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pixeloverlay",
			Name:      "activations_total",
			Help:      "Cell activations by result.",
		}, []string{"result"}),
		Saves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pixeloverlay",
			Name:      "saves_total",
			Help:      "Progress records written.",
		}),
		Cells: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pixeloverlay",
			Name:      "cells",
			Help:      "Retained cells in the active grid.",
		}),
		DoneCells: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pixeloverlay",
			Name:      "done_cells",
			Help:      "Completed cells in the active grid.",
		}),
	}
	reg.MustRegister(m.Loads, m.Restores, m.Activations, m.Saves, m.Cells, m.DoneCells)
	return m
}

func (m *Metrics) loaded(g *grid.Grid, r progress.Result) {
	if m == nil {
		return
	}
	m.Loads.Inc()
	m.Restores.WithLabelValues(r.Outcome.String()).Inc()
	m.Cells.Set(float64(g.CellCount()))
	m.DoneCells.Set(float64(g.DoneCount()))
}

func (m *Metrics) saved(g *grid.Grid) {
	if m == nil {
		return
	}
	m.Saves.Inc()
	m.DoneCells.Set(float64(g.DoneCount()))
}

func (m *Metrics) activated(r ActivationResult) {
	if m == nil {
		return
	}
	m.Activations.WithLabelValues(r.String()).Inc()
}
