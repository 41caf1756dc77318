package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds application metrics.
// All methods are safe to call on nil Collector.
type Collector struct {
	// Dataset
	FetchDuration    prometheus.Histogram
	FetchErrorsTotal prometheus.Counter
	DatasetRecords   prometheus.Gauge

	// Rendering
	RenderDuration prometheus.Histogram
	CellsRendered  prometheus.Gauge

	// Interaction
	TooltipLookupsTotal *prometheus.CounterVec

	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewCollector registers collectors in reg.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		FetchDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "dataset_fetch_duration_seconds",
				Help:      "Duration of dataset loads in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
		),

		FetchErrorsTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dataset_fetch_errors_total",
				Help:      "Total number of failed dataset loads",
			},
		),

		DatasetRecords: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "dataset_records",
				Help:      "Number of records in loaded dataset",
			},
		),

		RenderDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "render_duration_seconds",
				Help:      "Duration of heatmap rendering in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
		),

		CellsRendered: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "cells_rendered",
				Help:      "Number of cells in last rendered heatmap",
			},
		),

		TooltipLookupsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tooltip_lookups_total",
				Help:      "Total number of tooltip lookups by result",
			},
			[]string{"result"}, // "hit", "miss"
		),

		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by route, method, and status",
			},
			[]string{"route", "method", "status"},
		),

		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"route"},
		),
	}
}

func (c *Collector) ObserveFetch(duration time.Duration, records int, err error) {
	if c == nil {
		return
	}
	c.FetchDuration.Observe(duration.Seconds())
	if err != nil {
		c.FetchErrorsTotal.Inc()
		return
	}
	c.DatasetRecords.Set(float64(records))
}

func (c *Collector) ObserveRender(duration time.Duration, cells int) {
	if c == nil {
		return
	}
	c.RenderDuration.Observe(duration.Seconds())
	c.CellsRendered.Set(float64(cells))
}

func (c *Collector) ObserveTooltip(hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.TooltipLookupsTotal.WithLabelValues(result).Inc()
}

func (c *Collector) ObserveRequest(route, method string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	c.HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}
