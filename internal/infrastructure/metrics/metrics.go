// Package metrics expone contadores prometheus del dispatcher.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pladderBot/internal/usecase/dispatch"
)

type Collector struct {
	registry   *prometheus.Registry
	commands   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	fuseBlown  *prometheus.CounterVec
	lastResult *prometheus.GaugeVec
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pladder_commands_total",
				Help: "Commands dispatched, by network and outcome",
			},
			[]string{"network", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pladder_command_duration_seconds",
				Help:    "Time spent running a command, output filter included",
				Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
			},
			[]string{"outcome"},
		),
		fuseBlown: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pladder_fuse_blown_total",
				Help: "Times a channel fuse blew",
			},
			[]string{"network", "channel"},
		),
		lastResult: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pladder_last_result_length",
				Help: "Length in bytes of the last result text",
			},
			[]string{"network"},
		),
	}
	c.registry.MustRegister(
		c.commands,
		c.duration,
		c.fuseBlown,
		c.lastResult,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Observe implementa dispatch.Observer.
func (c *Collector) Observe(_ context.Context, ev dispatch.Event) {
	network := ev.Message.Network.String()
	c.commands.WithLabelValues(network, string(ev.Outcome)).Inc()
	c.duration.WithLabelValues(string(ev.Outcome)).Observe(ev.Duration.Seconds())
	if ev.Outcome == dispatch.OutcomeFuseJustBlown {
		c.fuseBlown.WithLabelValues(network, ev.Message.Channel).Inc()
	}
	c.lastResult.WithLabelValues(network).Set(float64(len(ev.Result.Text)))
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
