package vfd

import "github.com/prometheus/client_golang/prometheus"

// Metrics publishes a device's counter/latency totals as Prometheus
// collectors, gated on the same capability interfaces callers use directly —
// a device that doesn't implement LatencyCapability (NandDevice01) simply
// gets no latency collectors registered.
type Metrics struct {
	collectors []prometheus.Collector
}

// NewMetrics builds the collector set for dev, labeling every metric with
// name (typically the facade instance or variant name).
func NewMetrics(name string, dev Device) *Metrics {
	m := &Metrics{}

	if c, ok := dev.(CounterCapability); ok {
		m.collectors = append(m.collectors,
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace:   "flashdbsim",
				Subsystem:   "vfd",
				Name:        "read_count_total",
				Help:        "Total page reads served by the device.",
				ConstLabels: prometheus.Labels{"device": name},
			}, func() float64 { return float64(c.ReadCountTotal()) }),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace:   "flashdbsim",
				Subsystem:   "vfd",
				Name:        "write_count_total",
				Help:        "Total page writes served by the device.",
				ConstLabels: prometheus.Labels{"device": name},
			}, func() float64 { return float64(c.WriteCountTotal()) }),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace:   "flashdbsim",
				Subsystem:   "vfd",
				Name:        "erase_count_total",
				Help:        "Total block erases served by the device.",
				ConstLabels: prometheus.Labels{"device": name},
			}, func() float64 { return float64(c.EraseCountTotal()) }),
		)
	}

	if l, ok := dev.(LatencyCapability); ok {
		m.collectors = append(m.collectors,
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace:   "flashdbsim",
				Subsystem:   "vfd",
				Name:        "read_latency_total",
				Help:        "Accumulated simulated read latency.",
				ConstLabels: prometheus.Labels{"device": name},
			}, func() float64 { return float64(l.ReadLatencyTotal()) }),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace:   "flashdbsim",
				Subsystem:   "vfd",
				Name:        "write_latency_total",
				Help:        "Accumulated simulated write latency.",
				ConstLabels: prometheus.Labels{"device": name},
			}, func() float64 { return float64(l.WriteLatencyTotal()) }),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace:   "flashdbsim",
				Subsystem:   "vfd",
				Name:        "erase_latency_total",
				Help:        "Accumulated simulated erase latency.",
				ConstLabels: prometheus.Labels{"device": name},
			}, func() float64 { return float64(l.EraseLatencyTotal()) }),
		)
	}

	return m
}

// MustRegister registers every collector m holds against reg.
func (m *Metrics) MustRegister(reg prometheus.Registerer) {
	for _, c := range m.collectors {
		reg.MustRegister(c)
	}
}
