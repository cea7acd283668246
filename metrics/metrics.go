package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	OpsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ndb_ops_total",
		Help: "Dictionary operations by backend, op and result",
	}, []string{"backend", "op", "result"})

	OpLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ndb_op_latency_microseconds",
		Help:    "Dictionary operation latency in microseconds, lock wait included",
		Buckets: prometheus.ExponentialBuckets(0.25, 2.0, 20),
	}, []string{"backend", "op"})

	Entries = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ndb_entries",
		Help: "Live entries by backend",
	}, []string{"backend"})

	Buckets = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ndb_buckets",
		Help: "Allocated buckets by backend",
	}, []string{"backend"})

	GrowthTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ndb_growth_total",
		Help: "Inserts that resized or split the table, by backend",
	}, []string{"backend"})
)

func init() {
	prometheus.MustRegister(OpsTotal)
	prometheus.MustRegister(OpLatency)
	prometheus.MustRegister(Entries)
	prometheus.MustRegister(Buckets)
	prometheus.MustRegister(GrowthTotal)
}

func IncOp(backend string, op string, result string) {
	OpsTotal.WithLabelValues(backend, op, result).Inc()
}

func ObserveOpLatency(backend string, op string, us float64) {
	OpLatency.WithLabelValues(backend, op).Observe(us)
}

func SetLayout(backend string, entries int, buckets int) {
	Entries.WithLabelValues(backend).Set(float64(entries))
	Buckets.WithLabelValues(backend).Set(float64(buckets))
}

func IncGrowth(backend string) {
	GrowthTotal.WithLabelValues(backend).Inc()
}
