package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus is a Sink backed by github.com/prometheus/client_golang,
// registered against a caller-supplied registry so the operator CLI and
// the plugin can each own their own registry instance.
type Prometheus struct {
	enqueued    *prometheus.CounterVec
	dropped     *prometheus.CounterVec
	written     *prometheus.CounterVec
	batchSize   prometheus.Histogram
	rpcLatency  *prometheus.HistogramVec
	queueDepth  prometheus.Gauge
}

// NewPrometheus constructs and registers a Prometheus sink under namespace
// "solana_bigtable_sink".
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	const ns = "solana_bigtable_sink"
	p := &Prometheus{
		enqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "items_enqueued_total", Help: "WorkItems offered to the queue, by kind.",
		}, []string{"kind"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "items_dropped_total", Help: "WorkItems dropped before enqueue or after shutdown, by kind and reason.",
		}, []string{"kind", "reason"}),
		written: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "rows_written_total", Help: "Rows written to the remote store, by table.",
		}, []string{"table"}),
		batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns, Name: "account_batch_size", Help: "Size of account batches flushed to the account table.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		rpcLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns, Name: "rpc_latency_seconds", Help: "Remote-store RPC latency, by table.",
			Buckets: prometheus.DefBuckets,
		}, []string{"table"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Name: "queue_depth", Help: "Current occupancy of the bounded work queue.",
		}),
	}
	reg.MustRegister(p.enqueued, p.dropped, p.written, p.batchSize, p.rpcLatency, p.queueDepth)
	return p
}

func (p *Prometheus) IncEnqueued(kind string) { p.enqueued.WithLabelValues(kind).Inc() }

func (p *Prometheus) IncDropped(kind, reason string) { p.dropped.WithLabelValues(kind, reason).Inc() }

func (p *Prometheus) IncWritten(table string, n int) { p.written.WithLabelValues(table).Add(float64(n)) }

func (p *Prometheus) ObserveBatchSize(n int) { p.batchSize.Observe(float64(n)) }

func (p *Prometheus) ObserveRPCLatency(table string, d time.Duration) {
	p.rpcLatency.WithLabelValues(table).Observe(d.Seconds())
}

func (p *Prometheus) SetQueueDepth(n int) { p.queueDepth.Set(float64(n)) }
