// Package metrics defines the sink the pipeline reports through and gives
// it two concrete implementations, Prometheus and InfluxDB, so an
// operator can point either collection stack at the plugin.
package metrics

import "time"

// Sink is the metrics surface the dispatcher and worker pool report
// through: counters for items enqueued/dropped/written, a histogram of
// account-batch sizes and RPC latency, and a gauge of queue depth.
type Sink interface {
	IncEnqueued(kind string)
	IncDropped(kind string, reason string)
	IncWritten(table string, n int)
	ObserveBatchSize(n int)
	ObserveRPCLatency(table string, d time.Duration)
	SetQueueDepth(n int)
}

// Noop discards every observation; it is the default Sink when neither
// Prometheus nor InfluxDB is configured.
type Noop struct{}

func (Noop) IncEnqueued(string)                       {}
func (Noop) IncDropped(string, string)                {}
func (Noop) IncWritten(string, int)                   {}
func (Noop) ObserveBatchSize(int)                     {}
func (Noop) ObserveRPCLatency(string, time.Duration)  {}
func (Noop) SetQueueDepth(int)                        {}
