package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheus_RecordsAcrossAllSinkMethods(t *testing.T) {
	registry := prometheus.NewRegistry()
	p := NewPrometheus(registry)

	p.IncEnqueued("update_account")
	p.IncEnqueued("update_account")
	p.IncDropped("update_account", "selector")
	p.IncWritten("account", 128)
	p.ObserveBatchSize(3)
	p.ObserveRPCLatency("account", 10*time.Millisecond)
	p.SetQueueDepth(7)

	families, err := registry.Gather()
	require.NoError(t, err)

	var sawEnqueued, sawDropped, sawWritten, sawBatch, sawLatency, sawDepth bool
	for _, fam := range families {
		switch fam.GetName() {
		case "solana_bigtable_sink_items_enqueued_total":
			sawEnqueued = true
			assert.EqualValues(t, 2, fam.GetMetric()[0].GetCounter().GetValue())
		case "solana_bigtable_sink_items_dropped_total":
			sawDropped = true
		case "solana_bigtable_sink_rows_written_total":
			sawWritten = true
			assert.EqualValues(t, 128, fam.GetMetric()[0].GetCounter().GetValue())
		case "solana_bigtable_sink_account_batch_size":
			sawBatch = true
		case "solana_bigtable_sink_rpc_latency_seconds":
			sawLatency = true
		case "solana_bigtable_sink_queue_depth":
			sawDepth = true
			assert.EqualValues(t, 7, fam.GetMetric()[0].GetGauge().GetValue())
		}
	}
	assert.True(t, sawEnqueued)
	assert.True(t, sawDropped)
	assert.True(t, sawWritten)
	assert.True(t, sawBatch)
	assert.True(t, sawLatency)
	assert.True(t, sawDepth)
}
