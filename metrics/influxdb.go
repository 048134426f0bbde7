package metrics

import (
	"context"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/xlog"
)

// InfluxDB is a Sink backed by github.com/influxdata/influxdb-client-go/v2,
// writing through the client's non-blocking write API so a slow or
// unreachable InfluxDB instance never adds latency to the hot path
// (go-ethereum's own InfluxDB reporter follows the same non-blocking
// discipline).
type InfluxDB struct {
	client influxdb2.Client
	write  api.WriteAPI
	bucket string
}

// NewInfluxDB dials addr (e.g. "http://localhost:8086") and returns a Sink
// writing into org/bucket.
func NewInfluxDB(addr, token, org, bucket string) *InfluxDB {
	client := influxdb2.NewClient(addr, token)
	w := client.WriteAPI(org, bucket)
	log := xlog.New("metrics", "influxdb")
	errsCh := w.Errors()
	go func() {
		for err := range errsCh {
			log.Warn("influxdb write error", "err", err)
		}
	}()
	return &InfluxDB{client: client, write: w, bucket: bucket}
}

func (i *InfluxDB) point(measurement string, tags map[string]string, fields map[string]any) {
	p := influxdb2.NewPoint(measurement, tags, fields, time.Now())
	i.write.WritePoint(p)
}

func (i *InfluxDB) IncEnqueued(kind string) {
	i.point("items_enqueued", map[string]string{"kind": kind}, map[string]any{"count": 1})
}

func (i *InfluxDB) IncDropped(kind, reason string) {
	i.point("items_dropped", map[string]string{"kind": kind, "reason": reason}, map[string]any{"count": 1})
}

func (i *InfluxDB) IncWritten(table string, n int) {
	i.point("rows_written", map[string]string{"table": table}, map[string]any{"count": n})
}

func (i *InfluxDB) ObserveBatchSize(n int) {
	i.point("account_batch_size", nil, map[string]any{"size": n})
}

func (i *InfluxDB) ObserveRPCLatency(table string, d time.Duration) {
	i.point("rpc_latency", map[string]string{"table": table}, map[string]any{"seconds": d.Seconds()})
}

func (i *InfluxDB) SetQueueDepth(n int) {
	i.point("queue_depth", nil, map[string]any{"depth": n})
}

// Close flushes pending writes and releases the client.
func (i *InfluxDB) Close(ctx context.Context) {
	i.write.Flush()
	i.client.Close()
}
