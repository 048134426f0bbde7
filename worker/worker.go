// Package worker implements the consumer side of the pipeline: each
// worker owns one buffered Bigtable client and drains the shared queue
// with a 500ms timed receive, applying batching and, on the
// end-of-startup signal, flushing everything pending exactly once.
package worker

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/abort"
	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/bigtable"
	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/history"
	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/lifecycle"
	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/metrics"
	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/queue"
	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/types"
	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/xlog"
)

// ReceiveTimeout bounds the latency between the end-of-startup signal and
// a worker's flush response, and guarantees forward progress on shutdown
// even when the queue is empty.
const ReceiveTimeout = 500 * time.Millisecond

// Options configures a worker pool.
type Options struct {
	Count           int
	PanicOnDBErrors bool

	// Metrics receives per-write byte counts, RPC latency, and queue-depth
	// samples. Nil falls back to metrics.Noop.
	Metrics metrics.Sink
}

func (o Options) sink() metrics.Sink {
	if o.Metrics == nil {
		return metrics.Noop{}
	}
	return o.Metrics
}

// tableForKind names the table a WorkItem's dispatch ultimately writes to,
// for metrics labeling only; the buffered client owns the authoritative
// table names.
func tableForKind(k types.Kind) string {
	switch k {
	case types.KindUpdateAccount:
		return "account"
	case types.KindUpdateSlot:
		return "slot"
	case types.KindLogTransaction:
		return "tx"
	case types.KindUpdateBlockMetadata:
		return "block"
	default:
		return "unknown"
	}
}

// NewClientFunc constructs one worker's buffered client. It is a factory
// rather than a shared instance because each worker owns its client (and
// its own remote-store connection) exclusively.
type NewClientFunc func() (*bigtable.Client, error)

// Pool owns a group of workers draining a shared queue.
type Pool struct {
	q         *queue.Queue
	coord     *lifecycle.Coordinator
	opts      Options
	newClient NewClientFunc
	group     *errgroup.Group
}

// New constructs a Pool. Start must be called to spawn workers.
func New(q *queue.Queue, coord *lifecycle.Coordinator, opts Options, newClient NewClientFunc) *Pool {
	return &Pool{q: q, coord: coord, opts: opts, newClient: newClient}
}

// Start spawns opts.Count workers, each via errgroup.Group so that a
// construction failure during startup cancels the group and is reported
// back through Wait. If PanicOnDBErrors is set, construction failure
// instead invokes the abort hook directly.
func (p *Pool) Start(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	p.group = g

	for i := 0; i < p.opts.Count; i++ {
		id := i
		g.Go(func() error {
			return p.run(gctx, id)
		})
	}
}

// Wait blocks until every worker has returned, and returns the first
// non-nil error, if any (construction or otherwise).
func (p *Pool) Wait() error {
	return p.group.Wait()
}

func (p *Pool) run(ctx context.Context, id int) error {
	log := xlog.New("worker", id)
	sink := p.opts.sink()

	client, err := p.newClient()
	if err != nil {
		if p.opts.PanicOnDBErrors {
			abort.Now("worker construction failed", err)
		}
		return err
	}
	defer client.Close()

	p.coord.WorkerInitialized()
	ackedStartup := false

	for {
		item, ok := p.q.Receive(ReceiveTimeout)
		if ok {
			start := time.Now()
			n, err := p.dispatch(ctx, client, item, sink)
			sink.ObserveRPCLatency(tableForKind(item.Kind), time.Since(start))
			if err != nil {
				log.Error("write failed", "kind", item.Kind, "trace_id", item.TraceID, "err", err)
				if errors.Is(err, history.ErrConflictingParent) {
					abort.Now("slot parent invariant violated", err)
				} else if p.opts.PanicOnDBErrors {
					abort.Now("persistent write failure", err)
				}
			} else if n > 0 {
				sink.IncWritten(tableForKind(item.Kind), n)
			}
			continue
		}

		sink.SetQueueDepth(p.q.Len())

		if p.coord.StartupSignaled() && !ackedStartup {
			if n, _, err := client.FlushPendingAccounts(ctx); err != nil {
				log.Error("startup flush failed", "err", err)
			} else if n > 0 {
				sink.IncWritten("account", n)
			}
			p.coord.AckStartupFlush()
			ackedStartup = true
		}

		if p.coord.ExitRequested() {
			if n, _, err := client.FlushPendingAccounts(ctx); err != nil {
				log.Error("shutdown flush failed", "err", err)
			} else if n > 0 {
				sink.IncWritten("account", n)
			}
			return nil
		}
	}
}

// dispatch routes item to the buffered client and returns the bytes
// written to the wire by this call (0 for a merely-buffered account
// update, matching bigtable.Client.UpdateAccount's own return).
func (p *Pool) dispatch(ctx context.Context, client *bigtable.Client, item types.WorkItem, sink metrics.Sink) (int, error) {
	switch item.Kind {
	case types.KindUpdateAccount:
		n, _, err := client.UpdateAccount(ctx, *item.Account)
		return n, err
	case types.KindUpdateSlot:
		s := item.Slot
		if s.HasParent {
			if err := client.UpdateSlotParent(s.Slot, s.Parent); err != nil {
				return 0, err
			}
		}
		n, _, err := client.UpdateSlot(ctx, *s)
		if err != nil {
			return 0, err
		}
		if s.Status == types.SlotRooted {
			hn, _, err := client.FlushHistory(ctx, s.Slot)
			if err != nil {
				return 0, err
			}
			if hn > 0 {
				sink.IncWritten("account_history", hn)
			}
		}
		return n, nil
	case types.KindLogTransaction:
		n, _, err := client.LogTransaction(ctx, *item.Tx)
		return n, err
	case types.KindUpdateBlockMetadata:
		n, _, err := client.UpdateBlockMetadata(ctx, *item.Block)
		return n, err
	default:
		return 0, nil
	}
}
