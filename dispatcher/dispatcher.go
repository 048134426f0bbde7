// Package dispatcher implements the four host-facing ingest operations
// on_account, on_slot, on_transaction, and on_block, plus the
// end-of-startup barrier and graceful join. It is the only component
// called on the validator's single notification thread; every operation
// here must be cheap except for the intentional backpressure block on a
// full queue.
package dispatcher

import (
	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/lifecycle"
	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/metrics"
	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/queue"
	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/selector"
	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/types"
	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/worker"
)

// Options configures the dispatcher's admission policy.
type Options struct {
	// SkipDuringStartup, when true, makes every on_* call a no-op until
	// notify_end_of_startup's barrier completes: the operator may choose
	// to discard the host's initial snapshot replay and stream only live
	// data.
	SkipDuringStartup bool

	Accounts     selector.AccountsSelector
	Transactions selector.TransactionSelector

	// Metrics receives per-kind enqueue/drop counts. Nil falls back to
	// metrics.Noop.
	Metrics metrics.Sink
}

func (o Options) sink() metrics.Sink {
	if o.Metrics == nil {
		return metrics.Noop{}
	}
	return o.Metrics
}

// Dispatcher is the entry point the plugin shim's host callbacks call
// into.
type Dispatcher struct {
	q     *queue.Queue
	coord *lifecycle.Coordinator
	pool  *worker.Pool
	opts  Options
}

// New constructs a Dispatcher over an already-started worker Pool.
func New(q *queue.Queue, coord *lifecycle.Coordinator, pool *worker.Pool, opts Options) *Dispatcher {
	return &Dispatcher{q: q, coord: coord, pool: pool, opts: opts}
}

func (d *Dispatcher) skip() bool {
	return d.opts.SkipDuringStartup && !d.coord.StartupSignaled()
}

// OnAccount handles a single account mutation notification.
func (d *Dispatcher) OnAccount(acc types.AccountUpdate) error {
	kind := types.KindUpdateAccount.String()
	sink := d.opts.sink()
	if d.skip() {
		sink.IncDropped(kind, "startup_skip")
		return nil
	}
	if !d.opts.Accounts.IsEmpty() && !d.opts.Accounts.IsSelected(acc.Pubkey, acc.Owner) {
		sink.IncDropped(kind, "selector")
		return nil
	}
	return d.offer(types.NewAccountItem(acc), kind, sink)
}

// OnSlot handles a slot-status transition notification.
func (d *Dispatcher) OnSlot(update types.SlotUpdate) error {
	kind := types.KindUpdateSlot.String()
	sink := d.opts.sink()
	if d.skip() {
		sink.IncDropped(kind, "startup_skip")
		return nil
	}
	return d.offer(types.NewSlotItem(update), kind, sink)
}

// OnTransaction handles a committed transaction notification.
func (d *Dispatcher) OnTransaction(tx types.TransactionRecord, accountKeys [][32]byte) error {
	kind := types.KindLogTransaction.String()
	sink := d.opts.sink()
	if d.skip() {
		sink.IncDropped(kind, "startup_skip")
		return nil
	}
	if !d.opts.Transactions.IsEmpty() && !d.opts.Transactions.IsSelected(tx.IsVote, accountKeys) {
		sink.IncDropped(kind, "selector")
		return nil
	}
	return d.offer(types.NewTransactionItem(tx), kind, sink)
}

// OnBlock handles a block-metadata notification.
func (d *Dispatcher) OnBlock(block types.BlockMetadata) error {
	kind := types.KindUpdateBlockMetadata.String()
	sink := d.opts.sink()
	if d.skip() {
		sink.IncDropped(kind, "startup_skip")
		return nil
	}
	return d.offer(types.NewBlockItem(block), kind, sink)
}

// offer enqueues item and records the outcome with sink, distinguishing a
// successful enqueue from a drop caused by the queue already being
// closed.
func (d *Dispatcher) offer(item types.WorkItem, kind string, sink metrics.Sink) error {
	if err := d.q.Offer(item); err != nil {
		sink.IncDropped(kind, "queue_closed")
		return err
	}
	sink.IncEnqueued(kind)
	return nil
}

// NotifyEndOfStartup blocks until the queue has drained and every worker
// has acknowledged its startup flush.
func (d *Dispatcher) NotifyEndOfStartup() {
	d.coord.AwaitStartupBarrier(func() bool { return d.q.Len() == 0 })
}

// Join requests graceful shutdown and waits for every worker to return;
// the host's on_unload calls it. The queue is closed first, so any
// enqueue racing the shutdown fails with queue.ErrClosed instead of
// landing work no worker will drain; items already buffered are still
// drained by the workers before they observe the exit flag.
func (d *Dispatcher) Join() error {
	d.q.Close()
	d.coord.RequestExit()
	return d.pool.Wait()
}
