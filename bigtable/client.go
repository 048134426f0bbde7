// Package bigtable implements the buffered client: the per-worker
// batching and buffering policy for account writes, plus the single-row
// write paths for slot, block, and transaction records.
package bigtable

import (
	"context"
	"sync"

	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/bigtable/store"
	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/bigtable/wire"
	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/history"
	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/types"
)

const (
	tableAccount        = "account"
	tableAccountHistory = "account_history"
	tableSlot           = "slot"
	tableBlock          = "block"
	tableTx             = "tx"
)

// Config controls the buffered client's batching policy.
type Config struct {
	// BatchSize is the account-batch threshold.
	BatchSize int
	// StoreAccountHistoricalData gates the history-batcher path entirely:
	// when false the batcher is never touched and only `account` is
	// written.
	StoreAccountHistoricalData bool
	// OnAccountBatchFlush, if set, is called synchronously with the row
	// count every time the pending-account buffer actually drains (whether
	// via threshold or an explicit FlushPendingAccounts), letting callers
	// observe batch-size metrics without the buffered client needing to
	// know about package metrics.
	OnAccountBatchFlush func(rowCount int)
}

// Client is the buffered remote-store client. A Client is owned
// exclusively by one worker: it is not safe for concurrent use across
// workers. Its mutex guards only the pending-account buffer; calls to the
// remote store are made outside the lock. Every write operation returns
// (written bytes, raw encoded bytes) or a typed error.
type Client struct {
	cfg     Config
	remote  store.RemoteStore
	batcher *history.Batcher

	mu      sync.Mutex
	pending []types.AccountUpdate
}

// New constructs a buffered Client over remote. The history batcher is
// always allocated but only consulted when cfg.StoreAccountHistoricalData
// is true.
func New(remote store.RemoteStore, cfg Config) *Client {
	return &Client{cfg: cfg, remote: remote, batcher: history.New()}
}

// UpdateAccount appends acc to the pending buffer, and to the history
// batcher when historical data is enabled. When the pending buffer
// reaches BatchSize, it is drained as one multi-row write to `account`.
// Returns (written bytes, raw encoded bytes) for this call, (0, 0) if
// merely buffered.
func (c *Client) UpdateAccount(ctx context.Context, acc types.AccountUpdate) (int, int, error) {
	if c.cfg.StoreAccountHistoricalData {
		c.batcher.Add(acc)
	}

	c.mu.Lock()
	c.pending = append(c.pending, acc)
	shouldDrain := c.cfg.BatchSize > 0 && len(c.pending) >= c.cfg.BatchSize
	c.mu.Unlock()

	if !shouldDrain {
		return 0, 0, nil
	}
	return c.FlushPendingAccounts(ctx)
}

// FlushPendingAccounts drains any non-empty pending buffer
// unconditionally; it runs at end-of-startup and on shutdown.
func (c *Client) FlushPendingAccounts(ctx context.Context) (int, int, error) {
	c.mu.Lock()
	batch := c.pending
	c.pending = nil
	c.mu.Unlock()

	if len(batch) == 0 {
		return 0, 0, nil
	}

	if c.cfg.OnAccountBatchFlush != nil {
		c.cfg.OnAccountBatchFlush(len(batch))
	}

	raw := 0
	rows := make([]store.Row, len(batch))
	for i, acc := range batch {
		rows[i] = store.Row{Key: AccountRowKey(acc.Pubkey), Value: wire.EncodeAccount(acc)}
		raw += len(rows[i].Value)
	}
	written, err := c.remote.PutCellsWithRetry(ctx, tableAccount, rows, false)
	return written, raw, err
}

// UpdateSlotParent records the parent edge for slot in the history
// batcher. It is a no-op when historical data is disabled.
func (c *Client) UpdateSlotParent(slot, parent uint64) error {
	if !c.cfg.StoreAccountHistoricalData {
		return nil
	}
	return c.batcher.UpdateSlotParent(slot, parent)
}

// FlushHistory runs the fork-aware flush against rootedSlot. Each
// committed (slot, pubkey) run becomes one row in
// account_history: the row key is formed from the run's first element,
// and the cell value holds that element in full followed by the rest of
// the run as differentials. It is a no-op when historical data is
// disabled.
func (c *Client) FlushHistory(ctx context.Context, rootedSlot uint64) (int, int, error) {
	if !c.cfg.StoreAccountHistoricalData {
		return 0, 0, nil
	}

	raw := 0
	var rows []store.Row
	err := c.batcher.Flush(rootedSlot, func(run []types.AccountUpdate) error {
		row := rowForRun(run)
		raw += len(row.Value)
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	if len(rows) == 0 {
		return 0, 0, nil
	}
	written, err := c.remote.PutCellsWithRetry(ctx, tableAccountHistory, rows, false)
	return written, raw, err
}

// rowForRun encodes one (slot, pubkey) run with differential encoding:
// the first element full, subsequent elements as diffs against the
// previous element in the run, wrapped into a single batch message keyed
// by the first element.
func rowForRun(run []types.AccountUpdate) store.Row {
	prev := run[0]
	entries := make([][]byte, 1, len(run))
	entries[0] = wire.EncodeAccount(prev)
	for _, next := range run[1:] {
		entries = append(entries, wire.EncodeAccountDiff(wire.DiffAccount(prev, next)))
		prev = next
	}
	return store.Row{
		Key:   AccountHistoryRowKey(run[0].Pubkey, run[0].Slot, run[0].WriteVersion),
		Value: wire.EncodeHistoryBatch(entries),
	}
}

// UpdateSlot issues a single-row write to table `slot`.
func (c *Client) UpdateSlot(ctx context.Context, update types.SlotUpdate) (int, int, error) {
	row := store.Row{Key: SlotRowKey(update.Slot), Value: wire.EncodeSlot(update)}
	written, err := c.remote.PutCellsWithRetry(ctx, tableSlot, []store.Row{row}, true)
	return written, len(row.Value), err
}

// UpdateBlockMetadata issues a single-row write to table `block`.
func (c *Client) UpdateBlockMetadata(ctx context.Context, block types.BlockMetadata) (int, int, error) {
	row := store.Row{Key: BlockRowKey(block.Slot), Value: wire.EncodeBlock(block)}
	written, err := c.remote.PutCellsWithRetry(ctx, tableBlock, []store.Row{row}, false)
	return written, len(row.Value), err
}

// LogTransaction issues a single-row write to table `tx`.
func (c *Client) LogTransaction(ctx context.Context, tx types.TransactionRecord) (int, int, error) {
	row := store.Row{Key: TransactionRowKey(tx.Signature), Value: wire.EncodeTransaction(tx)}
	written, err := c.remote.PutCellsWithRetry(ctx, tableTx, []store.Row{row}, false)
	return written, len(row.Value), err
}

// Close releases the underlying remote connection.
func (c *Client) Close() error {
	return c.remote.Close()
}
