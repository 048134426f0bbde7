package dispatcher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/btcsuite/btcutil/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/bigtable"
	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/bigtable/store"
	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/lifecycle"
	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/metrics"
	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/queue"
	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/selector"
	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/types"
	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/worker"
)

// recordingSink is a metrics.Sink that just remembers what it was told,
// for asserting the dispatcher actually drives the Sink it's given.
type recordingSink struct {
	metrics.Noop
	mu       sync.Mutex
	enqueued []string
	dropped  []string
}

func (s *recordingSink) IncEnqueued(kind string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enqueued = append(s.enqueued, kind)
}

func (s *recordingSink) IncDropped(kind, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropped = append(s.dropped, kind+"/"+reason)
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

// slowStore adds artificial RPC latency to every write, letting the test
// observe backpressure.
type slowStore struct {
	*store.Fake
	latency time.Duration
}

func (s *slowStore) PutCellsWithRetry(ctx context.Context, table string, rows []store.Row, useTS bool) (int, error) {
	time.Sleep(s.latency)
	return s.Fake.PutCellsWithRetry(ctx, table, rows, useTS)
}

func mkAcc(b byte, slot uint64) types.AccountUpdate {
	var pk [32]byte
	pk[0] = b
	return types.AccountUpdate{Pubkey: pk, Slot: slot, ObservedAt: time.Unix(1, 0)}
}

// TestDispatcher_Backpressure: with queue capacity 4, one worker, slow
// RPCs, and batch size 1, an enqueue into the full queue must block until
// the in-flight RPC completes and the worker takes the next item.
func TestDispatcher_Backpressure(t *testing.T) {
	backing := &slowStore{Fake: store.NewFake(), latency: 300 * time.Millisecond}
	q := queue.New(4)
	coord := lifecycle.New()
	pool := worker.New(q, coord, worker.Options{Count: 1}, func() (*bigtable.Client, error) {
		return bigtable.New(backing, bigtable.Config{BatchSize: 1}), nil
	})
	pool.Start(context.Background())
	d := New(q, coord, pool, Options{})

	// Let the single worker pick up the first item and enter its slow RPC,
	// then fill the queue to capacity behind it.
	require.NoError(t, d.OnAccount(mkAcc(1, 10)))
	time.Sleep(50 * time.Millisecond)
	for i := 0; i < 4; i++ {
		require.NoError(t, d.OnAccount(mkAcc(byte(i+2), 10)))
	}

	done := make(chan struct{})
	start := time.Now()
	go func() {
		_ = d.OnAccount(mkAcc(6, 10))
		close(done)
	}()

	select {
	case <-done:
		t.Fatalf("enqueue into a full queue returned after %v; expected it to block until the in-flight RPC completed", time.Since(start))
	case <-time.After(100 * time.Millisecond):
	}

	<-done
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)

	coord.RequestExit()
	require.NoError(t, pool.Wait())
}

// TestDispatcher_SkipDuringStartup verifies the skip-on-startup admission
// policy is a true no-op (no enqueue at all) until the barrier completes.
func TestDispatcher_SkipDuringStartup(t *testing.T) {
	fake := store.NewFake()
	q := queue.New(10)
	coord := lifecycle.New()
	pool := worker.New(q, coord, worker.Options{Count: 1}, func() (*bigtable.Client, error) {
		return bigtable.New(fake, bigtable.Config{BatchSize: 100}), nil
	})
	pool.Start(context.Background())
	d := New(q, coord, pool, Options{SkipDuringStartup: true})

	require.NoError(t, d.OnAccount(mkAcc(1, 10)))
	assert.Equal(t, 0, q.Len())

	coord.SignalStartupDone()
	require.NoError(t, d.OnAccount(mkAcc(2, 10)))
	assert.Equal(t, 1, q.Len())

	coord.RequestExit()
	require.NoError(t, pool.Wait())
}

// TestDispatcher_AccountsSelectorFilters verifies an explicit
// AccountsSelector drops non-matching pubkeys before they ever reach the
// queue.
func TestDispatcher_AccountsSelectorFilters(t *testing.T) {
	fake := store.NewFake()
	q := queue.New(10)
	coord := lifecycle.New()
	pool := worker.New(q, coord, worker.Options{Count: 1}, func() (*bigtable.Client, error) {
		return bigtable.New(fake, bigtable.Config{BatchSize: 100}), nil
	})
	pool.Start(context.Background())

	wanted := mkAcc(1, 10)
	d := New(q, coord, pool, Options{Accounts: selector.NewAccountsSelector([]string{base58.Encode(wanted.Pubkey[:])}, nil)})

	require.NoError(t, d.OnAccount(wanted))
	require.NoError(t, d.OnAccount(mkAcc(2, 10)))
	assert.Equal(t, 1, q.Len())

	coord.RequestExit()
	require.NoError(t, pool.Wait())
}

// TestDispatcher_MetricsRecordsEnqueueAndDrop verifies the dispatcher
// drives the Sink it's given: a successful enqueue increments IncEnqueued,
// and a selector rejection increments IncDropped instead.
func TestDispatcher_MetricsRecordsEnqueueAndDrop(t *testing.T) {
	fake := store.NewFake()
	q := queue.New(10)
	coord := lifecycle.New()
	pool := worker.New(q, coord, worker.Options{Count: 1}, func() (*bigtable.Client, error) {
		return bigtable.New(fake, bigtable.Config{BatchSize: 100}), nil
	})
	pool.Start(context.Background())

	wanted := mkAcc(1, 10)
	sink := &recordingSink{}
	d := New(q, coord, pool, Options{
		Accounts: selector.NewAccountsSelector([]string{base58.Encode(wanted.Pubkey[:])}, nil),
		Metrics:  sink,
	})

	require.NoError(t, d.OnAccount(wanted))
	require.NoError(t, d.OnAccount(mkAcc(2, 10)))

	sink.mu.Lock()
	assert.Equal(t, []string{"update_account"}, sink.enqueued)
	assert.Equal(t, []string{"update_account/selector"}, sink.dropped)
	sink.mu.Unlock()

	coord.RequestExit()
	require.NoError(t, pool.Wait())
}

// TestDispatcher_JoinIsIdempotentAndConcurrencySafe exercises Join from
// multiple goroutines and verifies the pipeline rejects enqueues once it
// has shut down.
func TestDispatcher_JoinIsIdempotentAndConcurrencySafe(t *testing.T) {
	fake := store.NewFake()
	q := queue.New(10)
	coord := lifecycle.New()
	pool := worker.New(q, coord, worker.Options{Count: 2}, func() (*bigtable.Client, error) {
		return bigtable.New(fake, bigtable.Config{BatchSize: 100}), nil
	})
	pool.Start(context.Background())
	d := New(q, coord, pool, Options{})

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = d.Join()
		}()
	}
	wg.Wait()

	// Once Join has returned, no further enqueue succeeds.
	err := d.OnAccount(mkAcc(1, 10))
	assert.ErrorIs(t, err, queue.ErrClosed)
}
