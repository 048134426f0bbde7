package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/abort"
	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/bigtable"
	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/bigtable/store"
	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/lifecycle"
	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/queue"
	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/types"
)

// TestMain verifies no worker goroutine survives past its pool's Wait():
// a graceful shutdown must leave no goroutine live.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

func mkAccItem(b byte, slot uint64) types.WorkItem {
	var pk [32]byte
	pk[0] = b
	return types.NewAccountItem(types.AccountUpdate{Pubkey: pk, Slot: slot, ObservedAt: time.Unix(1, 0)})
}

// TestPool_EndOfStartupBarrier: 3 workers sharing 6 pending account
// updates must each acknowledge their startup flush, and all 6 rows must be
// written, before the end-of-startup barrier (AwaitStartupBarrier) returns.
func TestPool_EndOfStartupBarrier(t *testing.T) {
	fake := store.NewFake()
	q := queue.New(0)
	coord := lifecycle.New()

	pool := New(q, coord, Options{Count: 3}, func() (*bigtable.Client, error) {
		return bigtable.New(fake, bigtable.Config{BatchSize: 100}), nil
	})
	pool.Start(context.Background())

	for w := 0; w < 3; w++ {
		for i := 0; i < 2; i++ {
			require.NoError(t, q.Offer(mkAccItem(byte(w*2+i+1), 10)))
		}
	}

	coord.AwaitStartupBarrier(func() bool { return q.Len() == 0 })

	assert.EqualValues(t, 3, coord.StartupAckedWorkers())

	calls := fake.Calls()
	totalRows := 0
	for _, c := range calls {
		totalRows += len(c.Rows)
	}
	assert.Equal(t, 6, totalRows)

	coord.RequestExit()
	require.NoError(t, pool.Wait())
}

// TestPool_GracefulShutdown: after the exit flag is raised, buffered work
// is flushed, Wait returns, and no further processing occurs.
func TestPool_GracefulShutdown(t *testing.T) {
	fake := store.NewFake()
	q := queue.New(0)
	coord := lifecycle.New()

	pool := New(q, coord, Options{Count: 2}, func() (*bigtable.Client, error) {
		return bigtable.New(fake, bigtable.Config{BatchSize: 100}), nil
	})
	pool.Start(context.Background())

	require.NoError(t, q.Offer(mkAccItem(1, 10)))

	time.Sleep(50 * time.Millisecond)
	coord.RequestExit()
	require.NoError(t, pool.Wait())

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Len(t, calls[0].Rows, 1)
}

// hookTrap substitutes the abort hook for a test and reports whether it
// fired.
func hookTrap(t *testing.T) <-chan struct{} {
	t.Helper()
	orig := abort.Hook
	t.Cleanup(func() { abort.Hook = orig })
	fired := make(chan struct{}, 1)
	abort.Hook = func(reason string, err error) {
		select {
		case fired <- struct{}{}:
		default:
		}
	}
	return fired
}

func mkSlotItem(slot, parent uint64) types.WorkItem {
	return types.NewSlotItem(types.SlotUpdate{
		Slot:       slot,
		Parent:     parent,
		HasParent:  true,
		Status:     types.SlotProcessed,
		ObservedAt: time.Unix(1, 0),
	})
}

// TestPool_AbortsOnConflictingSlotParent verifies a conflicting slot-parent
// edge invokes the abort hook regardless of PanicOnDBErrors: it is an
// invariant violation, not an RPC failure.
func TestPool_AbortsOnConflictingSlotParent(t *testing.T) {
	fired := hookTrap(t)

	fake := store.NewFake()
	q := queue.New(0)
	coord := lifecycle.New()
	pool := New(q, coord, Options{Count: 1}, func() (*bigtable.Client, error) {
		return bigtable.New(fake, bigtable.Config{BatchSize: 100, StoreAccountHistoricalData: true}), nil
	})
	pool.Start(context.Background())

	require.NoError(t, q.Offer(mkSlotItem(12, 10)))
	require.NoError(t, q.Offer(mkSlotItem(12, 11)))

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("conflicting slot parent did not invoke the abort hook")
	}

	coord.RequestExit()
	require.NoError(t, pool.Wait())
}

// TestPool_PanicOnDBErrorsInvokesAbortHook verifies a failed remote write
// triggers the abort hook when the strict error policy is configured.
func TestPool_PanicOnDBErrorsInvokesAbortHook(t *testing.T) {
	fired := hookTrap(t)

	fake := store.NewFake()
	fake.FailNext = 1
	q := queue.New(0)
	coord := lifecycle.New()
	pool := New(q, coord, Options{Count: 1, PanicOnDBErrors: true}, func() (*bigtable.Client, error) {
		return bigtable.New(fake, bigtable.Config{BatchSize: 1}), nil
	})
	pool.Start(context.Background())

	require.NoError(t, q.Offer(mkAccItem(1, 10)))

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("failed write with panic_on_db_errors did not invoke the abort hook")
	}

	coord.RequestExit()
	require.NoError(t, pool.Wait())
}
