package lifecycle

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCoordinator_StartupBarrierWaitsForAllAcks(t *testing.T) {
	c := New()
	const workers = 3
	for i := 0; i < workers; i++ {
		c.WorkerInitialized()
	}

	queueDrainedAt := time.Now().Add(50 * time.Millisecond)
	var acked int32
	var mu sync.Mutex
	var ackedAtSignal []bool

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.AwaitStartupBarrier(func() bool { return time.Now().After(queueDrainedAt) })
	}()

	// Workers "flush" only after they observe the startup signal.
	for i := 0; i < workers; i++ {
		go func() {
			for !c.StartupSignaled() {
				time.Sleep(time.Millisecond)
			}
			time.Sleep(10 * time.Millisecond) // simulate flush latency
			mu.Lock()
			acked++
			ackedAtSignal = append(ackedAtSignal, c.StartupSignaled())
			mu.Unlock()
			c.AckStartupFlush()
		}()
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("barrier did not return")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.EqualValues(t, workers, acked)
	for _, v := range ackedAtSignal {
		assert.True(t, v)
	}
	assert.EqualValues(t, workers, c.StartupAckedWorkers())
}

func TestCoordinator_ExitFlag(t *testing.T) {
	c := New()
	assert.False(t, c.ExitRequested())
	c.RequestExit()
	assert.True(t, c.ExitRequested())
}
