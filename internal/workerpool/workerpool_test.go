package workerpool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_RunsSubmittedTasks(t *testing.T) {
	t.Parallel()

	var completed int32
	var wg sync.WaitGroup
	wg.Add(5)

	p := New(Config{Workers: 2, QueueFactor: 2}, nil)
	p.Start(context.Background())
	defer p.Shutdown(time.Second)

	for i := 0; i < 5; i++ {
		ok := p.Submit(Task{
			DepositID: "d",
			Run: func(ctx context.Context) {
				atomic.AddInt32(&completed, 1)
				wg.Done()
			},
		})
		require.True(t, ok)
	}

	waitOrTimeout(t, &wg, 2*time.Second)
	assert.EqualValues(t, 5, atomic.LoadInt32(&completed))
}

func TestPool_RejectsWhenQueueFull(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	var rejected []string
	var mu sync.Mutex

	p := New(Config{Workers: 1, QueueFactor: 1}, func(depositID string) {
		mu.Lock()
		rejected = append(rejected, depositID)
		mu.Unlock()
	})
	p.Start(context.Background())
	defer func() {
		close(block)
		p.Shutdown(time.Second)
	}()

	// First task occupies the single worker; it blocks until we close(block).
	started := make(chan struct{})
	require.True(t, p.Submit(Task{DepositID: "running", Run: func(ctx context.Context) { close(started); <-block }}))
	<-started

	// Queue depth is workers*queueFactor = 1, so this one fills the queue.
	require.True(t, p.Submit(Task{DepositID: "queued", Run: func(ctx context.Context) {}}))

	// This one should be rejected: worker busy, queue full.
	rejectedTask := p.Submit(Task{DepositID: "overflow", Run: func(ctx context.Context) {}})
	assert.False(t, rejectedTask)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"overflow"}, rejected)
}

func TestPool_ShutdownDrainsInFlightWithinGrace(t *testing.T) {
	t.Parallel()

	var ran int32

	p := New(Config{Workers: 1, QueueFactor: 1}, nil)
	p.Start(context.Background())

	started := make(chan struct{})
	p.Submit(Task{DepositID: "d", Run: func(ctx context.Context) {
		close(started)
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&ran, 1)
	}})

	<-started
	p.Shutdown(time.Second)

	assert.EqualValues(t, 1, atomic.LoadInt32(&ran))
}

func TestPool_TaskPanicDoesNotCrashWorker(t *testing.T) {
	t.Parallel()

	var wg sync.WaitGroup
	wg.Add(1)

	p := New(Config{Workers: 1, QueueFactor: 1}, nil)
	p.Start(context.Background())
	defer p.Shutdown(time.Second)

	p.Submit(Task{DepositID: "panics", Run: func(ctx context.Context) {
		panic("boom")
	}})

	p.Submit(Task{DepositID: "after", Run: func(ctx context.Context) {
		wg.Done()
	}})

	waitOrTimeout(t, &wg, time.Second)
}

func waitOrTimeout(t *testing.T, wg *sync.WaitGroup, timeout time.Duration) {
	t.Helper()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatal("timed out waiting for tasks to complete")
	}
}
