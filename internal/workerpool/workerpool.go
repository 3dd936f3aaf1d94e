// Package workerpool implements a bounded-concurrency
// executor with a bounded backing queue. A task rejected because the
// queue is full is reported to a failure handler instead of being
// silently dropped, so the caller can mark the underlying deposit failed
// for a later reconciliation pass.
package workerpool

import (
	"context"
	"sync"
	"time"

	"github.com/eclipse-pass/deposit-orchestrator/internal/mlog"
)

// Task is a unit of work submitted to the pool, identified for the
// failure handler's benefit.
type Task struct {
	DepositID string
	Run       func(ctx context.Context)
}

// RejectionHandler is invoked with the id of a task that could not be
// queued because the pool's backing queue was full.
type RejectionHandler func(depositID string)

// Pool runs submitted tasks on a fixed number of worker goroutines,
// backed by a bounded channel queue.
type Pool struct {
	queue     chan Task
	workers   int
	wg        sync.WaitGroup
	stopCh    chan struct{}
	stoppedCh chan struct{}

	mu      sync.Mutex
	started bool

	onReject RejectionHandler
}

// Config bounds a Pool's concurrency and queue depth.
type Config struct {
	// Workers is the maximum number of in-flight tasks.
	Workers int
	// QueueFactor sizes the backing queue as QueueFactor * Workers.
	QueueFactor int
}

// New builds a Pool. Rejected submissions (queue full) invoke onReject.
func New(cfg Config, onReject RejectionHandler) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	if cfg.QueueFactor <= 0 {
		cfg.QueueFactor = 2
	}

	return &Pool{
		queue:     make(chan Task, cfg.Workers*cfg.QueueFactor),
		workers:   cfg.Workers,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
		onReject:  onReject,
	}
}

// Start launches the pool's worker goroutines. ctx cancellation stops
// workers from picking up new tasks; in-flight tasks are expected to
// observe ctx themselves.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}

	go func() {
		p.wg.Wait()
		close(p.stoppedCh)
	}()
}

// Submit enqueues a task. It returns false, without blocking, if the
// queue is full; the caller's onReject handler has already been invoked
// in that case.
func (p *Pool) Submit(task Task) bool {
	select {
	case p.queue <- task:
		return true
	default:
		if p.onReject != nil {
			p.onReject(task.DepositID)
		}
		return false
	}
}

// Shutdown signals workers to stop accepting new work and waits up to
// grace for in-flight tasks to finish. Tasks still sitting in the queue
// when grace elapses are released without running; the caller is not
// notified of those individually since the pool owns no store reference
// to mark them.
func (p *Pool) Shutdown(grace time.Duration) {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.stoppedCh:
	case <-time.After(grace):
	}
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case task, ok := <-p.queue:
			if !ok {
				return
			}
			p.run(ctx, task)
		}
	}
}

func (p *Pool) run(ctx context.Context, task Task) {
	log := mlog.FromContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("workerpool: task for deposit %s panicked: %v", task.DepositID, r)
		}
	}()

	task.Run(ctx)
}
