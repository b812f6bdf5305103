package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/w-h-a/reasoningbank/extractor"
)

var ErrQueueFull = errors.New("extraction queue is full")

type job struct {
	taskId string
	req    extractor.Request
}

type PoolStats struct {
	Workers   int   `json:"workers"`
	Capacity  int   `json:"capacity"`
	Queued    int   `json:"queued"`
	Active    int   `json:"active"`
	Enqueued  int64 `json:"enqueued"`
	Processed int64 `json:"processed"`
	Rejected  int64 `json:"rejected"`
}

// pool runs extraction jobs on a fixed set of workers. Submission never
// blocks: a full queue rejects the job.
type pool struct {
	queue   chan job
	workers int
	handle  func(context.Context, job)
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	mtx     sync.Mutex
	closed  bool
	stats   PoolStats
}

func (p *pool) enqueue(j job) error {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	if p.closed {
		p.stats.Rejected++
		return fmt.Errorf("%w: shutting down", ErrQueueFull)
	}

	select {
	case p.queue <- j:
		p.stats.Enqueued++
		return nil
	default:
		p.stats.Rejected++
		return ErrQueueFull
	}
}

func (p *pool) worker() {
	defer p.wg.Done()

	for j := range p.queue {
		p.mtx.Lock()
		p.stats.Active++
		p.mtx.Unlock()

		p.handle(p.ctx, j)

		p.mtx.Lock()
		p.stats.Active--
		p.stats.Processed++
		p.mtx.Unlock()
	}
}

func (p *pool) Stats() PoolStats {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	stats := p.stats
	stats.Queued = len(p.queue)
	return stats
}

// stop refuses new jobs and waits for queued ones to finish. When ctx
// expires first, in-flight capability calls are cancelled so the remaining
// tasks fail fast instead of being abandoned.
func (p *pool) stop(ctx context.Context) error {
	p.mtx.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	pending := len(p.queue)
	p.mtx.Unlock()

	slog.InfoContext(ctx, "stopping extraction workers", "pending", pending)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		<-done
		return ctx.Err()
	}
}

func newPool(workers, queueSize int, handle func(context.Context, job)) *pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	ctx, cancel := context.WithCancel(context.Background())

	p := &pool{
		queue:   make(chan job, queueSize),
		workers: workers,
		handle:  handle,
		ctx:     ctx,
		cancel:  cancel,
		stats: PoolStats{
			Workers:  workers,
			Capacity: queueSize,
		},
	}

	for range workers {
		p.wg.Add(1)
		go p.worker()
	}

	return p
}
