package bridge

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"
)

// ErrPoolClosed is returned by Submit after Close.
var ErrPoolClosed = errors.New("worker pool is closed")

// Job is a unit of work for the pool. OnPanic, when set, receives a recovered panic and
// the stack captured at the recovery point.
type Job struct {
	Name    string
	Run     func()
	OnPanic func(recovered interface{}, stack []byte)
}

// Pool runs jobs on a fixed set of worker goroutines fed by a bounded queue.
type Pool struct {
	jobs   chan Job
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewPool starts workers goroutines draining a queue of the given capacity.
func NewPool(workers, queue int, logger *zap.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queue < 0 {
		queue = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Pool{
		jobs:   make(chan Job, queue),
		logger: logger.Named("pool"),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker(i)
	}
	return p
}

// Submit queues job, blocking while the queue is full.
func (p *Pool) Submit(ctx context.Context, job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.jobs <- job:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("submit %s: %w", job.Name, ctx.Err())
	}
}

// Close stops accepting jobs and waits for queued ones to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Pool) worker(n int) {
	defer p.wg.Done()
	for job := range p.jobs {
		p.run(n, job)
	}
}

func (p *Pool) run(n int, job Job) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			p.logger.Error("job panicked",
				zap.String("job", job.Name),
				zap.Int("worker", n),
				zap.Any("panic", r),
				zap.ByteString("stack", stack),
			)
			if job.OnPanic != nil {
				job.OnPanic(r, stack)
			}
		}
	}()
	job.Run()
}
