package processor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonesrussell/siteaudit/internal/logger"
)

// Dequeuer pulls queued job ids from the store.
type Dequeuer interface {
	Dequeue(ctx context.Context, timeout time.Duration) (string, error)
}

// PoolState represents the current state of the pool.
type PoolState int32

const (
	// PoolStateStopped means the pool is not running.
	PoolStateStopped PoolState = iota

	// PoolStateRunning means the pool is actively processing jobs.
	PoolStateRunning

	// PoolStateDraining means the pool is shutting down gracefully.
	PoolStateDraining
)

// String returns the string representation of a pool state.
func (s PoolState) String() string {
	switch s {
	case PoolStateStopped:
		return "stopped"
	case PoolStateRunning:
		return "running"
	case PoolStateDraining:
		return "draining"
	default:
		return "unknown"
	}
}

// dequeuePollTimeout bounds each blocking dequeue so workers notice
// shutdown promptly.
const dequeuePollTimeout = 2 * time.Second

// Pool runs up to MaxConcurrency jobs at once. Each job occupies one
// worker; jobs beyond the ceiling stay queued in the store until a worker
// frees up. This is the service's admission control.
type Pool struct {
	size      int
	store     Dequeuer
	processor *Processor
	logger    logger.Interface
	state     atomic.Int32
	wg        sync.WaitGroup
	cancel    context.CancelFunc
}

// NewPool creates a worker pool of the given size.
func NewPool(size int, store Dequeuer, proc *Processor, log logger.Interface) (*Pool, error) {
	if size <= 0 {
		return nil, errors.New("pool size must be positive")
	}
	if proc == nil {
		return nil, errors.New("processor cannot be nil")
	}

	p := &Pool{
		size:      size,
		store:     store,
		processor: proc,
		logger:    log.WithComponent("pool"),
	}
	p.state.Store(int32(PoolStateStopped))

	return p, nil
}

// Start launches the workers.
func (p *Pool) Start(ctx context.Context) error {
	if !p.state.CompareAndSwap(int32(PoolStateStopped), int32(PoolStateRunning)) {
		return errors.New("pool is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.worker(runCtx, i)
	}

	p.logger.Info("worker pool started", "size", p.size)
	return nil
}

// Stop drains the pool, waiting for in-flight jobs until ctx expires.
func (p *Pool) Stop(ctx context.Context) error {
	if !p.state.CompareAndSwap(int32(PoolStateRunning), int32(PoolStateDraining)) {
		return errors.New("pool is not running")
	}

	p.logger.Info("worker pool draining")
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.state.Store(int32(PoolStateStopped))
		p.logger.Info("worker pool stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the pool's current state.
func (p *Pool) State() PoolState {
	return PoolState(p.state.Load())
}

// worker pulls job ids and processes them until the pool shuts down.
func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	log := p.logger.With("worker", id)
	log.Debug("worker started")

	for {
		if ctx.Err() != nil {
			log.Debug("worker stopping")
			return
		}

		jobID, err := p.store.Dequeue(ctx, dequeuePollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}

			log.Error("dequeue failed", "error", err)
			time.Sleep(dequeuePollTimeout)
			continue
		}

		if jobID == "" {
			continue
		}

		p.processor.Process(ctx, jobID)
	}
}
