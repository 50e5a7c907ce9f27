// ============================================================================
// Ballast Gate Pipeline - stage solve pool
// ============================================================================
//
// Package: internal/pipeline
// File: pool.go
// Purpose: Run independent stage solves on a fixed set of worker goroutines.
//
// Stages of an operation are solved independently (each against its own
// sounding snapshot), so they parallelize trivially. The pool keeps a fixed
// number of workers draining a shared task channel and reporting onto a
// shared result channel; the runner correlates results back to stages by
// task index.
//
// Shutdown: Stop closes stopCh first so a concurrent Submit fails with
// ErrPoolClosed instead of sending on the closed task channel, then closes
// taskCh to end the worker loops and waits for them to drain.
//
// ============================================================================

package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/marineops/ballastgate/internal/solver"
	"github.com/marineops/ballastgate/pkg/types"
)

var (
	// ErrPoolClosed is returned by Submit and ReceiveResult after Stop.
	ErrPoolClosed = errors.New("pipeline: solve pool is closed")
	// ErrPoolNotStarted is returned by Submit before Start.
	ErrPoolNotStarted = errors.New("pipeline: solve pool not started")
)

// Task is one stage solve queued on the pool. Index identifies the stage in
// the runner's input order.
type Task struct {
	Index   int
	Request solver.Request
}

// Result is the outcome of one Task.
type Result struct {
	Index    int
	Plan     *types.BallastPlan
	Err      error
	Duration time.Duration
}

// Pool distributes stage solves across worker goroutines.
type Pool struct {
	solver   *solver.Solver
	taskCh   chan Task
	resultCh chan Result
	stopCh   chan struct{}
	wg       sync.WaitGroup
	workers  int
	started  bool
	stopped  bool
	mu       sync.Mutex
}

// NewPool creates a pool around a shared solver. The buffer size bounds both
// channels; the runner sizes it to the stage count so submission never
// blocks on a busy pool.
func NewPool(s *solver.Solver, bufferSize int) *Pool {
	return &Pool{
		solver:   s,
		taskCh:   make(chan Task, bufferSize),
		resultCh: make(chan Result, bufferSize),
		stopCh:   make(chan struct{}),
	}
}

// Start launches workerCount workers. The context is shared by every solve
// the pool runs; cancelling it fails the remaining tasks.
func (p *Pool) Start(ctx context.Context, workerCount int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return errors.New("pipeline: solve pool already started")
	}
	if workerCount < 1 {
		workerCount = 1
	}

	for i := 0; i < workerCount; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.run(ctx)
		}()
	}

	p.workers = workerCount
	p.started = true
	return nil
}

// run is the worker loop: drain tasks, solve, report.
func (p *Pool) run(ctx context.Context) {
	for task := range p.taskCh {
		start := time.Now()
		plan, err := p.solver.Solve(ctx, task.Request)
		p.resultCh <- Result{
			Index:    task.Index,
			Plan:     plan,
			Err:      err,
			Duration: time.Since(start),
		}
	}
}

// Submit queues one stage solve.
func (p *Pool) Submit(task Task) error {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return ErrPoolNotStarted
	}
	if p.stopped {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	taskCh := p.taskCh
	stopCh := p.stopCh
	p.mu.Unlock()

	select {
	case taskCh <- task:
		return nil
	case <-stopCh:
		return ErrPoolClosed
	}
}

// ReceiveResult blocks until a worker reports a result or the pool stops.
func (p *Pool) ReceiveResult() (Result, error) {
	select {
	case res, ok := <-p.resultCh:
		if !ok {
			return Result{}, ErrPoolClosed
		}
		return res, nil
	case <-p.stopCh:
		return Result{}, ErrPoolClosed
	}
}

// Stop shuts the pool down: no new tasks are accepted, queued tasks are
// finished, and all workers have exited when Stop returns.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()

	close(p.stopCh)
	close(p.taskCh)
	p.wg.Wait()
	close(p.resultCh)
}

// WorkerCount returns the number of running workers.
func (p *Pool) WorkerCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.workers
}
