// Copyright 2025 Ekjot Singh
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package index

import (
	"runtime"
	"sync"
	"time"

	"github.com/ekjotsingh/veloq/event"
	"github.com/ekjotsingh/veloq/internal/metrics"
	"github.com/ngaut/pools"
	"github.com/ngaut/sync2"
)

// buildTask is one unit of off-critical-path work: build an index over a
// fixed row slice, or run an arbitrary maintenance closure.
type buildTask struct {
	index SecondaryIndex
	rows  []event.Row
	fn    func() error
	done  chan error
}

// Future is the handle returned by the builder's submit calls; Wait blocks
// until the task completes and returns its error, if any.
type Future struct {
	done chan error
}

// Wait blocks for the task to finish.
func (f Future) Wait() error { return <-f.done }

// token is the unit ngaut/pools.ResourcePool hands out: workers hold one
// token for the duration of a task, giving the pool a bounded-concurrency
// role over builder goroutines rather than pooled connections.
type token struct{}

func (token) Close() {}

// Builder is the IndexBackgroundBuilder of spec §4.9: an off-critical-path
// worker pool that only ever mutates indexes not yet installed, so no
// external lock is needed until IndexManager installs the result.
type Builder struct {
	pool        *pools.ResourcePool
	active      sync2.AtomicInt32
	mx          *metrics.Registry
	tasks       chan buildTask
	wg          sync.WaitGroup
	shutdownNow chan struct{}
	once        sync.Once

	mu     sync.Mutex
	closed bool
}

// DefaultPoolSize returns max(1, cores/2), the default from spec §4.9.
func DefaultPoolSize() int {
	n := runtime.NumCPU() / 2
	if n < 1 {
		n = 1
	}
	return n
}

// NewBuilder starts a Builder with poolSize workers (DefaultPoolSize() if
// poolSize <= 0).
func NewBuilder(poolSize int, mx *metrics.Registry) *Builder {
	if poolSize <= 0 {
		poolSize = DefaultPoolSize()
	}
	b := &Builder{
		pool:        pools.NewResourcePool(func() (pools.Resource, error) { return token{}, nil }, poolSize, poolSize, time.Minute),
		mx:          mx,
		tasks:       make(chan buildTask, poolSize*4),
		shutdownNow: make(chan struct{}),
	}
	for i := 0; i < poolSize; i++ {
		b.wg.Add(1)
		go b.worker()
	}
	return b
}

func (b *Builder) worker() {
	defer b.wg.Done()
	for {
		// Checked on its own first: select picks at random among ready
		// cases, so a queued task could otherwise win over shutdownNow.
		select {
		case <-b.shutdownNow:
			return
		default:
		}
		select {
		case <-b.shutdownNow:
			return
		case task, ok := <-b.tasks:
			if !ok {
				return
			}
			b.run(task)
		}
	}
}

func (b *Builder) run(task buildTask) {
	res, err := b.pool.Get()
	if err != nil {
		task.done <- err
		return
	}
	defer b.pool.Put(res)

	b.active.Add(1)
	if b.mx != nil {
		b.mx.BuilderActiveTasks.Inc()
	}
	defer func() {
		b.active.Add(-1)
		if b.mx != nil {
			b.mx.BuilderActiveTasks.Dec()
		}
	}()

	var runErr error
	if task.index != nil {
		runErr = task.index.Build(task.rows)
	} else if task.fn != nil {
		runErr = task.fn()
	}
	if b.mx != nil {
		if runErr != nil {
			b.mx.BuilderFailed.Inc()
		} else {
			b.mx.BuilderCompleted.Inc()
		}
	}
	task.done <- runErr
}

// SubmitBuild enqueues a build of index over rows, returning a Future that
// resolves once Build returns. The index is safe to install only after
// this Future resolves without error.
func (b *Builder) SubmitBuild(idx SecondaryIndex, rows []event.Row) Future {
	done := make(chan error, 1)
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		done <- errShuttingDown
		return Future{done: done}
	}
	b.tasks <- buildTask{index: idx, rows: rows, done: done}
	b.mu.Unlock()
	return Future{done: done}
}

// SubmitBuilds enqueues a build for every (index, rows) pair and returns a
// single Future that resolves once every task has completed; its error is
// the first non-nil error observed, if any.
func (b *Builder) SubmitBuilds(indexes []SecondaryIndex, rowsPerIndex [][]event.Row) Future {
	futures := make([]Future, len(indexes))
	for i, idx := range indexes {
		futures[i] = b.SubmitBuild(idx, rowsPerIndex[i])
	}
	joined := make(chan error, 1)
	go func() {
		var first error
		for _, f := range futures {
			if err := f.Wait(); err != nil && first == nil {
				first = err
			}
		}
		joined <- first
	}()
	return Future{done: joined}
}

// SubmitMaintenance enqueues an arbitrary maintenance closure to run on a
// builder worker, off the caller's goroutine.
func (b *Builder) SubmitMaintenance(fn func() error) Future {
	done := make(chan error, 1)
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		done <- errShuttingDown
		return Future{done: done}
	}
	b.tasks <- buildTask{fn: fn, done: done}
	b.mu.Unlock()
	return Future{done: done}
}

// ActiveTasks returns the current in-flight task count.
func (b *Builder) ActiveTasks() int32 { return b.active.Get() }

// Shutdown stops accepting new work and waits for in-flight and already
// queued tasks to drain.
func (b *Builder) Shutdown() {
	b.once.Do(func() {
		b.mu.Lock()
		b.closed = true
		close(b.tasks)
		b.mu.Unlock()
	})
	b.wg.Wait()
	b.pool.Close()
}

// ShutdownNow cancels outstanding work immediately rather than draining it:
// workers stop pulling from the queue as soon as their current task (if
// any) finishes.
func (b *Builder) ShutdownNow() {
	b.once.Do(func() {
		b.mu.Lock()
		b.closed = true
		close(b.tasks)
		close(b.shutdownNow)
		b.mu.Unlock()
	})
	b.wg.Wait()
	b.pool.Close()
}

var errShuttingDown = &shutdownError{}

type shutdownError struct{}

func (*shutdownError) Error() string { return "index: builder is shutting down" }
