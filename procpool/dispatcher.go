// Licensed to LinDB under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. LinDB licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

// Package procpool implements a process-level task pool: a bounded set
// of long-lived worker child processes that a Dispatcher hands
// (target, args) tasks to over framed pipes, via four submission
// surfaces (Process, Map, Defer, Queue).
package procpool

import (
	"context"
	"errors"
	"sync"

	"github.com/lindb/taskpool/procpool/wire"
)

// Dispatcher is the public submission API. It owns a Pool and a
// pending-task table keyed by message id, and converts the
// synchronous and asynchronous surfaces onto the same
// startTask/collectTask path.
type Dispatcher struct {
	pool  *Pool
	sched scheduler

	mu      sync.Mutex
	pending map[uint64]*Worker
}

// NewDispatcher builds a Dispatcher backed by a freshly constructed
// Pool. cfg.Spawn is required; see SpawnFunc.
func NewDispatcher(cfg Config) (*Dispatcher, error) {
	pool, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return &Dispatcher{
		pool:    pool,
		pending: make(map[uint64]*Worker),
	}, nil
}

// Capacity returns the pool's current idle-worker count.
func (d *Dispatcher) Capacity() int {
	return d.pool.Capacity()
}

// startTask validates the request, checks out a worker (honoring ctx's
// deadline as the acquire timeout), sends the task, and records
// msgid -> worker in the pending table. The worker is deliberately not
// checked in here: it is checked in by collectTask once the send has
// been acknowledged, which is what lets the pool hand the same worker
// to another submitter while this one is still awaiting a response.
func (d *Dispatcher) startTask(ctx context.Context, target wire.Target, args []any) (uint64, error) {
	if target.Kind == wire.TargetClassName && target.Class == "" {
		return 0, ErrInvalidArg
	}
	if args == nil {
		args = []any{}
	}

	worker, err := d.pool.checkout(ctx)
	if err != nil {
		return 0, err
	}

	msgID, err := worker.Send(target, args)
	if err != nil {
		d.pool.checkin(worker)
		return 0, err
	}

	d.mu.Lock()
	d.pending[msgID] = worker
	d.mu.Unlock()
	return msgID, nil
}

// collectTask looks up the worker pending against msgID, checks it
// back in immediately (the worker's multiplexed reader can keep
// delivering this response to us after another caller starts using the
// same worker), and then waits for the decoded result.
func (d *Dispatcher) collectTask(msgID uint64) (any, error) {
	d.mu.Lock()
	worker, ok := d.pending[msgID]
	if ok {
		delete(d.pending, msgID)
	}
	d.mu.Unlock()
	if !ok {
		return nil, ErrUnknownMsgID
	}

	d.pool.checkin(worker)

	val, err := worker.Recv(context.Background(), msgID)
	if errors.Is(err, ErrWorkerDead) {
		return nil, workerDiedTaskError()
	}
	return val, err
}

// classTarget builds a Target naming a worker-side task type by name,
// the only Target shape exposed by the public API (see SPEC_FULL.md §1
// on why callables do not survive serialization in Go).
func classTarget(class string) wire.Target {
	return wire.Target{Kind: wire.TargetClassName, Class: class}
}

// Process submits (class, args) and blocks until the result or error
// is available. ctx's deadline, if any, bounds only worker acquisition;
// there is no separate per-task timeout.
func (d *Dispatcher) Process(ctx context.Context, class string, args []any) (any, error) {
	msgID, err := d.startTask(ctx, classTarget(class), args)
	if err != nil {
		return nil, err
	}
	return d.collectTask(msgID)
}

// Defer submits (class, args), synchronously ordering the send with
// respect to the caller, and returns a Future that resolves
// asynchronously once a response arrives.
func (d *Dispatcher) Defer(class string, args []any) (*Future, error) {
	msgID, err := d.startTask(context.Background(), classTarget(class), args)
	if err != nil {
		return nil, err
	}
	fut := newFuture()
	d.sched.spawn(func() {
		val, err := d.collectTask(msgID)
		fut.resolve(val, err)
	})
	return fut, nil
}

// Map submits Defer(class, [x]) for every x in xs, pipelining all
// sends before collecting any result, then resolves every future in
// input order and flattens sequence-valued results in place. Result
// order equals input order regardless of completion order; across
// workers there is no ordering guarantee.
func (d *Dispatcher) Map(class string, xs []any) ([]any, error) {
	futures := make([]*Future, len(xs))
	for i, x := range xs {
		fut, err := d.Defer(class, []any{x})
		if err != nil {
			return nil, err
		}
		futures[i] = fut
	}

	out := make([]any, 0, len(xs))
	for _, fut := range futures {
		val, err := fut.Await()
		if err != nil {
			return nil, err
		}
		if seq, ok := val.([]any); ok {
			out = append(out, seq...)
		} else {
			out = append(out, val)
		}
	}
	return out, nil
}

// Queue is Defer with callbacks instead of a future: the spawned
// goroutine invokes onSuccess or onError instead of exposing a Future.
// A nil callback silently drops that outcome.
func (d *Dispatcher) Queue(class string, args []any, onSuccess func(any), onError func(error)) error {
	msgID, err := d.startTask(context.Background(), classTarget(class), args)
	if err != nil {
		return err
	}
	d.sched.spawn(func() {
		val, err := d.collectTask(msgID)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		if onSuccess != nil {
			onSuccess(val)
		}
	})
	return nil
}

// Shutdown stops the pool and waits for every goroutine spawned by
// Defer/Queue to finish. A deferred future resolves to its value if
// the response arrived first, or to a TaskError("worker died") if the
// worker was killed before it arrived; either outcome is acceptable,
// and Shutdown itself never hangs waiting on one.
func (d *Dispatcher) Shutdown() {
	d.pool.shutdown()
	d.sched.wait()
}
