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

package procpool

import (
	"context"
	"runtime"
	"sync"

	"go.uber.org/atomic"

	"github.com/lindb/common/pkg/logger"

	"github.com/lindb/taskpool/procpool/codec"
	"github.com/lindb/taskpool/procpool/ptmetrics"
)

// Config configures a Pool. MaxProcs bounds the number of live worker
// processes; MaxReqs, when non-zero, recycles a worker once it has
// sent that many requests. Spawn and Codec are injected seams: Spawn
// builds one worker's *exec.Cmd (see SpawnFunc), Codec serializes task
// payloads (default codec.JSON).
type Config struct {
	MaxProcs int
	MaxReqs  int
	Spawn    SpawnFunc
	Codec    codec.Codec
	Metrics  *ptmetrics.Collector
}

func (c *Config) setDefaults() {
	if c.MaxProcs <= 0 {
		c.MaxProcs = runtime.NumCPU()
	}
	if c.MaxReqs < 0 {
		c.MaxReqs = 0
	}
	if c.Codec == nil {
		c.Codec = codec.JSON{}
	}
	if c.Metrics == nil {
		c.Metrics = ptmetrics.NewCollector()
	}
}

// Pool is a bounded multiset of idle Workers exposed as a FIFO
// channel. It spawns workers lazily, recycles them on MaxReqs or
// shutdown, and is reusable after Shutdown: shutdown marks it running
// again once every worker has been torn down.
type Pool struct {
	cfg Config
	log logger.Logger

	mu        sync.Mutex
	numProcs  int
	idle      chan *Worker
	isRunning atomic.Bool

	// outstanding tracks workers currently checked out (neither idle
	// nor torn down). Shutdown waits on it so it never returns before
	// every checked-out worker has been checked in and, because
	// isRunning is already false by then, killed.
	outstanding sync.WaitGroup
}

// New validates cfg and returns a Pool with no workers yet spawned.
// Workers are created lazily on the first checkouts that need them.
func New(cfg Config) (*Pool, error) {
	if !platformSupportsWorkerPipes() {
		return nil, ErrUnsupportedPlatform
	}
	if cfg.Spawn == nil {
		return nil, ErrInvalidArg
	}
	cfg.setDefaults()

	p := &Pool{
		cfg:  cfg,
		log:  logger.GetLogger("ProcPool", "Pool"),
		idle: make(chan *Worker, cfg.MaxProcs),
	}
	p.isRunning.Store(true)
	return p, nil
}

// Capacity returns the number of workers currently sitting idle.
func (p *Pool) Capacity() int {
	return len(p.idle)
}

// checkout returns an idle or freshly spawned Worker. If ctx carries a
// deadline and no worker becomes available before it elapses, it
// returns ErrCheckoutTimeout. Go's select is atomic across its cases,
// so unlike a two-goroutine take-vs-timer race, there is no window
// where a worker is dequeued and then needs to be restored: either the
// idle case fires and a worker is returned, or ctx.Done fires and
// nothing was ever taken.
func (p *Pool) checkout(ctx context.Context) (*Worker, error) {
	if !p.isRunning.Load() {
		return nil, ErrPoolStopped
	}

	p.mu.Lock()
	if len(p.idle) == 0 && p.numProcs < p.cfg.MaxProcs {
		p.numProcs++
		// Counted as outstanding before the mutex is released, not after
		// spawnWorker returns: otherwise a concurrent shutdown could
		// observe outstanding==0 and numProcs already incremented, call
		// Wait, and return while this spawn is still in flight.
		p.outstanding.Add(1)
		p.mu.Unlock()
		w, err := spawnWorker(p.cfg.Spawn, p.cfg.Codec)
		if err != nil {
			p.outstanding.Done()
			p.mu.Lock()
			p.numProcs--
			p.mu.Unlock()
			return nil, err
		}
		p.cfg.Metrics.WorkersSpawned.Inc()
		p.reportOccupancy()
		return w, nil
	}
	p.mu.Unlock()

	select {
	case w := <-p.idle:
		p.outstanding.Add(1)
		p.reportOccupancy()
		return w, nil
	case <-ctx.Done():
		return nil, ErrCheckoutTimeout
	}
}

// checkin returns worker to the idle channel, unless the pool has been
// stopped or worker has reached its request-count recycle threshold,
// in which case it is killed instead.
func (p *Pool) checkin(worker *Worker) {
	defer p.outstanding.Done()

	if !p.isRunning.Load() {
		p.kill(worker)
		return
	}
	if p.cfg.MaxReqs > 0 && worker.MessagesSent() >= uint64(p.cfg.MaxReqs) {
		p.kill(worker)
		return
	}
	p.idle <- worker
	p.reportOccupancy()
}

// kill shuts a worker down and decrements numProcs.
func (p *Pool) kill(worker *Worker) {
	worker.shutdown()
	p.mu.Lock()
	p.numProcs--
	p.mu.Unlock()
	p.cfg.Metrics.WorkersRecycled.Inc()
	p.reportOccupancy()
}

func (p *Pool) reportOccupancy() {
	p.mu.Lock()
	n := p.numProcs
	p.mu.Unlock()
	p.cfg.Metrics.SetOccupancy(n, len(p.idle))
}

// shutdown stops accepting new work, kills every worker sitting idle
// right now, waits for any checked-out workers to be returned (and
// thus killed by checkin, since isRunning is already false), then
// resets state so the pool behaves like a freshly constructed one.
func (p *Pool) shutdown() {
	if !p.isRunning.CompareAndSwap(true, false) {
		return
	}

	p.mu.Lock()
	idleNow := len(p.idle)
	p.mu.Unlock()

	for i := 0; i < idleNow; i++ {
		worker := <-p.idle
		p.kill(worker)
	}

	p.outstanding.Wait()

	p.mu.Lock()
	p.numProcs = 0
	p.mu.Unlock()

	p.isRunning.Store(true)
}
