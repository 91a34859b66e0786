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
	"os"
	"os/exec"
	"sync"

	"go.uber.org/atomic"

	"github.com/lindb/common/pkg/logger"

	"github.com/lindb/taskpool/procpool/codec"
	"github.com/lindb/taskpool/procpool/wire"
)

// SpawnFunc builds the *exec.Cmd for one worker child process. It must
// not set Stdin/Stdout: the Worker wires those to its pipe pair. A
// production caller re-execs the current binary into a worker mode
// (see cmd/taskpool); tests spawn a test helper process, the standard
// Go idiom for exercising exec.Cmd plumbing without a separate fixture
// binary.
type SpawnFunc func() (*exec.Cmd, error)

// Worker owns one child process and the full-duplex, multiplexed RPC
// channel to it. A Worker's outbound writes are serialized; its reader
// goroutine demultiplexes concurrent in-flight responses by message
// id, which is what lets Pool hand the same Worker to another
// submitter as soon as a send has been accepted.
type Worker struct {
	cmd *exec.Cmd
	out *os.File // outbound sink: worker's stdin
	in  *os.File // inbound source: worker's stdout

	codec codec.Codec
	log   logger.Logger

	writeMu sync.Mutex
	nextID  atomic.Uint64

	messagesSent atomic.Uint64

	mu       sync.Mutex
	pending  map[uint64]chan wire.Response
	alive    bool
	deathErr error

	readerDone chan struct{}
}

func spawnWorker(spawn SpawnFunc, c codec.Codec) (*Worker, error) {
	cmd, err := spawn()
	if err != nil {
		return nil, err
	}

	stdinR, stdinW, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		_ = stdinR.Close()
		_ = stdinW.Close()
		return nil, err
	}

	cmd.Stdin = stdinR
	cmd.Stdout = stdoutW
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		_ = stdinR.Close()
		_ = stdinW.Close()
		_ = stdoutR.Close()
		_ = stdoutW.Close()
		return nil, err
	}

	// The child inherited its ends of both pipes; close our copies of
	// those ends so EOF propagates correctly on shutdown.
	_ = stdinR.Close()
	_ = stdoutW.Close()

	w := &Worker{
		cmd:        cmd,
		out:        stdinW,
		in:         stdoutR,
		codec:      c,
		log:        logger.GetLogger("ProcPool", "Worker"),
		pending:    make(map[uint64]chan wire.Response),
		alive:      true,
		readerDone: make(chan struct{}),
	}
	go w.readLoop()
	return w, nil
}

// Send encodes (target, args) as one outbound frame and returns the
// message id a future Recv must use to collect the response. Fails
// with ErrWorkerDead if the outbound sink has already been closed.
func (w *Worker) Send(target wire.Target, args []any) (uint64, error) {
	msgID := w.nextID.Add(1)
	req := wire.Request{MsgID: msgID, Target: target, Args: args}

	payload, err := w.codec.Encode(req)
	if err != nil {
		return 0, err
	}

	w.mu.Lock()
	if !w.alive {
		w.mu.Unlock()
		return 0, ErrWorkerDead
	}
	w.pending[msgID] = make(chan wire.Response, 1)
	w.mu.Unlock()

	w.writeMu.Lock()
	err = codec.WriteFrame(w.out, payload)
	w.writeMu.Unlock()
	if err != nil {
		w.mu.Lock()
		delete(w.pending, msgID)
		w.mu.Unlock()
		return 0, ErrWorkerDead
	}

	w.messagesSent.Add(1)
	return msgID, nil
}

// Recv suspends the caller until the reader goroutine delivers the
// response for msgID, or the worker dies first.
func (w *Worker) Recv(ctx context.Context, msgID uint64) (any, error) {
	w.mu.Lock()
	ch, ok := w.pending[msgID]
	dead := !w.alive
	w.mu.Unlock()
	if !ok {
		// The slot can be missing either because the invariant was
		// violated (msgID was never sent on this worker) or because
		// markDead already swept it out from under us: the worker
		// died between Send and this Recv call. Tell them apart using
		// the liveness snapshot taken under the same lock.
		if dead {
			return nil, ErrWorkerDead
		}
		return nil, ErrUnknownMsgID
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, ErrWorkerDead
		}
		w.mu.Lock()
		delete(w.pending, msgID)
		w.mu.Unlock()
		if resp.Status == wire.StatusErr {
			return nil, &TaskError{Message: resp.Message, Trace: resp.Trace}
		}
		return resp.Body, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// MessagesSent reports the monotonic count of accepted Send calls.
func (w *Worker) MessagesSent() uint64 {
	return w.messagesSent.Load()
}

// Alive reports whether the worker is still considered live. Once
// false, all further Send/Recv calls fail with ErrWorkerDead.
func (w *Worker) Alive() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.alive
}

// readLoop is the per-Worker reader goroutine: it blocks on the
// inbound frame source, decodes each (msgid, status, body) frame, and
// signals the matching pending slot, leaving the slot in place so a
// submitter that has not yet arrived to Recv still finds the response
// (Recv removes the slot once it has taken the response). On EOF or
// decode error it marks the worker dead and fails every outstanding
// slot.
func (w *Worker) readLoop() {
	defer close(w.readerDone)
	for {
		payload, err := codec.ReadFrame(w.in)
		if err != nil {
			w.markDead(err)
			return
		}
		var resp wire.Response
		if err := w.codec.Decode(payload, &resp); err != nil {
			w.log.Warn("decode worker response failed", logger.Error(err))
			w.markDead(err)
			return
		}

		w.mu.Lock()
		ch, ok := w.pending[resp.MsgID]
		if !ok {
			// No slot registered for this id: create one so a later Recv
			// still finds the response waiting.
			ch = make(chan wire.Response, 1)
			w.pending[resp.MsgID] = ch
		}
		w.mu.Unlock()

		ch <- resp
	}
}

func (w *Worker) markDead(err error) {
	w.mu.Lock()
	if !w.alive {
		w.mu.Unlock()
		return
	}
	w.alive = false
	w.deathErr = err
	pending := w.pending
	w.pending = make(map[uint64]chan wire.Response)
	w.mu.Unlock()

	for _, ch := range pending {
		close(ch)
	}
}

// shutdown closes the outbound sink, waits for the child to exit and
// the reader goroutine to drain, then fails any still-pending Recv
// callers with ErrWorkerDead.
func (w *Worker) shutdown() {
	_ = w.out.Close()
	_ = w.cmd.Wait()
	<-w.readerDone
	w.markDead(ErrWorkerDead)
	_ = w.in.Close()
}
