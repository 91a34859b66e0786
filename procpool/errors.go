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
	"errors"
	"fmt"
)

// Sentinel errors surfaced to callers of Dispatcher/Pool. Use errors.Is
// to test for these; TaskError additionally carries the remote worker's
// failure message and optional trace.
var (
	// ErrInvalidArg is returned when Target is empty or Args is malformed.
	ErrInvalidArg = errors.New("procpool: invalid target or args")
	// ErrPoolStopped is returned when a submission arrives while Shutdown
	// is still tearing workers down; once Shutdown returns, the pool
	// accepts work again.
	ErrPoolStopped = errors.New("procpool: pool stopped")
	// ErrCheckoutTimeout is returned when an acquire-timeout expires
	// waiting for an idle worker.
	ErrCheckoutTimeout = errors.New("procpool: checkout timed out")
	// ErrWorkerDead is returned when a worker exits, or its pipe closes,
	// before a pending response arrives.
	ErrWorkerDead = errors.New("procpool: worker died")
	// ErrUnknownMsgID marks an internal invariant violation: a
	// collectTask call referenced a message id with no pending worker.
	ErrUnknownMsgID = errors.New("procpool: unknown message id")
	// ErrUnsupportedPlatform is returned by New on platforms where child
	// processes cannot be wired to non-blocking, multiplexable pipes.
	ErrUnsupportedPlatform = errors.New("procpool: platform does not support worker pipes")
)

// TaskError wraps a failure reported by a worker for a specific task.
// It is returned from Process, from a resolved Future, or delivered to
// a Queue error callback.
type TaskError struct {
	Message string
	Trace   string
}

func (e *TaskError) Error() string {
	if e.Trace == "" {
		return fmt.Sprintf("procpool: task failed: %s", e.Message)
	}
	return fmt.Sprintf("procpool: task failed: %s\n%s", e.Message, e.Trace)
}

// workerDiedTaskError is what collectTask synthesizes when a worker
// dies with a task's outcome unknown.
func workerDiedTaskError() *TaskError {
	return &TaskError{Message: "worker died"}
}
