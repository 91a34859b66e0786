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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(t *testing.T, maxProcs int) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(Config{MaxProcs: maxProcs, Spawn: helperSpawn})
	require.NoError(t, err)
	t.Cleanup(d.Shutdown)
	return d
}

func TestDispatcher_Process(t *testing.T) {
	d := newTestDispatcher(t, 2)

	val, err := d.Process(context.Background(), "test-echo", []any{"hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", val)
}

func TestDispatcher_Process_TaskError(t *testing.T) {
	d := newTestDispatcher(t, 1)

	_, err := d.Process(context.Background(), "test-boom", nil)
	require.Error(t, err)
	var taskErr *TaskError
	require.ErrorAs(t, err, &taskErr)
}

func TestDispatcher_Process_InvalidTarget(t *testing.T) {
	d := newTestDispatcher(t, 1)

	_, err := d.Process(context.Background(), "", nil)
	require.ErrorIs(t, err, ErrInvalidArg)
}

func TestDispatcher_Defer(t *testing.T) {
	d := newTestDispatcher(t, 1)

	fut, err := d.Defer("test-echo", []any{"later"})
	require.NoError(t, err)

	val, err := fut.Await()
	require.NoError(t, err)
	assert.Equal(t, "later", val)
}

func TestDispatcher_Map(t *testing.T) {
	d := newTestDispatcher(t, 3)

	xs := []any{"a", "b", "c"}
	out, err := d.Map("test-echo", xs)
	require.NoError(t, err)
	assert.Equal(t, xs, out)
}

func TestDispatcher_Map_PropagatesTaskError(t *testing.T) {
	d := newTestDispatcher(t, 1)

	_, err := d.Map("test-boom", []any{1, 2})
	require.Error(t, err)
}

func TestDispatcher_Queue(t *testing.T) {
	d := newTestDispatcher(t, 1)

	var mu sync.Mutex
	var got any
	done := make(chan struct{})

	err := d.Queue("test-echo", []any{"queued"}, func(v any) {
		mu.Lock()
		got = v
		mu.Unlock()
		close(done)
	}, func(error) {
		close(done)
	})
	require.NoError(t, err)

	<-done
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "queued", got)
}

func TestDispatcher_Queue_NilCallbacksAreSilent(t *testing.T) {
	d := newTestDispatcher(t, 1)

	err := d.Queue("test-boom", nil, nil, nil)
	require.NoError(t, err)
	// No callback fires; Shutdown (via t.Cleanup) must still not hang.
}

func TestDispatcher_Shutdown_ResolvesPendingDefers(t *testing.T) {
	d, err := NewDispatcher(Config{MaxProcs: 1, Spawn: helperSpawn})
	require.NoError(t, err)

	fut, err := d.Defer("test-slow", []any{2.0})
	require.NoError(t, err)

	d.Shutdown()

	_, err = fut.Await()
	// Either outcome is acceptable: the response raced shutdown, or the
	// worker died first. What matters is that Await returns.
	_ = err
}
