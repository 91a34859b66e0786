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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresSpawn(t *testing.T) {
	_, err := New(Config{})
	require.ErrorIs(t, err, ErrInvalidArg)
}

func TestPool_CheckoutCheckin_Reuse(t *testing.T) {
	p, err := New(Config{MaxProcs: 1, Spawn: helperSpawn})
	require.NoError(t, err)

	w, err := p.checkout(context.Background())
	require.NoError(t, err)
	p.checkin(w)
	assert.Equal(t, 1, p.Capacity())

	w2, err := p.checkout(context.Background())
	require.NoError(t, err)
	assert.Same(t, w, w2, "second checkout should reuse the same idle worker")
	p.checkin(w2)
}

func TestPool_CheckoutTimeout(t *testing.T) {
	p, err := New(Config{MaxProcs: 1, Spawn: helperSpawn})
	require.NoError(t, err)

	w, err := p.checkout(context.Background())
	require.NoError(t, err)
	defer p.checkin(w)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = p.checkout(ctx)
	require.ErrorIs(t, err, ErrCheckoutTimeout)
}

func TestPool_RecycleOnMaxReqs(t *testing.T) {
	p, err := New(Config{MaxProcs: 1, MaxReqs: 1, Spawn: helperSpawn})
	require.NoError(t, err)

	w, err := p.checkout(context.Background())
	require.NoError(t, err)
	_, err = w.Send(classTargetFor(t, "test-echo"), []any{1})
	require.NoError(t, err)
	p.checkin(w)

	// The worker should have been recycled rather than returned to idle.
	assert.Equal(t, 0, p.Capacity())
	assert.False(t, w.Alive())
}

func TestPool_ShutdownKillsIdleAndWaitsOnOutstanding(t *testing.T) {
	p, err := New(Config{MaxProcs: 2, Spawn: helperSpawn})
	require.NoError(t, err)

	idleWorker, err := p.checkout(context.Background())
	require.NoError(t, err)

	outstanding, err := p.checkout(context.Background())
	require.NoError(t, err)
	p.checkin(idleWorker)

	done := make(chan struct{})
	go func() {
		p.shutdown()
		close(done)
	}()

	// shutdown must block until the checked-out worker is returned.
	select {
	case <-done:
		t.Fatal("shutdown returned before outstanding worker was checked in")
	case <-time.After(20 * time.Millisecond):
	}

	p.checkin(outstanding)
	<-done

	assert.False(t, idleWorker.Alive())
	assert.False(t, outstanding.Alive())
	assert.Equal(t, 0, p.Capacity())

	// Pool is reusable immediately after shutdown.
	w, err := p.checkout(context.Background())
	require.NoError(t, err)
	p.checkin(w)
}
