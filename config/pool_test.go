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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lindb/common/pkg/ltoml"
)

func TestNewDefaultPool(t *testing.T) {
	cfg := NewDefaultPool()
	assert.Equal(t, 0, cfg.MaxProcs)
	assert.Equal(t, 0, cfg.MaxReqs)
	assert.Equal(t, ltoml.Duration(0), cfg.AcquireTimeout)
}

func TestPool_TOML_ContainsKeys(t *testing.T) {
	toml := NewDefaultPool().TOML()
	assert.Contains(t, toml, "max-procs")
	assert.Contains(t, toml, "max-reqs")
	assert.Contains(t, toml, "acquire-timeout")
}

func TestLoadPool_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pool.toml")

	want := &Pool{MaxProcs: 4, MaxReqs: 1000, AcquireTimeout: ltoml.Duration(5 * time.Second)}
	require.NoError(t, os.WriteFile(path, []byte(want.TOML()), 0o644))

	got, err := LoadPool(path)
	require.NoError(t, err)
	assert.Equal(t, want.MaxProcs, got.MaxProcs)
	assert.Equal(t, want.MaxReqs, got.MaxReqs)
	assert.Equal(t, want.AcquireTimeout, got.AcquireTimeout)
}

func TestLoadPool_MissingFile(t *testing.T) {
	_, err := LoadPool(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.Error(t, err)
}
