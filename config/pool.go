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

// Package config holds the TOML-loadable configuration for the
// taskpool CLI: a struct with env/toml tags, a TOML() renderer for
// generating a commented default file, and a NewDefault constructor.
// LoadPool reads only the TOML file; the env tags are not read by
// anything in this module.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/lindb/common/pkg/ltoml"
)

// Pool is the on-disk configuration for a worker pool.
type Pool struct {
	MaxProcs       int            `env:"MAX_PROCS" toml:"max-procs"`
	MaxReqs        int            `env:"MAX_REQS" toml:"max-reqs"`
	AcquireTimeout ltoml.Duration `env:"ACQUIRE_TIMEOUT" toml:"acquire-timeout"`
}

// TOML renders Pool as a commented TOML fragment.
func (p *Pool) TOML() string {
	return fmt.Sprintf(`
## Config for the worker process pool
[pool]
## maximum number of live worker processes
## Default: %d (0 means runtime.NumCPU())
max-procs = %d
## recycle a worker after it has sent this many requests
## Default: %d (0 means never recycle)
max-reqs = %d
## how long Process will wait to acquire a worker
## (Map, Defer and Queue always wait indefinitely)
## Default: %s (0 means wait indefinitely)
acquire-timeout = "%s"`,
		p.MaxProcs, p.MaxProcs,
		p.MaxReqs, p.MaxReqs,
		p.AcquireTimeout.String(), p.AcquireTimeout.String(),
	)
}

// NewDefaultPool returns the default pool configuration: no bound on
// acquire time, never recycle, and MaxProcs left at 0 so procpool.New
// falls back to runtime.NumCPU().
func NewDefaultPool() *Pool {
	return &Pool{
		MaxProcs:       0,
		MaxReqs:        0,
		AcquireTimeout: ltoml.Duration(0),
	}
}

// NewDefaultPoolTOML renders NewDefaultPool for `taskpool init-config`.
func NewDefaultPoolTOML() string {
	return NewDefaultPool().TOML()
}

// LoadPool decodes a Pool config from the [pool] table of the TOML file
// at path (the layout TOML renders), starting from NewDefaultPool so any
// field the file omits keeps its default.
func LoadPool(path string) (*Pool, error) {
	file := struct {
		Pool Pool `toml:"pool"`
	}{Pool: *NewDefaultPool()}
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("decoding pool config %s: %w", path, err)
	}
	return &file.Pool, nil
}
