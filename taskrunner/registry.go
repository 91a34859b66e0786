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

// Package taskrunner is the worker-side half of the protocol: a
// black-box task evaluator given a concrete Go shape. A closure cannot
// survive serialization across a process boundary in Go, so tasks are
// registered by name — the same registry idiom as database/sql.Register
// or image.RegisterFormat in the standard library — and a worker
// resolves a request's class name against this registry before running
// it.
package taskrunner

import (
	"fmt"
	"sync"
)

// Func is a registered task: it receives the decoded argument
// sequence and returns a value to encode back, or an error to report
// as a StatusErr response.
type Func func(args []any) (any, error)

var (
	mu       sync.RWMutex
	registry = make(map[string]Func)
)

// Register associates name with fn. It is meant to be called from an
// init() function in a package the worker binary imports, mirroring
// the registry pattern used throughout the standard library.
func Register(name string, fn Func) {
	if fn == nil {
		panic(fmt.Sprintf("taskrunner: Register called with nil Func for %q", name))
	}
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("taskrunner: Register called twice for %q", name))
	}
	registry[name] = fn
}

// Lookup returns the Func registered under name, if any.
func Lookup(name string) (Func, bool) {
	mu.RLock()
	defer mu.RUnlock()
	fn, ok := registry[name]
	return fn, ok
}
