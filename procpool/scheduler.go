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
	"sync"
)

// scheduler is a thin wrapper over goroutines that gives the rest of
// this package one seam for "spawn a long-lived task" and "wait for
// every task spawned through me to exit": Dispatcher never calls `go`
// directly for anything Shutdown must drain.
type scheduler struct {
	wg sync.WaitGroup
}

// spawn runs fn in a new goroutine tracked by the scheduler.
func (s *scheduler) spawn(fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
}

// wait blocks until every goroutine started via spawn has returned.
func (s *scheduler) wait() {
	s.wg.Wait()
}
