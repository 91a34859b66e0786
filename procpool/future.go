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

// Future is a single-shot handle returned by Dispatcher.Defer. It
// holds only a result slot, not a back-pointer to the Worker that
// produced it, avoiding a retain cycle between Dispatcher, Pool,
// Worker and the futures handed out to callers.
type Future struct {
	done chan struct{}
	val  any
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) resolve(val any, err error) {
	f.val = val
	f.err = err
	close(f.done)
}

// Await suspends the caller until the future resolves, then returns
// the task's value or re-raises its captured error.
func (f *Future) Await() (any, error) {
	<-f.done
	return f.val, f.err
}
