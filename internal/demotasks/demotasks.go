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

// Package demotasks registers the handful of task classes the
// `taskpool run` demo submits, so both the parent process and the
// worker process it re-execs into see the same registry.
package demotasks

import (
	"errors"
	"fmt"
	"time"

	"github.com/lindb/taskpool/taskrunner"
)

func init() {
	taskrunner.Register("double", double)
	taskrunner.Register("sleep", sleep)
	taskrunner.Register("noop", noop)
	taskrunner.Register("fail", fail)
}

func double(args []any) (any, error) {
	if len(args) != 1 {
		return nil, errors.New("double: expects exactly one argument")
	}
	n, ok := toFloat(args[0])
	if !ok {
		return nil, fmt.Errorf("double: argument must be numeric, got %T", args[0])
	}
	return n * 2, nil
}

func sleep(args []any) (any, error) {
	seconds := 1.0
	if len(args) == 1 {
		if n, ok := toFloat(args[0]); ok {
			seconds = n
		}
	}
	time.Sleep(time.Duration(seconds * float64(time.Second)))
	return true, nil
}

func noop(_ []any) (any, error) {
	return nil, nil
}

func fail(_ []any) (any, error) {
	return nil, errors.New("fail: task intentionally failed")
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
