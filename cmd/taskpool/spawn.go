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

package main

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// taskpoolWorkerEnv marks a process as already running in worker mode,
// so a worker never tries to spawn a pool of its own.
const taskpoolWorkerEnv = "TASKPOOL_WORKER=1"

// errWorkerCannotSpawn guards against a worker process itself calling
// reexecSpawn, which would otherwise recurse into re-execing workers
// forever.
var errWorkerCannotSpawn = errors.New("taskpool: a worker process cannot spawn its own worker pool")

// reexecSpawn re-execs the current binary into `taskpool worker`. It
// is the production procpool.SpawnFunc: the worker inherits the
// parent's task registry simply by being the same binary.
func reexecSpawn() (*exec.Cmd, error) {
	if os.Getenv("TASKPOOL_WORKER") == "1" {
		return nil, errWorkerCannotSpawn
	}

	exe, err := os.Executable()
	if err != nil {
		return nil, err
	}
	exe, err = filepath.Abs(exe)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(exe, "worker")
	cmd.Env = childEnv(os.Environ())
	return cmd, nil
}

// childEnv copies parentEnv, stripping any prior worker marker and
// appending a fresh one.
func childEnv(parentEnv []string) []string {
	env := make([]string, 0, len(parentEnv)+1)
	for _, e := range parentEnv {
		if strings.HasPrefix(e, "TASKPOOL_WORKER=") {
			continue
		}
		env = append(env, e)
	}
	return append(env, taskpoolWorkerEnv)
}
