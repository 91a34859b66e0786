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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lindb/taskpool/procpool/codec"
	"github.com/lindb/taskpool/taskrunner"

	// registers the demo task classes in this process's registry.
	_ "github.com/lindb/taskpool/internal/demotasks"
)

// newWorkerCmd builds the hidden subcommand reexecSpawn re-execs into.
// It is never meant to be typed by a human: it speaks the framed wire
// protocol on stdin/stdout and logs nothing there, since stdout is the
// RPC channel (stderr remains free for diagnostics, same split the
// parent's spawnWorker relies on).
func newWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "worker",
		Short:  "run as a taskpool worker process (internal)",
		Hidden: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := taskrunner.Serve(os.Stdin, os.Stdout, codec.JSON{}); err != nil {
				return fmt.Errorf("worker: %w", err)
			}
			return nil
		},
	}
	return cmd
}
