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
	"github.com/lindb/common/pkg/ltoml"
	"github.com/spf13/cobra"

	"github.com/lindb/taskpool/config"
)

const defaultPoolCfgFile = currentDir + "taskpool.toml"

// newInitConfigCmd writes a commented default pool config to disk so
// an operator can edit it in place.
func newInitConfigCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "init-config",
		Short: "write a default pool config file",
		RunE: func(_ *cobra.Command, _ []string) error {
			return ltoml.WriteConfig(outputFile, config.NewDefaultPoolTOML())
		},
	}
	cmd.Flags().StringVar(&outputFile, "config", defaultPoolCfgFile, "path to write the config file to")
	return cmd
}
