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
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/lindb/common/pkg/ltoml"
	"github.com/lindb/common/pkg/logger"

	"github.com/lindb/taskpool/config"
	"github.com/lindb/taskpool/procpool"
	"github.com/lindb/taskpool/procpool/ptmetrics"

	// registers the demo task classes this command submits.
	_ "github.com/lindb/taskpool/internal/demotasks"
)

var runLog = logger.GetLogger("CMD", "Run")

func newRunCmd() *cobra.Command {
	var maxProcs int
	var maxReqs int
	var acquireTimeout time.Duration
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "start a worker pool and drive it through a demo workload",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runDemo(maxProcs, maxReqs, acquireTimeout, metricsAddr)
		},
	}

	cfg := config.NewDefaultPool()
	cmd.Flags().IntVar(&maxProcs, "procs", cfg.MaxProcs, "maximum live worker processes (0 = runtime.NumCPU())")
	cmd.Flags().IntVar(&maxReqs, "max-reqs", cfg.MaxReqs, "recycle a worker after this many requests (0 = never)")
	cmd.Flags().DurationVar(&acquireTimeout, "acquire-timeout", 0, "how long to wait to acquire a worker (0 = forever)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "if set, serve Prometheus metrics on this address (e.g. :9090)")
	return cmd
}

// poolConfig resolves the pool configuration from cfgFile, if the
// caller set the root --config flag, otherwise from the run command's
// own flags.
func poolConfig(maxProcs, maxReqs int, acquireTimeout time.Duration) (*config.Pool, error) {
	if cfgFile == "" {
		return &config.Pool{MaxProcs: maxProcs, MaxReqs: maxReqs, AcquireTimeout: ltoml.Duration(acquireTimeout)}, nil
	}
	return config.LoadPool(cfgFile)
}

func runDemo(maxProcsFlag, maxReqsFlag int, acquireTimeoutFlag time.Duration, metricsAddr string) error {
	cfg, err := poolConfig(maxProcsFlag, maxReqsFlag, acquireTimeoutFlag)
	if err != nil {
		return fmt.Errorf("run: loading config: %w", err)
	}
	acquireTimeout := time.Duration(cfg.AcquireTimeout)

	metrics := ptmetrics.NewCollector()

	dispatcher, err := procpool.NewDispatcher(procpool.Config{
		MaxProcs: cfg.MaxProcs,
		MaxReqs:  cfg.MaxReqs,
		Spawn:    reexecSpawn,
		Metrics:  metrics,
	})
	if err != nil {
		return fmt.Errorf("run: building dispatcher: %w", err)
	}
	defer dispatcher.Shutdown()

	if metricsAddr != "" {
		go serveMetrics(metricsAddr, metrics)
	}

	ctx := context.Background()
	if acquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, acquireTimeout)
		defer cancel()
	}

	// Process: synchronous call/response.
	val, err := dispatcher.Process(ctx, "double", []any{21})
	if err != nil {
		return fmt.Errorf("run: process(double, 21): %w", err)
	}
	runLog.Info("process result", logger.Any("value", val))

	// Map: batch-dispatch over a slice, pipelined under the hood.
	xs := []any{1, 2, 3, 4, 5}
	mapped, err := dispatcher.Map("double", xs)
	if err != nil {
		return fmt.Errorf("run: map(double, %v): %w", xs, err)
	}
	runLog.Info("map result", logger.Any("values", mapped))

	// Defer: fire now, await the Future later.
	fut, err := dispatcher.Defer("sleep", []any{0.1})
	if err != nil {
		return fmt.Errorf("run: defer(sleep): %w", err)
	}
	if _, err := fut.Await(); err != nil {
		return fmt.Errorf("run: await(sleep): %w", err)
	}
	runLog.Info("defer result: sleep completed")

	// Queue: fire-and-forget with callbacks, including an error path.
	done := make(chan struct{})
	if err := dispatcher.Queue("fail", nil, nil, func(err error) {
		runLog.Info("queue onError fired as expected", logger.Error(err))
		close(done)
	}); err != nil {
		return fmt.Errorf("run: queue(fail): %w", err)
	}
	<-done

	runLog.Info("demo complete", logger.Any("pool_capacity", dispatcher.Capacity()))
	return nil
}

func serveMetrics(addr string, metrics *ptmetrics.Collector) {
	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		runLog.Error("registering metrics", logger.Error(err))
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil {
		runLog.Error("metrics server stopped", logger.Error(err))
	}
}
