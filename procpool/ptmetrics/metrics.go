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

// Package ptmetrics exposes Prometheus instrumentation for a Pool's
// occupancy and lifecycle events. A Collector is optional: Pool works
// with a private, unregistered one by default so running two Pools in
// the same process (as the test suite does) never panics on duplicate
// registration.
package ptmetrics

import "github.com/prometheus/client_golang/prometheus"

// Collector holds the Prometheus metrics for one Pool.
type Collector struct {
	WorkersSpawned  prometheus.Counter
	WorkersRecycled prometheus.Counter
	WorkersIdle     prometheus.Gauge
	WorkersAlive    prometheus.Gauge
}

// NewCollector builds an unregistered Collector. Call Register to
// expose it on a Prometheus registry, e.g. before starting an HTTP
// /metrics endpoint.
func NewCollector() *Collector {
	return &Collector{
		WorkersSpawned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "procpool_workers_spawned_total",
			Help: "Total number of worker processes spawned.",
		}),
		WorkersRecycled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "procpool_workers_recycled_total",
			Help: "Total number of worker processes killed, whether by recycling or shutdown.",
		}),
		WorkersIdle: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "procpool_workers_idle",
			Help: "Current number of idle worker processes.",
		}),
		WorkersAlive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "procpool_workers_alive",
			Help: "Current number of live worker processes, idle or checked out.",
		}),
	}
}

// Register adds every metric in c to reg.
func (c *Collector) Register(reg *prometheus.Registry) error {
	for _, collector := range []prometheus.Collector{
		c.WorkersSpawned, c.WorkersRecycled, c.WorkersIdle, c.WorkersAlive,
	} {
		if err := reg.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

// SetOccupancy updates the live/idle gauges together.
func (c *Collector) SetOccupancy(numProcs, idle int) {
	c.WorkersAlive.Set(float64(numProcs))
	c.WorkersIdle.Set(float64(idle))
}
