// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package respmetrics exposes Prometheus counters and histograms describing
// parser activity, served by server.Server's /metrics route.
package respmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/packetd/respio/common"
)

var (
	Uptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: common.App,
			Name:      "uptime",
			Help:      "Uptime in seconds",
		},
	)

	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: common.App,
			Name:      "build_info",
			Help:      "Build information",
		},
		[]string{"version", "git_hash", "build_time"},
	)

	// ValuesDecoded counts completed ParseOne results, by Value type.
	ValuesDecoded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: common.App,
			Name:      "values_decoded_total",
			Help:      "RESP values decoded total",
		},
		[]string{"type"},
	)

	// ProtocolErrors counts parsers that transitioned into the poisoned state.
	ProtocolErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: common.App,
			Name:      "protocol_errors_total",
			Help:      "Protocol errors observed total",
		},
	)

	// BytesFed counts bytes handed to Parser.Feed.
	BytesFed = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: common.App,
			Name:      "bytes_fed_total",
			Help:      "Bytes fed to the parser total",
		},
	)

	// Suspensions counts ParseOne calls that returned the not-enough-data
	// sentinel rather than a completed value.
	Suspensions = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: common.App,
			Name:      "suspensions_total",
			Help:      "ParseOne calls that needed more data total",
		},
	)

	// DecodeDuration times a single ParseOne call that produced a value.
	DecodeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: common.App,
			Name:      "decode_duration_seconds",
			Help:      "Time spent inside a completing ParseOne call",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 12),
		},
	)
)
