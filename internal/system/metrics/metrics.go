/*
 * Copyright (c) 2025, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for duplicate checks, scans and merges.
type Metrics struct {
	// Intake checks by prevention policy and outcome
	DuplicateChecks *prometheus.CounterVec

	// Scan latency by scope
	ScanLatency *prometheus.HistogramVec

	// Groups found per strategy
	GroupsFound *prometheus.CounterVec

	// Merge outcomes by kind ("two", "group", "bulk")
	MergeOutcome *prometheus.CounterVec

	MergeLatency prometheus.Histogram

	// Secondary leads removed by merges
	LeadsMerged prometheus.Counter

	LockWait prometheus.Histogram

	QueueDepth prometheus.Gauge
}

var (
	instance *Metrics
	once     sync.Once
)

// Get returns the process wide metrics, registering them with the default registry on first use.
func Get() *Metrics {
	once.Do(func() {
		instance = New()
	})
	return instance
}

// New creates a new Metrics instance with all metrics registered.
func New() *Metrics {
	return &Metrics{
		DuplicateChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lds_duplicate_checks_total",
			Help: "Total intake duplicate checks by prevention policy and outcome",
		}, []string{"policy", "outcome"}), // outcome: "duplicate", "unique", "error", "fail_open"

		ScanLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lds_scan_duration_seconds",
			Help:    "Duration of duplicate group scans by scope",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"scope"}),

		GroupsFound: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lds_duplicate_groups_found_total",
			Help: "Duplicate groups reported by scans, by match type",
		}, []string{"match_type"}),

		MergeOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lds_merges_total",
			Help: "Total merges by kind and outcome",
		}, []string{"kind", "outcome"}),

		MergeLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "lds_merge_duration_seconds",
			Help:    "Duration of a single merge including lock acquisition",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 10},
		}),

		LeadsMerged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lds_leads_merged_total",
			Help: "Secondary leads folded into a primary lead and removed",
		}),

		LockWait: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "lds_merge_lock_wait_seconds",
			Help:    "Time spent acquiring per-lead merge locks",
			Buckets: []float64{0.001, 0.005, 0.025, 0.1, 0.5, 1, 5, 10},
		}),

		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "lds_merge_queue_depth",
			Help: "Bulk merge jobs waiting in the background queue",
		}),
	}
}

// IncrementCheck records an intake duplicate check.
func (m *Metrics) IncrementCheck(policy, outcome string) {
	if m != nil {
		m.DuplicateChecks.WithLabelValues(policy, outcome).Inc()
	}
}

// ObserveScan records the duration of a scan and the groups it produced.
func (m *Metrics) ObserveScan(scope string, d time.Duration, groupsByMatchType map[string]int) {
	if m == nil {
		return
	}
	m.ScanLatency.WithLabelValues(scope).Observe(d.Seconds())
	for matchType, n := range groupsByMatchType {
		m.GroupsFound.WithLabelValues(matchType).Add(float64(n))
	}
}

// ObserveMerge records a merge outcome. Removed counts the secondary leads deleted.
func (m *Metrics) ObserveMerge(kind string, d time.Duration, removed int, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.MergeOutcome.WithLabelValues(kind, outcome).Inc()
	m.MergeLatency.Observe(d.Seconds())
	if removed > 0 {
		m.LeadsMerged.Add(float64(removed))
	}
}

// ObserveLockWait records how long a merge waited for its locks.
func (m *Metrics) ObserveLockWait(d time.Duration) {
	if m != nil {
		m.LockWait.Observe(d.Seconds())
	}
}

// SetQueueDepth records the number of queued bulk merge jobs.
func (m *Metrics) SetQueueDepth(n int) {
	if m != nil {
		m.QueueDepth.Set(float64(n))
	}
}
