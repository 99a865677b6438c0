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
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestGet_ReturnsSingleton(t *testing.T) {
	assert.Same(t, Get(), Get())
}

func TestObserveMerge(t *testing.T) {
	m := Get()
	beforeOK := testutil.ToFloat64(m.MergeOutcome.WithLabelValues("group", "success"))
	beforeFail := testutil.ToFloat64(m.MergeOutcome.WithLabelValues("group", "failure"))
	beforeMerged := testutil.ToFloat64(m.LeadsMerged)

	m.ObserveMerge("group", 10*time.Millisecond, 2, nil)
	m.ObserveMerge("group", 10*time.Millisecond, 0, errors.New("boom"))

	assert.Equal(t, beforeOK+1, testutil.ToFloat64(m.MergeOutcome.WithLabelValues("group", "success")))
	assert.Equal(t, beforeFail+1, testutil.ToFloat64(m.MergeOutcome.WithLabelValues("group", "failure")))
	assert.Equal(t, beforeMerged+2, testutil.ToFloat64(m.LeadsMerged))
}

func TestObserveScan_CountsGroups(t *testing.T) {
	m := Get()
	before := testutil.ToFloat64(m.GroupsFound.WithLabelValues("exact_email"))
	m.ObserveScan("all", time.Millisecond, map[string]int{"exact_email": 3})
	assert.Equal(t, before+3, testutil.ToFloat64(m.GroupsFound.WithLabelValues("exact_email")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementCheck("email", "unique")
		m.ObserveScan("all", time.Second, nil)
		m.ObserveMerge("two", time.Second, 1, nil)
		m.ObserveLockWait(time.Second)
		m.SetQueueDepth(3)
	})
}
