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

package workers

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	configModel "github.com/wso2/lead-deduplication-service/internal/duplicate_config/model"
	"github.com/wso2/lead-deduplication-service/internal/merge/model"
	errors2 "github.com/wso2/lead-deduplication-service/internal/system/errors"
	"github.com/wso2/lead-deduplication-service/internal/system/log"
)

func TestMain(m *testing.M) {
	_ = log.Init("ERROR")
	os.Exit(m.Run())
}

// gatedMerger blocks every bulk merge until release is closed.
type gatedMerger struct {
	release chan struct{}
	err     error

	mu      sync.Mutex
	tenants []string
}

func (g *gatedMerger) BulkMergeGroups(_ context.Context, tenantId string, groups []model.GroupSpec,
	_ *configModel.ConflictResolutionPolicy) (model.BulkMergeResult, error) {
	<-g.release
	g.mu.Lock()
	g.tenants = append(g.tenants, tenantId)
	g.mu.Unlock()
	if g.err != nil {
		return model.BulkMergeResult{}, g.err
	}
	return model.BulkMergeResult{SuccessCount: len(groups)}, nil
}

var twoGroups = []model.GroupSpec{
	{LeadIds: []string{"a", "b"}},
	{LeadIds: []string{"c", "d"}},
}

func waitForState(t *testing.T, w *MergeWorker, tenant, jobId string, state model.JobState) model.BulkMergeJobStatus {
	t.Helper()
	var status model.BulkMergeJobStatus
	require.Eventually(t, func() bool {
		var err error
		status, err = w.JobStatus(tenant, jobId)
		return err == nil && status.State == state
	}, 2*time.Second, 10*time.Millisecond)
	return status
}

func TestMergeWorker_RunsQueuedJob(t *testing.T) {
	merger := &gatedMerger{release: make(chan struct{})}
	close(merger.release)
	w := StartMergeWorker(merger, 4, time.Minute, nil)
	defer w.Stop()

	queued, err := w.Enqueue("acme", twoGroups, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, queued.JobId)
	assert.Equal(t, 2, queued.GroupCount)

	status := waitForState(t, w, "acme", queued.JobId, model.JobStateCompleted)
	require.NotNil(t, status.Result)
	assert.Equal(t, 2, status.Result.SuccessCount)
	assert.NotNil(t, status.FinishedAt)
}

func TestMergeWorker_FailedJob(t *testing.T) {
	merger := &gatedMerger{release: make(chan struct{}), err: errors.New("policy store down")}
	close(merger.release)
	w := StartMergeWorker(merger, 4, time.Minute, nil)
	defer w.Stop()

	queued, err := w.Enqueue("acme", twoGroups, nil)
	require.NoError(t, err)

	status := waitForState(t, w, "acme", queued.JobId, model.JobStateFailed)
	assert.Contains(t, status.Error, "policy store down")
	assert.Nil(t, status.Result)
}

func TestMergeWorker_QueueFull(t *testing.T) {
	merger := &gatedMerger{release: make(chan struct{})}
	w := StartMergeWorker(merger, 1, time.Minute, nil)

	first, err := w.Enqueue("acme", twoGroups, nil)
	require.NoError(t, err)
	// The worker picks up the first job and blocks on it, freeing the single slot.
	waitForState(t, w, "acme", first.JobId, model.JobStateRunning)

	_, err = w.Enqueue("acme", twoGroups, nil)
	require.NoError(t, err)

	_, err = w.Enqueue("acme", twoGroups, nil)
	require.Error(t, err)
	assert.True(t, errors2.HasCode(err, errors2.MERGE_QUEUE_FULL))

	close(merger.release)
	w.Stop()
	assert.Len(t, merger.tenants, 2, "queued jobs drain before Stop returns")
}

func TestMergeWorker_JobsAreTenantScoped(t *testing.T) {
	merger := &gatedMerger{release: make(chan struct{})}
	close(merger.release)
	w := StartMergeWorker(merger, 4, time.Minute, nil)
	defer w.Stop()

	queued, err := w.Enqueue("acme", twoGroups, nil)
	require.NoError(t, err)

	_, err = w.JobStatus("globex", queued.JobId)
	assert.True(t, errors2.HasCode(err, errors2.MERGE_JOB_NOT_FOUND))
	_, err = w.JobStatus("acme", "unknown")
	assert.True(t, errors2.HasCode(err, errors2.MERGE_JOB_NOT_FOUND))
}

func TestMergeWorker_RejectsAfterStop(t *testing.T) {
	merger := &gatedMerger{release: make(chan struct{})}
	close(merger.release)
	w := StartMergeWorker(merger, 4, time.Minute, nil)
	w.Stop()
	w.Stop()

	_, err := w.Enqueue("acme", twoGroups, nil)
	assert.True(t, errors2.HasCode(err, errors2.MERGE_QUEUE_FULL))
}
