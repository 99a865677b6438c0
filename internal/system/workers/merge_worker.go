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
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	configModel "github.com/wso2/lead-deduplication-service/internal/duplicate_config/model"
	"github.com/wso2/lead-deduplication-service/internal/merge/model"
	"github.com/wso2/lead-deduplication-service/internal/merge/service"
	"github.com/wso2/lead-deduplication-service/internal/system/cache"
	errors2 "github.com/wso2/lead-deduplication-service/internal/system/errors"
	"github.com/wso2/lead-deduplication-service/internal/system/log"
	"github.com/wso2/lead-deduplication-service/internal/system/metrics"
)

// BulkMerger runs a bulk merge. Implemented by service.MergeService.
type BulkMerger interface {
	BulkMergeGroups(ctx context.Context, tenantId string, groups []model.GroupSpec,
		policy *configModel.ConflictResolutionPolicy) (model.BulkMergeResult, error)
}

// MergeWorker drains queued bulk merge jobs one at a time in the background.
type MergeWorker struct {
	queue   chan model.BulkMergeJob
	merger  BulkMerger
	jobs    *cache.Cache[model.BulkMergeJobStatus]
	metrics *metrics.Metrics
	now     func() time.Time

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// StartMergeWorker creates the job queue and starts the consuming goroutine.
func StartMergeWorker(merger BulkMerger, queueSize int, retention time.Duration, m *metrics.Metrics) *MergeWorker {

	if queueSize < 1 {
		queueSize = 1
	}
	w := &MergeWorker{
		queue:   make(chan model.BulkMergeJob, queueSize),
		merger:  merger,
		jobs:    cache.NewCache[model.BulkMergeJobStatus](retention),
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
		done:    make(chan struct{}),
	}

	go func() {
		defer close(w.done)
		for job := range w.queue {
			w.metrics.SetQueueDepth(len(w.queue))
			w.process(job)
		}
	}()
	return w
}

// Enqueue queues a bulk merge without blocking. A full queue is reported as MERGE_QUEUE_FULL.
func (w *MergeWorker) Enqueue(tenantId string, groups []model.GroupSpec,
	policy *configModel.ConflictResolutionPolicy) (model.BulkMergeJobStatus, error) {

	w.mu.RLock()
	defer w.mu.RUnlock()

	queueFull := func(description string) error {
		return errors2.NewClientError(errors2.MERGE_QUEUE_FULL.WithDescription(description),
			http.StatusServiceUnavailable)
	}
	if w.closed {
		return model.BulkMergeJobStatus{}, queueFull("The merge worker is shutting down.")
	}

	job := model.BulkMergeJob{
		JobId:    uuid.New().String(),
		TenantId: tenantId,
		Groups:   groups,
		Policy:   policy,
	}
	status := model.BulkMergeJobStatus{
		JobId:      job.JobId,
		TenantId:   tenantId,
		State:      model.JobStateQueued,
		GroupCount: len(groups),
		EnqueuedAt: w.now(),
	}
	w.jobs.Set(job.JobId, status)

	select {
	case w.queue <- job:
		w.metrics.SetQueueDepth(len(w.queue))
		log.GetLogger().Info(fmt.Sprintf("Queued bulk merge job %s with %d groups", job.JobId, len(groups)),
			log.Tenant(tenantId))
		return status, nil
	default:
		w.jobs.Delete(job.JobId)
		return model.BulkMergeJobStatus{}, queueFull(
			fmt.Sprintf("%d bulk merge jobs are already waiting. Retry later.", cap(w.queue)))
	}
}

// JobStatus returns a job's last known state. Jobs of other tenants are not visible.
func (w *MergeWorker) JobStatus(tenantId, jobId string) (model.BulkMergeJobStatus, error) {

	status, found := w.jobs.Get(jobId)
	if !found || status.TenantId != tenantId {
		return model.BulkMergeJobStatus{}, errors2.NewClientError(errors2.MERGE_JOB_NOT_FOUND.WithDescription(
			fmt.Sprintf("No bulk merge job found for job_id: %s", jobId)), http.StatusNotFound)
	}
	return status, nil
}

// Stop refuses new jobs and waits for the queued ones to finish.
func (w *MergeWorker) Stop() {

	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()
	<-w.done
}

func (w *MergeWorker) process(job model.BulkMergeJob) {

	logger := log.GetLogger().ForTenant(job.TenantId, log.String("job_id", job.JobId))
	status, _ := w.jobs.Get(job.JobId)
	status.JobId, status.TenantId, status.GroupCount = job.JobId, job.TenantId, len(job.Groups)
	status.State = model.JobStateRunning
	w.jobs.Set(job.JobId, status)

	ctx := service.WithSystemInitiator(context.Background())
	result, err := w.merger.BulkMergeGroups(ctx, job.TenantId, job.Groups, job.Policy)
	finished := w.now()
	status.FinishedAt = &finished
	if err != nil {
		logger.Error("Bulk merge job failed", log.Error(err))
		status.State = model.JobStateFailed
		status.Error = err.Error()
	} else {
		logger.Info(fmt.Sprintf("Bulk merge job finished: %d succeeded, %d failed",
			result.SuccessCount, result.FailedCount))
		status.State = model.JobStateCompleted
		status.Result = &result
	}
	w.jobs.Set(job.JobId, status)
}
