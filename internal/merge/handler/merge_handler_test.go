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

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	configModel "github.com/wso2/lead-deduplication-service/internal/duplicate_config/model"
	leadModel "github.com/wso2/lead-deduplication-service/internal/lead/model"
	"github.com/wso2/lead-deduplication-service/internal/lead/store"
	"github.com/wso2/lead-deduplication-service/internal/merge/model"
	"github.com/wso2/lead-deduplication-service/internal/merge/service"
	"github.com/wso2/lead-deduplication-service/internal/system/constants"
	"github.com/wso2/lead-deduplication-service/internal/system/database/lock"
	errors2 "github.com/wso2/lead-deduplication-service/internal/system/errors"
	"github.com/wso2/lead-deduplication-service/internal/system/log"
	"github.com/wso2/lead-deduplication-service/internal/system/workers"
)

func TestMain(m *testing.M) {
	_ = log.Init("ERROR")
	os.Exit(m.Run())
}

type defaultPolicy struct{}

func (defaultPolicy) GetResolutionPolicy(context.Context, string) (configModel.ConflictResolutionPolicy, error) {
	return configModel.DefaultResolutionPolicy(), nil
}

func setup(t *testing.T, ids ...string) (*MergeHandler, *store.MemoryLeadStore) {
	t.Helper()
	leads := store.NewMemoryLeadStore()
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range ids {
		_, err := leads.InsertOrUpdate(context.Background(), leadModel.Lead{
			LeadId: id, TenantId: "acme", CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}
	svc := service.NewMergeService(leads, defaultPolicy{}, lock.NewLocalLock(),
		service.Settings{LockWaitTimeout: time.Second, BulkParallelism: 2}, nil)
	worker := workers.StartMergeWorker(svc, 4, time.Minute, nil)
	t.Cleanup(worker.Stop)
	return NewMergeHandler(svc, worker), leads
}

func call(handler http.HandlerFunc, method, target string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	r := httptest.NewRequest(method, target, &buf)
	r = r.WithContext(context.WithValue(r.Context(), constants.TenantContextKey, "acme"))
	rec := httptest.NewRecorder()
	handler(rec, r)
	return rec
}

func remaining(t *testing.T, leads *store.MemoryLeadStore) int {
	t.Helper()
	all, err := leads.Find(context.Background(), "acme", leadModel.LeadFilter{})
	require.NoError(t, err)
	return len(all)
}

// ---------------------------------------------------------------------------
// POST /duplicates/merge
// ---------------------------------------------------------------------------

func TestMergeTwoHandler(t *testing.T) {
	h, leads := setup(t, "p", "s")

	rec := call(h.MergeTwo, http.MethodPost, "/duplicates/merge",
		model.MergeTwoRequest{PrimaryLeadId: "p", SecondaryLeadId: "s"})
	require.Equal(t, http.StatusOK, rec.Code)

	var result model.MergeResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "p", result.PrimaryLead.LeadId)
	assert.Equal(t, []string{"s"}, result.MergedLeadIds)
	assert.Equal(t, 1, remaining(t, leads))
}

func TestMergeTwoHandler_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   interface{}
		status int
		code   string
	}{
		{"same record", model.MergeTwoRequest{PrimaryLeadId: "p", SecondaryLeadId: "p"},
			http.StatusBadRequest, errors2.SAME_RECORD_MERGE.Code},
		{"missing lead", model.MergeTwoRequest{PrimaryLeadId: "p", SecondaryLeadId: "zz"},
			http.StatusNotFound, errors2.RECORD_NOT_FOUND.Code},
		{"unknown field", map[string]string{"primary": "p"}, http.StatusBadRequest, errors2.BAD_REQUEST.Code},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := setup(t, "p", "s")
			rec := call(h.MergeTwo, http.MethodPost, "/duplicates/merge", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.code)
		})
	}
}

// ---------------------------------------------------------------------------
// POST /duplicates/groups/merge
// ---------------------------------------------------------------------------

func TestMergeGroupHandler_DryRun(t *testing.T) {
	h, leads := setup(t, "a", "b", "c")
	body := model.MergeGroupRequest{Group: model.GroupSpec{LeadIds: []string{"a", "b", "c"}}}

	rec := call(h.MergeGroup, http.MethodPost, "/duplicates/groups/merge?dry_run=true", body)
	require.Equal(t, http.StatusOK, rec.Code)
	var preview model.MergeResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &preview))
	assert.True(t, preview.DryRun)
	assert.Equal(t, 3, remaining(t, leads))

	rec = call(h.MergeGroup, http.MethodPost, "/duplicates/groups/merge", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, remaining(t, leads))
}

func TestMergeGroupHandler_InvalidPolicy(t *testing.T) {
	h, _ := setup(t, "a", "b")
	body := map[string]interface{}{
		"group":  map[string]interface{}{"lead_ids": []string{"a", "b"}},
		"policy": map[string]string{"tags": "intersect"},
	}

	rec := call(h.MergeGroup, http.MethodPost, "/duplicates/groups/merge", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), errors2.INVALID_RESOLUTION_POLICY.Code)
}

// ---------------------------------------------------------------------------
// POST /duplicates/groups/bulk-merge
// ---------------------------------------------------------------------------

func TestBulkMergeHandler_Sync(t *testing.T) {
	h, leads := setup(t, "a", "b", "c", "d")
	body := model.BulkMergeRequest{Groups: []model.GroupSpec{
		{Id: "g1", LeadIds: []string{"a", "b"}},
		{Id: "g2", LeadIds: []string{"c", "missing"}},
	}}

	rec := call(h.BulkMergeGroups, http.MethodPost, "/duplicates/groups/bulk-merge", body)
	require.Equal(t, http.StatusOK, rec.Code)
	var result model.BulkMergeResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 1, result.FailedCount)
	assert.Equal(t, 3, remaining(t, leads))
}

func TestBulkMergeHandler_EmptyGroups(t *testing.T) {
	h, _ := setup(t)
	rec := call(h.BulkMergeGroups, http.MethodPost, "/duplicates/groups/bulk-merge", model.BulkMergeRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBulkMergeHandler_Async(t *testing.T) {
	h, leads := setup(t, "a", "b")
	body := model.BulkMergeRequest{Groups: []model.GroupSpec{{Id: "g1", LeadIds: []string{"a", "b"}}}}

	rec := call(h.BulkMergeGroups, http.MethodPost, "/duplicates/groups/bulk-merge?async=true", body)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var queued model.BulkMergeJobStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &queued))
	require.NotEmpty(t, queued.JobId)

	require.Eventually(t, func() bool {
		rec := call(h.GetBulkMergeJob, http.MethodGet, "/duplicates/groups/bulk-merge/jobs/"+queued.JobId, nil)
		var status model.BulkMergeJobStatus
		_ = json.Unmarshal(rec.Body.Bytes(), &status)
		return rec.Code == http.StatusOK && status.State == model.JobStateCompleted
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, remaining(t, leads))
}

func TestBulkMergeHandler_AsyncInvalidPolicy(t *testing.T) {
	h, _ := setup(t, "a", "b")
	body := map[string]interface{}{
		"groups": []map[string]interface{}{{"lead_ids": []string{"a", "b"}}},
		"policy": map[string]string{"documents": "drop"},
	}

	rec := call(h.BulkMergeGroups, http.MethodPost, "/duplicates/groups/bulk-merge?async=true", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetBulkMergeJob_Unknown(t *testing.T) {
	h, _ := setup(t)
	rec := call(h.GetBulkMergeJob, http.MethodGet, "/duplicates/groups/bulk-merge/jobs/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), errors2.MERGE_JOB_NOT_FOUND.Code)
}
