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

package managers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	checkModel "github.com/wso2/lead-deduplication-service/internal/duplicate_check/model"
	scanModel "github.com/wso2/lead-deduplication-service/internal/duplicate_scan/model"
	leadModel "github.com/wso2/lead-deduplication-service/internal/lead/model"
	mergeModel "github.com/wso2/lead-deduplication-service/internal/merge/model"
	"github.com/wso2/lead-deduplication-service/internal/system/config"
	"github.com/wso2/lead-deduplication-service/internal/system/constants"
	"github.com/wso2/lead-deduplication-service/internal/system/log"
	"github.com/wso2/lead-deduplication-service/internal/system/workers"
)

func TestMain(m *testing.M) {
	_ = log.Init("ERROR")
	os.Exit(m.Run())
}

func memoryConfig() config.Config {
	cfg := config.Config{DataSource: config.DataSourceConfig{Type: config.DataSourceMemory}}
	cfg.ApplyDefaults()
	return cfg
}

func newServer(t *testing.T) (*httptest.Server, *Engine) {
	t.Helper()
	engine, err := NewEngine(context.Background(), memoryConfig(), nil)
	require.NoError(t, err)
	worker := workers.StartMergeWorker(engine.MergeService, 4, time.Minute, nil)
	t.Cleanup(func() {
		worker.Stop()
		engine.Close()
	})

	mux := http.NewServeMux()
	require.NoError(t, NewServiceManager(mux, engine, worker).RegisterServices(constants.ApiBasePath))
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, engine
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	return resp, []byte(buf.String())
}

func TestNewEngine_RejectsUnknownBackends(t *testing.T) {
	cfg := memoryConfig()
	cfg.Merge.LockBackend = "zookeeper"
	_, err := NewEngine(context.Background(), cfg, nil)
	assert.Error(t, err)

	cfg = memoryConfig()
	cfg.Merge.LockBackend = config.LockBackendPostgres
	_, err = NewEngine(context.Background(), cfg, nil)
	assert.Error(t, err, "postgres locks need the postgres datasource")

	cfg = memoryConfig()
	cfg.DataSource.Type = "oracle"
	_, err = NewEngine(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestEndToEnd_CheckScanMerge(t *testing.T) {
	server, engine := newServer(t)
	base := server.URL + "/t/acme/api/v1"
	ctx := context.Background()

	for _, l := range []leadModel.Lead{
		{LeadId: "l1", TenantId: "acme", Email: "maria@example.com", ProgramInterest: []string{"MBA"},
			CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{LeadId: "l2", TenantId: "acme", Email: "MARIA@example.com ", ProgramInterest: []string{"LLM"},
			CreatedAt: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)},
	} {
		_, err := engine.Leads.InsertOrUpdate(ctx, l)
		require.NoError(t, err)
	}

	resp, _ := do(t, http.MethodPut, base+"/duplicate-config/prevention-policy", `{"policy":"email"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = do(t, http.MethodPut, base+"/duplicate-config/prevention-policy", `{"policy":"phone"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body := do(t, http.MethodPost, base+"/duplicates/check", `{"email":"maria@EXAMPLE.com"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var check checkModel.CheckResult
	require.NoError(t, json.Unmarshal(body, &check))
	assert.True(t, check.IsDuplicate)
	assert.Equal(t, "l1", check.ExistingLead.LeadId)

	resp, body = do(t, http.MethodGet, base+"/duplicates/groups?scope=exact", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var scan scanModel.ScanResult
	require.NoError(t, json.Unmarshal(body, &scan))
	require.Len(t, scan.Groups, 1)

	group, err := json.Marshal(map[string]interface{}{"group": mergeModel.FromDuplicateGroup(scan.Groups[0])})
	require.NoError(t, err)
	resp, body = do(t, http.MethodPost, base+"/duplicates/groups/merge", string(group))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var merged mergeModel.MergeResult
	require.NoError(t, json.Unmarshal(body, &merged))
	assert.Equal(t, "l1", merged.PrimaryLead.LeadId)
	assert.Equal(t, []string{"MBA", "LLM"}, merged.PrimaryLead.ProgramInterest)

	remaining, err := engine.Leads.Find(ctx, "acme", leadModel.LeadFilter{})
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestRouting(t *testing.T) {
	server, _ := newServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"prevention policy default", http.MethodGet, "/t/acme/api/v1/duplicate-config/prevention-policy", "", http.StatusOK},
		{"resolution policy default", http.MethodGet, "/t/acme/api/v1/duplicate-config/resolution-policy/", "", http.StatusOK},
		{"unknown config path", http.MethodGet, "/t/acme/api/v1/duplicate-config/other", "", http.StatusNotFound},
		{"wrong method", http.MethodDelete, "/t/acme/api/v1/duplicates/groups", "", http.StatusNotFound},
		{"unknown service", http.MethodGet, "/t/acme/api/v1/profiles", "", http.StatusNotFound},
		{"bad scope", http.MethodGet, "/t/acme/api/v1/duplicates/groups?scope=fuzzy", "", http.StatusBadRequest},
		{"same record", http.MethodPost, "/t/acme/api/v1/duplicates/merge",
			`{"primary_lead_id":"a","secondary_lead_id":"a"}`, http.StatusBadRequest},
		{"unknown job", http.MethodGet, "/t/acme/api/v1/duplicates/groups/bulk-merge/jobs/x", "", http.StatusNotFound},
		{"liveness", http.MethodGet, "/health", "", http.StatusOK},
		{"readiness", http.MethodGet, "/ready", "", http.StatusOK},
		{"default tenant redirect", http.MethodGet, "/api/v1/duplicates/groups", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := do(t, tt.method, server.URL+tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
