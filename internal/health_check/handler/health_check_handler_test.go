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
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/lead-deduplication-service/internal/health_check/service"
	"github.com/wso2/lead-deduplication-service/internal/system/log"
)

func TestMain(m *testing.M) {
	_ = log.Init("ERROR")
	os.Exit(m.Run())
}

func ok(context.Context) error { return nil }

func TestHandleHealth(t *testing.T) {
	h := NewHealthHandler(service.NewHealthCheckService(nil, time.Second))
	rec := httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleReadiness(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]service.DependencyCheck
		status int
		want   map[string]string
	}{
		{
			name:   "all reachable",
			checks: map[string]service.DependencyCheck{"datasource": ok, "redis": ok},
			status: http.StatusOK,
			want:   map[string]string{"datasource": "ok", "redis": "ok"},
		},
		{
			name: "lock backend down",
			checks: map[string]service.DependencyCheck{
				"datasource": ok,
				"redis":      func(context.Context) error { return errors.New("connection refused") },
			},
			status: http.StatusServiceUnavailable,
			want:   map[string]string{"datasource": "ok", "redis": "connection refused"},
		},
		{
			name:   "no dependencies",
			status: http.StatusOK,
			want:   map[string]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(service.NewHealthCheckService(tt.checks, time.Second))
			rec := httptest.NewRecorder()
			h.HandleReadiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
			require.Equal(t, tt.status, rec.Code)

			var body struct {
				Dependencies map[string]string `json:"dependencies"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.want, body.Dependencies)
		})
	}
}

func TestCheckReadiness_DependencyChecksSeeDeadline(t *testing.T) {
	svc := service.NewHealthCheckService(map[string]service.DependencyCheck{
		"slow": func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}, 20*time.Millisecond)

	statuses, err := svc.CheckReadiness(context.Background())
	require.Error(t, err)
	assert.Contains(t, statuses["slow"], "deadline exceeded")
}
