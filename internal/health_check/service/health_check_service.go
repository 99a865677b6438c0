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

package service

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/wso2/lead-deduplication-service/internal/system/log"
)

// DependencyCheck checks one dependency. A nil error means the dependency is reachable.
type DependencyCheck func(ctx context.Context) error

// HealthCheckServiceInterface defines the service interface.
type HealthCheckServiceInterface interface {
	CheckReadiness(ctx context.Context) (map[string]string, error)
}

// HealthCheckService runs the registered dependency checks for readiness.
type HealthCheckService struct {
	checks  map[string]DependencyCheck
	timeout time.Duration
}

func NewHealthCheckService(checks map[string]DependencyCheck, timeout time.Duration) *HealthCheckService {
	return &HealthCheckService{checks: checks, timeout: timeout}
}

// CheckReadiness runs every dependency check and reports each dependency as ok or with its error.
// The returned error names the first failing dependency in name order.
func (h *HealthCheckService) CheckReadiness(ctx context.Context) (map[string]string, error) {

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	statuses := make(map[string]string, len(names))
	var firstErr error
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			log.GetLogger().Warn("Readiness check failed", log.String("dependency", name), log.Error(err))
			statuses[name] = err.Error()
			if firstErr == nil {
				firstErr = errors.Wrapf(err, "%s is not reachable", name)
			}
			continue
		}
		statuses[name] = "ok"
	}
	return statuses, firstErr
}
