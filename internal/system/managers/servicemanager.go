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
	"net/http"
	"strings"
	"time"

	checkHandler "github.com/wso2/lead-deduplication-service/internal/duplicate_check/handler"
	configHandler "github.com/wso2/lead-deduplication-service/internal/duplicate_config/handler"
	scanHandler "github.com/wso2/lead-deduplication-service/internal/duplicate_scan/handler"
	healthHandler "github.com/wso2/lead-deduplication-service/internal/health_check/handler"
	healthService "github.com/wso2/lead-deduplication-service/internal/health_check/service"
	mergeHandler "github.com/wso2/lead-deduplication-service/internal/merge/handler"
	"github.com/wso2/lead-deduplication-service/internal/system/constants"
	"github.com/wso2/lead-deduplication-service/internal/system/services"
	"github.com/wso2/lead-deduplication-service/internal/system/utils"
)

type ServiceManagerInterface interface {
	RegisterServices(apiBasePath string) error
}

type ServiceManager struct {
	mux    *http.ServeMux
	engine *Engine
	queue  mergeHandler.BulkMergeQueue
}

// NewServiceManager creates a new instance of ServiceManager. queue may be nil to disable async bulk merges.
func NewServiceManager(mux *http.ServeMux, engine *Engine, queue mergeHandler.BulkMergeQueue) ServiceManagerInterface {

	return &ServiceManager{
		mux:    mux,
		engine: engine,
		queue:  queue,
	}
}

func (sm *ServiceManager) RegisterServices(apiBasePath string) error {

	utils.RewriteToDefaultTenant(apiBasePath, sm.mux, constants.DefaultTenant)

	health := healthHandler.NewHealthHandler(healthService.NewHealthCheckService(sm.engine.DependencyChecks, 5*time.Second))
	sm.mux.HandleFunc(constants.HealthPath, health.HandleHealth)
	sm.mux.HandleFunc(constants.ReadinessPath, health.HandleReadiness)

	duplicateConfigService := services.NewDuplicateConfigService(
		configHandler.NewDuplicateConfigHandler(sm.engine.ConfigService))
	duplicatesService := services.NewDuplicatesService(
		checkHandler.NewDuplicateCheckHandler(sm.engine.CheckService),
		scanHandler.NewDuplicateScanHandler(sm.engine.ScanService),
		mergeHandler.NewMergeHandler(sm.engine.MergeService, sm.queue),
	)

	// Single tenant dispatcher for all services
	utils.MountTenantDispatcher(sm.mux, apiBasePath, func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimSuffix(r.URL.Path, "/")

		switch {
		case strings.HasPrefix(path, constants.DuplicateConfigApiPath):
			duplicateConfigService.Route(w, r)
		case strings.HasPrefix(path, constants.DuplicatesApiPath):
			duplicatesService.Route(w, r)
		default:
			http.NotFound(w, r)
		}
	})
	return nil
}
