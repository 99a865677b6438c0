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
	"fmt"
	"net/http"

	"github.com/wso2/lead-deduplication-service/internal/duplicate_scan/model"
	"github.com/wso2/lead-deduplication-service/internal/duplicate_scan/service"
	"github.com/wso2/lead-deduplication-service/internal/system/constants"
	errors2 "github.com/wso2/lead-deduplication-service/internal/system/errors"
	"github.com/wso2/lead-deduplication-service/internal/system/utils"
)

type DuplicateScanHandler struct {
	service service.DuplicateScanServiceInterface
}

func NewDuplicateScanHandler(scanService service.DuplicateScanServiceInterface) *DuplicateScanHandler {

	return &DuplicateScanHandler{
		service: scanService,
	}
}

// GetDuplicateGroups scans the tenant's leads. scope=all (default) runs every strategy,
// scope=exact only the passes named by the prevention policy.
func (h *DuplicateScanHandler) GetDuplicateGroups(w http.ResponseWriter, r *http.Request) {

	tenantId := utils.ExtractTenantIdFromPath(r)
	opts := model.ScanOptions{}
	if r.URL.Query().Has(constants.QueryParamFailOpen) {
		failOpen := utils.QueryBool(r, constants.QueryParamFailOpen, false)
		opts.FailOpen = &failOpen
	}

	var (
		result model.ScanResult
		err    error
	)
	switch scope := r.URL.Query().Get(constants.QueryParamScope); scope {
	case "", constants.ScanScopeAll:
		result, err = h.service.ScanAll(r.Context(), tenantId, opts)
	case constants.ScanScopeExact:
		result, err = h.service.ScanExact(r.Context(), tenantId, opts)
	default:
		clientError := errors2.NewClientError(errors2.INVALID_SCAN_SCOPE.WithDescription(
			fmt.Sprintf("Scope must be '%s' or '%s'. Got '%s'.", constants.ScanScopeAll, constants.ScanScopeExact, scope)),
			http.StatusBadRequest)
		utils.WriteErrorResponse(w, clientError)
		return
	}
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, result, "duplicate groups")
}
