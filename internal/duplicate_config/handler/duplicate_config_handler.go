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
	"net/http"

	"github.com/wso2/lead-deduplication-service/internal/duplicate_config/model"
	"github.com/wso2/lead-deduplication-service/internal/duplicate_config/service"
	"github.com/wso2/lead-deduplication-service/internal/system/constants"
	"github.com/wso2/lead-deduplication-service/internal/system/utils"
)

type DuplicateConfigHandler struct {
	service service.DuplicateConfigServiceInterface
}

func NewDuplicateConfigHandler(configService service.DuplicateConfigServiceInterface) *DuplicateConfigHandler {

	return &DuplicateConfigHandler{
		service: configService,
	}
}

// GetPreventionPolicy returns the tenant's prevention policy.
func (h *DuplicateConfigHandler) GetPreventionPolicy(w http.ResponseWriter, r *http.Request) {

	tenantId := utils.ExtractTenantIdFromPath(r)
	config, err := h.service.GetTenantConfig(r.Context(), tenantId)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, model.PreventionPolicyAPIResponse{
		Policy:       config.PreventionPolicy,
		ConfiguredAt: config.PolicyConfiguredAt,
	}, constants.PreventionPolicyResource)
}

// SetPreventionPolicy configures the tenant's prevention policy. It can be set only once.
func (h *DuplicateConfigHandler) SetPreventionPolicy(w http.ResponseWriter, r *http.Request) {

	var request model.PreventionPolicyAPIRequest
	if !utils.DecodeJSONBody(w, r, &request, constants.PreventionPolicyResource) {
		return
	}

	tenantId := utils.ExtractTenantIdFromPath(r)
	config, err := h.service.SetPreventionPolicy(r.Context(), tenantId, request.Policy)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, model.PreventionPolicyAPIResponse{
		Policy:       config.PreventionPolicy,
		ConfiguredAt: config.PolicyConfiguredAt,
	}, constants.PreventionPolicyResource)
}

// GetResolutionPolicy returns the tenant's conflict resolution policy.
func (h *DuplicateConfigHandler) GetResolutionPolicy(w http.ResponseWriter, r *http.Request) {

	tenantId := utils.ExtractTenantIdFromPath(r)
	policy, err := h.service.GetResolutionPolicy(r.Context(), tenantId)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, policy, constants.ResolutionPolicyResource)
}

// SetResolutionPolicy replaces the tenant's conflict resolution policy.
func (h *DuplicateConfigHandler) SetResolutionPolicy(w http.ResponseWriter, r *http.Request) {

	var request model.ConflictResolutionPolicy
	if !utils.DecodeJSONBody(w, r, &request, constants.ResolutionPolicyResource) {
		return
	}

	tenantId := utils.ExtractTenantIdFromPath(r)
	policy, err := h.service.SetResolutionPolicy(r.Context(), tenantId, request)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, policy, constants.ResolutionPolicyResource)
}
