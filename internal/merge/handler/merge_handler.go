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
	"strings"

	configModel "github.com/wso2/lead-deduplication-service/internal/duplicate_config/model"
	"github.com/wso2/lead-deduplication-service/internal/merge/model"
	"github.com/wso2/lead-deduplication-service/internal/merge/service"
	"github.com/wso2/lead-deduplication-service/internal/system/constants"
	"github.com/wso2/lead-deduplication-service/internal/system/utils"
)

// BulkMergeQueue accepts bulk merges for background processing.
type BulkMergeQueue interface {
	Enqueue(tenantId string, groups []model.GroupSpec,
		policy *configModel.ConflictResolutionPolicy) (model.BulkMergeJobStatus, error)
	JobStatus(tenantId, jobId string) (model.BulkMergeJobStatus, error)
}

type MergeHandler struct {
	service service.MergeServiceInterface
	queue   BulkMergeQueue
}

// NewMergeHandler wires the merge endpoints. queue may be nil, in which case async bulk merges run inline.
func NewMergeHandler(mergeService service.MergeServiceInterface, queue BulkMergeQueue) *MergeHandler {

	return &MergeHandler{
		service: mergeService,
		queue:   queue,
	}
}

// MergeTwo handles POST /duplicates/merge.
func (h *MergeHandler) MergeTwo(w http.ResponseWriter, r *http.Request) {

	var request model.MergeTwoRequest
	if !utils.DecodeJSONBody(w, r, &request, constants.MergeRequestResource) {
		return
	}
	tenantId := utils.ExtractTenantIdFromPath(r)
	result, err := h.service.MergeTwo(r.Context(), tenantId, request.PrimaryLeadId, request.SecondaryLeadId)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, result, constants.MergeRequestResource)
}

// MergeGroup handles POST /duplicates/groups/merge. With dry_run=true the merged primary is
// computed and returned without writing anything.
func (h *MergeHandler) MergeGroup(w http.ResponseWriter, r *http.Request) {

	var request model.MergeGroupRequest
	if !utils.DecodeJSONBody(w, r, &request, constants.GroupMergeResource) {
		return
	}
	tenantId := utils.ExtractTenantIdFromPath(r)

	var (
		result model.MergeResult
		err    error
	)
	if utils.QueryBool(r, constants.QueryParamDryRun, false) {
		result, err = h.service.PreviewGroup(r.Context(), tenantId, request.Group, request.Policy)
	} else {
		result, err = h.service.MergeGroup(r.Context(), tenantId, request.Group, request.Policy)
	}
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, result, constants.GroupMergeResource)
}

// BulkMergeGroups handles POST /duplicates/groups/bulk-merge. With async=true the job is queued
// and 202 is returned with its id.
func (h *MergeHandler) BulkMergeGroups(w http.ResponseWriter, r *http.Request) {

	var request model.BulkMergeRequest
	if !utils.DecodeJSONBody(w, r, &request, constants.BulkMergeResource) {
		return
	}
	if len(request.Groups) == 0 {
		utils.WriteBadRequestErrorResponse(w, "At least one group must be provided.")
		return
	}
	tenantId := utils.ExtractTenantIdFromPath(r)

	if h.queue != nil && utils.QueryBool(r, constants.QueryParamAsync, false) {
		if request.Policy != nil {
			resolved := request.Policy.WithDefaults()
			if err := resolved.Validate(); err != nil {
				utils.WriteBadRequestErrorResponse(w, err.Error())
				return
			}
		}
		status, err := h.queue.Enqueue(tenantId, request.Groups, request.Policy)
		if err != nil {
			utils.HandleError(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusAccepted, status, constants.BulkMergeJobResource)
		return
	}

	result, err := h.service.BulkMergeGroups(r.Context(), tenantId, request.Groups, request.Policy)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, result, constants.BulkMergeResource)
}

// GetBulkMergeJob handles GET /duplicates/groups/bulk-merge/jobs/{jobId}.
func (h *MergeHandler) GetBulkMergeJob(w http.ResponseWriter, r *http.Request) {

	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	jobId := pathParts[len(pathParts)-1]
	if h.queue == nil || jobId == "" || jobId == "jobs" {
		http.NotFound(w, r)
		return
	}
	status, err := h.queue.JobStatus(utils.ExtractTenantIdFromPath(r), jobId)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, status, constants.BulkMergeJobResource)
}
