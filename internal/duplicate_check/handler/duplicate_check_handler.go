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

	"github.com/wso2/lead-deduplication-service/internal/duplicate_check/model"
	"github.com/wso2/lead-deduplication-service/internal/duplicate_check/service"
	"github.com/wso2/lead-deduplication-service/internal/system/constants"
	"github.com/wso2/lead-deduplication-service/internal/system/utils"
)

type DuplicateCheckHandler struct {
	service service.DuplicateCheckServiceInterface
}

func NewDuplicateCheckHandler(checkService service.DuplicateCheckServiceInterface) *DuplicateCheckHandler {

	return &DuplicateCheckHandler{
		service: checkService,
	}
}

// CheckDuplicate reports whether the posted contact details match an existing lead.
func (h *DuplicateCheckHandler) CheckDuplicate(w http.ResponseWriter, r *http.Request) {

	var request model.CheckRequest
	if !utils.DecodeJSONBody(w, r, &request, constants.DuplicateCheckResource) {
		return
	}
	if request.Email == "" && request.Phone == "" {
		utils.WriteBadRequestErrorResponse(w, "Either email or phone must be provided.")
		return
	}

	tenantId := utils.ExtractTenantIdFromPath(r)
	result, err := h.service.Check(r.Context(), tenantId, request)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, result, constants.DuplicateCheckResource)
}
