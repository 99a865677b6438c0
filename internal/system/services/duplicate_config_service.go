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

package services

import (
	"net/http"
	"strings"

	"github.com/wso2/lead-deduplication-service/internal/duplicate_config/handler"
	"github.com/wso2/lead-deduplication-service/internal/system/constants"
)

type DuplicateConfigService struct {
	duplicateConfigHandler *handler.DuplicateConfigHandler
}

func NewDuplicateConfigService(duplicateConfigHandler *handler.DuplicateConfigHandler) *DuplicateConfigService {
	return &DuplicateConfigService{
		duplicateConfigHandler: duplicateConfigHandler,
	}
}

// Route handles the tenant's duplicate prevention and resolution policy endpoints.
func (s *DuplicateConfigService) Route(w http.ResponseWriter, r *http.Request) {

	path := strings.TrimPrefix(strings.TrimSuffix(r.URL.Path, "/"), constants.DuplicateConfigApiPath)
	method := r.Method

	switch {
	case method == http.MethodGet && path == "/prevention-policy":
		s.duplicateConfigHandler.GetPreventionPolicy(w, r)

	case method == http.MethodPut && path == "/prevention-policy":
		s.duplicateConfigHandler.SetPreventionPolicy(w, r)

	case method == http.MethodGet && path == "/resolution-policy":
		s.duplicateConfigHandler.GetResolutionPolicy(w, r)

	case method == http.MethodPut && path == "/resolution-policy":
		s.duplicateConfigHandler.SetResolutionPolicy(w, r)

	default:
		http.NotFound(w, r)
	}
}
