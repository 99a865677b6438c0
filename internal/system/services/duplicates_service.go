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

	checkHandler "github.com/wso2/lead-deduplication-service/internal/duplicate_check/handler"
	scanHandler "github.com/wso2/lead-deduplication-service/internal/duplicate_scan/handler"
	mergeHandler "github.com/wso2/lead-deduplication-service/internal/merge/handler"
	"github.com/wso2/lead-deduplication-service/internal/system/constants"
)

type DuplicatesService struct {
	checkHandler *checkHandler.DuplicateCheckHandler
	scanHandler  *scanHandler.DuplicateScanHandler
	mergeHandler *mergeHandler.MergeHandler
}

func NewDuplicatesService(check *checkHandler.DuplicateCheckHandler, scan *scanHandler.DuplicateScanHandler,
	merge *mergeHandler.MergeHandler) *DuplicatesService {

	return &DuplicatesService{
		checkHandler: check,
		scanHandler:  scan,
		mergeHandler: merge,
	}
}

// Route handles duplicate detection and merge endpoints.
func (s *DuplicatesService) Route(w http.ResponseWriter, r *http.Request) {

	path := strings.TrimPrefix(strings.TrimSuffix(r.URL.Path, "/"), constants.DuplicatesApiPath)
	method := r.Method

	switch {
	case method == http.MethodPost && path == "/check":
		s.checkHandler.CheckDuplicate(w, r)

	case method == http.MethodGet && path == "/groups":
		s.scanHandler.GetDuplicateGroups(w, r)

	case method == http.MethodPost && path == "/merge":
		s.mergeHandler.MergeTwo(w, r)

	case method == http.MethodPost && path == "/groups/merge":
		s.mergeHandler.MergeGroup(w, r)

	case method == http.MethodPost && path == "/groups/bulk-merge":
		s.mergeHandler.BulkMergeGroups(w, r)

	case method == http.MethodGet && strings.HasPrefix(path, "/groups/bulk-merge/jobs/"):
		s.mergeHandler.GetBulkMergeJob(w, r)

	default:
		http.NotFound(w, r)
	}
}
