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

package constants

const ApiBasePath = "/api/v1"
const DuplicateConfigApiPath = "/duplicate-config"
const DuplicatesApiPath = "/duplicates"
const MetricsPath = "/metrics"
const HealthPath = "/health"
const ReadinessPath = "/ready"
const DefaultTenant = "carbon.super"

type contextKey string

const TenantContextKey contextKey = "tenant"

// Resource names used in request decoding and response messages.
const (
	PreventionPolicyResource = "prevention policy"
	ResolutionPolicyResource = "resolution policy"
	DuplicateCheckResource   = "duplicate check"
	MergeRequestResource     = "merge request"
	GroupMergeResource       = "group merge"
	BulkMergeResource        = "bulk merge"
	BulkMergeJobResource     = "bulk merge job"
)

// Scan scopes accepted by the duplicate groups endpoint.
const (
	ScanScopeAll   = "all"
	ScanScopeExact = "exact"
)

const (
	QueryParamScope    = "scope"
	QueryParamFailOpen = "fail_open"
	QueryParamAsync    = "async"
	QueryParamDryRun   = "dry_run"
)
