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

package model

import (
	leadModel "github.com/wso2/lead-deduplication-service/internal/lead/model"
)

// MatchType names the contact field(s) on which an intake candidate matched an existing lead.
type MatchType string

const (
	MatchEmail         MatchType = "email"
	MatchPhone         MatchType = "phone"
	MatchEmailAndPhone MatchType = "email_and_phone"
)

// CheckRequest carries the contact details of a lead that has not been stored yet.
type CheckRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
	// FailOpen reports "no duplicate" instead of an error when the store cannot be read.
	// Nil falls back to the configured default.
	FailOpen *bool `json:"fail_open,omitempty"`
}

// CheckResult is the outcome of an intake check. At most one existing lead is reported.
type CheckResult struct {
	IsDuplicate  bool            `json:"is_duplicate"`
	ExistingLead *leadModel.Lead `json:"existing_lead,omitempty"`
	MatchType    MatchType       `json:"match_type,omitempty"`
	// Degraded is set when a store failure was swallowed because the caller opted into fail-open.
	Degraded bool `json:"degraded,omitempty"`
}
