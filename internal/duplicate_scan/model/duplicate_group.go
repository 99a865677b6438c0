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

// MatchType names the strategy that produced a duplicate group.
type MatchType string

const (
	ExactEmail MatchType = "exact_email"
	ExactPhone MatchType = "exact_phone"
	// ExactBoth marks groups agreeing on email and phone. ScanAll keys such groups by email and
	// reports them as exact_email, so no pass emits it; filters and callers still accept it.
	ExactBoth   MatchType = "exact_both"
	SimilarName MatchType = "similar_name"
	NameProgram MatchType = "name_program"
)

// MatchTypes lists every match type in precedence order.
var MatchTypes = []MatchType{ExactEmail, ExactBoth, ExactPhone, SimilarName, NameProgram}

// Confidence is a fixed score per strategy, not a computed probability.
func (m MatchType) Confidence() int {
	switch m {
	case ExactEmail, ExactBoth:
		return 100
	case ExactPhone:
		return 95
	case SimilarName:
		return 80
	case NameProgram:
		return 75
	}
	return 0
}

// IsValid reports whether m is a known match type.
func (m MatchType) IsValid() bool {
	return m.Confidence() > 0
}

// DuplicateGroup is a set of two or more leads judged to be the same person by one strategy.
// Leads are ordered oldest first and PrimaryLeadId defaults to the oldest.
type DuplicateGroup struct {
	Id            string           `json:"id"`
	MatchType     MatchType        `json:"match_type"`
	Confidence    int              `json:"confidence"`
	Leads         []leadModel.Lead `json:"leads"`
	PrimaryLeadId string           `json:"primary_lead_id"`
}

// LeadIds returns the member ids in group order.
func (g DuplicateGroup) LeadIds() []string {
	ids := make([]string, 0, len(g.Leads))
	for _, l := range g.Leads {
		ids = append(ids, l.LeadId)
	}
	return ids
}

// ScanOptions tunes a single scan call.
type ScanOptions struct {
	// FailOpen returns an empty, degraded result instead of an error when the store cannot be read.
	// Nil falls back to the configured default.
	FailOpen *bool
}

// ScanResult is the outcome of a scan.
type ScanResult struct {
	TenantId     string           `json:"tenant_id"`
	Scope        string           `json:"scope"`
	LeadsScanned int              `json:"leads_scanned"`
	Groups       []DuplicateGroup `json:"groups"`
	Degraded     bool             `json:"degraded,omitempty"`
}

// CountByMatchType tallies the groups of each match type.
func (r ScanResult) CountByMatchType() map[string]int {
	counts := make(map[string]int)
	for _, g := range r.Groups {
		counts[string(g.MatchType)]++
	}
	return counts
}
