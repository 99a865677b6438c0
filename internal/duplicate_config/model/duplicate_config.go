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
	"fmt"
	"time"
)

// PreventionPolicy selects which contact fields trigger a duplicate check at intake.
type PreventionPolicy string

const (
	PreventionNone  PreventionPolicy = "none"
	PreventionEmail PreventionPolicy = "email"
	PreventionPhone PreventionPolicy = "phone"
	PreventionBoth  PreventionPolicy = "both"
)

// IsValid reports whether p is a known prevention policy.
func (p PreventionPolicy) IsValid() bool {
	switch p {
	case PreventionNone, PreventionEmail, PreventionPhone, PreventionBoth:
		return true
	}
	return false
}

// ChecksEmail reports whether the policy compares email addresses.
func (p PreventionPolicy) ChecksEmail() bool {
	return p == PreventionEmail || p == PreventionBoth
}

// ChecksPhone reports whether the policy compares phone numbers.
func (p PreventionPolicy) ChecksPhone() bool {
	return p == PreventionPhone || p == PreventionBoth
}

// Merge strategies accepted by ConflictResolutionPolicy fields.
const (
	StrategyUnionAll    = "union_all"
	StrategyKeepPrimary = "keep_primary"
	StrategyMergeAll    = "merge_all"
	StrategyKeepNewest  = "keep_newest"
	StrategyKeepHighest = "keep_highest"
	StrategyConcatenate = "concatenate"
)

// ConflictResolutionPolicy decides, per field category, how values of merged leads combine.
type ConflictResolutionPolicy struct {
	Programs  string `json:"programs"`
	Documents string `json:"documents"`
	Status    string `json:"status"`
	Priority  string `json:"priority"`
	LeadScore string `json:"leadScore"`
	Tags      string `json:"tags"`
	Notes     string `json:"notes"`
}

var allowedStrategies = map[string][]string{
	"programs":  {StrategyUnionAll, StrategyKeepPrimary},
	"documents": {StrategyMergeAll, StrategyKeepPrimary},
	"status":    {StrategyKeepPrimary, StrategyKeepNewest},
	"priority":  {StrategyKeepHighest, StrategyKeepPrimary},
	"leadScore": {StrategyKeepHighest, StrategyKeepPrimary},
	"tags":      {StrategyUnionAll, StrategyKeepPrimary},
	"notes":     {StrategyConcatenate, StrategyKeepPrimary},
}

// DefaultResolutionPolicy is applied when a tenant has not stored its own.
func DefaultResolutionPolicy() ConflictResolutionPolicy {
	return ConflictResolutionPolicy{
		Programs:  StrategyUnionAll,
		Documents: StrategyMergeAll,
		Status:    StrategyKeepPrimary,
		Priority:  StrategyKeepHighest,
		LeadScore: StrategyKeepHighest,
		Tags:      StrategyUnionAll,
		Notes:     StrategyConcatenate,
	}
}

// WithDefaults fills blank fields from DefaultResolutionPolicy.
func (p ConflictResolutionPolicy) WithDefaults() ConflictResolutionPolicy {
	d := DefaultResolutionPolicy()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&p.Programs, d.Programs)
	fill(&p.Documents, d.Documents)
	fill(&p.Status, d.Status)
	fill(&p.Priority, d.Priority)
	fill(&p.LeadScore, d.LeadScore)
	fill(&p.Tags, d.Tags)
	fill(&p.Notes, d.Notes)
	return p
}

// Validate returns an error naming the first field holding an unsupported strategy.
func (p ConflictResolutionPolicy) Validate() error {
	values := []struct {
		field string
		value string
	}{
		{"programs", p.Programs},
		{"documents", p.Documents},
		{"status", p.Status},
		{"priority", p.Priority},
		{"leadScore", p.LeadScore},
		{"tags", p.Tags},
		{"notes", p.Notes},
	}
	for _, v := range values {
		if !contains(allowedStrategies[v.field], v.value) {
			return fmt.Errorf("unsupported strategy '%s' for field '%s', allowed: %v", v.value, v.field,
				allowedStrategies[v.field])
		}
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// TenantConfig is the duplicate handling configuration of one tenant.
type TenantConfig struct {
	TenantId           string                   `json:"tenant_id"`
	PreventionPolicy   PreventionPolicy         `json:"prevention_policy"`
	PolicyConfiguredAt *time.Time               `json:"policy_configured_at,omitempty"`
	ResolutionPolicy   ConflictResolutionPolicy `json:"resolution_policy"`
}
