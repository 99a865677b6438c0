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

package service

import (
	"fmt"
	"strings"
	"time"

	configModel "github.com/wso2/lead-deduplication-service/internal/duplicate_config/model"
	leadModel "github.com/wso2/lead-deduplication-service/internal/lead/model"
)

const notesSeparator = "\n\n---\n\n"

// mergeTwoLeads applies the fixed two-record rules: blank contact and location fields are filled
// from the secondary, program and tag sets are unioned, and the higher score wins.
func mergeTwoLeads(primary, secondary leadModel.Lead, at time.Time) leadModel.Lead {

	merged := primary.Clone()
	fillBlank(&merged.Phone, secondary.Phone)
	fillBlank(&merged.Country, secondary.Country)
	fillBlank(&merged.State, secondary.State)
	fillBlank(&merged.City, secondary.City)
	merged.ProgramInterest = union(primary.ProgramInterest, secondary.ProgramInterest)
	merged.Tags = union(primary.Tags, secondary.Tags)
	if secondary.LeadScore > merged.LeadScore {
		merged.LeadScore = secondary.LeadScore
	}
	merged.Notes = appendAnnotation(merged.Notes,
		fmt.Sprintf("[Merged with lead %s on %s]", secondary.LeadId, at.UTC().Format(time.RFC3339)))
	return merged
}

// mergeGroupLeads resolves every field of the primary across members according to policy.
// members holds all leads of the group, primary included, in group order.
func mergeGroupLeads(primary leadModel.Lead, members []leadModel.Lead, policy configModel.ConflictResolutionPolicy,
	at time.Time) leadModel.Lead {

	merged := primary.Clone()
	secondaries := make([]leadModel.Lead, 0, len(members)-1)
	for _, m := range members {
		if m.LeadId != primary.LeadId {
			secondaries = append(secondaries, m)
		}
	}

	if policy.Programs == configModel.StrategyUnionAll {
		sets := make([][]string, 0, len(members))
		sets = append(sets, primary.ProgramInterest)
		for _, s := range secondaries {
			sets = append(sets, s.ProgramInterest)
		}
		merged.ProgramInterest = union(sets...)
	}
	if policy.Tags == configModel.StrategyUnionAll {
		sets := make([][]string, 0, len(members))
		sets = append(sets, primary.Tags)
		for _, s := range secondaries {
			sets = append(sets, s.Tags)
		}
		merged.Tags = union(sets...)
	}
	if policy.Priority == configModel.StrategyKeepHighest {
		priorities := []leadModel.Priority{primary.Priority}
		for _, s := range secondaries {
			priorities = append(priorities, s.Priority)
		}
		if best := leadModel.MostUrgent(priorities...); best != "" {
			merged.Priority = best
		}
	}
	if policy.LeadScore == configModel.StrategyKeepHighest {
		for _, s := range secondaries {
			if s.LeadScore > merged.LeadScore {
				merged.LeadScore = s.LeadScore
			}
		}
	}
	if policy.Status == configModel.StrategyKeepNewest {
		if status := newestStatus(members); status != "" {
			merged.Status = status
		}
	}
	if policy.Notes == configModel.StrategyConcatenate {
		var notes []string
		for _, m := range members {
			if n := strings.TrimSpace(m.Notes); n != "" {
				notes = append(notes, n)
			}
		}
		merged.Notes = strings.Join(notes, notesSeparator)
	}

	// First non-blank secondary value wins for anything still blank on the primary.
	for _, s := range secondaries {
		fillBlank(&merged.Email, s.Email)
		fillBlank(&merged.Phone, s.Phone)
		fillBlank(&merged.FirstName, s.FirstName)
		fillBlank(&merged.LastName, s.LastName)
		fillBlank(&merged.Country, s.Country)
		fillBlank(&merged.State, s.State)
		fillBlank(&merged.City, s.City)
		fillBlank(&merged.Status, s.Status)
	}

	merged.Notes = appendAnnotation(merged.Notes,
		fmt.Sprintf("[Merged %d records on %s]", len(members), at.UTC().Format(time.RFC3339)))
	return merged
}

// newestStatus returns the status of the most recently updated member that has one.
func newestStatus(members []leadModel.Lead) string {
	var (
		status  string
		updated time.Time
	)
	for _, m := range members {
		if strings.TrimSpace(m.Status) == "" {
			continue
		}
		if status == "" || m.UpdatedAt.After(updated) {
			status = m.Status
			updated = m.UpdatedAt
		}
	}
	return status
}

func fillBlank(target *string, value string) {
	if strings.TrimSpace(*target) == "" && strings.TrimSpace(value) != "" {
		*target = value
	}
}

// union concatenates the sets in order, dropping blanks and repeats.
func union(sets ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, set := range sets {
		for _, v := range set {
			v = strings.TrimSpace(v)
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func appendAnnotation(notes, annotation string) string {
	if strings.TrimSpace(notes) == "" {
		return annotation
	}
	return notes + "\n\n" + annotation
}
