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
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	configModel "github.com/wso2/lead-deduplication-service/internal/duplicate_config/model"
	leadModel "github.com/wso2/lead-deduplication-service/internal/lead/model"
)

var mergedAt = time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)

func TestMergeTwoLeads(t *testing.T) {
	primary := leadModel.Lead{
		LeadId:          "p",
		Email:           "",
		City:            "Vancouver",
		ProgramInterest: []string{"MBA"},
		Tags:            []string{"webinar"},
		LeadScore:       10,
		Notes:           "Called twice",
	}
	secondary := leadModel.Lead{
		LeadId:          "s",
		Email:           "s@example.com",
		Phone:           "604-555-0100",
		Country:         "CA",
		City:            "Toronto",
		ProgramInterest: []string{"MBA", "MSc Finance"},
		Tags:            []string{"fair"},
		LeadScore:       25,
	}

	merged := mergeTwoLeads(primary, secondary, mergedAt)
	assert.Equal(t, "604-555-0100", merged.Phone)
	assert.Equal(t, "CA", merged.Country)
	assert.Equal(t, "Vancouver", merged.City, "non-blank primary fields are kept")
	assert.Equal(t, "", merged.Email, "the two-record merge only fills contact and location fields")
	assert.Equal(t, []string{"MBA", "MSc Finance"}, merged.ProgramInterest)
	assert.Equal(t, []string{"webinar", "fair"}, merged.Tags)
	assert.Equal(t, 25.0, merged.LeadScore)
	assert.Equal(t, "Called twice\n\n[Merged with lead s on 2026-01-02T15:04:05Z]", merged.Notes)
	assert.Equal(t, []string{"MBA"}, primary.ProgramInterest, "input must not be mutated")
}

func TestMergeTwoLeads_LowerScoreIgnored(t *testing.T) {
	merged := mergeTwoLeads(leadModel.Lead{LeadId: "p", LeadScore: 50}, leadModel.Lead{LeadId: "s", LeadScore: 5}, mergedAt)
	assert.Equal(t, 50.0, merged.LeadScore)
	assert.Equal(t, "[Merged with lead s on 2026-01-02T15:04:05Z]", merged.Notes)
}

func groupMembers() []leadModel.Lead {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return []leadModel.Lead{
		{
			LeadId: "a", FirstName: "Ana", Email: "a@x.com", Status: "new", Priority: leadModel.PriorityLow,
			ProgramInterest: []string{"MBA"}, Tags: []string{"t1"}, LeadScore: 10, Notes: "first",
			CreatedAt: base, UpdatedAt: base,
		},
		{
			LeadId: "b", LastName: "Diaz", Phone: "111", City: "Lima", Status: "contacted",
			Priority: leadModel.PriorityUrgent, ProgramInterest: []string{"MSc", "MBA"}, LeadScore: 40,
			CreatedAt: base.Add(time.Hour), UpdatedAt: base.Add(5 * time.Hour),
		},
		{
			LeadId: "c", LastName: "Other", Phone: "222", Country: "PE", Priority: leadModel.PriorityHigh,
			ProgramInterest: []string{"PhD"}, Tags: []string{"t2", "t1"}, LeadScore: 30, Notes: "third",
			CreatedAt: base.Add(2 * time.Hour), UpdatedAt: base.Add(2 * time.Hour),
		},
	}
}

func TestMergeGroupLeads_DefaultPolicy(t *testing.T) {
	members := groupMembers()
	merged := mergeGroupLeads(members[0], members, configModel.DefaultResolutionPolicy(), mergedAt)

	assert.Equal(t, []string{"MBA", "MSc", "PhD"}, merged.ProgramInterest)
	assert.Equal(t, []string{"t1", "t2"}, merged.Tags)
	assert.Equal(t, leadModel.PriorityUrgent, merged.Priority)
	assert.Equal(t, 40.0, merged.LeadScore)
	assert.Equal(t, "new", merged.Status, "keep_primary status")
	assert.Equal(t, "Diaz", merged.LastName, "first secondary with a value wins")
	assert.Equal(t, "111", merged.Phone)
	assert.Equal(t, "Lima", merged.City)
	assert.Equal(t, "PE", merged.Country)
	assert.Equal(t, "a", merged.LeadId)
	assert.Equal(t, "first\n\n---\n\nthird\n\n[Merged 3 records on 2026-01-02T15:04:05Z]", merged.Notes)
}

func TestMergeGroupLeads_KeepPrimaryPolicy(t *testing.T) {
	members := groupMembers()
	policy := configModel.ConflictResolutionPolicy{
		Programs:  configModel.StrategyKeepPrimary,
		Documents: configModel.StrategyKeepPrimary,
		Status:    configModel.StrategyKeepPrimary,
		Priority:  configModel.StrategyKeepPrimary,
		LeadScore: configModel.StrategyKeepPrimary,
		Tags:      configModel.StrategyKeepPrimary,
		Notes:     configModel.StrategyKeepPrimary,
	}
	merged := mergeGroupLeads(members[0], members, policy, mergedAt)

	assert.Equal(t, []string{"MBA"}, merged.ProgramInterest)
	assert.Equal(t, []string{"t1"}, merged.Tags)
	assert.Equal(t, leadModel.PriorityLow, merged.Priority)
	assert.Equal(t, 10.0, merged.LeadScore)
	assert.Equal(t, "first\n\n[Merged 3 records on 2026-01-02T15:04:05Z]", merged.Notes)
}

func TestMergeGroupLeads_KeepNewestStatus(t *testing.T) {
	members := groupMembers()
	policy := configModel.DefaultResolutionPolicy()
	policy.Status = configModel.StrategyKeepNewest

	merged := mergeGroupLeads(members[0], members, policy, mergedAt)
	assert.Equal(t, "contacted", merged.Status)
}

func TestMergeGroupLeads_NonOldestPrimary(t *testing.T) {
	members := groupMembers()
	merged := mergeGroupLeads(members[1], members, configModel.DefaultResolutionPolicy(), mergedAt)

	assert.Equal(t, "b", merged.LeadId)
	assert.Equal(t, "Ana", merged.FirstName, "back-filled from the oldest secondary")
	assert.Equal(t, "111", merged.Phone, "primary value kept")
	assert.Equal(t, []string{"MSc", "MBA", "PhD"}, merged.ProgramInterest)
}

func TestMergeGroupLeads_AnnotationAlwaysAppended(t *testing.T) {
	members := []leadModel.Lead{{LeadId: "a"}, {LeadId: "b"}}
	merged := mergeGroupLeads(members[0], members, configModel.DefaultResolutionPolicy(), mergedAt)
	assert.True(t, strings.HasPrefix(merged.Notes, "[Merged 2 records on"))
}

func TestUnion(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, union([]string{"a", " b"}, []string{"b", "", "c", "a"}))
	assert.Nil(t, union(nil, []string{" "}))
}
