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
	"time"

	configModel "github.com/wso2/lead-deduplication-service/internal/duplicate_config/model"
	scanModel "github.com/wso2/lead-deduplication-service/internal/duplicate_scan/model"
	leadModel "github.com/wso2/lead-deduplication-service/internal/lead/model"
)

// GroupSpec names the leads to merge. The members are re-read from the store before merging, so a
// spec taken from an older scan is safe to submit.
type GroupSpec struct {
	Id      string   `json:"id,omitempty"`
	LeadIds []string `json:"lead_ids"`
	// PrimaryLeadId defaults to the oldest member.
	PrimaryLeadId string `json:"primary_lead_id,omitempty"`
}

// FromDuplicateGroup converts a scan result into a merge spec.
func FromDuplicateGroup(group scanModel.DuplicateGroup) GroupSpec {
	return GroupSpec{
		Id:            group.Id,
		LeadIds:       group.LeadIds(),
		PrimaryLeadId: group.PrimaryLeadId,
	}
}

// MergeTwoRequest is the body of POST /duplicates/merge.
type MergeTwoRequest struct {
	PrimaryLeadId   string `json:"primary_lead_id"`
	SecondaryLeadId string `json:"secondary_lead_id"`
}

// MergeGroupRequest is the body of POST /duplicates/groups/merge. A nil Policy uses the tenant's policy.
type MergeGroupRequest struct {
	Group  GroupSpec                             `json:"group"`
	Policy *configModel.ConflictResolutionPolicy `json:"policy,omitempty"`
}

// BulkMergeRequest is the body of POST /duplicates/groups/bulk-merge.
type BulkMergeRequest struct {
	Groups []GroupSpec                           `json:"groups"`
	Policy *configModel.ConflictResolutionPolicy `json:"policy,omitempty"`
}

// MergeResult describes one completed (or, for previews, planned) merge.
type MergeResult struct {
	GroupId             string         `json:"group_id,omitempty"`
	PrimaryLead         leadModel.Lead `json:"primary_lead"`
	MergedLeadIds       []string       `json:"merged_lead_ids"`
	DocumentsReassigned int            `json:"documents_reassigned"`
	// Resumed is set when some members were already merged into the primary by an earlier attempt.
	Resumed bool `json:"resumed,omitempty"`
	DryRun  bool `json:"dry_run,omitempty"`
}

// GroupFailure reports why one group of a bulk merge failed.
type GroupFailure struct {
	GroupId   string `json:"group_id"`
	ErrorCode string `json:"error_code,omitempty"`
	Error     string `json:"error"`
}

// BulkMergeResult aggregates a bulk merge. Callers must look at both counts.
type BulkMergeResult struct {
	SuccessCount int            `json:"success_count"`
	FailedCount  int            `json:"failed_count"`
	Merged       []MergeResult  `json:"merged,omitempty"`
	Failures     []GroupFailure `json:"failures,omitempty"`
}

// BulkMergeJob is a bulk merge queued for background processing.
type BulkMergeJob struct {
	JobId    string                                `json:"job_id"`
	TenantId string                                `json:"tenant_id"`
	Groups   []GroupSpec                           `json:"-"`
	Policy   *configModel.ConflictResolutionPolicy `json:"-"`
}

type JobState string

const (
	JobStateQueued    JobState = "queued"
	JobStateRunning   JobState = "running"
	JobStateCompleted JobState = "completed"
	JobStateFailed    JobState = "failed"
)

// BulkMergeJobStatus is what GET /duplicates/groups/bulk-merge/jobs/{jobId} returns.
type BulkMergeJobStatus struct {
	JobId      string           `json:"job_id"`
	TenantId   string           `json:"tenant_id"`
	State      JobState         `json:"state"`
	GroupCount int              `json:"group_count"`
	Result     *BulkMergeResult `json:"result,omitempty"`
	Error      string           `json:"error,omitempty"`
	EnqueuedAt time.Time        `json:"enqueued_at"`
	FinishedAt *time.Time       `json:"finished_at,omitempty"`
}
