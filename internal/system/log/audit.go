/*
 * Copyright (c) 2025-2026, WSO2 LLC. (http://www.wso2.com).
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

package log

import (
	"encoding/json"
	"log/slog"
	"time"
)

// AuditEvent records a change to tenant configuration or to stored leads. Events are written as one
// JSON document under the "audit_event" attribute so they can be shipped and parsed separately.
type AuditEvent struct {
	RecordedAt    string      `json:"recordedAt"`
	TenantID      string      `json:"tenantId"`
	InitiatorType string      `json:"initiatorType"`
	TargetID      string      `json:"targetId"`
	TargetType    string      `json:"targetType"`
	ActionID      string      `json:"actionId"`
	Data          interface{} `json:"data,omitempty"`
}

// Audit writes event at info level, stamping RecordedAt when the caller left it empty.
func (l *Logger) Audit(event AuditEvent) {

	if event.RecordedAt == "" {
		event.RecordedAt = time.Now().UTC().Format(time.RFC3339)
	}
	payload, err := json.Marshal(event)
	if err != nil {
		l.Error("Failed to marshal audit event", Error(err), String("action", event.ActionID))
		return
	}
	l.internal.Info("AUDIT", slog.String("audit_event", string(payload)))
}

// Action IDs for audit logging
const (
	// Duplicate configuration operations
	ActionConfigurePreventionPolicy = "configure-prevention-policy"
	ActionUpdateResolutionPolicy    = "update-resolution-policy"

	// Merge operations
	ActionMergeLeads       = "merge-leads"
	ActionMergeGroup       = "merge-duplicate-group"
	ActionDeleteLead       = "delete-merged-lead"
	ActionReassignLeadDocs = "reassign-lead-documents"
)

// Initiator types
const (
	InitiatorTypeUser   = "user"
	InitiatorTypeSystem = "system"
	InitiatorTypeAdmin  = "admin"
)

// Target types
const (
	TargetTypeLead           = "lead"
	TargetTypeTenantConfig   = "tenant-config"
	TargetTypeDuplicateGroup = "duplicate-group"
)
