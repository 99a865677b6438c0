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
	"strings"
	"time"
)

// Lead is a contact record captured by admissions intake. Every lead belongs to exactly one tenant.
type Lead struct {
	LeadId          string   `json:"lead_id"`
	TenantId        string   `json:"tenant_id"`
	Email           string   `json:"email,omitempty"`
	Phone           string   `json:"phone,omitempty"`
	FirstName       string   `json:"first_name"`
	LastName        string   `json:"last_name"`
	Country         string   `json:"country,omitempty"`
	State           string   `json:"state,omitempty"`
	City            string   `json:"city,omitempty"`
	ProgramInterest []string `json:"program_interest,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	Notes           string   `json:"notes,omitempty"`
	LeadScore       float64  `json:"lead_score"`
	Priority        Priority `json:"priority,omitempty"`
	Status          string   `json:"status,omitempty"`
	// MergedLeadIds lists leads already folded into this one. A retried merge skips them.
	MergedLeadIds []string  `json:"merged_lead_ids,omitempty"`
	Version       int64     `json:"version"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// FullName joins first and last name with a single space, trimming blanks.
func (l Lead) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(l.FirstName) + " " + strings.TrimSpace(l.LastName))
}

// Clone returns a deep copy so set fields can be mutated without aliasing the original.
func (l Lead) Clone() Lead {
	c := l
	if l.ProgramInterest != nil {
		c.ProgramInterest = append([]string(nil), l.ProgramInterest...)
	}
	if l.Tags != nil {
		c.Tags = append([]string(nil), l.Tags...)
	}
	if l.MergedLeadIds != nil {
		c.MergedLeadIds = append([]string(nil), l.MergedLeadIds...)
	}
	return c
}

// HasMerged reports whether leadId was already folded into this lead.
func (l Lead) HasMerged(leadId string) bool {
	for _, id := range l.MergedLeadIds {
		if id == leadId {
			return true
		}
	}
	return false
}

// Document is an attachment owned by a lead, such as a transcript or passport scan.
type Document struct {
	DocumentId string    `json:"document_id"`
	TenantId   string    `json:"tenant_id"`
	LeadId     string    `json:"lead_id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
}

// DependentKind names a class of records foreign-keyed to a lead.
type DependentKind string

const (
	DependentDocuments DependentKind = "documents"
)

// LeadFilter is the predicate accepted by LeadStore.Find.
type LeadFilter struct {
	LeadIds []string
	// Email is compared case-insensitively after trimming.
	Email string
	// PhoneDigits matches any lead whose normalized phone contains it.
	PhoneDigits string
	// MatchAny ORs the Email and PhoneDigits clauses instead of ANDing them.
	MatchAny bool
	Limit    int
}
