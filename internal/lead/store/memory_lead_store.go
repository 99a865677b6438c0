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

package store

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wso2/lead-deduplication-service/internal/lead/model"
	"github.com/wso2/lead-deduplication-service/internal/normalizer"
	errors2 "github.com/wso2/lead-deduplication-service/internal/system/errors"
)

// MemoryLeadStore keeps leads and documents in process memory. It backs local runs
// (datasource type "memory") and stands in for PostgreSQL in tests.
type MemoryLeadStore struct {
	mu        sync.RWMutex
	leads     map[string]map[string]model.Lead
	documents map[string]model.Document
}

// NewMemoryLeadStore creates an empty in-memory store.
func NewMemoryLeadStore() *MemoryLeadStore {
	return &MemoryLeadStore{
		leads:     make(map[string]map[string]model.Lead),
		documents: make(map[string]model.Document),
	}
}

func (s *MemoryLeadStore) Find(ctx context.Context, tenantId string, filter model.LeadFilter) ([]model.Lead, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids map[string]bool
	if len(filter.LeadIds) > 0 {
		ids = make(map[string]bool, len(filter.LeadIds))
		for _, id := range filter.LeadIds {
			ids[id] = true
		}
	}
	email := normalizer.NormalizeEmail(filter.Email)

	var matched []model.Lead
	for _, lead := range s.leads[tenantId] {
		if ids != nil && !ids[lead.LeadId] {
			continue
		}
		if !matchesContact(lead, email, filter.PhoneDigits, filter.MatchAny) {
			continue
		}
		matched = append(matched, lead.Clone())
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].LeadId < matched[j].LeadId
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func matchesContact(lead model.Lead, email, phoneDigits string, matchAny bool) bool {

	var checks []bool
	if email != "" {
		checks = append(checks, normalizer.NormalizeEmail(lead.Email) == email)
	}
	if phoneDigits != "" {
		checks = append(checks, strings.Contains(normalizer.NormalizePhone(lead.Phone), phoneDigits))
	}
	if len(checks) == 0 {
		return true
	}
	for _, ok := range checks {
		if ok && matchAny {
			return true
		}
		if !ok && !matchAny {
			return false
		}
	}
	return !matchAny
}

func (s *MemoryLeadStore) InsertOrUpdate(ctx context.Context, lead model.Lead) (*model.Lead, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	tenantLeads, ok := s.leads[lead.TenantId]
	if !ok {
		tenantLeads = make(map[string]model.Lead)
		s.leads[lead.TenantId] = tenantLeads
	}

	if lead.LeadId == "" {
		lead.LeadId = uuid.New().String()
	}
	if existing, found := tenantLeads[lead.LeadId]; found {
		if lead.Version != 0 && lead.Version != existing.Version {
			return nil, errors2.NewClientError(errors2.CONCURRENT_MODIFICATION.WithDescription(
				fmt.Sprintf("Lead %s was modified after version %d was read.", lead.LeadId, lead.Version)),
				http.StatusConflict)
		}
		lead.Version = existing.Version + 1
		lead.CreatedAt = existing.CreatedAt
	} else {
		lead.Version = 1
		if lead.CreatedAt.IsZero() {
			lead.CreatedAt = now
		}
	}
	lead.UpdatedAt = now

	stored := lead.Clone()
	tenantLeads[lead.LeadId] = stored
	out := stored.Clone()
	return &out, nil
}

func (s *MemoryLeadStore) Delete(ctx context.Context, tenantId, leadId string) error {

	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.leads[tenantId][leadId]; !found {
		return errors2.NewClientError(errors2.RECORD_NOT_FOUND.WithDescription(
			fmt.Sprintf("No lead found for lead_id: %s", leadId)), http.StatusNotFound)
	}
	delete(s.leads[tenantId], leadId)
	for id, doc := range s.documents {
		if doc.TenantId == tenantId && doc.LeadId == leadId {
			delete(s.documents, id)
		}
	}
	return nil
}

func (s *MemoryLeadStore) ReassignDependents(ctx context.Context, tenantId, fromLeadId, toLeadId string,
	kind model.DependentKind) (int, error) {

	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if kind != model.DependentDocuments {
		return 0, errors2.NewServerError(errors2.REASSIGN_DEPENDENTS.WithDescription(
			fmt.Sprintf("Unsupported dependent kind: %s", kind)), nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	moved := 0
	for id, doc := range s.documents {
		if doc.TenantId == tenantId && doc.LeadId == fromLeadId {
			doc.LeadId = toLeadId
			s.documents[id] = doc
			moved++
		}
	}
	return moved, nil
}

func (s *MemoryLeadStore) CountDependents(ctx context.Context, tenantId, leadId string, kind model.DependentKind) (int, error) {

	docs, err := s.GetDocuments(ctx, tenantId, leadId)
	if err != nil {
		return 0, err
	}
	if kind != model.DependentDocuments {
		return 0, nil
	}
	return len(docs), nil
}

func (s *MemoryLeadStore) AddDocument(ctx context.Context, doc model.Document) (*model.Document, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.leads[doc.TenantId][doc.LeadId]; !found {
		return nil, errors2.NewClientError(errors2.RECORD_NOT_FOUND.WithDescription(
			fmt.Sprintf("No lead found for lead_id: %s", doc.LeadId)), http.StatusNotFound)
	}
	if doc.DocumentId == "" {
		doc.DocumentId = uuid.New().String()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	s.documents[doc.DocumentId] = doc
	return &doc, nil
}

func (s *MemoryLeadStore) GetDocuments(ctx context.Context, tenantId, leadId string) ([]model.Document, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []model.Document
	for _, doc := range s.documents {
		if doc.TenantId == tenantId && doc.LeadId == leadId {
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].CreatedAt.Before(docs[j].CreatedAt) })
	return docs, nil
}
