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

	"github.com/wso2/lead-deduplication-service/internal/lead/model"
)

// LeadStoreInterface is the record store contract the duplicate engine depends on.
// Every method is scoped to a single tenant.
type LeadStoreInterface interface {
	// Find returns the tenant's leads matching filter, oldest first.
	Find(ctx context.Context, tenantId string, filter model.LeadFilter) ([]model.Lead, error)
	// InsertOrUpdate writes the lead. A non-zero Version must match the stored version.
	InsertOrUpdate(ctx context.Context, lead model.Lead) (*model.Lead, error)
	// Delete removes a lead and fails with RECORD_NOT_FOUND when nothing was removed.
	Delete(ctx context.Context, tenantId, leadId string) error
	// ReassignDependents re-points dependents of one lead to another and returns how many moved.
	ReassignDependents(ctx context.Context, tenantId, fromLeadId, toLeadId string, kind model.DependentKind) (int, error)
	// CountDependents counts dependents still owned by a lead.
	CountDependents(ctx context.Context, tenantId, leadId string, kind model.DependentKind) (int, error)
}

// DocumentStoreInterface manages the documents attached to leads.
type DocumentStoreInterface interface {
	AddDocument(ctx context.Context, doc model.Document) (*model.Document, error)
	GetDocuments(ctx context.Context, tenantId, leadId string) ([]model.Document, error)
}
