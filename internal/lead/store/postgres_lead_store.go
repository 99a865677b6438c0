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
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/wso2/lead-deduplication-service/internal/lead/model"
	"github.com/wso2/lead-deduplication-service/internal/normalizer"
	"github.com/wso2/lead-deduplication-service/internal/system/database/client"
	"github.com/wso2/lead-deduplication-service/internal/system/database/scripts"
	errors2 "github.com/wso2/lead-deduplication-service/internal/system/errors"
	"github.com/wso2/lead-deduplication-service/internal/system/log"
)

// PostgresLeadStore implements LeadStoreInterface and DocumentStoreInterface on PostgreSQL.
type PostgresLeadStore struct {
	dbClient client.DBClientInterface
	dbType   string
}

// NewPostgresLeadStore creates a lead store over the given database client.
func NewPostgresLeadStore(dbClient client.DBClientInterface, dbType string) *PostgresLeadStore {
	return &PostgresLeadStore{
		dbClient: dbClient,
		dbType:   dbType,
	}
}

// Find fetches the tenant's leads matching the filter.
func (s *PostgresLeadStore) Find(ctx context.Context, tenantId string, filter model.LeadFilter) ([]model.Lead, error) {

	logger := log.GetLogger()
	query, args := s.buildFindQuery(tenantId, filter)

	results, err := s.dbClient.ExecuteQuery(ctx, query, args...)
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to fetch leads for tenant: %s", tenantId)
		logger.Debug(errorMsg, log.Error(err))
		return nil, errors2.NewServerError(errors2.FIND_LEADS.WithDescription(errorMsg), errors.Wrap(err, "find leads"))
	}

	leads := make([]model.Lead, 0, len(results))
	for _, row := range results {
		lead, err := leadFromRow(row)
		if err != nil {
			errorMsg := fmt.Sprintf("Failed to decode lead row for tenant: %s", tenantId)
			logger.Debug(errorMsg, log.Error(err))
			return nil, errors2.NewServerError(errors2.FIND_LEADS.WithDescription(errorMsg), err)
		}
		leads = append(leads, lead)
	}
	logger.Debug(fmt.Sprintf("Fetched %d leads for tenant: %s", len(leads), tenantId))
	return leads, nil
}

func (s *PostgresLeadStore) buildFindQuery(tenantId string, filter model.LeadFilter) (string, []interface{}) {

	query := scripts.SelectLeadsByTenant[s.dbType]
	args := []interface{}{tenantId}

	if len(filter.LeadIds) > 0 {
		args = append(args, pq.Array(filter.LeadIds))
		query += fmt.Sprintf(" AND lead_id = ANY($%d)", len(args))
	}

	var matchClauses []string
	if email := normalizer.NormalizeEmail(filter.Email); email != "" {
		args = append(args, email)
		matchClauses = append(matchClauses, fmt.Sprintf("email_key = $%d", len(args)))
	}
	if filter.PhoneDigits != "" {
		args = append(args, filter.PhoneDigits)
		matchClauses = append(matchClauses,
			fmt.Sprintf("strpos(RIGHT(regexp_replace(phone, '[^0-9]', '', 'g'), %d), $%d) > 0", normalizer.PhoneDigits, len(args)))
	}
	if len(matchClauses) > 0 {
		joiner := " AND "
		if filter.MatchAny {
			joiner = " OR "
		}
		query += " AND (" + strings.Join(matchClauses, joiner) + ")"
	}

	query += scripts.LeadsOrderBy[s.dbType]
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	return query, args
}

// InsertOrUpdate inserts a new lead or updates an existing one, honouring optimistic versioning.
func (s *PostgresLeadStore) InsertOrUpdate(ctx context.Context, lead model.Lead) (*model.Lead, error) {

	logger := log.GetLogger()
	now := time.Now().UTC()
	lead.UpdatedAt = now

	if lead.LeadId != "" {
		affected, err := s.dbClient.Execute(ctx, scripts.UpdateLeadWithVersion[s.dbType],
			lead.TenantId, lead.LeadId, lead.Email, lead.Phone, lead.FirstName, lead.LastName, lead.Country,
			lead.State, lead.City, pq.Array(nonNil(lead.ProgramInterest)), pq.Array(nonNil(lead.Tags)), lead.Notes,
			lead.LeadScore, string(lead.Priority), lead.Status, pq.Array(nonNil(lead.MergedLeadIds)),
			normalizer.NormalizeEmail(lead.Email), lead.UpdatedAt, lead.Version)
		if err != nil {
			errorMsg := fmt.Sprintf("Failed to update lead: %s", lead.LeadId)
			logger.Debug(errorMsg, log.Error(err))
			return nil, errors2.NewServerError(errors2.UPSERT_LEAD.WithDescription(errorMsg), errors.Wrap(err, "update lead"))
		}
		if affected == 1 {
			return s.findOne(ctx, lead.TenantId, lead.LeadId)
		}

		existing, err := s.dbClient.ExecuteQuery(ctx, scripts.GetLeadVersion[s.dbType], lead.TenantId, lead.LeadId)
		if err != nil {
			errorMsg := fmt.Sprintf("Failed to read version of lead: %s", lead.LeadId)
			logger.Debug(errorMsg, log.Error(err))
			return nil, errors2.NewServerError(errors2.UPSERT_LEAD.WithDescription(errorMsg), errors.Wrap(err, "read lead version"))
		}
		if len(existing) > 0 {
			errorMsg := fmt.Sprintf("Lead %s was modified after version %d was read.", lead.LeadId, lead.Version)
			logger.Debug(errorMsg)
			return nil, errors2.NewClientError(errors2.CONCURRENT_MODIFICATION.WithDescription(errorMsg), http.StatusConflict)
		}
	} else {
		lead.LeadId = uuid.New().String()
	}

	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = now
	}
	_, err := s.dbClient.Execute(ctx, scripts.InsertLead[s.dbType],
		lead.LeadId, lead.TenantId, lead.Email, lead.Phone, lead.FirstName, lead.LastName, lead.Country, lead.State,
		lead.City, pq.Array(nonNil(lead.ProgramInterest)), pq.Array(nonNil(lead.Tags)), lead.Notes, lead.LeadScore,
		string(lead.Priority), lead.Status, pq.Array(nonNil(lead.MergedLeadIds)), normalizer.NormalizeEmail(lead.Email),
		lead.CreatedAt, lead.UpdatedAt)
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to insert lead: %s", lead.LeadId)
		logger.Debug(errorMsg, log.Error(err))
		return nil, errors2.NewServerError(errors2.UPSERT_LEAD.WithDescription(errorMsg), errors.Wrap(err, "insert lead"))
	}
	lead.Version = 1
	logger.Debug(fmt.Sprintf("Lead %s inserted for tenant: %s", lead.LeadId, lead.TenantId))
	return &lead, nil
}

func (s *PostgresLeadStore) findOne(ctx context.Context, tenantId, leadId string) (*model.Lead, error) {

	leads, err := s.Find(ctx, tenantId, model.LeadFilter{LeadIds: []string{leadId}})
	if err != nil {
		return nil, err
	}
	if len(leads) == 0 {
		return nil, errors2.NewClientError(errors2.RECORD_NOT_FOUND.WithDescription(
			fmt.Sprintf("No lead found for lead_id: %s", leadId)), http.StatusNotFound)
	}
	return &leads[0], nil
}

// Delete removes a lead. Documents still owned by the lead are removed by the cascading foreign key.
func (s *PostgresLeadStore) Delete(ctx context.Context, tenantId, leadId string) error {

	logger := log.GetLogger()
	affected, err := s.dbClient.Execute(ctx, scripts.DeleteLead[s.dbType], tenantId, leadId)
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to delete lead: %s", leadId)
		logger.Debug(errorMsg, log.Error(err))
		return errors2.NewServerError(errors2.DELETE_LEAD.WithDescription(errorMsg), errors.Wrap(err, "delete lead"))
	}
	if affected == 0 {
		return errors2.NewClientError(errors2.RECORD_NOT_FOUND.WithDescription(
			fmt.Sprintf("No lead found for lead_id: %s", leadId)), http.StatusNotFound)
	}
	logger.Debug(fmt.Sprintf("Lead %s deleted for tenant: %s", leadId, tenantId))
	return nil
}

// ReassignDependents re-points every dependent of the given kind from one lead to another.
func (s *PostgresLeadStore) ReassignDependents(ctx context.Context, tenantId, fromLeadId, toLeadId string,
	kind model.DependentKind) (int, error) {

	logger := log.GetLogger()
	queries, ok := scripts.ReassignDependents[string(kind)]
	if !ok {
		return 0, errors2.NewServerError(errors2.REASSIGN_DEPENDENTS.WithDescription(
			fmt.Sprintf("Unsupported dependent kind: %s", kind)), nil)
	}
	affected, err := s.dbClient.Execute(ctx, queries[s.dbType], tenantId, fromLeadId, toLeadId)
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to reassign %s from lead %s to lead %s", kind, fromLeadId, toLeadId)
		logger.Debug(errorMsg, log.Error(err))
		return 0, errors2.NewServerError(errors2.REASSIGN_DEPENDENTS.WithDescription(errorMsg),
			errors.Wrap(err, "reassign dependents"))
	}
	return int(affected), nil
}

// CountDependents counts dependents of the given kind still owned by the lead.
func (s *PostgresLeadStore) CountDependents(ctx context.Context, tenantId, leadId string, kind model.DependentKind) (int, error) {

	queries, ok := scripts.CountDependents[string(kind)]
	if !ok {
		return 0, errors2.NewServerError(errors2.REASSIGN_DEPENDENTS.WithDescription(
			fmt.Sprintf("Unsupported dependent kind: %s", kind)), nil)
	}
	results, err := s.dbClient.ExecuteQuery(ctx, queries[s.dbType], tenantId, leadId)
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to count %s of lead %s", kind, leadId)
		log.GetLogger().Debug(errorMsg, log.Error(err))
		return 0, errors2.NewServerError(errors2.REASSIGN_DEPENDENTS.WithDescription(errorMsg),
			errors.Wrap(err, "count dependents"))
	}
	if len(results) == 0 {
		return 0, nil
	}
	count, _ := results[0]["dependent_count"].(int64)
	return int(count), nil
}

// AddDocument attaches a document to a lead.
func (s *PostgresLeadStore) AddDocument(ctx context.Context, doc model.Document) (*model.Document, error) {

	if doc.DocumentId == "" {
		doc.DocumentId = uuid.New().String()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	_, err := s.dbClient.Execute(ctx, scripts.InsertLeadDocument[s.dbType], doc.DocumentId, doc.TenantId, doc.LeadId,
		doc.Name, doc.CreatedAt)
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to add document to lead: %s", doc.LeadId)
		log.GetLogger().Debug(errorMsg, log.Error(err))
		return nil, errors2.NewServerError(errors2.EXECUTE_QUERY.WithDescription(errorMsg), errors.Wrap(err, "add document"))
	}
	return &doc, nil
}

// GetDocuments lists the documents owned by a lead.
func (s *PostgresLeadStore) GetDocuments(ctx context.Context, tenantId, leadId string) ([]model.Document, error) {

	results, err := s.dbClient.ExecuteQuery(ctx, scripts.GetLeadDocuments[s.dbType], tenantId, leadId)
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to fetch documents of lead: %s", leadId)
		log.GetLogger().Debug(errorMsg, log.Error(err))
		return nil, errors2.NewServerError(errors2.EXECUTE_QUERY.WithDescription(errorMsg), errors.Wrap(err, "get documents"))
	}
	docs := make([]model.Document, 0, len(results))
	for _, row := range results {
		doc := model.Document{
			DocumentId: asString(row["document_id"]),
			TenantId:   asString(row["tenant_id"]),
			LeadId:     asString(row["lead_id"]),
			Name:       asString(row["name"]),
		}
		if createdAt, ok := row["created_at"].(time.Time); ok {
			doc.CreatedAt = createdAt
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func leadFromRow(row map[string]interface{}) (model.Lead, error) {

	var programs, tags, merged pq.StringArray
	if err := programs.Scan(row["program_interest"]); err != nil {
		return model.Lead{}, errors.Wrap(err, "scan program_interest")
	}
	if err := tags.Scan(row["tags"]); err != nil {
		return model.Lead{}, errors.Wrap(err, "scan tags")
	}
	if err := merged.Scan(row["merged_lead_ids"]); err != nil {
		return model.Lead{}, errors.Wrap(err, "scan merged_lead_ids")
	}

	lead := model.Lead{
		LeadId:          asString(row["lead_id"]),
		TenantId:        asString(row["tenant_id"]),
		Email:           asString(row["email"]),
		Phone:           asString(row["phone"]),
		FirstName:       asString(row["first_name"]),
		LastName:        asString(row["last_name"]),
		Country:         asString(row["country"]),
		State:           asString(row["state"]),
		City:            asString(row["city"]),
		ProgramInterest: []string(programs),
		Tags:            []string(tags),
		Notes:           asString(row["notes"]),
		Priority:        model.Priority(asString(row["priority"])),
		Status:          asString(row["status"]),
	}
	if len(merged) > 0 {
		lead.MergedLeadIds = []string(merged)
	}
	if score, ok := row["lead_score"].(float64); ok {
		lead.LeadScore = score
	}
	if version, ok := row["version"].(int64); ok {
		lead.Version = version
	}
	if createdAt, ok := row["created_at"].(time.Time); ok {
		lead.CreatedAt = createdAt
	}
	if updatedAt, ok := row["updated_at"].(time.Time); ok {
		lead.UpdatedAt = updatedAt
	}
	return lead, nil
}

func asString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	default:
		return ""
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
