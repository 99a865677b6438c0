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

package scripts

var SelectLeadsByTenant = map[string]string{
	"postgres": `SELECT lead_id, tenant_id, email, phone, first_name, last_name, country, state, city, 
       program_interest::text[] AS program_interest, tags::text[] AS tags, notes, lead_score, priority, status, 
       merged_lead_ids::text[] AS merged_lead_ids, version, created_at, updated_at FROM leads WHERE tenant_id = $1`,
}

var LeadsOrderBy = map[string]string{
	"postgres": ` ORDER BY created_at ASC, lead_id ASC`,
}

// email_key holds the email as folded by the normalizer so lookups match the in-memory store exactly.
var InsertLead = map[string]string{
	"postgres": `INSERT INTO leads (lead_id, tenant_id, email, phone, first_name, last_name, country, state, city, 
       program_interest, tags, notes, lead_score, priority, status, merged_lead_ids, email_key, version, created_at, 
       updated_at) 
       VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, 1, $18, $19)`,
}

var UpdateLeadWithVersion = map[string]string{
	"postgres": `UPDATE leads SET email = $3, phone = $4, first_name = $5, last_name = $6, country = $7, state = $8, 
       city = $9, program_interest = $10, tags = $11, notes = $12, lead_score = $13, priority = $14, status = $15, 
       merged_lead_ids = $16, email_key = $17, updated_at = $18, version = version + 1 
       WHERE tenant_id = $1 AND lead_id = $2 AND ($19 = 0 OR version = $19)`,
}

var GetLeadVersion = map[string]string{
	"postgres": `SELECT version FROM leads WHERE tenant_id = $1 AND lead_id = $2`,
}

var DeleteLead = map[string]string{
	"postgres": `DELETE FROM leads WHERE tenant_id = $1 AND lead_id = $2`,
}

var InsertLeadDocument = map[string]string{
	"postgres": `INSERT INTO lead_documents (document_id, tenant_id, lead_id, name, created_at) VALUES ($1, $2, $3, $4, $5)`,
}

var GetLeadDocuments = map[string]string{
	"postgres": `SELECT document_id, tenant_id, lead_id, name, created_at FROM lead_documents 
       WHERE tenant_id = $1 AND lead_id = $2 ORDER BY created_at ASC`,
}

// ReassignDependents and CountDependents are keyed by dependent kind, then by database type.
var ReassignDependents = map[string]map[string]string{
	"documents": {
		"postgres": `UPDATE lead_documents SET lead_id = $3 WHERE tenant_id = $1 AND lead_id = $2`,
	},
}

var CountDependents = map[string]map[string]string{
	"documents": {
		"postgres": `SELECT COUNT(*) AS dependent_count FROM lead_documents WHERE tenant_id = $1 AND lead_id = $2`,
	},
}

var GetTenantConfig = map[string]string{
	"postgres": `SELECT tenant_id, prevention_policy, policy_configured_at, resolution_policy::text AS resolution_policy 
       FROM tenant_duplicate_config WHERE tenant_id = $1`,
}

var UpsertResolutionPolicy = map[string]string{
	"postgres": `INSERT INTO tenant_duplicate_config (tenant_id, prevention_policy, resolution_policy, updated_at) 
       VALUES ($1, 'none', $2::jsonb, $3) 
       ON CONFLICT (tenant_id) DO UPDATE SET resolution_policy = EXCLUDED.resolution_policy, updated_at = EXCLUDED.updated_at`,
}

// ConfigurePreventionPolicy only writes when no non-none policy exists, so concurrent
// configuration attempts cannot both succeed.
var ConfigurePreventionPolicy = map[string]string{
	"postgres": `INSERT INTO tenant_duplicate_config (tenant_id, prevention_policy, policy_configured_at, updated_at) 
       VALUES ($1, $2, $3, $3) 
       ON CONFLICT (tenant_id) DO UPDATE SET prevention_policy = EXCLUDED.prevention_policy, 
       policy_configured_at = EXCLUDED.policy_configured_at, updated_at = EXCLUDED.updated_at 
       WHERE tenant_duplicate_config.prevention_policy = 'none'`,
}
