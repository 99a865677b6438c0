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
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/wso2/lead-deduplication-service/internal/duplicate_config/model"
	"github.com/wso2/lead-deduplication-service/internal/system/database/client"
	"github.com/wso2/lead-deduplication-service/internal/system/database/scripts"
	errors2 "github.com/wso2/lead-deduplication-service/internal/system/errors"
	"github.com/wso2/lead-deduplication-service/internal/system/log"
)

// TenantConfigStoreInterface persists TenantConfig aggregates.
type TenantConfigStoreInterface interface {
	// GetTenantConfig returns nil without error when the tenant has no stored configuration.
	GetTenantConfig(ctx context.Context, tenantId string) (*model.TenantConfig, error)
	// SetTenantConfig stores the resolution policy. The prevention policy is never written here.
	SetTenantConfig(ctx context.Context, config model.TenantConfig) error
	// ConfigurePreventionPolicy atomically stores policy unless a non-none policy exists.
	// It reports whether the write was applied.
	ConfigurePreventionPolicy(ctx context.Context, tenantId string, policy model.PreventionPolicy, at time.Time) (bool, error)
}

// PostgresTenantConfigStore implements TenantConfigStoreInterface on PostgreSQL.
type PostgresTenantConfigStore struct {
	dbClient client.DBClientInterface
	dbType   string
}

func NewPostgresTenantConfigStore(dbClient client.DBClientInterface, dbType string) *PostgresTenantConfigStore {
	return &PostgresTenantConfigStore{dbClient: dbClient, dbType: dbType}
}

func (s *PostgresTenantConfigStore) GetTenantConfig(ctx context.Context, tenantId string) (*model.TenantConfig, error) {

	logger := log.GetLogger()
	results, err := s.dbClient.ExecuteQuery(ctx, scripts.GetTenantConfig[s.dbType], tenantId)
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to fetch duplicate configuration for tenant: %s", tenantId)
		logger.Debug(errorMsg, log.Error(err))
		return nil, errors2.NewServerError(errors2.GET_TENANT_CONFIG.WithDescription(errorMsg),
			errors.Wrap(err, "get tenant config"))
	}
	if len(results) == 0 {
		logger.Debug(fmt.Sprintf("No duplicate configuration found for tenant: %s", tenantId))
		return nil, nil
	}

	row := results[0]
	config := &model.TenantConfig{
		TenantId:         tenantId,
		PreventionPolicy: model.PreventionNone,
	}
	if policy, ok := row["prevention_policy"].(string); ok && policy != "" {
		config.PreventionPolicy = model.PreventionPolicy(policy)
	}
	if configuredAt, ok := row["policy_configured_at"].(time.Time); ok {
		config.PolicyConfiguredAt = &configuredAt
	}
	var rawPolicy []byte
	switch v := row["resolution_policy"].(type) {
	case string:
		rawPolicy = []byte(v)
	case []byte:
		rawPolicy = v
	}
	if len(rawPolicy) > 0 {
		if err := json.Unmarshal(rawPolicy, &config.ResolutionPolicy); err != nil {
			errorMsg := fmt.Sprintf("Stored resolution policy of tenant %s is not valid JSON", tenantId)
			logger.Debug(errorMsg, log.Error(err))
			return nil, errors2.NewServerError(errors2.GET_TENANT_CONFIG.WithDescription(errorMsg), err)
		}
	}
	config.ResolutionPolicy = config.ResolutionPolicy.WithDefaults()
	return config, nil
}

func (s *PostgresTenantConfigStore) SetTenantConfig(ctx context.Context, config model.TenantConfig) error {

	logger := log.GetLogger()
	policyJSON, err := json.Marshal(config.ResolutionPolicy)
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to marshal resolution policy for tenant: %s", config.TenantId)
		logger.Debug(errorMsg, log.Error(err))
		return errors2.NewServerError(errors2.UPDATE_TENANT_CONFIG.WithDescription(errorMsg), err)
	}
	_, err = s.dbClient.Execute(ctx, scripts.UpsertResolutionPolicy[s.dbType], config.TenantId, string(policyJSON),
		time.Now().UTC())
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to store resolution policy for tenant: %s", config.TenantId)
		logger.Debug(errorMsg, log.Error(err))
		return errors2.NewServerError(errors2.UPDATE_TENANT_CONFIG.WithDescription(errorMsg),
			errors.Wrap(err, "upsert resolution policy"))
	}
	return nil
}

func (s *PostgresTenantConfigStore) ConfigurePreventionPolicy(ctx context.Context, tenantId string,
	policy model.PreventionPolicy, at time.Time) (bool, error) {

	affected, err := s.dbClient.Execute(ctx, scripts.ConfigurePreventionPolicy[s.dbType], tenantId, string(policy), at)
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to configure prevention policy for tenant: %s", tenantId)
		log.GetLogger().Debug(errorMsg, log.Error(err))
		return false, errors2.NewServerError(errors2.UPDATE_TENANT_CONFIG.WithDescription(errorMsg),
			errors.Wrap(err, "configure prevention policy"))
	}
	return affected == 1, nil
}

// MemoryTenantConfigStore keeps tenant configuration in process memory.
type MemoryTenantConfigStore struct {
	mu      sync.Mutex
	configs map[string]model.TenantConfig
}

func NewMemoryTenantConfigStore() *MemoryTenantConfigStore {
	return &MemoryTenantConfigStore{configs: make(map[string]model.TenantConfig)}
}

func (s *MemoryTenantConfigStore) GetTenantConfig(ctx context.Context, tenantId string) (*model.TenantConfig, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	config, ok := s.configs[tenantId]
	if !ok {
		return nil, nil
	}
	config.ResolutionPolicy = config.ResolutionPolicy.WithDefaults()
	return &config, nil
}

func (s *MemoryTenantConfigStore) SetTenantConfig(ctx context.Context, config model.TenantConfig) error {

	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.configs[config.TenantId]
	if !ok {
		existing = model.TenantConfig{TenantId: config.TenantId, PreventionPolicy: model.PreventionNone}
	}
	existing.ResolutionPolicy = config.ResolutionPolicy
	s.configs[config.TenantId] = existing
	return nil
}

func (s *MemoryTenantConfigStore) ConfigurePreventionPolicy(ctx context.Context, tenantId string,
	policy model.PreventionPolicy, at time.Time) (bool, error) {

	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.configs[tenantId]
	if ok && existing.PreventionPolicy != "" && existing.PreventionPolicy != model.PreventionNone {
		return false, nil
	}
	if !ok {
		existing = model.TenantConfig{TenantId: tenantId}
	}
	existing.PreventionPolicy = policy
	existing.PolicyConfiguredAt = &at
	s.configs[tenantId] = existing
	return true, nil
}
