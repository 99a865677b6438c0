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
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/wso2/lead-deduplication-service/internal/duplicate_config/model"
	"github.com/wso2/lead-deduplication-service/internal/duplicate_config/store"
	"github.com/wso2/lead-deduplication-service/internal/system/cache"
	errors2 "github.com/wso2/lead-deduplication-service/internal/system/errors"
	"github.com/wso2/lead-deduplication-service/internal/system/log"
)

// DuplicateConfigServiceInterface reads and writes the duplicate handling configuration of tenants.
type DuplicateConfigServiceInterface interface {
	GetTenantConfig(ctx context.Context, tenantId string) (model.TenantConfig, error)
	GetPreventionPolicy(ctx context.Context, tenantId string) (model.PreventionPolicy, error)
	SetPreventionPolicy(ctx context.Context, tenantId string, policy model.PreventionPolicy) (model.TenantConfig, error)
	GetResolutionPolicy(ctx context.Context, tenantId string) (model.ConflictResolutionPolicy, error)
	SetResolutionPolicy(ctx context.Context, tenantId string, policy model.ConflictResolutionPolicy) (model.ConflictResolutionPolicy, error)
}

// DuplicateConfigService is the default implementation of DuplicateConfigServiceInterface.
type DuplicateConfigService struct {
	store       store.TenantConfigStoreInterface
	policyCache *cache.Cache[model.PreventionPolicy]
	now         func() time.Time
}

// NewDuplicateConfigService creates the service. Configured prevention policies are cached for cacheTTL
// since they can never change once set.
func NewDuplicateConfigService(configStore store.TenantConfigStoreInterface, cacheTTL time.Duration) *DuplicateConfigService {
	return &DuplicateConfigService{
		store:       configStore,
		policyCache: cache.NewCache[model.PreventionPolicy](cacheTTL),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// GetTenantConfig returns the tenant's configuration, or the defaults when nothing is stored.
func (s *DuplicateConfigService) GetTenantConfig(ctx context.Context, tenantId string) (model.TenantConfig, error) {

	config, err := s.store.GetTenantConfig(ctx, tenantId)
	if err != nil {
		return model.TenantConfig{}, err
	}
	if config == nil {
		return model.TenantConfig{
			TenantId:         tenantId,
			PreventionPolicy: model.PreventionNone,
			ResolutionPolicy: model.DefaultResolutionPolicy(),
		}, nil
	}
	if config.PreventionPolicy == "" {
		config.PreventionPolicy = model.PreventionNone
	}
	return *config, nil
}

// GetPreventionPolicy returns the tenant's prevention policy, none when unset.
func (s *DuplicateConfigService) GetPreventionPolicy(ctx context.Context, tenantId string) (model.PreventionPolicy, error) {

	if policy, ok := s.policyCache.Get(tenantId); ok {
		return policy, nil
	}
	config, err := s.GetTenantConfig(ctx, tenantId)
	if err != nil {
		return model.PreventionNone, err
	}
	if config.PreventionPolicy != model.PreventionNone {
		s.policyCache.Set(tenantId, config.PreventionPolicy)
	}
	return config.PreventionPolicy, nil
}

// SetPreventionPolicy configures the prevention policy once. Any attempt after a non-none policy
// has been stored fails with POLICY_ALREADY_CONFIGURED and leaves the stored policy untouched.
func (s *DuplicateConfigService) SetPreventionPolicy(ctx context.Context, tenantId string,
	policy model.PreventionPolicy) (model.TenantConfig, error) {

	logger := log.GetLogger()
	if !policy.IsValid() {
		return model.TenantConfig{}, errors2.NewClientError(errors2.INVALID_PREVENTION_POLICY.WithDescription(
			fmt.Sprintf("Prevention policy must be one of none, email, phone, both. Got '%s'.", policy)),
			http.StatusBadRequest)
	}

	applied, err := s.store.ConfigurePreventionPolicy(ctx, tenantId, policy, s.now())
	if err != nil {
		return model.TenantConfig{}, err
	}
	if !applied {
		current, err := s.GetPreventionPolicy(ctx, tenantId)
		if err != nil {
			return model.TenantConfig{}, err
		}
		logger.Info(fmt.Sprintf("Rejected reconfiguration of prevention policy for tenant: %s", tenantId),
			log.String("current_policy", string(current)), log.String("requested_policy", string(policy)))
		return model.TenantConfig{}, errors2.NewClientError(errors2.POLICY_ALREADY_CONFIGURED.WithDescription(
			fmt.Sprintf("Tenant %s already uses the '%s' prevention policy.", tenantId, current)),
			http.StatusConflict)
	}

	if policy != model.PreventionNone {
		s.policyCache.Set(tenantId, policy)
	}
	logger.Audit(log.AuditEvent{
		TenantID:      tenantId,
		InitiatorType: log.InitiatorTypeAdmin,
		TargetID:      tenantId,
		TargetType:    log.TargetTypeTenantConfig,
		ActionID:      log.ActionConfigurePreventionPolicy,
		Data:          map[string]string{"policy": string(policy)},
	})
	return s.GetTenantConfig(ctx, tenantId)
}

// GetResolutionPolicy returns the tenant's conflict resolution policy with defaults applied.
func (s *DuplicateConfigService) GetResolutionPolicy(ctx context.Context, tenantId string) (model.ConflictResolutionPolicy, error) {

	config, err := s.GetTenantConfig(ctx, tenantId)
	if err != nil {
		return model.ConflictResolutionPolicy{}, err
	}
	return config.ResolutionPolicy.WithDefaults(), nil
}

// SetResolutionPolicy validates and stores the tenant's conflict resolution policy. Blank fields take defaults.
func (s *DuplicateConfigService) SetResolutionPolicy(ctx context.Context, tenantId string,
	policy model.ConflictResolutionPolicy) (model.ConflictResolutionPolicy, error) {

	policy = policy.WithDefaults()
	if err := policy.Validate(); err != nil {
		return model.ConflictResolutionPolicy{}, errors2.NewClientError(
			errors2.INVALID_RESOLUTION_POLICY.WithDescription(err.Error()), http.StatusBadRequest)
	}
	if err := s.store.SetTenantConfig(ctx, model.TenantConfig{TenantId: tenantId, ResolutionPolicy: policy}); err != nil {
		return model.ConflictResolutionPolicy{}, err
	}
	log.GetLogger().Audit(log.AuditEvent{
		TenantID:      tenantId,
		InitiatorType: log.InitiatorTypeAdmin,
		TargetID:      tenantId,
		TargetType:    log.TargetTypeTenantConfig,
		ActionID:      log.ActionUpdateResolutionPolicy,
		Data:          policy,
	})
	return policy, nil
}
