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
	"errors"
	"fmt"
	"time"

	configModel "github.com/wso2/lead-deduplication-service/internal/duplicate_config/model"
	"github.com/wso2/lead-deduplication-service/internal/duplicate_scan/model"
	leadModel "github.com/wso2/lead-deduplication-service/internal/lead/model"
	"github.com/wso2/lead-deduplication-service/internal/lead/store"
	"github.com/wso2/lead-deduplication-service/internal/system/config"
	"github.com/wso2/lead-deduplication-service/internal/system/constants"
	errors2 "github.com/wso2/lead-deduplication-service/internal/system/errors"
	"github.com/wso2/lead-deduplication-service/internal/system/log"
	"github.com/wso2/lead-deduplication-service/internal/system/metrics"
)

// PreventionPolicyReader resolves the tenant's configured prevention policy.
type PreventionPolicyReader interface {
	GetPreventionPolicy(ctx context.Context, tenantId string) (configModel.PreventionPolicy, error)
}

type DuplicateScanServiceInterface interface {
	ScanAll(ctx context.Context, tenantId string, opts model.ScanOptions) (model.ScanResult, error)
	ScanExact(ctx context.Context, tenantId string, opts model.ScanOptions) (model.ScanResult, error)
}

// Settings holds the scan tunables read from configuration.
type Settings struct {
	SimilarNameThreshold float64
	SimilarNameTimeout   time.Duration
	// NameProgramExclusive removes similar-name members from the name+program pass.
	NameProgramExclusive bool
	DefaultFailOpen      bool
}

// DuplicateScanService finds groups of duplicate leads within a tenant. It never writes to the store.
type DuplicateScanService struct {
	leads     store.LeadStoreInterface
	policies  PreventionPolicyReader
	clusterer NameClusterer
	settings  Settings
	metrics   *metrics.Metrics
}

func NewDuplicateScanService(leads store.LeadStoreInterface, policies PreventionPolicyReader,
	clusterer NameClusterer, settings Settings, m *metrics.Metrics) *DuplicateScanService {

	if clusterer == nil {
		clusterer = GreedyNameClusterer{}
	}
	return &DuplicateScanService{
		leads:     leads,
		policies:  policies,
		clusterer: clusterer,
		settings:  settings,
		metrics:   m,
	}
}

// ScanAll runs the exact email, exact phone, similar name and name+program passes in that order.
// Leads grouped by one of the first three passes are not offered to the passes after it. The
// name+program pass sees every lead left after the phone pass unless NameProgramExclusive is set.
// Cancellation is checked between passes, before anything is returned.
func (s *DuplicateScanService) ScanAll(ctx context.Context, tenantId string,
	opts model.ScanOptions) (model.ScanResult, error) {

	started := time.Now()
	logger := log.GetLogger().ForTenant(tenantId, log.String("scope", constants.ScanScopeAll))
	result := model.ScanResult{TenantId: tenantId, Scope: constants.ScanScopeAll, Groups: []model.DuplicateGroup{}}

	leads, err := s.loadLeads(ctx, tenantId)
	if err != nil {
		return s.degrade(logger, result, opts, err)
	}
	result.LeadsScanned = len(leads)

	emailGroups := exactEmailGroups(leads)
	remaining := withoutGrouped(leads, emailGroups)
	if err := ctx.Err(); err != nil {
		return model.ScanResult{}, err
	}

	phoneGroups := exactPhoneGroups(remaining)
	remaining = withoutGrouped(remaining, phoneGroups)
	if err := ctx.Err(); err != nil {
		return model.ScanResult{}, err
	}

	nameGroups, err := s.similarNames(ctx, remaining)
	if err != nil {
		return model.ScanResult{}, err
	}
	programPool := remaining
	if s.settings.NameProgramExclusive {
		programPool = withoutGrouped(remaining, nameGroups)
	}
	if err := ctx.Err(); err != nil {
		return model.ScanResult{}, err
	}

	programGroups := nameProgramGroups(programPool)

	result.Groups = append(result.Groups, emailGroups...)
	result.Groups = append(result.Groups, phoneGroups...)
	result.Groups = append(result.Groups, nameGroups...)
	result.Groups = append(result.Groups, programGroups...)

	elapsed := time.Since(started)
	s.metrics.ObserveScan(constants.ScanScopeAll, elapsed, result.CountByMatchType())
	logger.Info(fmt.Sprintf("Duplicate scan found %d groups across %d leads", len(result.Groups), len(leads)),
		log.Int("exact_email", len(emailGroups)), log.Int("exact_phone", len(phoneGroups)),
		log.Int("similar_name", len(nameGroups)), log.Int("name_program", len(programGroups)),
		log.Duration("elapsed", elapsed))
	return result, nil
}

// ScanExact runs only the exact passes named by the tenant's prevention policy. Policy none scans nothing.
func (s *DuplicateScanService) ScanExact(ctx context.Context, tenantId string,
	opts model.ScanOptions) (model.ScanResult, error) {

	started := time.Now()
	logger := log.GetLogger().ForTenant(tenantId, log.String("scope", constants.ScanScopeExact))
	result := model.ScanResult{TenantId: tenantId, Scope: constants.ScanScopeExact, Groups: []model.DuplicateGroup{}}

	policy, err := s.policies.GetPreventionPolicy(ctx, tenantId)
	if err != nil {
		return s.degrade(logger, result, opts, err)
	}
	if policy == configModel.PreventionNone {
		logger.Debug("Prevention policy is none, exact scan skipped")
		return result, nil
	}

	leads, err := s.loadLeads(ctx, tenantId)
	if err != nil {
		return s.degrade(logger, result, opts, err)
	}
	result.LeadsScanned = len(leads)

	remaining := leads
	if policy.ChecksEmail() {
		emailGroups := exactEmailGroups(remaining)
		remaining = withoutGrouped(remaining, emailGroups)
		result.Groups = append(result.Groups, emailGroups...)
	}
	if err := ctx.Err(); err != nil {
		return model.ScanResult{}, err
	}
	if policy.ChecksPhone() {
		result.Groups = append(result.Groups, exactPhoneGroups(remaining)...)
	}

	elapsed := time.Since(started)
	s.metrics.ObserveScan(constants.ScanScopeExact, elapsed, result.CountByMatchType())
	logger.Info(fmt.Sprintf("Exact duplicate scan found %d groups across %d leads", len(result.Groups), len(leads)),
		log.String("policy", string(policy)), log.Duration("elapsed", elapsed))
	return result, nil
}

func (s *DuplicateScanService) loadLeads(ctx context.Context, tenantId string) ([]leadModel.Lead, error) {

	leads, err := s.leads.Find(ctx, tenantId, leadModel.LeadFilter{})
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to load leads for tenant: %s", tenantId)
		log.GetLogger().Debug(errorMsg, log.Error(err))
		return nil, errors2.NewServerError(errors2.SCAN_FAILED.WithDescription(errorMsg), err)
	}
	return leads, nil
}

// similarNames runs the clusterer under the configured time budget.
func (s *DuplicateScanService) similarNames(ctx context.Context, leads []leadModel.Lead) ([]model.DuplicateGroup, error) {

	threshold := s.settings.SimilarNameThreshold
	if threshold <= 0 {
		threshold = config.DefaultSimilarNameThreshold
	}
	passCtx := ctx
	if s.settings.SimilarNameTimeout > 0 {
		var cancel context.CancelFunc
		passCtx, cancel = context.WithTimeout(ctx, s.settings.SimilarNameTimeout)
		defer cancel()
	}

	clusters, err := s.clusterer.Cluster(passCtx, leads, threshold)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			errorMsg := fmt.Sprintf("Similar name pass over %d leads exceeded %s", len(leads),
				s.settings.SimilarNameTimeout)
			log.GetLogger().Warn(errorMsg)
			return nil, errors2.NewServerError(errors2.SCAN_TIMEOUT.WithDescription(errorMsg), err)
		}
		return nil, err
	}
	return similarNameGroups(clusters), nil
}

func (s *DuplicateScanService) degrade(logger *log.Logger, result model.ScanResult, opts model.ScanOptions,
	err error) (model.ScanResult, error) {

	failOpen := s.settings.DefaultFailOpen
	if opts.FailOpen != nil {
		failOpen = *opts.FailOpen
	}
	if !failOpen {
		return model.ScanResult{}, err
	}
	logger.Warn("Duplicate scan failed, reporting no groups", log.Error(err))
	result.Degraded = true
	return result, nil
}
