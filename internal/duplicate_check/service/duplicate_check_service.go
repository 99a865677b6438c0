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
	"strings"

	"github.com/wso2/lead-deduplication-service/internal/duplicate_check/model"
	configModel "github.com/wso2/lead-deduplication-service/internal/duplicate_config/model"
	leadModel "github.com/wso2/lead-deduplication-service/internal/lead/model"
	"github.com/wso2/lead-deduplication-service/internal/lead/store"
	"github.com/wso2/lead-deduplication-service/internal/normalizer"
	errors2 "github.com/wso2/lead-deduplication-service/internal/system/errors"
	"github.com/wso2/lead-deduplication-service/internal/system/log"
	"github.com/wso2/lead-deduplication-service/internal/system/metrics"
)

// PreventionPolicyReader resolves the tenant's configured prevention policy.
type PreventionPolicyReader interface {
	GetPreventionPolicy(ctx context.Context, tenantId string) (configModel.PreventionPolicy, error)
}

type DuplicateCheckServiceInterface interface {
	Check(ctx context.Context, tenantId string, request model.CheckRequest) (model.CheckResult, error)
}

// DuplicateCheckService answers the intake question "does this contact already exist?". It is read only.
type DuplicateCheckService struct {
	leads           store.LeadStoreInterface
	policies        PreventionPolicyReader
	defaultFailOpen bool
	metrics         *metrics.Metrics
}

func NewDuplicateCheckService(leads store.LeadStoreInterface, policies PreventionPolicyReader,
	defaultFailOpen bool, m *metrics.Metrics) *DuplicateCheckService {

	return &DuplicateCheckService{
		leads:           leads,
		policies:        policies,
		defaultFailOpen: defaultFailOpen,
		metrics:         m,
	}
}

// Check looks for one existing lead sharing the candidate's contact details under the tenant's
// prevention policy. Policy none returns immediately without touching the store.
func (s *DuplicateCheckService) Check(ctx context.Context, tenantId string,
	request model.CheckRequest) (model.CheckResult, error) {

	logger := log.GetLogger().With(log.Tenant(tenantId))
	failOpen := s.defaultFailOpen
	if request.FailOpen != nil {
		failOpen = *request.FailOpen
	}

	policy, err := s.policies.GetPreventionPolicy(ctx, tenantId)
	if err != nil {
		return s.degrade(logger, string(configModel.PreventionNone), failOpen, err)
	}
	if policy == configModel.PreventionNone {
		s.metrics.IncrementCheck(string(policy), "unique")
		return model.CheckResult{}, nil
	}

	filter, ok := buildFilter(policy, request)
	if !ok {
		logger.Debug("Candidate carries no contact field covered by the prevention policy",
			log.String("policy", string(policy)))
		s.metrics.IncrementCheck(string(policy), "unique")
		return model.CheckResult{}, nil
	}

	matches, err := s.leads.Find(ctx, tenantId, filter)
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to look up existing leads for tenant: %s", tenantId)
		logger.Debug(errorMsg, log.Error(err))
		return s.degrade(logger, string(policy), failOpen,
			errors2.NewServerError(errors2.CHECK_FAILED.WithDescription(errorMsg), err))
	}
	if len(matches) == 0 {
		s.metrics.IncrementCheck(string(policy), "unique")
		return model.CheckResult{}, nil
	}

	existing := matches[0]
	matchType := classify(policy, filter, existing)
	logger.Debug(fmt.Sprintf("Intake candidate duplicates lead: %s", existing.LeadId),
		log.String("match_type", string(matchType)))
	s.metrics.IncrementCheck(string(policy), "duplicate")
	return model.CheckResult{
		IsDuplicate:  true,
		ExistingLead: &existing,
		MatchType:    matchType,
	}, nil
}

func (s *DuplicateCheckService) degrade(logger *log.Logger, policy string, failOpen bool,
	err error) (model.CheckResult, error) {

	if !failOpen {
		s.metrics.IncrementCheck(policy, "error")
		return model.CheckResult{}, err
	}
	logger.Warn("Duplicate check failed, treating candidate as unique", log.Error(err))
	s.metrics.IncrementCheck(policy, "fail_open")
	return model.CheckResult{Degraded: true}, nil
}

// buildFilter returns false when the candidate has nothing the policy can compare.
func buildFilter(policy configModel.PreventionPolicy, request model.CheckRequest) (leadModel.LeadFilter, bool) {

	filter := leadModel.LeadFilter{Limit: 1}
	if policy.ChecksEmail() {
		filter.Email = normalizer.NormalizeEmail(request.Email)
	}
	if policy.ChecksPhone() {
		if digits := normalizer.NormalizePhone(request.Phone); len(digits) >= normalizer.MinPhoneKeyLength {
			filter.PhoneDigits = digits
		}
	}
	filter.MatchAny = filter.Email != "" && filter.PhoneDigits != ""
	return filter, filter.Email != "" || filter.PhoneDigits != ""
}

func classify(policy configModel.PreventionPolicy, filter leadModel.LeadFilter, existing leadModel.Lead) model.MatchType {

	emailMatch := filter.Email != "" && normalizer.NormalizeEmail(existing.Email) == filter.Email
	phoneMatch := filter.PhoneDigits != "" &&
		strings.Contains(normalizer.NormalizePhone(existing.Phone), filter.PhoneDigits)

	switch {
	case policy == configModel.PreventionBoth && emailMatch && phoneMatch:
		return model.MatchEmailAndPhone
	case emailMatch:
		return model.MatchEmail
	default:
		return model.MatchPhone
	}
}
