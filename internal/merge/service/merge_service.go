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
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	configModel "github.com/wso2/lead-deduplication-service/internal/duplicate_config/model"
	leadModel "github.com/wso2/lead-deduplication-service/internal/lead/model"
	"github.com/wso2/lead-deduplication-service/internal/lead/store"
	"github.com/wso2/lead-deduplication-service/internal/merge/model"
	"github.com/wso2/lead-deduplication-service/internal/system/database/lock"
	errors2 "github.com/wso2/lead-deduplication-service/internal/system/errors"
	"github.com/wso2/lead-deduplication-service/internal/system/log"
	"github.com/wso2/lead-deduplication-service/internal/system/metrics"
)

// ResolutionPolicyReader resolves the tenant's stored conflict resolution policy.
type ResolutionPolicyReader interface {
	GetResolutionPolicy(ctx context.Context, tenantId string) (configModel.ConflictResolutionPolicy, error)
}

type MergeServiceInterface interface {
	MergeTwo(ctx context.Context, tenantId, primaryLeadId, secondaryLeadId string) (model.MergeResult, error)
	MergeGroup(ctx context.Context, tenantId string, group model.GroupSpec,
		policy *configModel.ConflictResolutionPolicy) (model.MergeResult, error)
	PreviewGroup(ctx context.Context, tenantId string, group model.GroupSpec,
		policy *configModel.ConflictResolutionPolicy) (model.MergeResult, error)
	BulkMergeGroups(ctx context.Context, tenantId string, groups []model.GroupSpec,
		policy *configModel.ConflictResolutionPolicy) (model.BulkMergeResult, error)
}

// Settings holds the merge tunables read from configuration.
type Settings struct {
	LockWaitTimeout time.Duration
	BulkParallelism int
}

// MergeService folds duplicate leads into a surviving primary. Every merge runs
// update, then dependent reassignment, then deletion, so a failure never loses data.
type MergeService struct {
	leads    store.LeadStoreInterface
	policies ResolutionPolicyReader
	locker   lock.DistributedLock
	settings Settings
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewMergeService(leads store.LeadStoreInterface, policies ResolutionPolicyReader, locker lock.DistributedLock,
	settings Settings, m *metrics.Metrics) *MergeService {

	if settings.BulkParallelism < 1 {
		settings.BulkParallelism = 1
	}
	return &MergeService{
		leads:    leads,
		policies: policies,
		locker:   locker,
		settings: settings,
		metrics:  m,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type initiatorKey struct{}

// WithSystemInitiator marks merges run under ctx as system initiated in the audit log.
func WithSystemInitiator(ctx context.Context) context.Context {
	return context.WithValue(ctx, initiatorKey{}, log.InitiatorTypeSystem)
}

func initiatorType(ctx context.Context) string {
	if v, ok := ctx.Value(initiatorKey{}).(string); ok {
		return v
	}
	return log.InitiatorTypeUser
}

// MergeTwo merges secondaryLeadId into primaryLeadId with the fixed two-record rules and
// moves the secondary's documents to the primary before deleting the secondary. Calling it again
// after a partial failure finishes the pending steps without merging the secondary twice.
func (s *MergeService) MergeTwo(ctx context.Context, tenantId, primaryLeadId,
	secondaryLeadId string) (model.MergeResult, error) {

	started := time.Now()
	result, removed, err := s.mergeTwo(ctx, tenantId, strings.TrimSpace(primaryLeadId), strings.TrimSpace(secondaryLeadId))
	s.metrics.ObserveMerge("two", time.Since(started), removed, err)
	return result, err
}

func (s *MergeService) mergeTwo(ctx context.Context, tenantId, primaryLeadId,
	secondaryLeadId string) (model.MergeResult, int, error) {

	logger := log.GetLogger().ForTenant(tenantId)
	if primaryLeadId == "" || secondaryLeadId == "" {
		return model.MergeResult{}, 0, errors2.NewClientError(errors2.BAD_REQUEST.WithDescription(
			"Both primary_lead_id and secondary_lead_id are required."), http.StatusBadRequest)
	}
	if primaryLeadId == secondaryLeadId {
		return model.MergeResult{}, 0, errors2.NewClientError(errors2.SAME_RECORD_MERGE.WithDescription(
			fmt.Sprintf("Lead %s cannot be merged with itself.", primaryLeadId)), http.StatusBadRequest)
	}

	ids := []string{primaryLeadId, secondaryLeadId}
	release, err := s.lockMembers(ctx, tenantId, ids)
	if err != nil {
		return model.MergeResult{}, 0, err
	}
	defer release()

	byId, err := s.findMembers(ctx, tenantId, ids)
	if err != nil {
		return model.MergeResult{}, 0, err
	}
	primary, ok := byId[primaryLeadId]
	if !ok {
		return model.MergeResult{}, 0, notFound([]string{primaryLeadId})
	}
	secondary, present := byId[secondaryLeadId]
	resumed := primary.HasMerged(secondaryLeadId)
	if !present && !resumed {
		return model.MergeResult{}, 0, notFound([]string{secondaryLeadId})
	}

	updated := &primary
	if !resumed {
		merged := mergeTwoLeads(primary, secondary, s.now())
		merged.MergedLeadIds = union(primary.MergedLeadIds, []string{secondaryLeadId})
		if updated, err = s.updatePrimary(ctx, merged); err != nil {
			return model.MergeResult{}, 0, err
		}
	}
	moved, removed := 0, 0
	if present {
		if moved, err = s.reassignDocuments(ctx, tenantId, primaryLeadId, []string{secondaryLeadId}); err != nil {
			return model.MergeResult{}, 0, err
		}
		if err := s.deleteSecondaries(ctx, tenantId, primaryLeadId, []string{secondaryLeadId}); err != nil {
			return model.MergeResult{}, 0, err
		}
		removed = 1
	}

	logger.Info(fmt.Sprintf("Merged lead %s into %s", secondaryLeadId, primaryLeadId),
		log.Int("documents_reassigned", moved), log.Bool("resumed", resumed))
	logger.Audit(log.AuditEvent{
		TenantID:      tenantId,
		InitiatorType: initiatorType(ctx),
		TargetID:      primaryLeadId,
		TargetType:    log.TargetTypeLead,
		ActionID:      log.ActionMergeLeads,
		Data: map[string]interface{}{
			"merged_lead_ids":      []string{secondaryLeadId},
			"documents_reassigned": moved,
			"resumed":              resumed,
		},
	})
	return model.MergeResult{
		PrimaryLead:         *updated,
		MergedLeadIds:       []string{secondaryLeadId},
		DocumentsReassigned: moved,
		Resumed:             resumed,
	}, removed, nil
}

// MergeGroup merges every member of group into its primary following policy, or the tenant's
// stored policy when policy is nil. Members the primary already absorbed in an earlier, partially
// failed attempt are not merged again; only their reassignment and deletion are finished.
func (s *MergeService) MergeGroup(ctx context.Context, tenantId string, group model.GroupSpec,
	policy *configModel.ConflictResolutionPolicy) (model.MergeResult, error) {

	resolved, err := s.resolvePolicy(ctx, tenantId, policy)
	if err != nil {
		return model.MergeResult{}, err
	}
	return s.mergeGroup(ctx, tenantId, group, resolved)
}

func (s *MergeService) mergeGroup(ctx context.Context, tenantId string, group model.GroupSpec,
	policy configModel.ConflictResolutionPolicy) (model.MergeResult, error) {

	started := time.Now()
	result, removed, err := s.mergeGroupLocked(ctx, tenantId, group, policy)
	s.metrics.ObserveMerge("group", time.Since(started), removed, err)
	return result, err
}

func (s *MergeService) mergeGroupLocked(ctx context.Context, tenantId string, group model.GroupSpec,
	policy configModel.ConflictResolutionPolicy) (model.MergeResult, int, error) {

	logger := log.GetLogger().ForTenant(tenantId, log.String("group_id", group.Id))
	ids, err := validateGroup(group)
	if err != nil {
		return model.MergeResult{}, 0, err
	}

	release, err := s.lockMembers(ctx, tenantId, ids)
	if err != nil {
		return model.MergeResult{}, 0, err
	}
	defer release()

	plan, err := s.plan(ctx, tenantId, group, ids, policy)
	if err != nil {
		return model.MergeResult{}, 0, err
	}

	updated := &plan.primary
	if plan.merged != nil {
		if updated, err = s.updatePrimary(ctx, *plan.merged); err != nil {
			return model.MergeResult{}, 0, err
		}
	}
	moved := 0
	if policy.Documents == configModel.StrategyMergeAll {
		if moved, err = s.reassignDocuments(ctx, tenantId, plan.primary.LeadId, plan.present); err != nil {
			return model.MergeResult{}, 0, err
		}
	}
	if err := s.deleteSecondaries(ctx, tenantId, plan.primary.LeadId, plan.present); err != nil {
		return model.MergeResult{}, 0, err
	}

	logger.Info(fmt.Sprintf("Merged %d leads into %s", len(plan.secondaryIds), plan.primary.LeadId),
		log.Int("documents_reassigned", moved), log.Bool("resumed", plan.resumed))
	logger.Audit(log.AuditEvent{
		TenantID:      tenantId,
		InitiatorType: initiatorType(ctx),
		TargetID:      plan.primary.LeadId,
		TargetType:    log.TargetTypeDuplicateGroup,
		ActionID:      log.ActionMergeGroup,
		Data: map[string]interface{}{
			"group_id":             group.Id,
			"merged_lead_ids":      plan.secondaryIds,
			"deleted_lead_ids":     plan.present,
			"documents_reassigned": moved,
			"resumed":              plan.resumed,
			"policy":               policy,
		},
	})
	return model.MergeResult{
		GroupId:             group.Id,
		PrimaryLead:         *updated,
		MergedLeadIds:       plan.secondaryIds,
		DocumentsReassigned: moved,
		Resumed:             plan.resumed,
	}, len(plan.present), nil
}

// PreviewGroup computes the merged primary without locking or writing anything.
func (s *MergeService) PreviewGroup(ctx context.Context, tenantId string, group model.GroupSpec,
	policy *configModel.ConflictResolutionPolicy) (model.MergeResult, error) {

	resolved, err := s.resolvePolicy(ctx, tenantId, policy)
	if err != nil {
		return model.MergeResult{}, err
	}
	ids, err := validateGroup(group)
	if err != nil {
		return model.MergeResult{}, err
	}
	plan, err := s.plan(ctx, tenantId, group, ids, resolved)
	if err != nil {
		return model.MergeResult{}, err
	}
	primary := plan.primary
	if plan.merged != nil {
		primary = *plan.merged
	}
	return model.MergeResult{
		GroupId:       group.Id,
		PrimaryLead:   primary,
		MergedLeadIds: plan.secondaryIds,
		Resumed:       plan.resumed,
		DryRun:        true,
	}, nil
}

// BulkMergeGroups merges each group independently. A failing group is recorded and the rest continue.
// Groups run in parallel only when no lead id appears in more than one group.
func (s *MergeService) BulkMergeGroups(ctx context.Context, tenantId string, groups []model.GroupSpec,
	policy *configModel.ConflictResolutionPolicy) (model.BulkMergeResult, error) {

	logger := log.GetLogger().ForTenant(tenantId)
	resolved, err := s.resolvePolicy(ctx, tenantId, policy)
	if err != nil {
		return model.BulkMergeResult{}, err
	}

	results := make([]model.MergeResult, len(groups))
	errs := make([]error, len(groups))
	run := func(i int) {
		if err := ctx.Err(); err != nil {
			errs[i] = err
			return
		}
		results[i], errs[i] = s.mergeGroup(ctx, tenantId, groups[i], resolved)
	}

	if s.settings.BulkParallelism > 1 && disjoint(groups) {
		logger.Debug(fmt.Sprintf("Merging %d disjoint groups with parallelism %d", len(groups),
			s.settings.BulkParallelism))
		var eg errgroup.Group
		eg.SetLimit(s.settings.BulkParallelism)
		for i := range groups {
			eg.Go(func() error {
				run(i)
				return nil
			})
		}
		_ = eg.Wait()
	} else {
		for i := range groups {
			run(i)
		}
	}

	var bulk model.BulkMergeResult
	for i, err := range errs {
		if err == nil {
			bulk.SuccessCount++
			bulk.Merged = append(bulk.Merged, results[i])
			continue
		}
		bulk.FailedCount++
		bulk.Failures = append(bulk.Failures, groupFailure(groups[i], i, err))
	}
	logger.Info(fmt.Sprintf("Bulk merge finished: %d succeeded, %d failed", bulk.SuccessCount, bulk.FailedCount))
	return bulk, nil
}

func groupFailure(group model.GroupSpec, index int, err error) model.GroupFailure {
	groupId := group.Id
	if groupId == "" {
		groupId = fmt.Sprintf("#%d", index)
	}
	failure := model.GroupFailure{GroupId: groupId, Error: err.Error()}
	var clientErr *errors2.ClientError
	var serverErr *errors2.ServerError
	switch {
	case errors.As(err, &clientErr):
		failure.ErrorCode = clientErr.Code
	case errors.As(err, &serverErr):
		failure.ErrorCode = serverErr.Code
	}
	return failure
}

func (s *MergeService) resolvePolicy(ctx context.Context, tenantId string,
	policy *configModel.ConflictResolutionPolicy) (configModel.ConflictResolutionPolicy, error) {

	if policy == nil {
		return s.policies.GetResolutionPolicy(ctx, tenantId)
	}
	resolved := policy.WithDefaults()
	if err := resolved.Validate(); err != nil {
		return configModel.ConflictResolutionPolicy{}, errors2.NewClientError(
			errors2.INVALID_RESOLUTION_POLICY.WithDescription(err.Error()), http.StatusBadRequest)
	}
	return resolved, nil
}

type mergePlan struct {
	primary leadModel.Lead
	// secondaryIds holds every non-primary member of the group, oldest first.
	secondaryIds []string
	// present holds the secondaries still stored. They are reassigned and deleted by this attempt.
	present []string
	// merged is nil when the primary already absorbed every present secondary.
	merged  *leadModel.Lead
	resumed bool
}

// plan loads the members and computes the merged primary. A member that is gone from the store is
// accepted only when the primary records it as already merged.
func (s *MergeService) plan(ctx context.Context, tenantId string, group model.GroupSpec, ids []string,
	policy configModel.ConflictResolutionPolicy) (mergePlan, error) {

	byId, err := s.findMembers(ctx, tenantId, ids)
	if err != nil {
		return mergePlan{}, err
	}
	members := make([]leadModel.Lead, 0, len(ids))
	for _, id := range ids {
		if m, ok := byId[id]; ok {
			members = append(members, m)
		}
	}
	sort.SliceStable(members, func(i, j int) bool {
		if members[i].CreatedAt.Equal(members[j].CreatedAt) {
			return members[i].LeadId < members[j].LeadId
		}
		return members[i].CreatedAt.Before(members[j].CreatedAt)
	})

	primaryId := strings.TrimSpace(group.PrimaryLeadId)
	if primaryId == "" && len(members) > 0 {
		primaryId = members[0].LeadId
	}
	primary, ok := byId[primaryId]
	if !ok {
		if primaryId == "" {
			return mergePlan{}, notFound(ids)
		}
		return mergePlan{}, notFound([]string{primaryId})
	}

	var missing []string
	for _, id := range ids {
		if _, ok := byId[id]; !ok && !primary.HasMerged(id) {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return mergePlan{}, notFound(missing)
	}

	plan := mergePlan{primary: primary}
	pending := []leadModel.Lead{primary}
	var pendingIds []string
	for _, m := range members {
		if m.LeadId == primaryId {
			continue
		}
		plan.secondaryIds = append(plan.secondaryIds, m.LeadId)
		plan.present = append(plan.present, m.LeadId)
		if primary.HasMerged(m.LeadId) {
			plan.resumed = true
			continue
		}
		pending = append(pending, m)
		pendingIds = append(pendingIds, m.LeadId)
	}
	for _, id := range ids {
		if _, ok := byId[id]; !ok {
			plan.secondaryIds = append(plan.secondaryIds, id)
			plan.resumed = true
		}
	}

	if len(pendingIds) > 0 {
		merged := mergeGroupLeads(primary, pending, policy, s.now())
		merged.MergedLeadIds = union(primary.MergedLeadIds, pendingIds)
		plan.merged = &merged
	}
	return plan, nil
}

// validateGroup returns the trimmed member ids of a well formed group.
func validateGroup(group model.GroupSpec) ([]string, error) {

	invalid := func(description string) error {
		return errors2.NewClientError(errors2.INVALID_DUPLICATE_GROUP.WithDescription(description), http.StatusBadRequest)
	}
	seen := make(map[string]bool, len(group.LeadIds))
	ids := make([]string, 0, len(group.LeadIds))
	for _, id := range group.LeadIds {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, invalid("Lead ids must not be blank.")
		}
		if seen[id] {
			return nil, invalid(fmt.Sprintf("Lead %s appears more than once in the group.", id))
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) < 2 {
		return nil, invalid("A duplicate group needs at least two leads.")
	}
	if primary := strings.TrimSpace(group.PrimaryLeadId); primary != "" && !seen[primary] {
		return nil, invalid(fmt.Sprintf("Primary lead %s is not a member of the group.", primary))
	}
	return ids, nil
}

// disjoint reports whether no lead id is shared between groups.
func disjoint(groups []model.GroupSpec) bool {
	seen := make(map[string]bool)
	for _, g := range groups {
		inGroup := make(map[string]bool, len(g.LeadIds))
		for _, id := range g.LeadIds {
			id = strings.TrimSpace(id)
			if inGroup[id] {
				continue
			}
			inGroup[id] = true
			if seen[id] {
				return false
			}
			seen[id] = true
		}
	}
	return true
}

func (s *MergeService) lockMembers(ctx context.Context, tenantId string, ids []string) (func(), error) {

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, lock.LeadLockKey(tenantId, id))
	}
	started := time.Now()
	release, err := lock.AcquireAll(ctx, s.locker, keys, s.settings.LockWaitTimeout)
	s.metrics.ObserveLockWait(time.Since(started))
	return release, err
}

// findMembers re-reads the members under the lock, keyed by id. Ids with no stored lead are absent.
func (s *MergeService) findMembers(ctx context.Context, tenantId string, ids []string) (map[string]leadModel.Lead, error) {

	leads, err := s.leads.Find(ctx, tenantId, leadModel.LeadFilter{LeadIds: ids})
	if err != nil {
		return nil, err
	}
	byId := make(map[string]leadModel.Lead, len(leads))
	for _, l := range leads {
		byId[l.LeadId] = l
	}
	return byId, nil
}

func notFound(ids []string) error {
	return errors2.NewClientError(errors2.RECORD_NOT_FOUND.WithDescription(
		fmt.Sprintf("No lead found for lead_id(s): %s", strings.Join(ids, ", "))), http.StatusNotFound)
}

func (s *MergeService) updatePrimary(ctx context.Context, merged leadModel.Lead) (*leadModel.Lead, error) {

	updated, err := s.leads.InsertOrUpdate(ctx, merged)
	if err != nil {
		if errors2.IsClientError(err) {
			return nil, err
		}
		errorMsg := fmt.Sprintf("Failed to update primary lead %s. No lead was deleted.", merged.LeadId)
		log.GetLogger().Error(errorMsg, log.Error(err))
		return nil, errors2.NewServerError(errors2.MERGE_UPDATE_FAILED.WithDescription(errorMsg), err)
	}
	return updated, nil
}

// reassignDocuments moves documents of every secondary to the primary and verifies none remain behind.
func (s *MergeService) reassignDocuments(ctx context.Context, tenantId, primaryId string,
	secondaryIds []string) (int, error) {

	logger := log.GetLogger().ForTenant(tenantId)
	total := 0
	for _, secondaryId := range secondaryIds {
		moved, err := s.leads.ReassignDependents(ctx, tenantId, secondaryId, primaryId, leadModel.DependentDocuments)
		if err != nil {
			errorMsg := fmt.Sprintf("Failed to move documents of lead %s to %s. The primary is already updated "+
				"and no lead was deleted.", secondaryId, primaryId)
			logger.Error(errorMsg, log.Error(err))
			return total, errors2.NewServerError(errors2.DEPENDENT_REASSIGNMENT_FAILED.WithDescription(errorMsg), err)
		}
		remaining, err := s.leads.CountDependents(ctx, tenantId, secondaryId, leadModel.DependentDocuments)
		if err != nil || remaining > 0 {
			errorMsg := fmt.Sprintf("Lead %s still owns %d documents after reassignment.", secondaryId, remaining)
			logger.Error(errorMsg, log.Error(err))
			return total, errors2.NewServerError(errors2.DEPENDENT_REASSIGNMENT_FAILED.WithDescription(errorMsg), err)
		}
		if moved > 0 {
			logger.Audit(log.AuditEvent{
				TenantID:      tenantId,
				InitiatorType: initiatorType(ctx),
				TargetID:      secondaryId,
				TargetType:    log.TargetTypeLead,
				ActionID:      log.ActionReassignLeadDocs,
				Data:          map[string]interface{}{"to_lead_id": primaryId, "documents": moved},
			})
		}
		total += moved
	}
	return total, nil
}

// deleteSecondaries runs last. A failure here leaves an updated primary next to leads that should be
// gone, so it is logged at error level with the ids still present.
func (s *MergeService) deleteSecondaries(ctx context.Context, tenantId, primaryId string, secondaryIds []string) error {

	logger := log.GetLogger().ForTenant(tenantId)
	for i, secondaryId := range secondaryIds {
		if err := s.leads.Delete(ctx, tenantId, secondaryId); err != nil {
			errorMsg := fmt.Sprintf("Primary lead %s was updated but deleting merged lead %s failed. "+
				"Leads still present: %s", primaryId, secondaryId, strings.Join(secondaryIds[i:], ", "))
			logger.Error(errorMsg, log.Error(err), log.Strings("deleted", secondaryIds[:i]))
			return errors2.NewServerError(errors2.DELETION_FAILED.WithDescription(errorMsg), err)
		}
		logger.Audit(log.AuditEvent{
			TenantID:      tenantId,
			InitiatorType: initiatorType(ctx),
			TargetID:      secondaryId,
			TargetType:    log.TargetTypeLead,
			ActionID:      log.ActionDeleteLead,
			Data:          map[string]string{"merged_into": primaryId},
		})
	}
	return nil
}
