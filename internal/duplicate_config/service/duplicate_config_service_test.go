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
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wso2/lead-deduplication-service/internal/duplicate_config/model"
	"github.com/wso2/lead-deduplication-service/internal/duplicate_config/store"
	"github.com/wso2/lead-deduplication-service/internal/system/errors"
	"github.com/wso2/lead-deduplication-service/internal/system/log"
)

func TestMain(m *testing.M) {
	_ = log.Init("ERROR")
	os.Exit(m.Run())
}

type countingConfigStore struct {
	*store.MemoryTenantConfigStore
	gets int
}

func (c *countingConfigStore) GetTenantConfig(ctx context.Context, tenantId string) (*model.TenantConfig, error) {
	c.gets++
	return c.MemoryTenantConfigStore.GetTenantConfig(ctx, tenantId)
}

func newService() (*DuplicateConfigService, *countingConfigStore) {
	s := &countingConfigStore{MemoryTenantConfigStore: store.NewMemoryTenantConfigStore()}
	return NewDuplicateConfigService(s, time.Minute), s
}

// ---------------------------------------------------------------------------
// Prevention policy
// ---------------------------------------------------------------------------

func TestGetPreventionPolicy_DefaultsToNone(t *testing.T) {
	svc, _ := newService()
	policy, err := svc.GetPreventionPolicy(context.Background(), "tenant-a")
	require.NoError(t, err)
	assert.Equal(t, model.PreventionNone, policy)
}

func TestSetPreventionPolicy_SecondCallConflicts(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	config, err := svc.SetPreventionPolicy(ctx, "tenant-a", model.PreventionEmail)
	require.NoError(t, err)
	assert.Equal(t, model.PreventionEmail, config.PreventionPolicy)
	require.NotNil(t, config.PolicyConfiguredAt)

	_, err = svc.SetPreventionPolicy(ctx, "tenant-a", model.PreventionPhone)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.POLICY_ALREADY_CONFIGURED))
	clientErr, ok := err.(*errors.ClientError)
	require.True(t, ok, "expected a ClientError")
	assert.Equal(t, http.StatusConflict, clientErr.StatusCode)

	policy, err := svc.GetPreventionPolicy(ctx, "tenant-a")
	require.NoError(t, err)
	assert.Equal(t, model.PreventionEmail, policy)
}

func TestSetPreventionPolicy_SameValueStillConflicts(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	_, err := svc.SetPreventionPolicy(ctx, "tenant-a", model.PreventionBoth)
	require.NoError(t, err)

	_, err = svc.SetPreventionPolicy(ctx, "tenant-a", model.PreventionBoth)
	assert.True(t, errors.HasCode(err, errors.POLICY_ALREADY_CONFIGURED))
}

func TestSetPreventionPolicy_NoneCanBeReplaced(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	_, err := svc.SetPreventionPolicy(ctx, "tenant-a", model.PreventionNone)
	require.NoError(t, err)

	config, err := svc.SetPreventionPolicy(ctx, "tenant-a", model.PreventionPhone)
	require.NoError(t, err)
	assert.Equal(t, model.PreventionPhone, config.PreventionPolicy)
}

func TestSetPreventionPolicy_TenantsIndependent(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	_, err := svc.SetPreventionPolicy(ctx, "tenant-a", model.PreventionEmail)
	require.NoError(t, err)
	_, err = svc.SetPreventionPolicy(ctx, "tenant-b", model.PreventionPhone)
	require.NoError(t, err)

	policy, err := svc.GetPreventionPolicy(ctx, "tenant-b")
	require.NoError(t, err)
	assert.Equal(t, model.PreventionPhone, policy)
}

func TestSetPreventionPolicy_InvalidValue(t *testing.T) {
	svc, _ := newService()
	_, err := svc.SetPreventionPolicy(context.Background(), "tenant-a", model.PreventionPolicy("fax"))
	require.Error(t, err)
	clientErr, ok := err.(*errors.ClientError)
	require.True(t, ok, "expected a ClientError")
	assert.Equal(t, http.StatusBadRequest, clientErr.StatusCode)
	assert.Equal(t, errors.INVALID_PREVENTION_POLICY.Code, clientErr.Code)
}

func TestGetPreventionPolicy_ConfiguredPolicyIsCached(t *testing.T) {
	svc, counting := newService()
	ctx := context.Background()
	_, err := svc.SetPreventionPolicy(ctx, "tenant-a", model.PreventionEmail)
	require.NoError(t, err)

	before := counting.gets
	for i := 0; i < 3; i++ {
		policy, err := svc.GetPreventionPolicy(ctx, "tenant-a")
		require.NoError(t, err)
		assert.Equal(t, model.PreventionEmail, policy)
	}
	assert.Equal(t, before, counting.gets)
}

// ---------------------------------------------------------------------------
// Resolution policy
// ---------------------------------------------------------------------------

func TestGetResolutionPolicy_Defaults(t *testing.T) {
	svc, _ := newService()
	policy, err := svc.GetResolutionPolicy(context.Background(), "tenant-a")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultResolutionPolicy(), policy)
}

func TestSetResolutionPolicy_PartialFilledWithDefaults(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	stored, err := svc.SetResolutionPolicy(ctx, "tenant-a", model.ConflictResolutionPolicy{
		Documents: model.StrategyKeepPrimary,
		Notes:     model.StrategyKeepPrimary,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StrategyKeepPrimary, stored.Documents)
	assert.Equal(t, model.StrategyUnionAll, stored.Programs)

	fetched, err := svc.GetResolutionPolicy(ctx, "tenant-a")
	require.NoError(t, err)
	assert.Equal(t, stored, fetched)
}

func TestSetResolutionPolicy_InvalidStrategy(t *testing.T) {
	svc, _ := newService()
	_, err := svc.SetResolutionPolicy(context.Background(), "tenant-a", model.ConflictResolutionPolicy{
		Tags: model.StrategyKeepHighest,
	})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.INVALID_RESOLUTION_POLICY))
}

func TestSetResolutionPolicy_DoesNotTouchPreventionPolicy(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	_, err := svc.SetPreventionPolicy(ctx, "tenant-a", model.PreventionEmail)
	require.NoError(t, err)
	_, err = svc.SetResolutionPolicy(ctx, "tenant-a", model.DefaultResolutionPolicy())
	require.NoError(t, err)

	config, err := svc.GetTenantConfig(ctx, "tenant-a")
	require.NoError(t, err)
	assert.Equal(t, model.PreventionEmail, config.PreventionPolicy)
}
