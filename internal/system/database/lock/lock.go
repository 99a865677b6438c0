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

package lock

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/wso2/lead-deduplication-service/internal/system/errors"
	"github.com/wso2/lead-deduplication-service/internal/system/log"
)

// DistributedLock is a non-blocking named lock. Acquire reports false when another holder has the key.
type DistributedLock interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

const (
	initialRetryInterval = 25 * time.Millisecond
	maxRetryInterval     = 400 * time.Millisecond
	releaseTimeout       = 5 * time.Second
)

// LeadLockKey is the lock name guarding a lead while it takes part in a merge.
func LeadLockKey(tenantId, leadId string) string {
	return fmt.Sprintf("merge:%s:%s", tenantId, leadId)
}

// AcquireAll takes every key in sorted order so that two callers with overlapping key sets cannot deadlock.
// Each key is retried until wait elapses. When a key cannot be taken in time the keys already held are
// released and MERGE_IN_PROGRESS is returned. The returned release func frees the keys in reverse order.
func AcquireAll(ctx context.Context, l DistributedLock, keys []string, wait time.Duration) (func(), error) {

	ordered := uniqueSorted(keys)
	held := make([]string, 0, len(ordered))
	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		for i := len(held) - 1; i >= 0; i-- {
			if err := l.Release(releaseCtx, held[i]); err != nil {
				log.GetLogger().Warn(fmt.Sprintf("Failed to release lock: %s", held[i]), log.Error(err))
			}
		}
	}

	deadline := time.Now().Add(wait)
	for _, key := range ordered {
		if err := acquireWithRetry(ctx, l, key, deadline); err != nil {
			release()
			return nil, err
		}
		held = append(held, key)
	}
	return release, nil
}

func acquireWithRetry(ctx context.Context, l DistributedLock, key string, deadline time.Time) error {

	logger := log.GetLogger()
	interval := initialRetryInterval
	for {
		acquired, err := l.Acquire(ctx, key)
		if err != nil {
			return err
		}
		if acquired {
			logger.Debug(fmt.Sprintf("Acquired lock: %s", key))
			return nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			logger.Info(fmt.Sprintf("Timed out waiting for lock: %s", key))
			return errors.NewClientError(errors.MERGE_IN_PROGRESS.WithDescription(
				fmt.Sprintf("Lock %s is held by another merge. Retry later.", key)), http.StatusConflict)
		}
		if interval > remaining {
			interval = remaining
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		if interval *= 2; interval > maxRetryInterval {
			interval = maxRetryInterval
		}
	}
}

func uniqueSorted(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
