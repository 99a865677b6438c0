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
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wso2/lead-deduplication-service/internal/system/errors"
	"github.com/wso2/lead-deduplication-service/internal/system/log"
)

func TestMain(m *testing.M) {
	_ = log.Init("ERROR")
	os.Exit(m.Run())
}

// recordingLock wraps LocalLock and records the acquisition order.
type recordingLock struct {
	*LocalLock
	mu       sync.Mutex
	acquired []string
	released []string
}

func (r *recordingLock) Acquire(ctx context.Context, key string) (bool, error) {
	ok, err := r.LocalLock.Acquire(ctx, key)
	if ok {
		r.mu.Lock()
		r.acquired = append(r.acquired, key)
		r.mu.Unlock()
	}
	return ok, err
}

func (r *recordingLock) Release(ctx context.Context, key string) error {
	r.mu.Lock()
	r.released = append(r.released, key)
	r.mu.Unlock()
	return r.LocalLock.Release(ctx, key)
}

func TestLeadLockKey(t *testing.T) {
	assert.Equal(t, "merge:acme:lead-1", LeadLockKey("acme", "lead-1"))
}

func TestLocalLock_AcquireRelease(t *testing.T) {
	l := NewLocalLock()
	ctx := context.Background()

	ok, err := l.Acquire(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.Acquire(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "second acquire of a held key must fail")

	require.NoError(t, l.Release(ctx, "k"))
	assert.False(t, l.Held("k"))

	ok, err = l.Acquire(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLocalLock_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLocalLock().Acquire(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAcquireAll_SortedAndDeduplicated(t *testing.T) {
	r := &recordingLock{LocalLock: NewLocalLock()}

	release, err := AcquireAll(context.Background(), r, []string{"c", "a", "b", "a"}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, r.acquired)

	release()
	assert.Equal(t, []string{"c", "b", "a"}, r.released)
	assert.False(t, r.Held("a"))
}

func TestAcquireAll_TimesOutAndReleasesHeldKeys(t *testing.T) {
	l := NewLocalLock()
	ctx := context.Background()
	ok, err := l.Acquire(ctx, "b")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = AcquireAll(ctx, l, []string{"a", "b"}, 60*time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.MERGE_IN_PROGRESS))
	assert.False(t, l.Held("a"), "keys taken before the timeout must be released")
	assert.True(t, l.Held("b"))
}

func TestAcquireAll_WaitsForRelease(t *testing.T) {
	l := NewLocalLock()
	ctx := context.Background()
	ok, _ := l.Acquire(ctx, "a")
	require.True(t, ok)

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = l.Release(ctx, "a")
	}()

	release, err := AcquireAll(ctx, l, []string{"a"}, 2*time.Second)
	require.NoError(t, err)
	assert.True(t, l.Held("a"))
	release()
	assert.False(t, l.Held("a"))
}

func TestAcquireAll_OverlappingSetsDoNotDeadlock(t *testing.T) {
	l := NewLocalLock()
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	sets := [][]string{{"x", "y"}, {"y", "x"}}
	for i := range sets {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			release, err := AcquireAll(ctx, l, sets[i], 2*time.Second)
			errs[i] = err
			if err == nil {
				time.Sleep(10 * time.Millisecond)
				release()
			}
		}(i)
	}
	wg.Wait()
	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1])
}
