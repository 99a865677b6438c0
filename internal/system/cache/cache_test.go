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

package cache

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/wso2/lead-deduplication-service/internal/system/log"
)

func TestMain(m *testing.M) {
	_ = log.Init("ERROR")
	os.Exit(m.Run())
}

func TestCache_SetGet(t *testing.T) {
	c := NewCache[string](time.Minute)
	c.Set("tenant-a", "email")

	v, ok := c.Get("tenant-a")
	assert.True(t, ok)
	assert.Equal(t, "email", v)

	_, ok = c.Get("tenant-b")
	assert.False(t, ok)
}

func TestCache_ExpiredEntryDropped(t *testing.T) {
	c := NewCache[int](time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	c.Set("k", 1)

	now = now.Add(2 * time.Minute)
	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCache_Delete(t *testing.T) {
	c := NewCache[int](time.Minute)
	c.Set("k", 1)
	c.Delete("k")
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCache_SetSweepsUnreadExpiredEntries(t *testing.T) {
	c := NewCache[int](time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	c.Set("job-1", 1)
	c.Set("job-2", 2)

	// Inside one TTL of the last sweep nothing is scanned.
	now = now.Add(30 * time.Second)
	c.Set("job-3", 3)
	assert.Equal(t, 3, c.Len())

	now = now.Add(90 * time.Second)
	c.Set("job-4", 4)
	assert.Equal(t, 2, c.Len(), "job-1 and job-2 expired without ever being read")
	_, ok := c.Get("job-3")
	assert.True(t, ok)
}

func TestCache_PurgeExpired(t *testing.T) {
	c := NewCache[int](time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	c.Set("a", 1)
	c.Set("b", 2)

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 2, c.PurgeExpired())
	assert.Equal(t, 0, c.Len())
}
