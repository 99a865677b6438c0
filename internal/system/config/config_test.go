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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, name)), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoadConfig_ExpandsEnvAndAppliesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("LDS_TEST_LOCK_BACKEND", "redis")
	writeFile(t, home, "conf/deployment.yaml", `
addr:
  port: 8900
datasource:
  type: memory
merge:
  lock_backend: "${LDS_TEST_LOCK_BACKEND}"
  bulk_parallelism: 8
scan:
  name_program_exclusive: true
`)

	cfg, err := LoadConfig(home, "conf/deployment.yaml")
	require.NoError(t, err)

	assert.Equal(t, 8900, cfg.Addr.Port)
	assert.Equal(t, DataSourceMemory, cfg.DataSource.Type)
	assert.Equal(t, LockBackendRedis, cfg.Merge.LockBackend)
	assert.Equal(t, 8, cfg.Merge.BulkParallelism)
	assert.True(t, cfg.Scan.NameProgramExclusive)

	assert.Equal(t, "INFO", cfg.Log.LogLevel)
	assert.Equal(t, DefaultSimilarNameThreshold, cfg.Scan.SimilarNameThreshold)
	assert.Equal(t, 30*time.Second, cfg.Scan.SimilarNameTimeout())
	assert.Equal(t, 10*time.Second, cfg.Merge.LockWaitTimeout())
	assert.Equal(t, 2*time.Minute, cfg.Merge.LockTTL())
	assert.Equal(t, 100, cfg.Merge.QueueSize)
	assert.Equal(t, time.Hour, cfg.Merge.JobRetention())
	assert.Equal(t, 5*time.Minute, cfg.Cache.PolicyTTL())
	assert.False(t, cfg.Check.FailOpen)
	assert.False(t, cfg.Scan.FailOpen)
}

func TestLoadConfig_ScanAndCheckFailOpenAreSeparate(t *testing.T) {
	home := t.TempDir()
	writeFile(t, home, "scan-open.yaml", `
scan:
  fail_open: true
check:
  fail_open: false
`)
	writeFile(t, home, "check-open.yaml", `
check:
  fail_open: true
`)

	cfg, err := LoadConfig(home, "scan-open.yaml")
	require.NoError(t, err)
	assert.True(t, cfg.Scan.FailOpen)
	assert.False(t, cfg.Check.FailOpen)

	cfg, err = LoadConfig(home, "check-open.yaml")
	require.NoError(t, err)
	assert.False(t, cfg.Scan.FailOpen)
	assert.True(t, cfg.Check.FailOpen)
}

func TestLoadConfig_Errors(t *testing.T) {
	home := t.TempDir()
	_, err := LoadConfig(home, "missing.yaml")
	assert.Error(t, err)

	writeFile(t, home, "broken.yaml", "merge: [unterminated")
	_, err = LoadConfig(home, "broken.yaml")
	assert.Error(t, err)
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := Config{
		DataSource: DataSourceConfig{Type: DataSourcePostgres, SSLMode: "require"},
		Scan:       ScanConfig{SimilarNameThreshold: 0.9},
		Merge:      MergeConfig{LockBackend: LockBackendMongoDB, LockWaitTimeoutSeconds: 3},
	}
	cfg.ApplyDefaults()

	assert.Equal(t, "require", cfg.DataSource.SSLMode)
	assert.Equal(t, 0.9, cfg.Scan.SimilarNameThreshold)
	assert.Equal(t, LockBackendMongoDB, cfg.Merge.LockBackend)
	assert.Equal(t, 3*time.Second, cfg.Merge.LockWaitTimeout())
}

func TestLoadEnvFiles_SkipsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lds.env", "LDS_TEST_FROM_ENV_FILE=loaded\n")
	t.Cleanup(func() { _ = os.Unsetenv("LDS_TEST_FROM_ENV_FILE") })

	require.NoError(t, LoadEnvFiles(filepath.Join(dir, "absent.env"), filepath.Join(dir, "lds.env")))
	assert.Equal(t, "loaded", os.Getenv("LDS_TEST_FROM_ENV_FILE"))

	assert.NoError(t, LoadEnvFiles(filepath.Join(dir, "absent.env")))
}

func TestOverrideRuntime(t *testing.T) {
	OverrideRuntime(Config{Merge: MergeConfig{QueueSize: 7}})
	assert.Equal(t, 7, GetRuntime().Config.Merge.QueueSize)
}
