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

import "time"

type AddrConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

type LogConfig struct {
	LogLevel string `yaml:"log_level"`
	// Format is "text" or "json".
	Format string `yaml:"format"`
}

type DataSourceConfig struct {
	Type     string `yaml:"type"`
	Hostname string `yaml:"hostname"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	// InitSchema applies dbscripts/postgresql.sql on startup. The script is idempotent.
	InitSchema bool `yaml:"init_schema"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type MongoDBConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// ScanConfig tunes the duplicate group scanner.
type ScanConfig struct {
	SimilarNameThreshold      float64 `yaml:"similar_name_threshold"`
	SimilarNameTimeoutSeconds int     `yaml:"similar_name_timeout_seconds"`
	// NameProgramExclusive removes leads already clustered by name similarity from the
	// name+program pass. Off by default so both passes see the same pool.
	NameProgramExclusive bool `yaml:"name_program_exclusive"`
	// FailOpen is the scan default when a request does not set fail_open. Independent of check.fail_open.
	FailOpen bool `yaml:"fail_open"`
}

type MergeConfig struct {
	LockBackend            string `yaml:"lock_backend"`
	LockWaitTimeoutSeconds int    `yaml:"lock_wait_timeout_seconds"`
	LockTTLSeconds         int    `yaml:"lock_ttl_seconds"`
	BulkParallelism        int    `yaml:"bulk_parallelism"`
	QueueSize              int    `yaml:"queue_size"`
	// JobRetentionMinutes is how long async bulk merge outcomes stay queryable.
	JobRetentionMinutes int `yaml:"job_retention_minutes"`
}

type CheckConfig struct {
	FailOpen bool `yaml:"fail_open"`
}

type CacheConfig struct {
	PolicyTTLSeconds int `yaml:"policy_ttl_seconds"`
}

type Config struct {
	Addr       AddrConfig       `yaml:"addr"`
	Log        LogConfig        `yaml:"log"`
	DataSource DataSourceConfig `yaml:"datasource"`
	Redis      RedisConfig      `yaml:"redis"`
	MongoDB    MongoDBConfig    `yaml:"mongodb"`
	Scan       ScanConfig       `yaml:"scan"`
	Merge      MergeConfig      `yaml:"merge"`
	Check      CheckConfig      `yaml:"check"`
	Cache      CacheConfig      `yaml:"cache"`
}

// ApplyDefaults fills zero values with the defaults the engine is tuned for.
func (c *Config) ApplyDefaults() {

	if c.Log.LogLevel == "" {
		c.Log.LogLevel = "INFO"
	}
	if c.DataSource.Type == "" {
		c.DataSource.Type = DataSourcePostgres
	}
	if c.DataSource.SSLMode == "" {
		c.DataSource.SSLMode = "disable"
	}
	if c.Scan.SimilarNameThreshold <= 0 {
		c.Scan.SimilarNameThreshold = DefaultSimilarNameThreshold
	}
	if c.Scan.SimilarNameTimeoutSeconds <= 0 {
		c.Scan.SimilarNameTimeoutSeconds = 30
	}
	if c.Merge.LockBackend == "" {
		c.Merge.LockBackend = LockBackendLocal
	}
	if c.Merge.LockWaitTimeoutSeconds <= 0 {
		c.Merge.LockWaitTimeoutSeconds = 10
	}
	if c.Merge.LockTTLSeconds <= 0 {
		c.Merge.LockTTLSeconds = 120
	}
	if c.Merge.BulkParallelism <= 0 {
		c.Merge.BulkParallelism = 4
	}
	if c.Merge.QueueSize <= 0 {
		c.Merge.QueueSize = 100
	}
	if c.Merge.JobRetentionMinutes <= 0 {
		c.Merge.JobRetentionMinutes = 60
	}
	if c.Cache.PolicyTTLSeconds <= 0 {
		c.Cache.PolicyTTLSeconds = 300
	}
}

func (s ScanConfig) SimilarNameTimeout() time.Duration {
	return time.Duration(s.SimilarNameTimeoutSeconds) * time.Second
}

func (m MergeConfig) LockWaitTimeout() time.Duration {
	return time.Duration(m.LockWaitTimeoutSeconds) * time.Second
}

func (m MergeConfig) LockTTL() time.Duration {
	return time.Duration(m.LockTTLSeconds) * time.Second
}

func (m MergeConfig) JobRetention() time.Duration {
	return time.Duration(m.JobRetentionMinutes) * time.Minute
}

const (
	DataSourcePostgres = "postgres"
	DataSourceMemory   = "memory"

	LockBackendLocal    = "local"
	LockBackendPostgres = "postgres"
	LockBackendRedis    = "redis"
	LockBackendMongoDB  = "mongodb"

	DefaultSimilarNameThreshold = 0.80

	PostgresSchemaFile = "dbscripts/postgresql.sql"
)

func (c CacheConfig) PolicyTTL() time.Duration {
	return time.Duration(c.PolicyTTLSeconds) * time.Second
}
