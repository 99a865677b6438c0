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

package managers

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	checkService "github.com/wso2/lead-deduplication-service/internal/duplicate_check/service"
	configService "github.com/wso2/lead-deduplication-service/internal/duplicate_config/service"
	configStore "github.com/wso2/lead-deduplication-service/internal/duplicate_config/store"
	scanService "github.com/wso2/lead-deduplication-service/internal/duplicate_scan/service"
	healthService "github.com/wso2/lead-deduplication-service/internal/health_check/service"
	"github.com/wso2/lead-deduplication-service/internal/lead/store"
	mergeService "github.com/wso2/lead-deduplication-service/internal/merge/service"
	"github.com/wso2/lead-deduplication-service/internal/system/config"
	"github.com/wso2/lead-deduplication-service/internal/system/database/client"
	"github.com/wso2/lead-deduplication-service/internal/system/database/lock"
	"github.com/wso2/lead-deduplication-service/internal/system/database/provider"
	"github.com/wso2/lead-deduplication-service/internal/system/log"
	"github.com/wso2/lead-deduplication-service/internal/system/metrics"
)

// LeadStore is the record store the engine runs against. Both store implementations satisfy it.
type LeadStore interface {
	store.LeadStoreInterface
	store.DocumentStoreInterface
}

// Engine holds the wired duplicate detection and merge services shared by the server and the CLI.
type Engine struct {
	Leads         LeadStore
	ConfigService *configService.DuplicateConfigService
	CheckService  *checkService.DuplicateCheckService
	ScanService   *scanService.DuplicateScanService
	MergeService  *mergeService.MergeService
	Locker        lock.DistributedLock
	// DependencyChecks check the external dependencies the engine was built against.
	DependencyChecks map[string]healthService.DependencyCheck

	closers []func()
}

// NewEngine builds stores, the merge lock backend and the services from cfg.
func NewEngine(ctx context.Context, cfg config.Config, m *metrics.Metrics) (*Engine, error) {

	logger := log.GetLogger()
	engine := &Engine{DependencyChecks: make(map[string]healthService.DependencyCheck)}

	var (
		tenantConfigs configStore.TenantConfigStoreInterface
		dbClient      client.DBClientInterface
	)
	switch cfg.DataSource.Type {
	case config.DataSourceMemory:
		logger.Info("Using the in-memory lead store")
		engine.Leads = store.NewMemoryLeadStore()
		tenantConfigs = configStore.NewMemoryTenantConfigStore()
	case config.DataSourcePostgres:
		dbProvider := provider.NewDBProvider()
		var err error
		if dbClient, err = dbProvider.GetDBClient(); err != nil {
			return nil, errors.Wrap(err, "connecting to the lead database")
		}
		engine.Leads = store.NewPostgresLeadStore(dbClient, dbProvider.GetDBType())
		tenantConfigs = configStore.NewPostgresTenantConfigStore(dbClient, dbProvider.GetDBType())
		engine.closers = append(engine.closers, func() { _ = dbClient.Close() })
		engine.DependencyChecks["datasource"] = func(ctx context.Context) error {
			_, err := dbClient.ExecuteQuery(ctx, "SELECT 1")
			return err
		}
		if cfg.DataSource.InitSchema {
			if err := dbClient.InitDatabase(config.GetRuntime().LDSHome, config.PostgresSchemaFile); err != nil {
				engine.Close()
				return nil, errors.Wrap(err, "applying the lead database schema")
			}
		}
	default:
		return nil, errors.Errorf("unsupported datasource type %q", cfg.DataSource.Type)
	}

	locker, err := engine.newLock(ctx, cfg, dbClient)
	if err != nil {
		engine.Close()
		return nil, err
	}
	engine.Locker = locker

	engine.ConfigService = configService.NewDuplicateConfigService(tenantConfigs, cfg.Cache.PolicyTTL())
	engine.CheckService = checkService.NewDuplicateCheckService(engine.Leads, engine.ConfigService,
		cfg.Check.FailOpen, m)
	engine.ScanService = scanService.NewDuplicateScanService(engine.Leads, engine.ConfigService, nil,
		scanService.Settings{
			SimilarNameThreshold: cfg.Scan.SimilarNameThreshold,
			SimilarNameTimeout:   cfg.Scan.SimilarNameTimeout(),
			NameProgramExclusive: cfg.Scan.NameProgramExclusive,
			DefaultFailOpen:      cfg.Scan.FailOpen,
		}, m)
	engine.MergeService = mergeService.NewMergeService(engine.Leads, engine.ConfigService, locker,
		mergeService.Settings{
			LockWaitTimeout: cfg.Merge.LockWaitTimeout(),
			BulkParallelism: cfg.Merge.BulkParallelism,
		}, m)
	return engine, nil
}

func (e *Engine) newLock(ctx context.Context, cfg config.Config, dbClient client.DBClientInterface) (lock.DistributedLock, error) {

	logger := log.GetLogger()
	switch cfg.Merge.LockBackend {
	case config.LockBackendLocal:
		logger.Info("Using in-process merge locks")
		return lock.NewLocalLock(), nil

	case config.LockBackendPostgres:
		if dbClient == nil {
			return nil, errors.New("the postgres lock backend needs datasource.type postgres")
		}
		logger.Info("Using postgres advisory locks for merges")
		return lock.NewPostgresLock(dbClient), nil

	case config.LockBackendRedis:
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			_ = redisClient.Close()
			return nil, errors.Wrapf(err, "connecting to redis at %s", cfg.Redis.Addr)
		}
		e.closers = append(e.closers, func() { _ = redisClient.Close() })
		e.DependencyChecks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		logger.Info(fmt.Sprintf("Using redis merge locks at %s", cfg.Redis.Addr))
		return lock.NewRedisLock(redisClient, cfg.Merge.LockTTL()), nil

	case config.LockBackendMongoDB:
		mongoClient, err := lock.ConnectMongo(ctx, cfg.MongoDB.URI)
		if err != nil {
			return nil, errors.Wrap(err, "connecting to mongodb")
		}
		e.closers = append(e.closers, func() { _ = mongoClient.Disconnect(context.Background()) })
		e.DependencyChecks["mongodb"] = func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) }
		mongoLock := lock.NewMongoLock(mongoClient.Database(cfg.MongoDB.Database), cfg.Merge.LockTTL())
		if err := mongoLock.EnsureIndexes(ctx); err != nil {
			return nil, errors.Wrap(err, "creating mongodb lock indexes")
		}
		logger.Info(fmt.Sprintf("Using mongodb merge locks in database %s", cfg.MongoDB.Database))
		return mongoLock, nil
	}
	return nil, errors.Errorf("unsupported merge lock backend %q", cfg.Merge.LockBackend)
}

// Close releases connections opened by NewEngine in reverse order.
func (e *Engine) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
	e.closers = nil
}
