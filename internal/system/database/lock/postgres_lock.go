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
	"database/sql"
	"fmt"
	"hash/fnv" // For hashing string keys to integers
	"sync"

	"github.com/wso2/lead-deduplication-service/internal/system/database/client"
	"github.com/wso2/lead-deduplication-service/internal/system/errors"
	"github.com/wso2/lead-deduplication-service/internal/system/log"
)

// PostgresLock implements DistributedLock using PostgreSQL advisory locks. Advisory locks belong to
// the session, so every held key pins its own connection until it is released.
type PostgresLock struct {
	dbClient client.DBClientInterface
	mu       sync.Mutex
	conns    map[string]*sql.Conn
}

func NewPostgresLock(dbClient client.DBClientInterface) *PostgresLock {
	return &PostgresLock{
		dbClient: dbClient,
		conns:    make(map[string]*sql.Conn),
	}
}

// PostgreSQL advisory locks use bigint or two integers. We'll use a single bigint.
func (l *PostgresLock) generateLockKey(key string) (int64, error) {

	logger := log.GetLogger()
	h := fnv.New64a()
	_, err := h.Write([]byte(key))
	if err != nil {
		errorMsg := fmt.Sprintf("failed to hash lock key '%s'", key)
		logger.Debug(errorMsg, log.Error(err))
		return 0, errors.NewServerError(errors.LOCK_KEY_GEN.WithDescription(errorMsg), err)
	}
	return int64(h.Sum64()), nil
}

func (l *PostgresLock) Acquire(ctx context.Context, key string) (bool, error) {

	logger := log.GetLogger()
	lockID, err := l.generateLockKey(key)
	if err != nil {
		return false, err
	}

	l.mu.Lock()
	_, alreadyHeld := l.conns[key]
	l.mu.Unlock()
	if alreadyHeld {
		return false, nil
	}

	conn, err := l.dbClient.Conn(ctx)
	if err != nil {
		errorMsg := "Failed to obtain a dedicated connection for advisory lock acquiring."
		logger.Error(errorMsg, log.Error(err))
		return false, errors.NewServerError(errors.DB_CLIENT_INIT.WithDescription(errorMsg), err)
	}

	var acquired sql.NullBool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", lockID).Scan(&acquired); err != nil {
		_ = conn.Close()
		errorMsg := "Failed to execute pg_try_advisory_lock"
		logger.Error(errorMsg, log.Error(err))
		return false, errors.NewServerError(errors.LOCK_ACQUIRE.WithDescription(errorMsg), err)
	}
	if !acquired.Valid {
		_ = conn.Close()
		errorMsg := fmt.Sprintf("pg_try_advisory_lock returned an invalid result for lock Id %d", lockID)
		logger.Error(errorMsg)
		return false, errors.NewServerError(errors.LOCK_RESULT_INVALID.WithDescription(errorMsg), nil)
	}
	if !acquired.Bool {
		_ = conn.Close()
		return false, nil
	}

	l.mu.Lock()
	l.conns[key] = conn
	l.mu.Unlock()
	logger.Debug(fmt.Sprintf("Advisory lock acquired for lock id: %d", lockID), log.String("key", key))
	return true, nil
}

func (l *PostgresLock) Release(ctx context.Context, key string) error {

	logger := log.GetLogger()
	l.mu.Lock()
	conn, ok := l.conns[key]
	delete(l.conns, key)
	l.mu.Unlock()
	if !ok {
		return nil
	}
	defer conn.Close()

	lockID, err := l.generateLockKey(key)
	if err != nil {
		return err
	}

	var released sql.NullBool
	err = conn.QueryRowContext(ctx, "SELECT pg_advisory_unlock($1)", lockID).Scan(&released)
	if err != nil || !released.Bool {
		errorMsg := fmt.Sprintf("pg_advisory_unlock failed for lock id: %d", lockID)
		logger.Error(errorMsg, log.Error(err))
		return errors.NewServerError(errors.LOCK_RELEASE.WithDescription(errorMsg), err)
	}
	logger.Debug(fmt.Sprintf("Advisory lock released for lock id: %d", lockID))
	return nil
}
