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
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wso2/lead-deduplication-service/internal/system/errors"
	"github.com/wso2/lead-deduplication-service/internal/system/log"
)

const mongoLockCollection = "locks"

// MongoLock implements DistributedLock with one document per held key. A TTL index on expires_at lets
// MongoDB reap locks left behind by crashed instances.
type MongoLock struct {
	Collection *mongo.Collection
	ttl        time.Duration
	owner      string
	now        func() time.Time
}

func NewMongoLock(db *mongo.Database, ttl time.Duration) *MongoLock {
	return &MongoLock{
		Collection: db.Collection(mongoLockCollection),
		ttl:        ttl,
		owner:      uuid.New().String(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// EnsureIndexes creates the TTL index used to expire abandoned locks.
func (l *MongoLock) EnsureIndexes(ctx context.Context) error {

	_, err := l.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return errors.NewServerError(errors.LOCK_ACQUIRE.WithDescription("Failed to create lock TTL index."), err)
	}
	return nil
}

func (l *MongoLock) Acquire(ctx context.Context, key string) (bool, error) {

	now := l.now()
	lock := bson.M{
		"_id":        key,
		"owner":      l.owner,
		"created_at": now,
		"expires_at": now.Add(l.ttl),
	}

	_, err := l.Collection.InsertOne(ctx, lock)
	if err == nil {
		return true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		errorMsg := fmt.Sprintf("Failed to insert lock document for key: %s", key)
		log.GetLogger().Error(errorMsg, log.Error(err))
		return false, errors.NewServerError(errors.LOCK_ACQUIRE.WithDescription(errorMsg), err)
	}

	// The TTL monitor runs about once a minute; take over an expired lock rather than wait for it.
	result, err := l.Collection.DeleteOne(ctx, bson.M{"_id": key, "expires_at": bson.M{"$lt": now}})
	if err != nil {
		return false, errors.NewServerError(errors.LOCK_ACQUIRE.WithDescription(
			fmt.Sprintf("Failed to clear expired lock for key: %s", key)), err)
	}
	if result.DeletedCount == 0 {
		return false, nil
	}
	if _, err := l.Collection.InsertOne(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, errors.NewServerError(errors.LOCK_ACQUIRE.WithDescription(
			fmt.Sprintf("Failed to insert lock document for key: %s", key)), err)
	}
	return true, nil
}

func (l *MongoLock) Release(ctx context.Context, key string) error {

	_, err := l.Collection.DeleteOne(ctx, bson.M{"_id": key, "owner": l.owner})
	if err != nil {
		return errors.NewServerError(errors.LOCK_RELEASE.WithDescription(
			fmt.Sprintf("Failed to delete lock document for key: %s", key)), err)
	}
	return nil
}

var (
	mongoClient     *mongo.Client
	mongoClientOnce sync.Once
	mongoClientErr  error
)

// ConnectMongo opens the shared MongoDB client used by the lock backend.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {

	mongoClientOnce.Do(func() {
		mongoClient, mongoClientErr = mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if mongoClientErr == nil {
			mongoClientErr = mongoClient.Ping(ctx, nil)
		}
	})
	return mongoClient, mongoClientErr
}
