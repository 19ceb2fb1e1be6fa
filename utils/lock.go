package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/H2RkawaNinja/dashboard/config"
	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"
)

const lockTTL = 30 * time.Second

// ObtainLock takes the redis lock "<lockType>:<key>" and returns its release func.
// Without redis the lock is skipped; the database transaction still serializes the write.
func ObtainLock(ctx context.Context, lockType string, key string, moduleName string, functionName string) (func(), error) {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		logger.WithFields(logrus.Fields{
			"module":   moduleName,
			"funcName": functionName,
			"lock":     lockType,
		}).Warn("redis lock not ready; proceeding without redis lock")
		return func() {}, nil
	}
	lockKey := fmt.Sprintf("lock:%s:%s", lockType, key)
	lock, err := locker.Obtain(ctx, lockKey, lockTTL, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 20),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		config.LogError(logger, moduleName, functionName, "could not obtain lock", lockKey, err)
		return nil, NewConflictError("Vorgang läuft bereits, bitte erneut versuchen")
	} else if err != nil {
		config.LogError(logger, moduleName, functionName, "error obtaining lock", lockKey, err)
		return nil, err
	}
	return func() {
		if releaseErr := lock.Release(context.Background()); releaseErr != nil && !errors.Is(releaseErr, redislock.ErrLockNotHeld) {
			config.LogError(logger, moduleName, functionName, "failed to release lock", lockKey, releaseErr)
		}
	}, nil
}
