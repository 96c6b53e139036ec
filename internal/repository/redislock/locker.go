// Package redislock provides a VehicleLocker shared across server replicas
// through Redis.
package redislock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"parkit-backend/internal/logger"
	"parkit-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// unlockScript deletes the key only if it still holds our token, so an
// expired lock re-acquired by another holder is never released by us.
var unlockScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

type Locker struct {
	rdb   redis.UniversalClient
	ttl   time.Duration
	retry time.Duration
}

// New returns a locker whose keys expire after ttl. A holder that crashes
// blocks the vehicle for at most ttl.
func New(rdb redis.UniversalClient, ttl, retry time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if retry <= 0 {
		retry = 25 * time.Millisecond
	}
	return &Locker{rdb: rdb, ttl: ttl, retry: retry}
}

var _ repository.VehicleLocker = (*Locker)(nil)

func key(vehicleID string) string {
	return "parkit:lock:vehicle:" + vehicleID
}

func (l *Locker) Lock(ctx context.Context, vehicleID string) (func(), error) {
	k := key(vehicleID)
	token := uuid.NewString()

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()
	for {
		ok, err := l.rdb.SetNX(ctx, k, token, l.ttl).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("acquire vehicle lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	return func() {
		unlockCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := unlockScript.Run(unlockCtx, l.rdb, []string{k}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			logger.Warn("Failed to release vehicle lock, it will expire", "vehicle_id", vehicleID, "ttl", l.ttl, "error", err)
		}
	}, nil
}
