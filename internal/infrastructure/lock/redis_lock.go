// Package lock - реализации ports.DistributedLock.
//
// RedisLock: SET key token NX PX ttl, снятие через compare-and-delete скрипт,
// чтобы реплика не сняла блокировку, которую уже перехватила другая.
// LocalLock: то же внутри одного процесса (без Redis).
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Haleralex/walletledger/internal/application/ports"
)

// Compile-time check
var _ ports.DistributedLock = (*RedisLock)(nil)

// releaseScript удаляет ключ только если значение совпадает с нашим токеном.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisConfig - параметры подключения к Redis.
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
}

// NewRedisClient создаёт клиента и проверяет соединение.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Addr, err)
	}

	return client, nil
}

// RedisLock реализует ports.DistributedLock поверх Redis.
type RedisLock struct {
	client    redis.Cmdable
	keyPrefix string
}

// NewRedisLock создаёт блокировку. keyPrefix отделяет ключи приложения.
func NewRedisLock(client redis.Cmdable, keyPrefix string) *RedisLock {
	return &RedisLock{client: client, keyPrefix: keyPrefix}
}

// TryLock пытается взять блокировку на ttl.
func (l *RedisLock) TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	fullKey := l.keyPrefix + key
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lock %s: %w", fullKey, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{fullKey}, token).Err(); err != nil {
			return fmt.Errorf("failed to release lock %s: %w", fullKey, err)
		}
		return nil
	}

	return release, true, nil
}
