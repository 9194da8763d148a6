package cep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"cupcake/internal/domain/model"
	repo "cupcake/internal/repository"

	"github.com/redis/go-redis/v9"
)

// CEPの結果はほぼ変わらないので長めに持つ
const defaultCacheTTL = 24 * time.Hour

// CachedResolver は見つかった住所をredisに載せる。redisの障害時は素通し。
type CachedResolver struct {
	next    repo.AddressResolver
	client  *redis.Client
	baseTTL time.Duration
	logger  *slog.Logger
}

func NewCachedResolver(next repo.AddressResolver, client *redis.Client, logger *slog.Logger) *CachedResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedResolver{
		next:    next,
		client:  client,
		baseTTL: defaultCacheTTL,
		logger:  logger,
	}
}

func (r *CachedResolver) Resolve(ctx context.Context, cep string) (model.ResolvedAddress, error) {
	key := cacheKey(cep)

	data, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var addr model.ResolvedAddress
		if err := json.Unmarshal(data, &addr); err == nil {
			return addr, nil
		}
		r.logger.WarnContext(ctx, "cep cache entry is broken", "key", key)
	case !errors.Is(err, redis.Nil):
		r.logger.WarnContext(ctx, "cep cache get failed", "key", key, "error", err)
	}

	addr, err := r.next.Resolve(ctx, cep)
	if err != nil {
		return model.ResolvedAddress{}, err
	}

	if err := r.set(ctx, key, addr); err != nil {
		r.logger.WarnContext(ctx, "cep cache set failed", "key", key, "error", err)
	}
	return addr, nil
}

func (r *CachedResolver) set(ctx context.Context, key string, addr model.ResolvedAddress) error {
	b, err := json.Marshal(addr)
	if err != nil {
		return fmt.Errorf("marshal address failed: %w", err)
	}
	jitter := time.Duration(rand.Intn(60)) * time.Minute
	if err := r.client.Set(ctx, key, b, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func cacheKey(cep string) string {
	return fmt.Sprintf("cep:%s", cep)
}
