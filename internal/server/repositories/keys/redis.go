package keys

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/keyvault/internal/common"
	"github.com/dmitrijs2005/keyvault/internal/server/models"
)

const redisKeyPrefix = "keyvault:keypair:"

// RedisRepository stores CBOR records under keyvault:keypair:<user id>
// without expiry. SETNX provides the insert-if-absent.
type RedisRepository struct {
	client redis.UniversalClient
}

func NewRedisRepository(client redis.UniversalClient) *RedisRepository {
	return &RedisRepository{client: client}
}

func (r *RedisRepository) Get(ctx context.Context, userID string) (*models.KeyPairRecord, error) {
	b, err := r.client.Get(ctx, redisKeyPrefix+userID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("redis error: %w", err)
	}
	return decodeRecord(b)
}

func (r *RedisRepository) PutIfAbsent(ctx context.Context, rec *models.KeyPairRecord) (*models.KeyPairRecord, bool, error) {
	b, err := encodeRecord(rec)
	if err != nil {
		return nil, false, err
	}

	ok, err := r.client.SetNX(ctx, redisKeyPrefix+rec.UserID, b, 0).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis error: %w", err)
	}
	if ok {
		return rec, true, nil
	}

	existing, err := r.Get(ctx, rec.UserID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}
