package verification

import (
	"context"
	"fmt"
	"time"

	"github.com/megatech/storefront-backend/pkg/redis"
)

type redisStore struct {
	client *redis.Client
}

// NewRedisStore builds a Store backed by the shared Redis client.
func NewRedisStore(client *redis.Client) (Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &redisStore{client: client}, nil
}

func (s *redisStore) SaveCode(ctx context.Context, email, code string, ttl time.Duration) error {
	return s.client.Set(ctx, s.client.VerificationCodeKey(email), code, ttl)
}

func (s *redisStore) GetCode(ctx context.Context, email string) (string, bool, error) {
	code, err := s.client.Get(ctx, s.client.VerificationCodeKey(email))
	if redis.IsMissing(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return code, true, nil
}

func (s *redisStore) DeleteCode(ctx context.Context, email string) error {
	return s.client.Del(ctx, s.client.VerificationCodeKey(email))
}

func (s *redisStore) MarkVerified(ctx context.Context, email string, window time.Duration) error {
	return s.client.Set(ctx, s.client.VerifiedEmailKey(email), "1", window)
}

func (s *redisStore) IsVerified(ctx context.Context, email string) (bool, error) {
	return s.client.Exists(ctx, s.client.VerifiedEmailKey(email))
}
