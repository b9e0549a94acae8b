package session

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// Revocations is the signed-out token denylist.
type Revocations interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type revocationKV interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
	RevokedTokenKey(tokenID string) string
}

// RedisRevocations shares the denylist across API replicas.
type RedisRevocations struct {
	kv  revocationKV
	now func() time.Time
}

func NewRedisRevocations(kv revocationKV) *RedisRevocations {
	return &RedisRevocations{kv: kv, now: time.Now}
}

func (r *RedisRevocations) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	_, err := r.kv.SetNX(ctx, r.kv.RevokedTokenKey(tokenID), "1", ttl)
	return err
}

func (r *RedisRevocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	return r.kv.Exists(ctx, r.kv.RevokedTokenKey(tokenID))
}

// MemoryRevocations keeps the denylist in process. Entries expire with
// their token.
type MemoryRevocations struct {
	cache *cache.Cache
	now   func() time.Time
}

func NewMemoryRevocations(cleanup time.Duration) *MemoryRevocations {
	return &MemoryRevocations{
		cache: cache.New(cache.NoExpiration, cleanup),
		now:   time.Now,
	}
}

func (m *MemoryRevocations) Revoke(_ context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(m.now())
	if ttl <= 0 {
		return nil
	}
	m.cache.Set(tokenID, struct{}{}, ttl)
	return nil
}

func (m *MemoryRevocations) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	_, found := m.cache.Get(tokenID)
	return found, nil
}
