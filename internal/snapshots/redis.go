package snapshots

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/pipeline-crm/pkg/redis"
)

// KeyValueStore is the redis surface the snapshot store needs.
type KeyValueStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	SnapshotKey(userID, collection string) string
}

// RedisStore keeps snapshots under crm:snapshot:<user>:<collection>
// without expiry.
type RedisStore struct {
	kv KeyValueStore
}

func NewRedisStore(kv KeyValueStore) *RedisStore {
	return &RedisStore{kv: kv}
}

func (s *RedisStore) Save(ctx context.Context, userID, collection string, payload []byte) error {
	userID, collection = strings.TrimSpace(userID), strings.TrimSpace(collection)
	if userID == "" || collection == "" {
		return errMissingKey
	}
	return s.kv.Set(ctx, s.kv.SnapshotKey(userID, collection), payload, 0)
}

func (s *RedisStore) Load(ctx context.Context, userID, collection string) ([]byte, bool, error) {
	userID, collection = strings.TrimSpace(userID), strings.TrimSpace(collection)
	if userID == "" || collection == "" {
		return nil, false, errMissingKey
	}
	raw, err := s.kv.Get(ctx, s.kv.SnapshotKey(userID, collection))
	if errors.Is(err, redis.ErrNil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(raw), true, nil
}
