package snapshots

import (
	"fmt"

	"github.com/angelmondragon/pipeline-crm/internal/crm"
	"github.com/angelmondragon/pipeline-crm/pkg/config"
	"gorm.io/gorm"
)

// NewPersister picks the snapshot backend named by cfg.Backend.
func NewPersister(cfg config.SnapshotsConfig, db *gorm.DB, kv KeyValueStore) (crm.Persister, error) {
	switch cfg.Backend {
	case "", config.SnapshotBackendDB:
		if db == nil {
			return nil, fmt.Errorf("snapshot backend %q requires a database", config.SnapshotBackendDB)
		}
		return NewRepository(db), nil
	case config.SnapshotBackendRedis:
		if kv == nil {
			return nil, fmt.Errorf("snapshot backend %q requires redis", config.SnapshotBackendRedis)
		}
		return NewRedisStore(kv), nil
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", cfg.Backend)
	}
}
