package snapshots

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/pipeline-crm/pkg/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSnapshotsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS crm_snapshots (
  user_id TEXT NOT NULL,
  collection TEXT NOT NULL,
  payload JSONB NOT NULL,
  updated_at DATETIME,
  PRIMARY KEY (user_id, collection)
);`
	require.NoError(t, db.Exec(schema).Error)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestRepositoryLoadMissing(t *testing.T) {
	repo := NewRepository(setupSnapshotsTestDB(t))

	payload, found, err := repo.Load(context.Background(), "u1", "leads")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, payload)
}

func TestRepositorySaveLoadRoundTrip(t *testing.T) {
	repo := NewRepository(setupSnapshotsTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "u1", "leads", []byte(`[{"id":"l1","name":"Ada"}]`)))

	payload, found, err := repo.Load(ctx, "u1", "leads")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `[{"id":"l1","name":"Ada"}]`, string(payload))
}

func TestRepositorySaveOverwrites(t *testing.T) {
	db := setupSnapshotsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	first := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return first }
	require.NoError(t, repo.Save(ctx, "u1", "meetings", []byte(`[{"id":"m1"}]`)))

	repo.now = func() time.Time { return first.Add(time.Hour) }
	require.NoError(t, repo.Save(ctx, "u1", "meetings", []byte(`[]`)))

	var rows []models.CRMSnapshot
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.JSONEq(t, `[]`, string(rows[0].Payload))
	assert.True(t, rows[0].UpdatedAt.Equal(first.Add(time.Hour)), "updated_at should move on overwrite, got %s", rows[0].UpdatedAt)
}

func TestRepositoryIsolatesUsersAndCollections(t *testing.T) {
	repo := NewRepository(setupSnapshotsTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "u1", "leads", []byte(`["u1"]`)))
	require.NoError(t, repo.Save(ctx, "u2", "leads", []byte(`["u2"]`)))

	payload, found, err := repo.Load(ctx, "u2", "leads")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `["u2"]`, string(payload))

	_, found, err = repo.Load(ctx, "u1", "activities")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRepositoryRequiresKey(t *testing.T) {
	repo := NewRepository(setupSnapshotsTestDB(t))

	assert.ErrorIs(t, repo.Save(context.Background(), " ", "leads", []byte(`[]`)), errMissingKey)
	_, _, err := repo.Load(context.Background(), "u1", "")
	assert.ErrorIs(t, err, errMissingKey)
}
