// Package snapshots persists workspace collections as whole JSON blobs,
// keyed by user and collection.
package snapshots

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/pipeline-crm/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errMissingKey = errors.New("user id and collection are required")

// Repository is the SQL snapshot store. It works against postgres and sqlite.
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Save overwrites the stored blob for (userID, collection).
func (r *Repository) Save(ctx context.Context, userID, collection string, payload []byte) error {
	if r.db == nil {
		return fmt.Errorf("snapshot repository not configured")
	}
	userID, collection = strings.TrimSpace(userID), strings.TrimSpace(collection)
	if userID == "" || collection == "" {
		return errMissingKey
	}
	row := models.CRMSnapshot{
		UserID:     userID,
		Collection: collection,
		Payload:    append([]byte(nil), payload...),
		UpdatedAt:  r.now().UTC(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "collection"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&row).Error
}

// Load returns the stored blob. A missing row reports found=false.
func (r *Repository) Load(ctx context.Context, userID, collection string) ([]byte, bool, error) {
	if r.db == nil {
		return nil, false, fmt.Errorf("snapshot repository not configured")
	}
	userID, collection = strings.TrimSpace(userID), strings.TrimSpace(collection)
	if userID == "" || collection == "" {
		return nil, false, errMissingKey
	}
	var row models.CRMSnapshot
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND collection = ?", userID, collection).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(row.Payload), true, nil
}
