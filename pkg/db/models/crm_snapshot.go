package models

import (
	"encoding/json"
	"time"
)

// CRMSnapshot stores one collection of one user's workspace as a JSON blob.
type CRMSnapshot struct {
	UserID     string          `gorm:"column:user_id;type:text;primaryKey"`
	Collection string          `gorm:"column:collection;type:text;primaryKey"`
	Payload    json.RawMessage `gorm:"column:payload;type:jsonb;not null"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (CRMSnapshot) TableName() string { return "crm_snapshots" }
