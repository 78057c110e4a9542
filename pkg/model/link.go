package model

import (
	"time"

	"github.com/google/uuid"
)

// Link object types.
const (
	LinkObjectTypeThreat = "threat"
	LinkObjectTypeModel  = "model"
)

// Link records that an object was exported to an external system. The unique
// index on (object_id, created_by) is the dedup guarantee: at most one link
// per object per exporter key, no matter how many triggers race.
type Link struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ObjectType  string    `gorm:"column:object_type;not null"`
	ObjectID    uuid.UUID `gorm:"column:object_id;type:uuid;not null;uniqueIndex:links_object_id_created_by_idx,priority:1"`
	ExternalID  string    `gorm:"column:external_id;not null"`
	ExternalURL string    `gorm:"column:external_url"`
	CreatedBy   string    `gorm:"column:created_by;not null;uniqueIndex:links_object_id_created_by_idx,priority:2"`
	Actor       string    `gorm:"column:actor"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Link) TableName() string {
	return "links"
}
