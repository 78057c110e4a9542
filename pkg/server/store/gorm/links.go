package gorm

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/castellan-sec/castellan/pkg/model"
	"github.com/castellan-sec/castellan/pkg/server/store"
)

// Ensure LinksStore implements store.LinksStore
var _ store.LinksStore = (*LinksStore)(nil)

// LinksStore implements store.LinksStore using GORM
type LinksStore struct {
	db *gorm.DB
}

// NewLinksStore creates a new LinksStore
func NewLinksStore(db *gorm.DB) *LinksStore {
	return &LinksStore{db: db}
}

// ListByObjectID returns all links recorded for an object.
func (s *LinksStore) ListByObjectID(objectType string, objectID uuid.UUID) ([]store.Link, error) {
	var links []model.Link
	tx := s.db.Where("object_type = ? AND object_id = ?", objectType, objectID).Find(&links)
	if tx.Error != nil {
		return nil, tx.Error
	}

	result := make([]store.Link, 0, len(links))
	for _, l := range links {
		result = append(result, store.Link{
			ObjectType:  l.ObjectType,
			ObjectID:    l.ObjectID,
			ExternalID:  l.ExternalID,
			ExternalURL: l.ExternalURL,
			CreatedBy:   l.CreatedBy,
			Actor:       l.Actor,
			CreatedAt:   l.CreatedAt,
		})
	}
	return result, nil
}

// Insert records a link. ON CONFLICT DO NOTHING on the
// (object_id, created_by) unique index makes concurrent triggers converge on
// a single row: the loser of the race observes RowsAffected == 0 and treats
// the item as already exported.
func (s *LinksStore) Insert(link store.Link) (bool, error) {
	tx := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "object_id"}, {Name: "created_by"}},
		DoNothing: true,
	}).Create(&model.Link{
		ObjectType:  link.ObjectType,
		ObjectID:    link.ObjectID,
		ExternalID:  link.ExternalID,
		ExternalURL: link.ExternalURL,
		CreatedBy:   link.CreatedBy,
		Actor:       link.Actor,
	})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}
