package gorm

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/castellan-sec/castellan/pkg/model"
	"github.com/castellan-sec/castellan/pkg/server/store"
)

// Ensure ModelsStore implements store.ModelsStore
var _ store.ModelsStore = (*ModelsStore)(nil)

// ModelsStore implements store.ModelsStore using GORM
type ModelsStore struct {
	db *gorm.DB
}

// NewModelsStore creates a new ModelsStore
func NewModelsStore(db *gorm.DB) *ModelsStore {
	return &ModelsStore{db: db}
}

// GetByID retrieves a model by id.
func (s *ModelsStore) GetByID(modelID uuid.UUID) (*store.Model, error) {
	var m model.Model
	tx := s.db.Where("id = ?", modelID).First(&m)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrModelNotFound
		}
		return nil, tx.Error
	}

	components := make([]store.Component, 0, len(m.Data.Components))
	for _, c := range m.Data.Components {
		components = append(components, store.Component{ID: c.ID, Name: c.Name})
	}

	return &store.Model{
		ID:         m.ID,
		SystemID:   m.SystemID,
		Version:    m.Version,
		CreatedBy:  m.CreatedBy,
		Components: components,
	}, nil
}
