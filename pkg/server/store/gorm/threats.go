package gorm

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/castellan-sec/castellan/pkg/model"
	"github.com/castellan-sec/castellan/pkg/server/store"
)

// Ensure the stores implement their interfaces
var (
	_ store.ThreatsStore  = (*ThreatsStore)(nil)
	_ store.ControlsStore = (*ControlsStore)(nil)
)

// ThreatsStore implements store.ThreatsStore using GORM
type ThreatsStore struct {
	db *gorm.DB
}

// NewThreatsStore creates a new ThreatsStore
func NewThreatsStore(db *gorm.DB) *ThreatsStore {
	return &ThreatsStore{db: db}
}

// ListByModelID returns all threats belonging to a model.
func (s *ThreatsStore) ListByModelID(modelID uuid.UUID) ([]store.Threat, error) {
	var threats []model.Threat
	tx := s.db.Where("model_id = ?", modelID).Order("created_at asc").Find(&threats)
	if tx.Error != nil {
		return nil, tx.Error
	}

	result := make([]store.Threat, 0, len(threats))
	for _, t := range threats {
		result = append(result, store.Threat{
			ID:          t.ID,
			ModelID:     t.ModelID,
			ComponentID: t.ComponentID,
			Title:       t.Title,
			Description: t.Description,
			Severity:    t.Severity,
			Status:      t.Status,
		})
	}
	return result, nil
}

// ControlsStore implements store.ControlsStore using GORM
type ControlsStore struct {
	db *gorm.DB
}

// NewControlsStore creates a new ControlsStore
func NewControlsStore(db *gorm.DB) *ControlsStore {
	return &ControlsStore{db: db}
}

// ListByThreatID returns the controls mitigating a threat, joined through the
// mitigations table.
func (s *ControlsStore) ListByThreatID(threatID uuid.UUID) ([]store.Control, error) {
	var controls []model.Control
	tx := s.db.
		Joins("JOIN mitigations ON mitigations.control_id = controls.id").
		Where("mitigations.threat_id = ?", threatID).
		Order("controls.created_at asc").
		Find(&controls)
	if tx.Error != nil {
		return nil, tx.Error
	}

	result := make([]store.Control, 0, len(controls))
	for _, c := range controls {
		result = append(result, store.Control{
			ID:          c.ID,
			Title:       c.Title,
			Description: c.Description,
			InPlace:     c.InPlace,
		})
	}
	return result, nil
}
