package model

import (
	"time"

	"github.com/google/uuid"
)

// Control is a mitigation attached to a model. Controls are related to
// threats through the mitigations join table.
type Control struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ModelID     uuid.UUID `gorm:"column:model_id;type:uuid;index;not null"`
	ComponentID uuid.UUID `gorm:"column:component_id;type:uuid"`
	Title       string    `gorm:"column:title;not null"`
	Description string    `gorm:"column:description"`
	InPlace     bool      `gorm:"column:in_place"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Control) TableName() string {
	return "controls"
}

// Mitigation links a control to the threat it mitigates.
type Mitigation struct {
	ThreatID  uuid.UUID `gorm:"column:threat_id;type:uuid;primaryKey"`
	ControlID uuid.UUID `gorm:"column:control_id;type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Mitigation) TableName() string {
	return "mitigations"
}
