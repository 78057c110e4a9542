package model

import (
	"time"

	"github.com/google/uuid"
)

// Severity classifies how bad a threat is if left unmitigated.
type Severity string

const (
	SeverityInformative Severity = "informative"
	SeverityLow         Severity = "low"
	SeverityMedium      Severity = "medium"
	SeverityHigh        Severity = "high"
	SeverityCritical    Severity = "critical"
)

// Threat is a modeled threat against a component of a model. Once a review is
// approved every threat on the model becomes an action item for export.
type Threat struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ModelID     uuid.UUID `gorm:"column:model_id;type:uuid;index;not null"`
	ComponentID uuid.UUID `gorm:"column:component_id;type:uuid;not null"`
	Title       string    `gorm:"column:title;not null"`
	Description string    `gorm:"column:description"`
	Severity    Severity  `gorm:"column:severity"`
	Status      string    `gorm:"column:status"`
	CreatedBy   string    `gorm:"column:created_by"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Threat) TableName() string {
	return "threats"
}
