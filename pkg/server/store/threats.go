package store

import (
	"github.com/google/uuid"

	"github.com/castellan-sec/castellan/pkg/model"
)

// Threat is a modeled threat read for export
type Threat struct {
	ID          uuid.UUID
	ModelID     uuid.UUID
	ComponentID uuid.UUID
	Title       string
	Description string
	Severity    model.Severity
	Status      string
}

// Control is a mitigation attached to a threat
type Control struct {
	ID          uuid.UUID
	Title       string
	Description string
	InPlace     bool
}

// ThreatsStore abstracts read access to threats
type ThreatsStore interface {
	// ListByModelID returns all threats belonging to a model.
	ListByModelID(modelID uuid.UUID) ([]Threat, error)
}

// ControlsStore abstracts read access to controls
type ControlsStore interface {
	// ListByThreatID returns the controls mitigating a threat.
	ListByThreatID(threatID uuid.UUID) ([]Control, error)
}
