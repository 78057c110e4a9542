package store

import (
	"errors"

	"github.com/google/uuid"
)

// ErrModelNotFound is returned when a model doesn't exist
var ErrModelNotFound = errors.New("model not found")

// UnknownComponentName is the display name used for components that have been
// deleted from the diagram but are still referenced by threats.
const UnknownComponentName = "unknown component"

// Component is one element of a model diagram
type Component struct {
	ID   uuid.UUID
	Name string
}

// Model is the slice of a threat model the export pipeline needs
type Model struct {
	ID         uuid.UUID
	SystemID   string
	Version    string
	CreatedBy  string
	Components []Component
}

// ComponentName resolves a component display name, falling back to
// UnknownComponentName when the component no longer exists.
func (m *Model) ComponentName(componentID uuid.UUID) string {
	for _, c := range m.Components {
		if c.ID == componentID {
			return c.Name
		}
	}
	return UnknownComponentName
}

// ModelsStore abstracts read access to models
type ModelsStore interface {
	// GetByID retrieves a model by id.
	// Returns ErrModelNotFound if the model doesn't exist.
	GetByID(modelID uuid.UUID) (*Model, error)
}
