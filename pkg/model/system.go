package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Component is one element of a model diagram. Only the fields the export
// pipeline needs are kept here; the full diagram payload is owned by the UI.
type Component struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// ModelData is the JSONB diagram payload of a model.
type ModelData struct {
	Components []Component `json:"components"`
}

func (d ModelData) Value() (driver.Value, error) {
	return json.Marshal(d)
}

func (d *ModelData) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	default:
		return fmt.Errorf("invalid value of ModelData: %T", value)
	}
}

// Model is a threat model of a system. Threats and controls belong to a
// model; the review workflow gates its approval.
type Model struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	SystemID  string    `gorm:"column:system_id;index"`
	Version   string    `gorm:"column:version"`
	CreatedBy string    `gorm:"column:created_by"`
	Data      ModelData `gorm:"column:data;type:jsonb"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Model) TableName() string {
	return "models"
}

// ComponentName resolves a component's display name from the diagram payload.
// Deleted components resolve to "unknown component" so exports never fail on
// a dangling component reference.
func (m *Model) ComponentName(componentID uuid.UUID) string {
	for _, c := range m.Data.Components {
		if c.ID == componentID {
			return c.Name
		}
	}
	return "unknown component"
}
