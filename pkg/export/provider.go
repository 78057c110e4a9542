package export

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/castellan-sec/castellan/pkg/server/store"
)

// Provider resolves the action items of a model for export: the model's
// threats, each enriched with its controls and its component's display name.
// Pure read; tolerates threats referencing since-deleted components.
type Provider struct {
	threats  store.ThreatsStore
	controls store.ControlsStore
	models   store.ModelsStore
}

// NewProvider creates a Provider over the given stores.
func NewProvider(threats store.ThreatsStore, controls store.ControlsStore, models store.ModelsStore) *Provider {
	return &Provider{threats: threats, controls: controls, models: models}
}

// ActionItems returns all action items for a model. A deleted model resolves
// every component name to the unknown-component sentinel rather than failing
// the batch.
func (p *Provider) ActionItems(modelID uuid.UUID) ([]ActionItem, error) {
	threats, err := p.threats.ListByModelID(modelID)
	if err != nil {
		return nil, fmt.Errorf("listing threats for model %s: %w", modelID, err)
	}

	m, err := p.models.GetByID(modelID)
	if err != nil && !errors.Is(err, store.ErrModelNotFound) {
		return nil, fmt.Errorf("resolving model %s: %w", modelID, err)
	}

	items := make([]ActionItem, 0, len(threats))
	for _, threat := range threats {
		controls, err := p.controls.ListByThreatID(threat.ID)
		if err != nil {
			return nil, fmt.Errorf("listing controls for threat %s: %w", threat.ID, err)
		}

		componentName := store.UnknownComponentName
		if m != nil {
			componentName = m.ComponentName(threat.ComponentID)
		}

		items = append(items, ActionItem{
			ID:            threat.ID,
			ModelID:       threat.ModelID,
			ComponentID:   threat.ComponentID,
			ComponentName: componentName,
			Title:         threat.Title,
			Description:   threat.Description,
			Severity:      threat.Severity,
			Status:        threat.Status,
			Controls:      controls,
		})
	}
	return items, nil
}
