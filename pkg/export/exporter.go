package export

import (
	"context"

	"github.com/google/uuid"

	"github.com/castellan-sec/castellan/pkg/model"
	"github.com/castellan-sec/castellan/pkg/server/store"
)

// ActionItem is the export unit: a threat enriched with its controls and the
// display name of the component it applies to.
type ActionItem struct {
	ID            uuid.UUID
	ModelID       uuid.UUID
	ComponentID   uuid.UUID
	ComponentName string
	Title         string
	Description   string
	Severity      model.Severity
	Status        string
	Controls      []store.Control
}

// ExternalRef identifies the object created in the external system.
type ExternalRef struct {
	ID  string
	URL string
}

// ActionItemExporter is the plugin contract for pushing action items to an
// external system. Implementations are registered once at startup.
//
// The orchestrator owns dedup and link bookkeeping; ExportItem only performs
// the remote write and reports the external reference.
type ActionItemExporter interface {
	// Key is the stable identifier used as the dedup partition in the link
	// ledger. It must be unique across configured exporters; uniqueness is
	// not enforced at runtime, and two exporters sharing a key will silently
	// share dedup records.
	Key() string

	// TriggersOnApproval reports whether review approval auto-invokes this
	// exporter.
	TriggersOnApproval() bool

	// ExportItem pushes a single action item to the external system and
	// returns its external reference. The context carries the per-call
	// deadline; implementations must respect it on every outbound request.
	ExportItem(ctx context.Context, item ActionItem) (ExternalRef, error)
}

// Registry holds the configured exporters. It is assembled at process
// startup and read-only afterwards; there is no dynamic registration.
type Registry struct {
	exporters []ActionItemExporter
}

// NewRegistry creates an empty exporter registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds an exporter. Call during startup only.
func (r *Registry) Register(exporter ActionItemExporter) {
	r.exporters = append(r.exporters, exporter)
}

// All returns every configured exporter.
func (r *Registry) All() []ActionItemExporter {
	return r.exporters
}

// ApprovalTriggered returns the exporters invoked on review approval.
func (r *Registry) ApprovalTriggered() []ActionItemExporter {
	var triggered []ActionItemExporter
	for _, e := range r.exporters {
		if e.TriggersOnApproval() {
			triggered = append(triggered, e)
		}
	}
	return triggered
}

// Get returns the exporter registered under key.
func (r *Registry) Get(key string) (ActionItemExporter, bool) {
	for _, e := range r.exporters {
		if e.Key() == key {
			return e, true
		}
	}
	return nil, false
}
