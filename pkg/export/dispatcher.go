package export

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
)

// Dispatcher hands export fan-out off from the review state machine. An
// approval schedules a detached task per trigger event; the approval response
// never waits on exporters, and export outcomes are only observable through
// the audit log and the link ledger.
type Dispatcher struct {
	registry     *Registry
	provider     *Provider
	orchestrator *Orchestrator

	wg sync.WaitGroup
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(registry *Registry, provider *Provider, orchestrator *Orchestrator) *Dispatcher {
	return &Dispatcher{
		registry:     registry,
		provider:     provider,
		orchestrator: orchestrator,
	}
}

// DispatchApproval schedules export of a model's action items to every
// exporter whose approval trigger is set, and returns immediately.
func (d *Dispatcher) DispatchApproval(modelID uuid.UUID) {
	exporters := d.registry.ApprovalTriggered()
	if len(exporters) == 0 {
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		// Detached from the request context on purpose: the approval
		// response must not be tied to exporter lifetimes.
		if err := d.run(context.Background(), modelID, exporters); err != nil {
			log.Printf("export dispatch for model %s: %v", modelID, err)
		}
	}()
}

// ExportModel synchronously exports a model's action items to every
// configured exporter. Used by operator-invoked re-export; dedup makes it
// safe to run at any time.
func (d *Dispatcher) ExportModel(ctx context.Context, modelID uuid.UUID) error {
	return d.run(ctx, modelID, d.registry.All())
}

// Wait blocks until all in-flight dispatches have finished. Used on
// shutdown and in tests.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) run(ctx context.Context, modelID uuid.UUID, exporters []ActionItemExporter) error {
	items, err := d.provider.ActionItems(modelID)
	if err != nil {
		return fmt.Errorf("resolving action items for model %s: %w", modelID, err)
	}
	if len(items) == 0 {
		return nil
	}

	var failed int
	for _, exporter := range exporters {
		failed += d.orchestrator.Export(ctx, exporter, items)
	}
	if failed > 0 {
		return fmt.Errorf("%d action item exports failed for model %s", failed, modelID)
	}
	return nil
}
