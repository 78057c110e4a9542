package export

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/castellan-sec/castellan/pkg/audit"
	"github.com/castellan-sec/castellan/pkg/model"
	"github.com/castellan-sec/castellan/pkg/server/store"
)

// Orchestrator fans out export attempts per action item for one exporter,
// consulting the link ledger for dedup and recording successes.
//
// Failure semantics: each item is an independent failure domain. A failing
// item is logged and left without a link; it will be retried by the next
// trigger event through the same idempotent path. The orchestrator never
// retries on its own.
type Orchestrator struct {
	links   store.LinksStore
	timeout time.Duration
}

// NewOrchestrator creates an Orchestrator. timeout bounds each exporter call
// per item; zero means no deadline beyond the caller's context.
func NewOrchestrator(links store.LinksStore, timeout time.Duration) *Orchestrator {
	return &Orchestrator{links: links, timeout: timeout}
}

// Export pushes items through exporter concurrently and returns the number
// of items that failed. Ordering across items is unspecified; for each item
// the ledger check happens before the export attempt, which happens before
// the link write.
func (o *Orchestrator) Export(ctx context.Context, exporter ActionItemExporter, items []ActionItem) int {
	var failed atomic.Int32
	var wg sync.WaitGroup

	for _, item := range items {
		wg.Add(1)
		go func(item ActionItem) {
			defer wg.Done()
			if err := o.exportItem(ctx, exporter, item); err != nil {
				failed.Add(1)
				audit.Log(audit.ExportItemEvent{
					ExporterKey:  exporter.Key(),
					ActionItemID: item.ID.String(),
					ModelID:      item.ModelID.String(),
					Outcome:      audit.ExportOutcomeFailed,
					ErrorMessage: err.Error(),
				})
			}
		}(item)
	}
	wg.Wait()

	if len(items) > 0 {
		audit.Log(audit.ExportBatchEvent{
			ExporterKey: exporter.Key(),
			ModelID:     items[0].ModelID.String(),
			Items:       len(items),
			Failed:      int(failed.Load()),
		})
	}
	return int(failed.Load())
}

func (o *Orchestrator) exportItem(ctx context.Context, exporter ActionItemExporter, item ActionItem) error {
	links, err := o.links.ListByObjectID(model.LinkObjectTypeThreat, item.ID)
	if err != nil {
		return err
	}
	for _, link := range links {
		if link.CreatedBy == exporter.Key() {
			audit.Log(audit.ExportItemEvent{
				ExporterKey:  exporter.Key(),
				ActionItemID: item.ID.String(),
				ModelID:      item.ModelID.String(),
				Outcome:      audit.ExportOutcomeSkipped,
			})
			return nil
		}
	}

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	ref, err := exporter.ExportItem(ctx, item)
	if err != nil {
		return err
	}

	// The insert is the commit point. A conflict means a concurrent trigger
	// exported the item between our ledger check and now; that is a skip,
	// not an error.
	inserted, err := o.links.Insert(store.Link{
		ObjectType:  model.LinkObjectTypeThreat,
		ObjectID:    item.ID,
		ExternalID:  ref.ID,
		ExternalURL: ref.URL,
		CreatedBy:   exporter.Key(),
		Actor:       exporter.Key(),
	})
	if err != nil {
		return err
	}

	outcome := audit.ExportOutcomeExported
	if !inserted {
		outcome = audit.ExportOutcomeSkipped
	}
	audit.Log(audit.ExportItemEvent{
		ExporterKey:  exporter.Key(),
		ActionItemID: item.ID.String(),
		ModelID:      item.ModelID.String(),
		ExternalID:   ref.ID,
		Outcome:      outcome,
	})
	return nil
}
