// Package export implements the action-item export pipeline: the exporter
// contract and registry, the action-item provider, and the orchestrator that
// fans exports out per item with link-ledger dedup.
//
// The pipeline guarantees at-most-one tracked export per (action item,
// exporter key) pair via the links unique index. The external write itself is
// at-least-once: a crash between the remote write and the link insert can
// re-export an item on the next trigger. That window is accepted: the ledger
// suppresses known re-exports, it is not the remote system's source of truth.
package export
