package store

import (
	"time"

	"github.com/google/uuid"
)

// Link is a dedup record proving an object was exported by an exporter
type Link struct {
	ObjectType  string
	ObjectID    uuid.UUID
	ExternalID  string
	ExternalURL string
	CreatedBy   string
	Actor       string
	CreatedAt   time.Time
}

// LinksStore abstracts the export dedup ledger
type LinksStore interface {
	// ListByObjectID returns all links recorded for an object.
	ListByObjectID(objectType string, objectID uuid.UUID) ([]Link, error)

	// Insert records a link. The insert is conflict-safe: when a link for
	// (object_id, created_by) already exists the call is a no-op and returns
	// false, which callers treat as "already exported".
	Insert(link Link) (bool, error)
}
