package store

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/castellan-sec/castellan/pkg/model"
)

// ErrReviewNotFound is returned when no review exists for a model
var ErrReviewNotFound = errors.New("review not found")

// ErrReviewExists is returned when a model already has a review
var ErrReviewExists = errors.New("review already exists for model")

// Review is an approval request for a model
type Review struct {
	ID          uuid.UUID
	ModelID     uuid.UUID
	RequestedBy string
	ReviewedBy  string
	Status      model.ReviewStatus
	Note        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Decided reports whether the review has reached a terminal state.
func (r *Review) Decided() bool {
	return r.Status != model.ReviewStatusRequested
}

// ReviewsStore abstracts review persistence
type ReviewsStore interface {
	// GetByModelID retrieves the review for a model.
	// Returns ErrReviewNotFound if none exists.
	GetByModelID(modelID uuid.UUID) (*Review, error)

	// Create persists a new review in the requested state.
	// Returns ErrReviewExists if the model already has one.
	Create(review *Review) error

	// Decide transitions the review for modelID from requested to status,
	// recording the reviewer and note. The transition is a compare-and-swap
	// on the requested state: it returns false when the review was already
	// decided, so two racing deciders cannot both win.
	Decide(modelID uuid.UUID, status model.ReviewStatus, reviewedBy, note string) (bool, error)
}
