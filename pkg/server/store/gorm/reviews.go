package gorm

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/castellan-sec/castellan/pkg/model"
	"github.com/castellan-sec/castellan/pkg/server/store"
)

// Ensure ReviewsStore implements store.ReviewsStore
var _ store.ReviewsStore = (*ReviewsStore)(nil)

// ReviewsStore implements store.ReviewsStore using GORM
type ReviewsStore struct {
	db *gorm.DB
}

// NewReviewsStore creates a new ReviewsStore
func NewReviewsStore(db *gorm.DB) *ReviewsStore {
	return &ReviewsStore{db: db}
}

// GetByModelID retrieves the review for a model.
func (s *ReviewsStore) GetByModelID(modelID uuid.UUID) (*store.Review, error) {
	var review model.Review
	tx := s.db.Where("model_id = ?", modelID).First(&review)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrReviewNotFound
		}
		return nil, tx.Error
	}

	return &store.Review{
		ID:          review.ID,
		ModelID:     review.ModelID,
		RequestedBy: review.RequestedBy,
		ReviewedBy:  review.ReviewedBy,
		Status:      review.Status,
		Note:        review.Note,
		CreatedAt:   review.CreatedAt,
		UpdatedAt:   review.UpdatedAt,
	}, nil
}

// Create persists a new review in the requested state.
func (s *ReviewsStore) Create(review *store.Review) error {
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	tx := s.db.Create(&model.Review{
		ID:          review.ID,
		ModelID:     review.ModelID,
		RequestedBy: review.RequestedBy,
		ReviewedBy:  review.ReviewedBy,
		Status:      model.ReviewStatusRequested,
	})
	if tx.Error != nil {
		if isUniqueViolation(tx.Error) {
			return store.ErrReviewExists
		}
		return tx.Error
	}
	return nil
}

// Decide transitions the review for modelID from requested to status. The
// WHERE clause on the current status makes the transition a compare-and-swap:
// RowsAffected == 0 means the review was missing or already decided.
func (s *ReviewsStore) Decide(modelID uuid.UUID, status model.ReviewStatus, reviewedBy, note string) (bool, error) {
	tx := s.db.Model(&model.Review{}).
		Where("model_id = ? AND status = ?", modelID, model.ReviewStatusRequested).
		Updates(map[string]interface{}{
			"status":      status,
			"reviewed_by": reviewedBy,
			"note":        note,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

// isUniqueViolation sniffs the driver error for a unique constraint failure.
// lib/pq and pgx both surface SQLSTATE 23505 in the message.
func isUniqueViolation(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "23505") ||
		strings.Contains(err.Error(), "duplicate key value"))
}
