package review

import (
	"errors"

	"github.com/google/uuid"

	"github.com/castellan-sec/castellan/pkg/model"
	"github.com/castellan-sec/castellan/pkg/server/store"
)

// ErrInvalidState is returned when a decision is attempted on a review that
// is not in the requested state. Terminal states are immutable.
var ErrInvalidState = errors.New("review is not awaiting a decision")

// ErrUnauthorized is returned when the caller lacks the required permission
// on the review's model.
var ErrUnauthorized = errors.New("user does not have permission on model")

// ApprovalDispatcher schedules export fan-out after an approval. The export
// outcome is deliberately invisible here: approval success never depends on
// exporter health.
type ApprovalDispatcher interface {
	DispatchApproval(modelID uuid.UUID)
}

// Service is the review state machine.
type Service struct {
	reviews    store.ReviewsStore
	authz      store.AuthzStore
	dispatcher ApprovalDispatcher
}

// NewService creates a review Service.
func NewService(reviews store.ReviewsStore, authz store.AuthzStore, dispatcher ApprovalDispatcher) *Service {
	return &Service{reviews: reviews, authz: authz, dispatcher: dispatcher}
}

// GetByModelID returns the review for a model.
func (s *Service) GetByModelID(modelID uuid.UUID) (*store.Review, error) {
	return s.reviews.GetByModelID(modelID)
}

// Request creates a review in the requested state. The caller needs write
// permission on the model. Returns store.ErrReviewExists if the model
// already has a review; reviews are never deleted, so a model is reviewed
// at most once per review record.
func (s *Service) Request(user string, modelID uuid.UUID) (*store.Review, error) {
	if !s.authz.HasPermissionsForModel(user, store.PermissionWrite, modelID) {
		return nil, ErrUnauthorized
	}

	review := &store.Review{
		ModelID:     modelID,
		RequestedBy: user,
		Status:      model.ReviewStatusRequested,
	}
	if err := s.reviews.Create(review); err != nil {
		return nil, err
	}
	return review, nil
}

// Approve transitions the review to approved, recording the reviewer and
// note, then schedules export fan-out for every approval-triggered exporter.
// Fails with store.ErrReviewNotFound if the model has no review and
// ErrInvalidState if the review was already decided.
func (s *Service) Approve(user string, modelID uuid.UUID, note string) error {
	if err := s.decide(user, modelID, model.ReviewStatusApproved, note); err != nil {
		return err
	}

	// Fire-and-forget: the caller's response does not wait on exporters.
	s.dispatcher.DispatchApproval(modelID)
	return nil
}

// Decline transitions the review to declined. Same checks as Approve; no
// export is triggered.
func (s *Service) Decline(user string, modelID uuid.UUID, note string) error {
	return s.decide(user, modelID, model.ReviewStatusDeclined, note)
}

func (s *Service) decide(user string, modelID uuid.UUID, status model.ReviewStatus, note string) error {
	if !s.authz.HasPermissionsForModel(user, store.PermissionReview, modelID) {
		return ErrUnauthorized
	}

	review, err := s.reviews.GetByModelID(modelID)
	if err != nil {
		return err
	}
	if review.Decided() {
		return ErrInvalidState
	}

	// The store transition is a compare-and-swap on the requested state, so
	// a racing decision can still lose here even after the check above.
	decided, err := s.reviews.Decide(modelID, status, user, note)
	if err != nil {
		return err
	}
	if !decided {
		return ErrInvalidState
	}
	return nil
}
