package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/castellan-sec/castellan/pkg/audit"
	"github.com/castellan-sec/castellan/pkg/identity"
	"github.com/castellan-sec/castellan/pkg/review"
	"github.com/castellan-sec/castellan/pkg/server"
	"github.com/castellan-sec/castellan/pkg/server/store"
)

// reviewService is the slice of the review service the handlers use.
type reviewService interface {
	GetByModelID(modelID uuid.UUID) (*store.Review, error)
	Request(user string, modelID uuid.UUID) (*store.Review, error)
	Approve(user string, modelID uuid.UUID, note string) error
	Decline(user string, modelID uuid.UUID, note string) error
}

// RegisterReviewEndpoints registers the review lifecycle endpoints
func RegisterReviewEndpoints(s *server.Server) {
	router := s.Router.PathPrefix("/models/{model_id}/review").Subrouter()
	router.Use(s.JWTMiddleware.Middleware)

	// GET /models/{model_id}/review - Fetch the review for a model
	router.HandleFunc("", handleGetReview(s.Reviews)).Methods("GET")

	// POST /models/{model_id}/review - Request a review
	router.HandleFunc("", handleRequestReview(s.Reviews)).Methods("POST")

	// POST /models/{model_id}/review/approve - Approve, triggering export
	router.HandleFunc("/approve", handleDecideReview(s.Reviews, "approve")).Methods("POST")

	// POST /models/{model_id}/review/decline - Decline
	router.HandleFunc("/decline", handleDecideReview(s.Reviews, "decline")).Methods("POST")
}

type reviewResponse struct {
	ModelID     string `json:"model_id"`
	Status      string `json:"status"`
	RequestedBy string `json:"requested_by"`
	ReviewedBy  string `json:"reviewed_by,omitempty"`
	Note        string `json:"note,omitempty"`
}

func toReviewResponse(r *store.Review) reviewResponse {
	return reviewResponse{
		ModelID:     r.ModelID.String(),
		Status:      r.Status.String(),
		RequestedBy: r.RequestedBy,
		ReviewedBy:  r.ReviewedBy,
		Note:        r.Note,
	}
}

type decisionRequest struct {
	Note string `json:"note"`
}

func handleGetReview(reviews reviewService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		modelID, ok := modelIDFromRequest(w, r)
		if !ok {
			return
		}

		reviewRecord, err := reviews.GetByModelID(modelID)
		if err != nil {
			if errors.Is(err, store.ErrReviewNotFound) {
				respondWithError(w, http.StatusNotFound, "Review not found")
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		respondWithJSON(w, http.StatusOK, toReviewResponse(reviewRecord))
	}
}

func handleRequestReview(reviews reviewService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		modelID, ok := modelIDFromRequest(w, r)
		if !ok {
			return
		}
		id, ok := identity.Get(r.Context())
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		reviewRecord, err := reviews.Request(id.Email, modelID)
		if err != nil {
			switch {
			case errors.Is(err, review.ErrUnauthorized):
				respondWithError(w, http.StatusForbidden, "Forbidden: user cannot request a review for this model")
			case errors.Is(err, store.ErrReviewExists):
				respondWithError(w, http.StatusConflict, "Model already has a review")
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}

		respondWithJSON(w, http.StatusCreated, toReviewResponse(reviewRecord))
	}
}

func handleDecideReview(reviews reviewService, decision string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		modelID, ok := modelIDFromRequest(w, r)
		if !ok {
			return
		}
		id, ok := identity.Get(r.Context())
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		// The note is optional and so is the body itself.
		var body decisionRequest
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}

		var err error
		if decision == "approve" {
			err = reviews.Approve(id.Email, modelID, body.Note)
		} else {
			err = reviews.Decline(id.Email, modelID, body.Note)
		}

		event := audit.ReviewEvent{
			User:     id.Email,
			ClientIP: clientIP(r),
			ModelID:  modelID.String(),
			Decision: decision,
			Success:  err == nil,
		}
		if err != nil {
			event.ErrorMessage = err.Error()
		}
		audit.Log(event)

		if err != nil {
			switch {
			case errors.Is(err, review.ErrUnauthorized):
				respondWithError(w, http.StatusForbidden, "Forbidden: user cannot review this model")
			case errors.Is(err, store.ErrReviewNotFound):
				respondWithError(w, http.StatusNotFound, "Review not found")
			case errors.Is(err, review.ErrInvalidState):
				respondWithError(w, http.StatusConflict, "Review has already been decided")
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}

		respondWithJSON(w, http.StatusOK, map[string]bool{"result": true})
	}
}

func modelIDFromRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	modelID, err := uuid.Parse(mux.Vars(r)["model_id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid model id")
		return uuid.Nil, false
	}
	return modelID, true
}
