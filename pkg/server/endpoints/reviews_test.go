package endpoints

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/castellan-sec/castellan/pkg/identity"
	"github.com/castellan-sec/castellan/pkg/model"
	"github.com/castellan-sec/castellan/pkg/review"
	"github.com/castellan-sec/castellan/pkg/server/store"
)

type mockReviewService struct {
	mock.Mock
}

func (m *mockReviewService) GetByModelID(modelID uuid.UUID) (*store.Review, error) {
	args := m.Called(modelID)
	r, _ := args.Get(0).(*store.Review)
	return r, args.Error(1)
}

func (m *mockReviewService) Request(user string, modelID uuid.UUID) (*store.Review, error) {
	args := m.Called(user, modelID)
	r, _ := args.Get(0).(*store.Review)
	return r, args.Error(1)
}

func (m *mockReviewService) Approve(user string, modelID uuid.UUID, note string) error {
	return m.Called(user, modelID, note).Error(0)
}

func (m *mockReviewService) Decline(user string, modelID uuid.UUID, note string) error {
	return m.Called(user, modelID, note).Error(0)
}

func reviewRouter(reviews reviewService) *mux.Router {
	router := mux.NewRouter()
	sub := router.PathPrefix("/models/{model_id}/review").Subrouter()
	sub.HandleFunc("", handleGetReview(reviews)).Methods("GET")
	sub.HandleFunc("", handleRequestReview(reviews)).Methods("POST")
	sub.HandleFunc("/approve", handleDecideReview(reviews, "approve")).Methods("POST")
	sub.HandleFunc("/decline", handleDecideReview(reviews, "decline")).Methods("POST")
	return router
}

func doRequest(router *mux.Router, method, path string, body interface{}, id *identity.Identity) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if id != nil {
		req = req.WithContext(identity.Set(req.Context(), id))
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func reviewer() *identity.Identity {
	return &identity.Identity{Email: "reviewer@example.com"}
}

func TestHandleGetReview(t *testing.T) {
	modelID := uuid.New()

	t.Run("returns the review", func(t *testing.T) {
		reviews := &mockReviewService{}
		reviews.On("GetByModelID", modelID).Return(&store.Review{
			ModelID:     modelID,
			RequestedBy: "owner@example.com",
			Status:      model.ReviewStatusRequested,
		}, nil)

		recorder := doRequest(reviewRouter(reviews), "GET", "/models/"+modelID.String()+"/review", nil, reviewer())

		assert.Equal(t, http.StatusOK, recorder.Code)
		var resp reviewResponse
		assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
		assert.Equal(t, "requested", resp.Status)
		assert.Equal(t, "owner@example.com", resp.RequestedBy)
	})

	t.Run("404 when the model has no review", func(t *testing.T) {
		reviews := &mockReviewService{}
		reviews.On("GetByModelID", modelID).Return(nil, store.ErrReviewNotFound)

		recorder := doRequest(reviewRouter(reviews), "GET", "/models/"+modelID.String()+"/review", nil, reviewer())

		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})

	t.Run("400 on a malformed model id", func(t *testing.T) {
		recorder := doRequest(reviewRouter(&mockReviewService{}), "GET", "/models/not-a-uuid/review", nil, reviewer())
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

func TestHandleRequestReview(t *testing.T) {
	modelID := uuid.New()

	t.Run("creates the review", func(t *testing.T) {
		reviews := &mockReviewService{}
		reviews.On("Request", "reviewer@example.com", modelID).Return(&store.Review{
			ModelID: modelID,
			Status:  model.ReviewStatusRequested,
		}, nil)

		recorder := doRequest(reviewRouter(reviews), "POST", "/models/"+modelID.String()+"/review", nil, reviewer())

		assert.Equal(t, http.StatusCreated, recorder.Code)
	})

	t.Run("409 when a review already exists", func(t *testing.T) {
		reviews := &mockReviewService{}
		reviews.On("Request", "reviewer@example.com", modelID).Return(nil, store.ErrReviewExists)

		recorder := doRequest(reviewRouter(reviews), "POST", "/models/"+modelID.String()+"/review", nil, reviewer())

		assert.Equal(t, http.StatusConflict, recorder.Code)
	})

	t.Run("401 without an identity", func(t *testing.T) {
		recorder := doRequest(reviewRouter(&mockReviewService{}), "POST", "/models/"+modelID.String()+"/review", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
}

func TestHandleDecideReview(t *testing.T) {
	modelID := uuid.New()

	t.Run("approve responds with result true", func(t *testing.T) {
		reviews := &mockReviewService{}
		reviews.On("Approve", "reviewer@example.com", modelID, "ship it").Return(nil)

		recorder := doRequest(reviewRouter(reviews), "POST",
			"/models/"+modelID.String()+"/review/approve",
			decisionRequest{Note: "ship it"}, reviewer())

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.JSONEq(t, `{"result": true}`, recorder.Body.String())
		reviews.AssertExpectations(t)
	})

	t.Run("decline responds with result true", func(t *testing.T) {
		reviews := &mockReviewService{}
		reviews.On("Decline", "reviewer@example.com", modelID, "").Return(nil)

		recorder := doRequest(reviewRouter(reviews), "POST",
			"/models/"+modelID.String()+"/review/decline", nil, reviewer())

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.JSONEq(t, `{"result": true}`, recorder.Body.String())
	})

	t.Run("403 without review permission", func(t *testing.T) {
		reviews := &mockReviewService{}
		reviews.On("Approve", "reviewer@example.com", modelID, "").Return(review.ErrUnauthorized)

		recorder := doRequest(reviewRouter(reviews), "POST",
			"/models/"+modelID.String()+"/review/approve", nil, reviewer())

		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})

	t.Run("404 when the model has no review", func(t *testing.T) {
		reviews := &mockReviewService{}
		reviews.On("Decline", "reviewer@example.com", modelID, "").Return(store.ErrReviewNotFound)

		recorder := doRequest(reviewRouter(reviews), "POST",
			"/models/"+modelID.String()+"/review/decline", nil, reviewer())

		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})

	t.Run("409 on an already decided review", func(t *testing.T) {
		reviews := &mockReviewService{}
		reviews.On("Approve", "reviewer@example.com", modelID, "").Return(review.ErrInvalidState)

		recorder := doRequest(reviewRouter(reviews), "POST",
			"/models/"+modelID.String()+"/review/approve", nil, reviewer())

		assert.Equal(t, http.StatusConflict, recorder.Code)
	})

	t.Run("401 without an identity", func(t *testing.T) {
		recorder := doRequest(reviewRouter(&mockReviewService{}), "POST",
			"/models/"+modelID.String()+"/review/approve", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
}
