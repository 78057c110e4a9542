package endpoints

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/castellan-sec/castellan/pkg/identity"
	"github.com/castellan-sec/castellan/pkg/server"
	"github.com/castellan-sec/castellan/pkg/server/store"
)

// modelExporter is the slice of the dispatcher the handler uses.
type modelExporter interface {
	ExportModel(ctx context.Context, modelID uuid.UUID) error
}

// RegisterExportEndpoints registers the operator re-export endpoint
func RegisterExportEndpoints(s *server.Server) {
	router := s.Router.PathPrefix("/models/{model_id}/export").Subrouter()
	router.Use(s.JWTMiddleware.Middleware)

	// POST /models/{model_id}/export - Re-run export through every exporter.
	// Dedup makes this safe to call repeatedly; only missing items go out.
	router.HandleFunc("", handleExportModel(s.Dispatcher, s.AuthzStore)).Methods("POST")
}

func handleExportModel(dispatcher modelExporter, authzStore store.AuthzStore) http.HandlerFunc {
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

		if !authzStore.HasPermissionsForModel(id.Email, store.PermissionReview, modelID) {
			respondWithError(w, http.StatusForbidden, "Forbidden: user cannot export this model")
			return
		}

		if err := dispatcher.ExportModel(r.Context(), modelID); err != nil {
			respondWithError(w, http.StatusBadGateway, err.Error())
			return
		}

		respondWithJSON(w, http.StatusOK, map[string]bool{"result": true})
	}
}
