package endpoints

import (
	"net/http"

	"github.com/castellan-sec/castellan/pkg/server"
	"github.com/castellan-sec/castellan/pkg/server/store"
)

// RegisterStatusEndpoints registers the health endpoint. It is unauthenticated
// so load balancers can probe it.
func RegisterStatusEndpoints(s *server.Server) {
	s.Router.HandleFunc("/health", handleHealth(s.HealthStore)).Methods("GET")
}

func handleHealth(healthStore store.HealthStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := healthStore.Ping(); err != nil {
			respondWithError(w, http.StatusServiceUnavailable, map[string]string{
				"database": err.Error(),
			})
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
