package endpoints

import (
	"github.com/castellan-sec/castellan/pkg/server"
)

// RegisterAll registers all API endpoints on the server
func RegisterAll(srv *server.Server) {
	RegisterReviewEndpoints(srv)
	RegisterExportEndpoints(srv)
	RegisterStatusEndpoints(srv)
}
