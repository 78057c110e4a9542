package server

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/castellan-sec/castellan/pkg/config"
	"github.com/castellan-sec/castellan/pkg/export"
	"github.com/castellan-sec/castellan/pkg/review"
	"github.com/castellan-sec/castellan/pkg/server/middleware"
	"github.com/castellan-sec/castellan/pkg/server/store"
	gormstore "github.com/castellan-sec/castellan/pkg/server/store/gorm"
)

type Server struct {
	ReviewsStore  store.ReviewsStore
	ThreatsStore  store.ThreatsStore
	ControlsStore store.ControlsStore
	ModelsStore   store.ModelsStore
	LinksStore    store.LinksStore
	AuthzStore    store.AuthzStore
	HealthStore   store.HealthStore

	Reviews    *review.Service
	Registry   *export.Registry
	Dispatcher *export.Dispatcher

	JWTMiddleware *middleware.JWTAuthenticator
	Config        *config.Config
	Router        *mux.Router
	DB            *gorm.DB
	srv           *http.Server
}

// NewServer assembles the stores, the export pipeline and the review service
// on top of db. Exporters are registered on the returned server's Registry
// before Start; the registry is static once the server is serving.
func NewServer(db *gorm.DB, jwtSecret []byte, cfg *config.Config) *Server {
	reviewsStore := gormstore.NewReviewsStore(db)
	threatsStore := gormstore.NewThreatsStore(db)
	controlsStore := gormstore.NewControlsStore(db)
	modelsStore := gormstore.NewModelsStore(db)
	linksStore := gormstore.NewLinksStore(db)
	authzStore := gormstore.NewAuthzStore(db)
	healthStore := gormstore.NewHealthStore(db)

	registry := export.NewRegistry()
	provider := export.NewProvider(threatsStore, controlsStore, modelsStore)
	orchestrator := export.NewOrchestrator(linksStore, cfg.ExportTimeout())
	dispatcher := export.NewDispatcher(registry, provider, orchestrator)

	router := mux.NewRouter().UseEncodedPath()
	srv := &http.Server{
		Handler: handlers.LoggingHandler(os.Stdout, router),
		Addr:    cfg.BindAddress + ":" + cfg.Port,
		// Good practice: enforce timeouts for servers you create!
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	return &Server{
		ReviewsStore:  reviewsStore,
		ThreatsStore:  threatsStore,
		ControlsStore: controlsStore,
		ModelsStore:   modelsStore,
		LinksStore:    linksStore,
		AuthzStore:    authzStore,
		HealthStore:   healthStore,

		Reviews:    review.NewService(reviewsStore, authzStore, dispatcher),
		Registry:   registry,
		Dispatcher: dispatcher,

		JWTMiddleware: middleware.NewJWTAuthenticator(jwtSecret),
		Config:        cfg,
		Router:        router,
		DB:            db,
		srv:           srv,
	}
}

func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

// Shutdown stops accepting requests and then waits for in-flight export
// dispatches, so an approval accepted before shutdown still reaches its
// exporters.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)
	s.Dispatcher.Wait()
	return err
}
