package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"personaforge/internal/service"
	"personaforge/internal/transport/rest/handler"
	"personaforge/internal/transport/rest/middleware"
	"personaforge/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService         *service.AuthService
	DatasetService      *service.DatasetService
	SegmentationService *service.SegmentationService
	WSHub               *ws.Hub
	Logger              *zap.Logger
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	datasetHandler := handler.NewDatasetHandler(c.DatasetService)
	runHandler := handler.NewRunHandler(c.SegmentationService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.Logger)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")

	// WebSocket routes (public with token in query param)
	v1.HandleFunc("/ws/runs/{runId}", wsHandler.RunWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Analyst routes (require analyst auth)
	analystRoutes := v1.NewRoute().Subrouter()
	analystRoutes.Use(authMW.RequireAnalyst)

	analystRoutes.HandleFunc("/datasets", datasetHandler.Ingest).Methods("POST", "OPTIONS")
	analystRoutes.HandleFunc("/datasets", datasetHandler.List).Methods("GET", "OPTIONS")
	analystRoutes.HandleFunc("/datasets/{datasetId}", datasetHandler.Get).Methods("GET", "OPTIONS")
	analystRoutes.HandleFunc("/datasets/{datasetId}", datasetHandler.Delete).Methods("DELETE", "OPTIONS")
	analystRoutes.HandleFunc("/datasets/{datasetId}/respondents", datasetHandler.Respondents).Methods("GET", "OPTIONS")

	analystRoutes.HandleFunc("/datasets/{datasetId}/runs", runHandler.Start).Methods("POST", "OPTIONS")
	analystRoutes.HandleFunc("/datasets/{datasetId}/runs", runHandler.List).Methods("GET", "OPTIONS")
	analystRoutes.HandleFunc("/datasets/{datasetId}/runs/latest", runHandler.Latest).Methods("GET", "OPTIONS")
	analystRoutes.HandleFunc("/runs/{runId}", runHandler.Get).Methods("GET", "OPTIONS")
	analystRoutes.HandleFunc("/runs/{runId}", runHandler.Delete).Methods("DELETE", "OPTIONS")
	analystRoutes.HandleFunc("/runs/{runId}/results", runHandler.Results).Methods("GET", "OPTIONS")
	analystRoutes.HandleFunc("/runs/{runId}/profiles", runHandler.Profiles).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		allowedMethods := os.Getenv("CORS_ALLOWED_METHODS")
		if allowedMethods == "" {
			allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
		}

		allowedHeaders := os.Getenv("CORS_ALLOWED_HEADERS")
		if allowedHeaders == "" {
			allowedHeaders = "Content-Type, Authorization"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
