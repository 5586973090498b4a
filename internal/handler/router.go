package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"document-analyzer/internal/config"
)

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(container *config.Container) http.Handler {
	router := mux.NewRouter()

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"document-analyzer"}`))
	}).Methods("GET")

	analysisHandler := NewAnalysisHandler(
		container.GetAnalysisService(),
		container.GetConfig(),
		container.GetLogger(),
	)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/analyze", analysisHandler.AnalyzeDocument).Methods("POST")
	api.HandleFunc("/analyses/{documentId}", analysisHandler.GetAnalysis).Methods("GET")

	// Configure CORS
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
		},
		MaxAge: 300,
	})

	return c.Handler(router)
}
