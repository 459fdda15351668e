package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(resumeHandler *ResumeHandler, middlewares ...mux.MiddlewareFunc) http.Handler {
	router := mux.NewRouter()

	for _, m := range middlewares {
		router.Use(m)
	}

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"resume-parser-api"}`))
	}).Methods("GET")

	// API prefix
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/resume/parse", resumeHandler.ParseResume).Methods("POST")
	api.HandleFunc("/resume/metrics", resumeHandler.GetMetrics).Methods("GET")

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
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	})

	return c.Handler(router)
}
