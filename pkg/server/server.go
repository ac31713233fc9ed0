// Package server exposes the document pipeline and patient registry
// over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oncorag/oncorag/pkg/config"
	"github.com/oncorag/oncorag/pkg/server/handlers"
	"github.com/oncorag/oncorag/pkg/types"
)

// Server represents the HTTP server
type Server struct {
	config *config.Config
	router *gin.Engine
	svc    handlers.Service
	server *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, svc handlers.Service) *Server {
	return &Server{
		config: cfg,
		svc:    svc,
	}
}

// Setup sets up the server routes and middleware
func (s *Server) Setup() {
	// Set gin mode
	gin.SetMode(s.config.Server.Mode)

	// Create router
	s.router = gin.New()

	// Add middleware
	s.router.Use(gin.Logger())
	s.router.Use(gin.Recovery())
	s.router.Use(corsMiddleware())
	s.router.Use(contextMiddleware())

	// Setup routes
	s.setupRoutes()

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
}

// setupRoutes sets up all the routes
func (s *Server) setupRoutes() {
	// Create handlers
	healthHandler := handlers.NewHealthHandler(s.svc)
	patientHandler := handlers.NewPatientHandler(s.svc)
	queryHandler := handlers.NewQueryHandler(s.svc)

	// Health endpoints
	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/ready", healthHandler.ReadinessCheck)
	s.router.GET("/live", healthHandler.LivenessCheck) // Kubernetes liveness probe

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		patients := v1.Group("/patients")
		{
			patients.POST("", patientHandler.AddPatient)
			patients.GET("", patientHandler.ListPatients)
			patients.GET("/search", patientHandler.SearchPatients)
			patients.GET("/:patient_id", patientHandler.GetPatient)
			patients.PUT("/:patient_id", patientHandler.UpdatePatient)
			patients.DELETE("/:patient_id", patientHandler.DeletePatient)
			patients.GET("/:patient_id/summary", patientHandler.GetSummary)

			patients.GET("/:patient_id/documents", patientHandler.ListDocuments)
			patients.POST("/:patient_id/documents", patientHandler.UploadDocument)

			patients.POST("/:patient_id/ask", queryHandler.Ask)
			patients.POST("/:patient_id/search", queryHandler.Search)
			patients.GET("/:patient_id/extract", queryHandler.Extract)
			patients.POST("/:patient_id/export", queryHandler.Export)
			patients.DELETE("/:patient_id/index", queryHandler.ClearIndex)
		}
	}

	// Top-level routes taking patient_id in the request body
	s.router.POST("/ask", queryHandler.Ask)
	s.router.POST("/search", queryHandler.Search)
}

// Start starts the server
func (s *Server) Start() error {
	fmt.Printf("Starting server on %s\n", s.server.Addr)
	return s.server.ListenAndServe()
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	fmt.Println("Stopping server...")
	return s.server.Shutdown(ctx)
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// contextMiddleware extracts context information from headers
func contextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		patientID := c.GetHeader("X-Patient-ID")
		if patientID == "" {
			patientID = c.Param("patient_id")
		}
		if patientID != "" {
			ctx = context.WithValue(ctx, types.ContextKeyPatientID, patientID)
		}

		documentID := c.GetHeader("X-Document-ID")
		if documentID != "" {
			ctx = context.WithValue(ctx, types.ContextKeyDocumentID, documentID)
		}

		ctx = context.WithValue(ctx, types.ContextKeyRequestSource, "server")

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
