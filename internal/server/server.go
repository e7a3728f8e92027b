// Package server exposes the REST API and the SSE notification stream.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/sprintdeck/internal/ai"
	"github.com/zulandar/sprintdeck/internal/notify"
	"github.com/zulandar/sprintdeck/internal/workflow"
	"gorm.io/gorm"
)

// Server bundles the dependencies the handlers need.
type Server struct {
	db       *gorm.DB
	catalog  *workflow.Catalog
	notifier *notify.Notifier
	ai       *ai.Client // nil when no API key is configured
}

// StartOpts holds configuration for the API server.
type StartOpts struct {
	DB       *gorm.DB
	Catalog  *workflow.Catalog
	Notifier *notify.Notifier
	AI       *ai.Client
	Port     int
	Out      io.Writer
}

// Start launches the HTTP server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.DB == nil {
		return fmt.Errorf("server: db is required")
	}
	if opts.Catalog == nil {
		return fmt.Errorf("server: workflow catalog is required")
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	s := &Server{
		db:       opts.DB,
		catalog:  opts.Catalog,
		notifier: opts.Notifier,
		ai:       opts.AI,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	registerRoutes(router, s)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Sprintdeck API running at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// errMissingQuery reports a required query parameter that wasn't sent.
func errMissingQuery(name string) error {
	return fmt.Errorf("server: query parameter %q is required", name)
}

// abortWithError writes a JSON error response, mapping not-found errors to 404.
func abortWithError(c *gin.Context, err error) {
	status := http.StatusBadRequest
	if strings.Contains(err.Error(), "not found") {
		status = http.StatusNotFound
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
