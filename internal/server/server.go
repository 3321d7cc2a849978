// Package server is the minimal HTTP stand-in for "the enclosing tool
// server" of §6 — a thin gin adapter over internal/orchestrate.Engine, out
// of scope for correctness per §1. Modeled on the teacher's internal/api
// (router setup, middleware stack, gin.H error responses) with the CRUD
// handlers replaced by the three operations this engine actually exposes.
package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kjxref/kjxref/internal/logging"
	"github.com/kjxref/kjxref/internal/model"
	"github.com/kjxref/kjxref/internal/orchestrate"
	"github.com/kjxref/kjxref/internal/server/middleware"
)

// Config holds server configuration.
type Config struct {
	CORSOrigins []string
}

// Server wraps the engine with an HTTP interface.
type Server struct {
	engine *orchestrate.Engine
	logger *logging.Logger
	config *Config
}

// New creates a Server bound to engine.
func New(engine *orchestrate.Engine, logger *logging.Logger, config *Config) *Server {
	if config == nil {
		config = &Config{CORSOrigins: []string{"*"}}
	}
	if logger == nil {
		logger = logging.NewSilent()
	}
	return &Server{engine: engine, logger: logger, config: config}
}

// SetupRouter builds the gin router with middleware and routes registered.
func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logging(s.logger))
	r.Use(middleware.CORS(middleware.NewCORSConfig(s.config.CORSOrigins)))

	r.GET("/health", s.health)
	r.POST("/reindex", s.reindex)
	r.GET("/definition", s.definition)
	r.GET("/usages", s.usages)
	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// reindex triggers a full rebuild and returns when the new snapshot is live
// (§5's "reindex() ... returns when the new snapshot is live").
func (s *Server) reindex(c *gin.Context) {
	report, err := s.engine.Reindex(context.Background())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"snapshot_id":   report.SnapshotID.String(),
		"files_walked":  report.FilesWalked,
		"files_indexed": report.FilesIndexed,
		"errors":        len(report.Errors),
		"duration_ms":   report.Duration.Milliseconds(),
	})
}

func (s *Server) definition(c *gin.Context) {
	symbol := c.Query("symbol")
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return
	}
	hits, err := s.engine.FindDefinition(symbol, c.Query("file"), queryInt(c, "line"), model.DeclKind(c.Query("kind")))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, hits)
}

func (s *Server) usages(c *gin.Context) {
	symbol := c.Query("symbol")
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return
	}
	includeImports := c.Query("include_imports") == "true"
	hits, err := s.engine.FindUsages(symbol, c.Query("file"), queryInt(c, "line"), includeImports)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, hits)
}

func queryInt(c *gin.Context, key string) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return v
}
