// Package server exposes the scoring orchestrator over HTTP: a single
// scoring endpoint, a health fan-out endpoint, and an optional Prometheus
// metrics endpoint.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pteprep/scoring/internal/config"
	"github.com/pteprep/scoring/internal/domain"
	scorerrors "github.com/pteprep/scoring/internal/scoring/errors"
	"github.com/pteprep/scoring/pkg/metrics"
)

// ScoringService is the orchestrator surface the HTTP layer depends on.
type ScoringService interface {
	Score(ctx context.Context, req *domain.ScoringRequest) (*domain.ScoringResult, error)
	Health(ctx context.Context) domain.HealthReport
}

// errorEnvelope is the JSON error shape for every non-2xx response.
type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code     string               `json:"code"`
	Message  string               `json:"message"`
	Field    string               `json:"field,omitempty"`
	Attempts []scorerrors.Attempt `json:"attempts,omitempty"`
}

// Server wires gin routes to a ScoringService.
type Server struct {
	engine  *gin.Engine
	service ScoringService
	logger  *slog.Logger
}

// New builds the HTTP server. The caller owns listening and shutdown.
func New(cfg *config.Config, service ScoringService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		service: service,
		logger:  logger.With("component", "http"),
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())

	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	v1 := r.Group("/api/v1")
	v1.POST("/score", s.handleScore)
	v1.GET("/health", s.handleHealth)

	if cfg.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(
			metrics.GetRegistry(),
			promhttp.HandlerOpts{},
		)))
	}

	s.engine = r
	return s
}

// Handler returns the router for use with http.Server or test servers.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) handleScore(c *gin.Context) {
	var req domain.ScoringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorEnvelope{Error: errorBody{
			Code:    "invalid_request",
			Message: "malformed request body: " + err.Error(),
		}})
		return
	}

	result, err := s.service.Score(c.Request.Context(), &req)
	if err != nil {
		s.writeScoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) writeScoreError(c *gin.Context, err error) {
	var invalidErr *scorerrors.InvalidRequestError
	if errors.As(err, &invalidErr) {
		c.JSON(http.StatusUnprocessableEntity, errorEnvelope{Error: errorBody{
			Code:    "invalid_request",
			Message: invalidErr.Message,
			Field:   invalidErr.Field,
		}})
		return
	}

	var exhaustedErr *scorerrors.ExhaustedError
	if errors.As(err, &exhaustedErr) {
		c.JSON(http.StatusBadGateway, errorEnvelope{Error: errorBody{
			Code:     "provider_exhausted",
			Message:  "no provider produced a score",
			Attempts: exhaustedErr.Attempts,
		}})
		return
	}

	s.logger.Error("scoring request failed",
		"error", err,
		"path", c.Request.URL.Path)
	c.JSON(http.StatusInternalServerError, errorEnvelope{Error: errorBody{
		Code:    "internal_error",
		Message: "internal error",
	}})
}

func (s *Server) handleHealth(c *gin.Context) {
	report := s.service.Health(c.Request.Context())

	status := http.StatusOK
	if !report.OK {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info("request completed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP())
	}
}
