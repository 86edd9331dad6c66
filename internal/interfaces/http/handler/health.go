// Package handler holds the ops HTTP handlers of the worker.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	appevent "github.com/smartedu/backend/internal/application/event"
	"github.com/smartedu/backend/internal/infrastructure/logger"
	"github.com/smartedu/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Pinger checks a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger
type PingFunc func(ctx context.Context) error

// Ping calls f
func (f PingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// OutboxStats reports outbox row counts
type OutboxStats interface {
	GetStats(ctx context.Context) (*appevent.OutboxStatsDTO, error)
}

// Runner reports whether a background loop is running
type Runner interface {
	IsRunning() bool
}

const probeTimeout = 2 * time.Second

// HealthHandler serves the liveness and readiness probes
type HealthHandler struct {
	db        Pinger
	checks    map[string]Pinger
	outbox    OutboxStats
	processor Runner
	logger    *zap.Logger
}

// HealthOption configures optional readiness dependencies
type HealthOption func(*HealthHandler)

// WithCheck adds a named dependency to the readiness probe, e.g. redis
func WithCheck(name string, p Pinger) HealthOption {
	return func(h *HealthHandler) {
		h.checks[name] = p
	}
}

// WithOutbox adds outbox stats and the processor state to the readiness probe.
// processor may be nil in direct delivery mode.
func WithOutbox(stats OutboxStats, processor Runner) HealthOption {
	return func(h *HealthHandler) {
		h.outbox = stats
		h.processor = processor
	}
}

// NewHealthHandler creates the probe handler
func NewHealthHandler(db Pinger, logger *zap.Logger, opts ...HealthOption) *HealthHandler {
	h := &HealthHandler{
		db:     db,
		checks: make(map[string]Pinger),
		logger: logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HealthResponse is the body of /health
type HealthResponse struct {
	Status   string `json:"status"`
	Time     string `json:"time"`
	Database string `json:"database"`
}

// ReadyResponse is the body of /ready
type ReadyResponse struct {
	Status          string                   `json:"status"`
	Checks          map[string]string        `json:"checks"`
	Outbox          *appevent.OutboxStatsDTO `json:"outbox,omitempty"`
	ProcessorActive *bool                    `json:"processor_active,omitempty"`
}

// RegisterRoutes mounts /health and /ready
func (h *HealthHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
}

// Health answers 200 while the database is reachable
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), probeTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:   "healthy",
		Time:     time.Now().Format(time.RFC3339),
		Database: "ok",
	}
	if err := h.db.Ping(ctx); err != nil {
		logger.For(c.Request.Context(), h.logger).Warn("Health check failed", zap.Error(err))
		resp.Status = "unhealthy"
		resp.Database = "error"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Ready answers 200 when every dependency responds. A stopped outbox
// processor also makes the worker not ready.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), probeTimeout)
	defer cancel()
	log := logger.For(c.Request.Context(), h.logger)

	resp := ReadyResponse{
		Status: "ready",
		Checks: map[string]string{"database": "ok"},
	}
	ready := true

	if err := h.db.Ping(ctx); err != nil {
		log.Warn("Readiness check failed", zap.String("check", "database"), zap.Error(err))
		resp.Checks["database"] = "error"
		ready = false
	}
	for name, p := range h.checks {
		resp.Checks[name] = "ok"
		if err := p.Ping(ctx); err != nil {
			log.Warn("Readiness check failed", zap.String("check", name), zap.Error(err))
			resp.Checks[name] = "error"
			ready = false
		}
	}

	if h.outbox != nil {
		stats, err := h.outbox.GetStats(ctx)
		if err != nil {
			log.Warn("Readiness check failed", zap.String("check", "outbox"), zap.Error(err))
			resp.Checks["outbox"] = "error"
			ready = false
		} else {
			resp.Checks["outbox"] = "ok"
			resp.Outbox = stats
		}
	}
	if h.processor != nil {
		active := h.processor.IsRunning()
		resp.ProcessorActive = &active
		if !active {
			ready = false
		}
	}

	if !ready {
		resp.Status = "not_ready"
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponseWithData(dto.ErrCodeUnavailable, "Service is not ready", resp))
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}
