package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/erp/paysync/internal/interfaces/http/dto"
)

const healthPingTimeout = 2 * time.Second

// SystemHandler handles health and version endpoints
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	startTime time.Time
	db        Pinger
	logger    *zap.Logger
}

// NewSystemHandler creates a new SystemHandler. db may be nil.
func NewSystemHandler(name, version string, db Pinger, logger *zap.Logger) *SystemHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SystemHandler{
		name:      name,
		version:   version,
		startTime: time.Now(),
		db:        db,
		logger:    logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string    `json:"status"`
	Now      time.Time `json:"now"`
	Database string    `json:"database,omitempty"`
}

// Health reports liveness and database reachability
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{Status: "ok", Now: time.Now().UTC()}
	status := http.StatusOK

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthPingTimeout)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			h.logger.Warn("Health check database ping failed", zap.Error(err))
			resp.Status = "degraded"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			resp.Database = "ok"
		}
	}

	c.JSON(status, dto.NewSuccessResponse(resp))
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// GetSystemInfo returns name, version and uptime
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}
