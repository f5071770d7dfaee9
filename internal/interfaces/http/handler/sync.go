package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/erp/paysync/internal/infrastructure/scheduler"
	"github.com/erp/paysync/internal/interfaces/http/dto"
)

// SyncHandler exposes the background sync loop
type SyncHandler struct {
	BaseHandler
	sync SyncController
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(sync SyncController) *SyncHandler {
	return &SyncHandler{sync: sync}
}

// SyncRunResponse reports whether a run was queued
type SyncRunResponse struct {
	Status string `json:"status"`
	Busy   bool   `json:"busy"`
}

// Run handles POST /sync/run
func (h *SyncHandler) Run(c *gin.Context) {
	err := h.sync.TriggerNow()
	switch {
	case err == nil:
		h.Accepted(c, SyncRunResponse{Status: "queued", Busy: h.sync.Busy()})
	case errors.Is(err, scheduler.ErrTriggerPending):
		h.Accepted(c, SyncRunResponse{Status: "already_queued", Busy: h.sync.Busy()})
	case errors.Is(err, scheduler.ErrSchedulerNotRunning):
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeUnavailable, "Sync loop is not running")
	default:
		h.HandleError(c, err)
	}
}

// Jobs handles GET /sync/jobs
func (h *SyncHandler) Jobs(c *gin.Context) {
	jobs := h.sync.Jobs()
	h.SuccessList(c, jobs, len(jobs))
}

var _ SyncController = (*scheduler.DocumentSyncScheduler)(nil)
