package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/erp/paysync/internal/application/partner"
	"github.com/erp/paysync/internal/interfaces/http/middleware"
)

// CounterpartyHandler manages the tracked counterparty list
type CounterpartyHandler struct {
	BaseHandler
	service CounterpartyManager
}

// NewCounterpartyHandler creates a new counterparty handler
func NewCounterpartyHandler(service CounterpartyManager) *CounterpartyHandler {
	return &CounterpartyHandler{service: service}
}

// List handles GET /suppliers
func (h *CounterpartyHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, items, len(items))
}

// Add handles POST /suppliers/add
func (h *CounterpartyHandler) Add(c *gin.Context) {
	var req partner.AddCounterpartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	created, err := h.service.Add(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, created)
}

// Remove handles POST /suppliers/remove
func (h *CounterpartyHandler) Remove(c *gin.Context) {
	var req partner.RemoveCounterpartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	if err := h.service.Remove(c.Request.Context(), req); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"code": req.Code})
}

// Import handles POST /suppliers/import with a multipart "file" field
func (h *CounterpartyHandler) Import(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.HandleError(c, err)
			return
		}
		h.BadRequest(c, "Send as multipart/form-data with file field 'file'")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		h.BadRequest(c, "Unable to read uploaded file")
		return
	}
	defer f.Close()

	result, err := h.service.Import(c.Request.Context(), fileHeader.Filename, f)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
