package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/erp/paysync/internal/interfaces/http/middleware"
)

// DocumentHandler serves document lookups
type DocumentHandler struct {
	BaseHandler
	auth   TokenIssuer
	lookup DocumentQuerier
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(auth TokenIssuer, lookup DocumentQuerier) *DocumentHandler {
	return &DocumentHandler{auth: auth, lookup: lookup}
}

// QueryDocumentsRequest is the body of POST /queryDocuments
type QueryDocumentsRequest struct {
	DocumentIDs []string `json:"documentIds"`
	Token       string   `json:"token"`
}

// QueryDocuments handles POST /queryDocuments.
// The token may come in the body or as a bearer header.
func (h *DocumentHandler) QueryDocuments(c *gin.Context) {
	var req QueryDocumentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	token := strings.TrimSpace(req.Token)
	if token == "" {
		token = middleware.BearerToken(c)
	}
	if token == "" {
		h.Unauthorized(c, "Missing token")
		return
	}
	principal, err := h.auth.Validate(c.Request.Context(), token)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	middleware.SetPrincipal(c, principal)

	if len(req.DocumentIDs) == 0 {
		h.BadRequest(c, "Provide document ids array")
		return
	}

	result, err := h.lookup.Query(c.Request.Context(), req.DocumentIDs)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, result, len(result.Documents))
}
