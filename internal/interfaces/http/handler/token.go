package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/erp/paysync/internal/application/identity"
)

// TokenHandler issues API tokens
type TokenHandler struct {
	BaseHandler
	auth TokenIssuer
}

// NewTokenHandler creates a new token handler
func NewTokenHandler(auth TokenIssuer) *TokenHandler {
	return &TokenHandler{auth: auth}
}

// TokenRequest carries the credentials as query parameters
type TokenRequest struct {
	User string `form:"user"`
	Pass string `form:"pass"`
}

// IssueToken handles GET /token?user=&pass=
func (h *TokenHandler) IssueToken(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindQuery(&req); err != nil || req.User == "" || req.Pass == "" {
		h.BadRequest(c, "user & pass query params required")
		return
	}

	result, err := h.auth.IssueToken(c.Request.Context(), identity.IssueTokenInput{
		Username: req.User,
		Password: req.Pass,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
