package handler

import (
	"errors"
	"io"

	"pix-gateway/internal/adapter/http/dto"
	"pix-gateway/internal/core/ports"
	"pix-gateway/pkg/apperror"
	"pix-gateway/pkg/response"

	"github.com/gin-gonic/gin"
)

// CredentialHandler issues API keys.
type CredentialHandler struct {
	credSvc ports.CredentialService
}

// NewCredentialHandler creates a new CredentialHandler.
func NewCredentialHandler(credSvc ports.CredentialService) *CredentialHandler {
	return &CredentialHandler{credSvc: credSvc}
}

// CreateAPIKey handles POST /admin/create_api_key. The body is optional.
func (h *CredentialHandler) CreateAPIKey(c *gin.Context) {
	var req dto.CreateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	cred, err := h.credSvc.Issue(c.Request.Context(), req.ClientName)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.NewAPIKeyResponse(cred))
}
