package handler

import (
	"pix-gateway/internal/adapter/http/dto"
	"pix-gateway/internal/adapter/http/middleware"
	"pix-gateway/internal/core/ports"
	"pix-gateway/pkg/apperror"
	"pix-gateway/pkg/response"

	"github.com/gin-gonic/gin"
)

// ChargeHandler handles charge endpoints. Routes must sit behind APIKeyAuth.
type ChargeHandler struct {
	chargeSvc ports.ChargeService
}

// NewChargeHandler creates a new ChargeHandler.
func NewChargeHandler(chargeSvc ports.ChargeService) *ChargeHandler {
	return &ChargeHandler{chargeSvc: chargeSvc}
}

// CreateCharge handles POST /api/v1/charges.
func (h *ChargeHandler) CreateCharge(c *gin.Context) {
	cred := middleware.CredentialFrom(c)
	if cred == nil {
		response.Error(c, apperror.ErrMissingAPIKey())
		return
	}

	var req dto.CreateChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	result, err := h.chargeSvc.CreateCharge(c.Request.Context(), cred, ports.CreateChargeRequest{
		Amount:      *req.Amount,
		Description: req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.NewChargeCreatedResponse(result))
}

// GetCharge handles GET /api/v1/charges/:id.
func (h *ChargeHandler) GetCharge(c *gin.Context) {
	cred := middleware.CredentialFrom(c)
	if cred == nil {
		response.Error(c, apperror.ErrMissingAPIKey())
		return
	}

	txn, err := h.chargeSvc.GetCharge(c.Request.Context(), cred, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.NewChargeResponse(txn))
}
