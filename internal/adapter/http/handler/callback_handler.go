package handler

import (
	"pix-gateway/internal/adapter/http/dto"
	"pix-gateway/internal/core/ports"
	"pix-gateway/pkg/apperror"
	"pix-gateway/pkg/response"

	"github.com/gin-gonic/gin"
)

// CallbackHandler receives provider payment notifications.
type CallbackHandler struct {
	callbackSvc ports.CallbackService
}

// NewCallbackHandler creates a new CallbackHandler.
func NewCallbackHandler(callbackSvc ports.CallbackService) *CallbackHandler {
	return &CallbackHandler{callbackSvc: callbackSvc}
}

// HandleCallback handles POST /callback.
func (h *CallbackHandler) HandleCallback(c *gin.Context) {
	var req dto.CallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.callbackSvc.ApplyCallback(c.Request.Context(), ports.CallbackRequest{
		TransactionID: req.TransactionID,
		Status:        req.Status,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, response.MessageResponse{Message: result.Message})
}
