package dto

import (
	"time"

	"pix-gateway/internal/core/domain"
	"pix-gateway/internal/core/ports"
)

// CreateChargeRequest is the body of POST /api/v1/charges. Amount is in
// centavos; a pointer so that a missing field and zero are told apart.
type CreateChargeRequest struct {
	Amount      *int64 `json:"amount" binding:"required"`
	Description string `json:"description" binding:"required,notblank,max=255"`
}

// CreateAPIKeyRequest is the optional body of POST /admin/create_api_key.
type CreateAPIKeyRequest struct {
	ClientName string `json:"client_name" binding:"max=100"`
}

// CallbackRequest is the provider's payment notification. Both fields are
// optional on the wire; notifications lacking either are acknowledged and ignored.
type CallbackRequest struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
}

// ChargeCreatedResponse is returned after a charge is registered.
type ChargeCreatedResponse struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Description  string `json:"description"`
	PixQRCode    string `json:"pix_qr_code"`
	PixCopyPaste string `json:"pix_copy_paste"`
	CreatedAt    string `json:"created_at"`
}

// ChargeResponse is returned by charge lookup.
type ChargeResponse struct {
	ID          string  `json:"id"`
	Amount      int64   `json:"amount"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
	PaidAt      *string `json:"paid_at,omitempty"`
}

// APIKeyResponse carries a freshly issued credential. secret_key is shown once.
type APIKeyResponse struct {
	KeyID      string `json:"key_id"`
	SecretKey  string `json:"secret_key"`
	ClientName string `json:"client_name"`
	CreatedAt  string `json:"created_at"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status       string            `json:"status"`
	Service      string            `json:"service"`
	Version      string            `json:"version"`
	Timestamp    string            `json:"timestamp"`
	Dependencies map[string]string `json:"dependencies"`
}

// NewChargeCreatedResponse echoes the amount as the caller sent it.
func NewChargeCreatedResponse(res *ports.ChargeResult) ChargeCreatedResponse {
	txn := res.Transaction
	return ChargeCreatedResponse{
		ID:           txn.ID,
		Status:       string(txn.Status),
		Amount:       res.RequestedAmount,
		Description:  txn.Description,
		PixQRCode:    txn.QRCodeURL,
		PixCopyPaste: txn.PixCode,
		CreatedAt:    formatTime(txn.CreatedAt),
	}
}

// NewChargeResponse reports the stored amount in centavos.
func NewChargeResponse(txn *domain.Transaction) ChargeResponse {
	resp := ChargeResponse{
		ID:          txn.ID,
		Amount:      txn.AmountMinor(),
		Description: txn.Description,
		Status:      string(txn.Status),
		CreatedAt:   formatTime(txn.CreatedAt),
	}
	if txn.PaidAt != nil {
		paid := formatTime(*txn.PaidAt)
		resp.PaidAt = &paid
	}
	return resp
}

func NewAPIKeyResponse(cred *domain.APICredential) APIKeyResponse {
	return APIKeyResponse{
		KeyID:      cred.KeyID,
		SecretKey:  cred.SecretKey,
		ClientName: cred.ClientName,
		CreatedAt:  formatTime(cred.CreatedAt),
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
