package ports

//go:generate mockgen -source=services.go -destination=mocks/mock_services.go -package=mocks

import (
	"context"

	"pix-gateway/internal/core/domain"

	"github.com/shopspring/decimal"
)

// --- Outbound ports ---

// PaymentProvider is the external PIX provider. One attempt per call, no retries.
type PaymentProvider interface {
	// Authenticate returns a bearer token; failures wrap domain.ErrProviderAuth.
	Authenticate(ctx context.Context) (string, error)
	// CreateDeposit registers a charge; failures wrap domain.ErrProviderDeposit.
	CreateDeposit(ctx context.Context, token string, req DepositRequest) (*DepositResult, error)
}

// DepositRequest is a charge in base currency units.
type DepositRequest struct {
	Amount      decimal.Decimal
	Description string
}

// DepositResult carries the payment instructions returned by the provider.
type DepositResult struct {
	TransactionID string
	ExternalID    string
	QRCode        string
	PaymentCode   string
}

// SecretHasher derives the stored digest of an API secret.
type SecretHasher interface {
	Digest(secret string) string
}

// --- Service Ports (Business Logic) ---

// CredentialService issues and checks API credentials.
type CredentialService interface {
	Issue(ctx context.Context, clientName string) (*domain.APICredential, error)
	Validate(ctx context.Context, secretKey string) (*domain.APICredential, error)
	Deactivate(ctx context.Context, keyID string) error
}

// ChargeService orchestrates charge creation and lookup.
type ChargeService interface {
	CreateCharge(ctx context.Context, cred *domain.APICredential, req CreateChargeRequest) (*ChargeResult, error)
	GetCharge(ctx context.Context, cred *domain.APICredential, id string) (*domain.Transaction, error)
}

// CreateChargeRequest holds the caller's input. Amount is in centavos.
type CreateChargeRequest struct {
	Amount      int64
	Description string
}

// ChargeResult is a freshly created charge plus the amount as the caller sent it.
type ChargeResult struct {
	Transaction     *domain.Transaction
	RequestedAmount int64
}

// CallbackService reconciles provider payment notifications.
type CallbackService interface {
	ApplyCallback(ctx context.Context, req CallbackRequest) (*CallbackResult, error)
}

// CallbackRequest is the provider notification payload.
type CallbackRequest struct {
	TransactionID string
	Status        string
}

// CallbackResult reports whether the notification changed any state.
type CallbackResult struct {
	Applied bool
	Message string
}
