package ports

//go:generate mockgen -source=repositories.go -destination=mocks/mock_repositories.go -package=mocks

import (
	"context"
	"time"

	"pix-gateway/internal/core/domain"
)

// TransactionRepository persists charges.
// Reads return (nil, nil) when the charge does not exist.
type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	// MarkPaid atomically moves a pending charge to paid. It reports false,
	// without error, when the charge is unknown or already paid.
	MarkPaid(ctx context.Context, id string, paidAt time.Time) (bool, error)
}

// CredentialRepository persists API credentials.
// Create returns domain.ErrCredentialConflict on a duplicate key id or secret digest.
type CredentialRepository interface {
	Create(ctx context.Context, cred *domain.APICredential) error
	GetBySecretHash(ctx context.Context, secretHash string) (*domain.APICredential, error)
	// Deactivate reports false when no credential has the given key id.
	Deactivate(ctx context.Context, keyID string) (bool, error)
}
