package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"pix-gateway/internal/core/domain"
	"pix-gateway/internal/core/ports"
	"pix-gateway/pkg/apperror"

	"github.com/rs/zerolog"
)

const maxDescriptionLength = 255

// ChargeServiceImpl implements ports.ChargeService.
type ChargeServiceImpl struct {
	txRepo   ports.TransactionRepository
	provider ports.PaymentProvider
	log      zerolog.Logger
	now      func() time.Time
}

// NewChargeService creates a new ChargeServiceImpl.
func NewChargeService(txRepo ports.TransactionRepository, provider ports.PaymentProvider, log zerolog.Logger) *ChargeServiceImpl {
	return &ChargeServiceImpl{
		txRepo:   txRepo,
		provider: provider,
		log:      log,
		now:      time.Now,
	}
}

// CreateCharge authenticates with the provider, registers the deposit and
// records it as pending. Nothing is stored unless the provider accepted it.
func (s *ChargeServiceImpl) CreateCharge(ctx context.Context, cred *domain.APICredential, req ports.CreateChargeRequest) (*ports.ChargeResult, error) {
	if req.Amount <= 0 {
		return nil, apperror.Validation("amount must be a positive integer")
	}
	if req.Amount > domain.MaxAmountMinor {
		return nil, apperror.Validation(fmt.Sprintf("amount must be at most %d", domain.MaxAmountMinor))
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, apperror.Validation("description is required")
	}
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return nil, apperror.Validation(fmt.Sprintf("description must be at most %d characters", maxDescriptionLength))
	}

	log := s.log.With().Str("key_id", keyIDOf(cred)).Int64("amount", req.Amount).Logger()

	token, err := s.provider.Authenticate(ctx)
	if err != nil {
		log.Error().Err(err).Msg("provider authentication failed")
		return nil, apperror.ErrProviderAuth(err)
	}

	amount := domain.FromMinorUnits(req.Amount)
	deposit, err := s.provider.CreateDeposit(ctx, token, ports.DepositRequest{
		Amount:      amount,
		Description: description,
	})
	if err != nil {
		log.Error().Err(err).Msg("provider deposit failed")
		return nil, apperror.ErrProviderDeposit(err)
	}

	txn := &domain.Transaction{
		ID:          deposit.TransactionID,
		ExternalID:  deposit.ExternalID,
		Amount:      amount,
		Description: description,
		Status:      domain.TransactionStatusPending,
		QRCodeURL:   deposit.QRCode,
		PixCode:     deposit.PaymentCode,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.txRepo.Create(ctx, txn); err != nil {
		// The provider already holds this charge; keep its id for reconciliation.
		log.Error().Err(err).
			Str("transaction_id", deposit.TransactionID).
			Str("external_id", deposit.ExternalID).
			Msg("failed to persist charge accepted by provider")
		return nil, apperror.InternalError(fmt.Errorf("store transaction: %w", err))
	}

	log.Info().Str("transaction_id", txn.ID).Msg("charge created")

	return &ports.ChargeResult{
		Transaction:     txn,
		RequestedAmount: req.Amount,
	}, nil
}

// GetCharge returns a stored charge. Any active credential may read any charge.
func (s *ChargeServiceImpl) GetCharge(ctx context.Context, _ *domain.APICredential, id string) (*domain.Transaction, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperror.ErrNotFound("Charge")
	}

	txn, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get transaction: %w", err))
	}
	if txn == nil {
		return nil, apperror.ErrNotFound("Charge")
	}
	return txn, nil
}

func keyIDOf(cred *domain.APICredential) string {
	if cred == nil {
		return ""
	}
	return cred.KeyID
}
