package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pix-gateway/internal/core/domain"
	"pix-gateway/internal/core/ports"
	"pix-gateway/pkg/apperror"

	"github.com/rs/zerolog"
)

// CallbackProcessedMessage is returned for every well-formed notification.
const CallbackProcessedMessage = "Callback processed"

// CallbackServiceImpl implements ports.CallbackService.
type CallbackServiceImpl struct {
	txRepo ports.TransactionRepository
	log    zerolog.Logger
	now    func() time.Time
}

// NewCallbackService creates a new CallbackServiceImpl.
func NewCallbackService(txRepo ports.TransactionRepository, log zerolog.Logger) *CallbackServiceImpl {
	return &CallbackServiceImpl{
		txRepo: txRepo,
		log:    log,
		now:    time.Now,
	}
}

// ApplyCallback marks the referenced charge as paid when the provider reports
// completion. Other statuses, unknown ids, repeated notifications and payloads
// missing either field are acknowledged without changing state.
func (s *CallbackServiceImpl) ApplyCallback(ctx context.Context, req ports.CallbackRequest) (*ports.CallbackResult, error) {
	id := strings.TrimSpace(req.TransactionID)
	status := strings.TrimSpace(req.Status)

	log := s.log.With().Str("transaction_id", id).Str("status", status).Logger()

	if id == "" || status == "" {
		log.Info().Msg("callback ignored: transaction_id or status missing")
		return &ports.CallbackResult{Message: CallbackProcessedMessage}, nil
	}
	if status != domain.ProviderStatusCompleted {
		log.Info().Msg("callback ignored: status does not settle the charge")
		return &ports.CallbackResult{Message: CallbackProcessedMessage}, nil
	}

	applied, err := s.txRepo.MarkPaid(ctx, id, s.now().UTC())
	if err != nil {
		log.Error().Err(err).Msg("failed to mark charge paid")
		return nil, apperror.InternalError(fmt.Errorf("mark paid: %w", err))
	}

	if applied {
		log.Info().Msg("charge paid")
	} else {
		log.Info().Msg("callback ignored: charge unknown or already paid")
	}
	return &ports.CallbackResult{Applied: applied, Message: CallbackProcessedMessage}, nil
}
