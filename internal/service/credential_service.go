package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"pix-gateway/internal/core/domain"
	"pix-gateway/internal/core/ports"
	"pix-gateway/pkg/apperror"

	"github.com/rs/zerolog"
)

const (
	keyIDBytes       = 16
	secretKeyBytes   = 32
	maxIssueAttempts = 3
)

// CredentialServiceImpl implements ports.CredentialService.
type CredentialServiceImpl struct {
	repo   ports.CredentialRepository
	hasher ports.SecretHasher
	log    zerolog.Logger
	now    func() time.Time
}

// NewCredentialService creates a new CredentialServiceImpl.
func NewCredentialService(repo ports.CredentialRepository, hasher ports.SecretHasher, log zerolog.Logger) *CredentialServiceImpl {
	return &CredentialServiceImpl{
		repo:   repo,
		hasher: hasher,
		log:    log,
		now:    time.Now,
	}
}

// Issue creates a new active credential. The returned value is the only place
// the plaintext secret ever appears.
func (s *CredentialServiceImpl) Issue(ctx context.Context, clientName string) (*domain.APICredential, error) {
	clientName = strings.TrimSpace(clientName)
	if clientName == "" {
		clientName = domain.DefaultClientName
	}

	var lastErr error
	for attempt := 1; attempt <= maxIssueAttempts; attempt++ {
		keyID, err := generateKey(domain.KeyIDPrefix, keyIDBytes)
		if err != nil {
			return nil, apperror.InternalError(err)
		}
		secret, err := generateKey(domain.SecretKeyPrefix, secretKeyBytes)
		if err != nil {
			return nil, apperror.InternalError(err)
		}

		cred := &domain.APICredential{
			KeyID:      keyID,
			SecretHash: s.hasher.Digest(secret),
			ClientName: clientName,
			Active:     true,
			CreatedAt:  s.now().UTC(),
		}

		err = s.repo.Create(ctx, cred)
		if err == nil {
			s.log.Info().Str("key_id", keyID).Str("client_name", clientName).Msg("api key issued")
			cred.SecretKey = secret
			return cred, nil
		}
		if !errors.Is(err, domain.ErrCredentialConflict) {
			return nil, apperror.InternalError(fmt.Errorf("store api key: %w", err))
		}

		s.log.Warn().Int("attempt", attempt).Msg("generated api key collided, retrying")
		lastErr = err
	}

	return nil, apperror.ErrConflict(lastErr)
}

// Validate resolves a plaintext secret to its active credential.
func (s *CredentialServiceImpl) Validate(ctx context.Context, secretKey string) (*domain.APICredential, error) {
	if secretKey == "" {
		return nil, apperror.ErrMissingAPIKey()
	}

	cred, err := s.repo.GetBySecretHash(ctx, s.hasher.Digest(secretKey))
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lookup api key: %w", err))
	}
	if cred == nil || !cred.Active {
		return nil, apperror.ErrInvalidAPIKey()
	}
	return cred, nil
}

// Deactivate revokes a credential. Revoking an already inactive key succeeds.
func (s *CredentialServiceImpl) Deactivate(ctx context.Context, keyID string) error {
	found, err := s.repo.Deactivate(ctx, keyID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("deactivate api key: %w", err))
	}
	if !found {
		return apperror.ErrNotFound("API key")
	}
	s.log.Info().Str("key_id", keyID).Msg("api key deactivated")
	return nil
}

// generateKey returns prefix followed by n random bytes in unpadded base64url.
func generateKey(prefix string, n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating key: %w", err)
	}
	return prefix + base64.RawURLEncoding.EncodeToString(b), nil
}
