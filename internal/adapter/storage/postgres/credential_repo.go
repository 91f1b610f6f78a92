package postgres

import (
	"context"
	"errors"
	"fmt"

	"pix-gateway/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// CredentialRepo implements ports.CredentialRepository.
type CredentialRepo struct {
	pool Pool
}

// NewCredentialRepo creates a new CredentialRepo.
func NewCredentialRepo(pool Pool) *CredentialRepo {
	return &CredentialRepo{pool: pool}
}

// Create inserts a new credential.
func (r *CredentialRepo) Create(ctx context.Context, c *domain.APICredential) error {
	query := `INSERT INTO api_keys (key_id, secret_hash, client_name, active, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query, c.KeyID, c.SecretHash, c.ClientName, c.Active, c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("%w: %s", domain.ErrCredentialConflict, pgErr.ConstraintName)
		}
		return fmt.Errorf("insert api key: %w", err)
	}
	return nil
}

// GetBySecretHash fetches the credential whose secret digest matches.
func (r *CredentialRepo) GetBySecretHash(ctx context.Context, secretHash string) (*domain.APICredential, error) {
	query := `SELECT key_id, secret_hash, client_name, active, created_at
		FROM api_keys WHERE secret_hash = $1`

	c := &domain.APICredential{}
	err := r.pool.QueryRow(ctx, query, secretHash).Scan(
		&c.KeyID, &c.SecretHash, &c.ClientName, &c.Active, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get api key by secret: %w", err)
	}
	return c, nil
}

// Deactivate disables a credential. Already inactive credentials still count as found.
func (r *CredentialRepo) Deactivate(ctx context.Context, keyID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE api_keys SET active = FALSE WHERE key_id = $1`, keyID)
	if err != nil {
		return false, fmt.Errorf("deactivate api key: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
