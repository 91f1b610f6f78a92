package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pix-gateway/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create inserts a new charge.
func (r *TransactionRepo) Create(ctx context.Context, t *domain.Transaction) error {
	query := `INSERT INTO transactions (transaction_id, external_id, amount, description, status,
		qr_code_url, pix_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		t.ID, t.ExternalID, t.Amount.StringFixed(2), t.Description, string(t.Status),
		t.QRCodeURL, t.PixCode, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByID fetches a charge by its provider id.
func (r *TransactionRepo) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	query := `SELECT transaction_id, external_id, amount::text, description, status,
		qr_code_url, pix_code, created_at, paid_at
		FROM transactions WHERE transaction_id = $1`

	var (
		t      domain.Transaction
		amount string
		status string
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.ExternalID, &amount, &t.Description, &status,
		&t.QRCodeURL, &t.PixCode, &t.CreatedAt, &t.PaidAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}

	t.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	t.Status = domain.TransactionStatus(status)
	return &t, nil
}

// MarkPaid flips pending -> paid in a single conditional UPDATE, so
// concurrent callbacks for the same id cannot both succeed.
func (r *TransactionRepo) MarkPaid(ctx context.Context, id string, paidAt time.Time) (bool, error) {
	query := `UPDATE transactions SET status = 'paid', paid_at = $2
		WHERE transaction_id = $1 AND status = 'pending'`

	tag, err := r.pool.Exec(ctx, query, id, paidAt)
	if err != nil {
		return false, fmt.Errorf("mark transaction paid: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
