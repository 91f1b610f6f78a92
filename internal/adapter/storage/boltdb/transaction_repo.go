package boltdb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pix-gateway/internal/core/domain"

	bolt "github.com/boltdb/bolt"
	"github.com/shopspring/decimal"
)

// transactionRecord is the on-disk shape. Amount is kept as fixed-point text.
type transactionRecord struct {
	ID          string     `json:"transaction_id"`
	ExternalID  string     `json:"external_id"`
	Amount      string     `json:"amount"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	QRCodeURL   string     `json:"qr_code_url"`
	PixCode     string     `json:"pix_code"`
	CreatedAt   time.Time  `json:"created_at"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
}

func toRecord(t *domain.Transaction) transactionRecord {
	return transactionRecord{
		ID:          t.ID,
		ExternalID:  t.ExternalID,
		Amount:      t.Amount.StringFixed(2),
		Description: t.Description,
		Status:      string(t.Status),
		QRCodeURL:   t.QRCodeURL,
		PixCode:     t.PixCode,
		CreatedAt:   t.CreatedAt,
		PaidAt:      t.PaidAt,
	}
}

func (r transactionRecord) toDomain() (*domain.Transaction, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", r.Amount, err)
	}
	return &domain.Transaction{
		ID:          r.ID,
		ExternalID:  r.ExternalID,
		Amount:      amount,
		Description: r.Description,
		Status:      domain.TransactionStatus(r.Status),
		QRCodeURL:   r.QRCodeURL,
		PixCode:     r.PixCode,
		CreatedAt:   r.CreatedAt,
		PaidAt:      r.PaidAt,
	}, nil
}

// TransactionRepo implements ports.TransactionRepository on bolt.
type TransactionRepo struct {
	db *bolt.DB
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(db *bolt.DB) *TransactionRepo {
	return &TransactionRepo{db: db}
}

// Create stores a new charge. The provider id must not exist yet.
func (r *TransactionRepo) Create(_ context.Context, t *domain.Transaction) error {
	data, err := json.Marshal(toRecord(t))
	if err != nil {
		return fmt.Errorf("encode transaction: %w", err)
	}

	return r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTransactions)
		if b.Get([]byte(t.ID)) != nil {
			return fmt.Errorf("insert transaction: %s already exists", t.ID)
		}
		return b.Put([]byte(t.ID), data)
	})
}

// GetByID returns (nil, nil) when the id is unknown.
func (r *TransactionRepo) GetByID(_ context.Context, id string) (*domain.Transaction, error) {
	var rec *transactionRecord

	err := r.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketTransactions).Get([]byte(id))
		if v == nil {
			return nil
		}
		rec = &transactionRecord{}
		return json.Unmarshal(v, rec)
	})
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	if rec == nil {
		return nil, nil
	}
	return rec.toDomain()
}

// MarkPaid moves a pending charge to paid inside one write transaction.
func (r *TransactionRepo) MarkPaid(_ context.Context, id string, paidAt time.Time) (bool, error) {
	applied := false

	err := r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTransactions)
		v := b.Get([]byte(id))
		if v == nil {
			return nil
		}

		var rec transactionRecord
		if err := json.Unmarshal(v, &rec); err != nil {
			return err
		}
		if rec.Status != string(domain.TransactionStatusPending) {
			return nil
		}

		rec.Status = string(domain.TransactionStatusPaid)
		rec.PaidAt = &paidAt
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		applied = true
		return b.Put([]byte(id), data)
	})
	if err != nil {
		return false, fmt.Errorf("mark transaction paid: %w", err)
	}
	return applied, nil
}
