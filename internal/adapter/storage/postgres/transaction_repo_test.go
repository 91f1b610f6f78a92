package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"pix-gateway/internal/core/domain"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransaction() *domain.Transaction {
	return &domain.Transaction{
		ID:          "tx_abc123",
		ExternalID:  "gw_0011223344556677",
		Amount:      decimal.RequireFromString("5.00"),
		Description: "order-1",
		Status:      domain.TransactionStatusPending,
		QRCodeURL:   "https://provider.test/qr/tx_abc123.png",
		PixCode:     "00020126580014br.gov.bcb.pix",
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

func txColumns() []string {
	return []string{"transaction_id", "external_id", "amount", "description", "status",
		"qr_code_url", "pix_code", "created_at", "paid_at"}
}

func txRow(t *domain.Transaction) *pgxmock.Rows {
	return pgxmock.NewRows(txColumns()).AddRow(
		t.ID, t.ExternalID, t.Amount.StringFixed(2), t.Description, string(t.Status),
		t.QRCodeURL, t.PixCode, t.CreatedAt, t.PaidAt,
	)
}

func TestTransactionRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := newTestTransaction()

	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(
			txn.ID, txn.ExternalID, "5.00", txn.Description, "pending",
			txn.QRCodeURL, txn.PixCode, txn.CreatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), txn)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_Create_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	dbErr := errors.New("connection reset")

	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnError(dbErr)

	err = repo.Create(context.Background(), newTestTransaction())
	assert.ErrorIs(t, err, dbErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := newTestTransaction()

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE transaction_id").
		WithArgs(txn.ID).
		WillReturnRows(txRow(txn))

	result, err := repo.GetByID(context.Background(), txn.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, txn.ID, result.ID)
	assert.Equal(t, txn.ExternalID, result.ExternalID)
	assert.True(t, txn.Amount.Equal(result.Amount))
	assert.Equal(t, domain.TransactionStatusPending, result.Status)
	assert.Equal(t, txn.PixCode, result.PixCode)
	assert.Nil(t, result.PaidAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_GetByID_Paid(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := newTestTransaction()
	paidAt := txn.CreatedAt.Add(time.Minute)
	txn.Status = domain.TransactionStatusPaid
	txn.PaidAt = &paidAt

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE transaction_id").
		WithArgs(txn.ID).
		WillReturnRows(txRow(txn))

	result, err := repo.GetByID(context.Background(), txn.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsPaid())
	require.NotNil(t, result.PaidAt)
	assert.Equal(t, paidAt, *result.PaidAt)
}

func TestTransactionRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE transaction_id").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(txColumns()))

	result, err := repo.GetByID(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_MarkPaid(t *testing.T) {
	paidAt := time.Now().UTC()

	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{"pending row transitions", 1, true},
		{"already paid or unknown is a no-op", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			repo := NewTransactionRepo(mock)

			mock.ExpectExec("UPDATE transactions SET status = 'paid'.+WHERE transaction_id = .+ AND status = 'pending'").
				WithArgs("tx_abc123", paidAt).
				WillReturnResult(pgxmock.NewResult("UPDATE", tt.affected))

			applied, err := repo.MarkPaid(context.Background(), "tx_abc123", paidAt)
			require.NoError(t, err)
			assert.Equal(t, tt.want, applied)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTransactionRepo_MarkPaid_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)

	dbErr := errors.New("deadlock detected")
	mock.ExpectExec("UPDATE transactions").
		WithArgs("tx_abc123", pgxmock.AnyArg()).
		WillReturnError(dbErr)

	applied, err := repo.MarkPaid(context.Background(), "tx_abc123", time.Now())
	assert.ErrorIs(t, err, dbErr)
	assert.False(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}
