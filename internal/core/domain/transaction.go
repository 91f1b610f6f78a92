package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus represents the lifecycle state of a charge.
type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "pending"
	TransactionStatusPaid    TransactionStatus = "paid"
)

// ProviderStatusCompleted is the only provider callback status that settles a charge.
const ProviderStatusCompleted = "COMPLETED"

// ExternalIDPrefix marks references generated by this gateway.
const ExternalIDPrefix = "gw_"

// minorUnitExponent: BRL has two decimal places.
const minorUnitExponent = 2

// MaxAmountMinor is the largest charge in centavos that fits NUMERIC(14,2).
const MaxAmountMinor int64 = 99_999_999_999_999

// Transaction is a PIX charge created through the provider and tracked locally.
// ID is assigned by the provider. The only transition is pending -> paid.
type Transaction struct {
	ID          string            `json:"id"`
	ExternalID  string            `json:"external_id"`
	Amount      decimal.Decimal   `json:"amount"` // base units (reais)
	Description string            `json:"description"`
	Status      TransactionStatus `json:"status"`
	QRCodeURL   string            `json:"qr_code_url"`
	PixCode     string            `json:"pix_code"`
	CreatedAt   time.Time         `json:"created_at"`
	PaidAt      *time.Time        `json:"paid_at,omitempty"`
}

// IsPaid reports whether the charge reached its terminal state.
func (t *Transaction) IsPaid() bool {
	return t.Status == TransactionStatusPaid
}

// MarkPaid applies pending -> paid. It returns false, leaving t untouched,
// when the charge is not pending.
func (t *Transaction) MarkPaid(at time.Time) bool {
	if t.Status != TransactionStatusPending {
		return false
	}
	t.Status = TransactionStatusPaid
	paidAt := at
	t.PaidAt = &paidAt
	return true
}

// AmountMinor returns the amount in centavos.
func (t *Transaction) AmountMinor() int64 {
	return ToMinorUnits(t.Amount)
}

// FromMinorUnits converts centavos to a two-decimal base amount: 500 -> 5.00.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -minorUnitExponent)
}

// ToMinorUnits converts a base amount back to centavos, rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(minorUnitExponent).Round(0).IntPart()
}
