package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"pix-gateway/internal/core/domain"
	"pix-gateway/internal/core/ports"
	"pix-gateway/internal/core/ports/mocks"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type chargeTestDeps struct {
	svc      *ChargeServiceImpl
	txRepo   *mocks.MockTransactionRepository
	provider *mocks.MockPaymentProvider
	cred     *domain.APICredential
}

var fixedNow = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

func setupChargeService(t *testing.T) *chargeTestDeps {
	ctrl := gomock.NewController(t)
	d := &chargeTestDeps{
		txRepo:   mocks.NewMockTransactionRepository(ctrl),
		provider: mocks.NewMockPaymentProvider(ctrl),
		cred:     &domain.APICredential{KeyID: "pk_live_test", Active: true},
	}
	d.svc = NewChargeService(d.txRepo, d.provider, zerolog.Nop())
	d.svc.now = func() time.Time { return fixedNow }
	return d
}

func TestChargeService_CreateCharge_Success(t *testing.T) {
	d := setupChargeService(t)
	ctx := context.Background()

	d.provider.EXPECT().Authenticate(ctx).Return("tok_1", nil)
	d.provider.EXPECT().CreateDeposit(ctx, "tok_1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, req ports.DepositRequest) (*ports.DepositResult, error) {
			assert.Equal(t, "5.00", req.Amount.StringFixed(2))
			assert.Equal(t, "order-1", req.Description)
			return &ports.DepositResult{
				TransactionID: "tx_1",
				ExternalID:    "gw_0011223344556677",
				QRCode:        "https://qr/tx_1.png",
				PaymentCode:   "000201pix",
			}, nil
		})

	var stored *domain.Transaction
	d.txRepo.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, txn *domain.Transaction) error {
		stored = txn
		return nil
	})

	result, err := d.svc.CreateCharge(ctx, d.cred, ports.CreateChargeRequest{Amount: 500, Description: "order-1"})
	require.NoError(t, err)

	assert.Equal(t, int64(500), result.RequestedAmount)
	txn := result.Transaction
	assert.Same(t, stored, txn)
	assert.Equal(t, "tx_1", txn.ID)
	assert.Equal(t, "gw_0011223344556677", txn.ExternalID)
	assert.Equal(t, int64(500), txn.AmountMinor())
	assert.Equal(t, domain.TransactionStatusPending, txn.Status)
	assert.Equal(t, "https://qr/tx_1.png", txn.QRCodeURL)
	assert.Equal(t, "000201pix", txn.PixCode)
	assert.Equal(t, fixedNow, txn.CreatedAt)
	assert.Nil(t, txn.PaidAt)
}

func TestChargeService_CreateCharge_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  ports.CreateChargeRequest
	}{
		{"zero amount", ports.CreateChargeRequest{Amount: 0, Description: "x"}},
		{"negative amount", ports.CreateChargeRequest{Amount: -1, Description: "x"}},
		{"amount above storage precision", ports.CreateChargeRequest{Amount: domain.MaxAmountMinor + 1, Description: "x"}},
		{"empty description", ports.CreateChargeRequest{Amount: 100, Description: ""}},
		{"blank description", ports.CreateChargeRequest{Amount: 100, Description: "   "}},
		{"long description", ports.CreateChargeRequest{Amount: 100, Description: strings.Repeat("a", 256)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := setupChargeService(t)
			// no provider or store expectations: nothing may be called

			result, err := d.svc.CreateCharge(context.Background(), d.cred, tt.req)
			assert.Nil(t, result)
			assertAppError(t, err, "VAL_001")
		})
	}
}

func TestChargeService_CreateCharge_MaxAmount(t *testing.T) {
	d := setupChargeService(t)
	ctx := context.Background()

	d.provider.EXPECT().Authenticate(ctx).Return("tok_1", nil)
	d.provider.EXPECT().CreateDeposit(ctx, "tok_1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, req ports.DepositRequest) (*ports.DepositResult, error) {
			assert.Equal(t, "999999999999.99", req.Amount.StringFixed(2))
			return &ports.DepositResult{TransactionID: "tx_max", ExternalID: "gw_max"}, nil
		})
	d.txRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)

	result, err := d.svc.CreateCharge(ctx, d.cred, ports.CreateChargeRequest{Amount: domain.MaxAmountMinor, Description: "big"})
	require.NoError(t, err)
	assert.Equal(t, domain.MaxAmountMinor, result.Transaction.AmountMinor())
}

func TestChargeService_CreateCharge_ProviderAuthFailure(t *testing.T) {
	d := setupChargeService(t)
	d.provider.EXPECT().Authenticate(gomock.Any()).Return("", domain.ErrProviderAuth)

	result, err := d.svc.CreateCharge(context.Background(), d.cred, ports.CreateChargeRequest{Amount: 500, Description: "order-1"})
	assert.Nil(t, result)
	assertAppError(t, err, "PRV_001")
	assert.ErrorIs(t, err, domain.ErrProviderAuth)
}

func TestChargeService_CreateCharge_DepositFailure(t *testing.T) {
	d := setupChargeService(t)
	d.provider.EXPECT().Authenticate(gomock.Any()).Return("tok", nil)
	d.provider.EXPECT().CreateDeposit(gomock.Any(), "tok", gomock.Any()).Return(nil, domain.ErrProviderDeposit)

	result, err := d.svc.CreateCharge(context.Background(), d.cred, ports.CreateChargeRequest{Amount: 500, Description: "order-1"})
	assert.Nil(t, result)
	assertAppError(t, err, "PRV_002")
}

func TestChargeService_CreateCharge_StoreFailure(t *testing.T) {
	d := setupChargeService(t)
	d.provider.EXPECT().Authenticate(gomock.Any()).Return("tok", nil)
	d.provider.EXPECT().CreateDeposit(gomock.Any(), "tok", gomock.Any()).Return(&ports.DepositResult{TransactionID: "tx_1"}, nil)
	d.txRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	result, err := d.svc.CreateCharge(context.Background(), d.cred, ports.CreateChargeRequest{Amount: 500, Description: "order-1"})
	assert.Nil(t, result)
	assertAppError(t, err, "SYS_001")
}

func TestChargeService_GetCharge(t *testing.T) {
	paid := fixedNow.Add(time.Minute)
	txn := &domain.Transaction{ID: "tx_1", Status: domain.TransactionStatusPaid, PaidAt: &paid}

	t.Run("found", func(t *testing.T) {
		d := setupChargeService(t)
		d.txRepo.EXPECT().GetByID(gomock.Any(), "tx_1").Return(txn, nil)

		got, err := d.svc.GetCharge(context.Background(), d.cred, "tx_1")
		require.NoError(t, err)
		assert.Equal(t, txn, got)
	})

	t.Run("not found", func(t *testing.T) {
		d := setupChargeService(t)
		d.txRepo.EXPECT().GetByID(gomock.Any(), "tx_x").Return(nil, nil)

		_, err := d.svc.GetCharge(context.Background(), d.cred, "tx_x")
		assertAppError(t, err, "NF_001")
	})

	t.Run("blank id", func(t *testing.T) {
		d := setupChargeService(t)
		_, err := d.svc.GetCharge(context.Background(), d.cred, " ")
		assertAppError(t, err, "NF_001")
	})

	t.Run("store failure", func(t *testing.T) {
		d := setupChargeService(t)
		d.txRepo.EXPECT().GetByID(gomock.Any(), "tx_1").Return(nil, errors.New("timeout"))

		_, err := d.svc.GetCharge(context.Background(), d.cred, "tx_1")
		assertAppError(t, err, "SYS_001")
	})
}
