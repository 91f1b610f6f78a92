package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pix-gateway/internal/adapter/http/middleware"
	"pix-gateway/internal/core/domain"
	"pix-gateway/internal/core/ports"
	"pix-gateway/internal/core/ports/mocks"
	"pix-gateway/pkg/apperror"
	"pix-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testCred = &domain.APICredential{KeyID: "pk_live_test", Active: true}

type handlerDeps struct {
	router   *gin.Engine
	credSvc  *mocks.MockCredentialService
	chargeSv *mocks.MockChargeService
	callback *mocks.MockCallbackService
}

func setupRouter(t *testing.T, checkers ...ports.HealthChecker) *handlerDeps {
	ctrl := gomock.NewController(t)
	d := &handlerDeps{
		credSvc:  mocks.NewMockCredentialService(ctrl),
		chargeSv: mocks.NewMockChargeService(ctrl),
		callback: mocks.NewMockCallbackService(ctrl),
	}
	d.router = SetupRouter(RouterDeps{
		CredentialSvc:  d.credSvc,
		ChargeSvc:      d.chargeSv,
		CallbackSvc:    d.callback,
		HealthCheckers: checkers,
		Logger:         zerolog.Nop(),
	})
	return d
}

func (d *handlerDeps) do(method, path, body, secret string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set("Authorization", "Bearer "+secret)
	}
	w := httptest.NewRecorder()
	d.router.ServeHTTP(w, req)
	return w
}

func (d *handlerDeps) expectAuth() {
	d.credSvc.EXPECT().Validate(gomock.Any(), "sk_live_test").Return(testCred, nil)
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body response.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.RequestID)
	return body.ErrorCode
}

// --- Charges ---

func TestCreateCharge_Success(t *testing.T) {
	d := setupRouter(t)
	d.expectAuth()

	created := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d.chargeSv.EXPECT().
		CreateCharge(gomock.Any(), testCred, ports.CreateChargeRequest{Amount: 500, Description: "order-1"}).
		Return(&ports.ChargeResult{
			Transaction: &domain.Transaction{
				ID:          "tx_1",
				Amount:      decimal.New(500, -2),
				Description: "order-1",
				Status:      domain.TransactionStatusPending,
				QRCodeURL:   "https://qr/tx_1.png",
				PixCode:     "000201pix",
				CreatedAt:   created,
			},
			RequestedAmount: 500,
		}, nil)

	w := d.do(http.MethodPost, "/api/v1/charges", `{"amount":500,"description":"  order-1 "}`, "sk_live_test")

	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{
		"id": "tx_1",
		"status": "pending",
		"amount": 500,
		"description": "order-1",
		"pix_qr_code": "https://qr/tx_1.png",
		"pix_copy_paste": "000201pix",
		"created_at": "2026-01-01T12:00:00Z"
	}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))
}

func TestCreateCharge_MissingAuthBeatsBadBody(t *testing.T) {
	d := setupRouter(t)

	w := d.do(http.MethodPost, "/api/v1/charges", `not json`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH_002", errorCode(t, w))
}

func TestCreateCharge_BadBodies(t *testing.T) {
	bodies := map[string]string{
		"empty":             ``,
		"malformed":         `{"amount":`,
		"missing amount":    `{"description":"x"}`,
		"fractional amount": `{"amount":5.5,"description":"x"}`,
		"string amount":     `{"amount":"500","description":"x"}`,
		"missing desc":      `{"amount":500}`,
		"blank desc":        `{"amount":500,"description":"   "}`,
		"long desc":         `{"amount":500,"description":"` + strings.Repeat("a", 256) + `"}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			d := setupRouter(t)
			d.expectAuth()

			w := d.do(http.MethodPost, "/api/v1/charges", body, "sk_live_test")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "VAL_001", errorCode(t, w))
		})
	}
}

func TestCreateCharge_ServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", apperror.Validation("amount must be a positive integer"), http.StatusBadRequest, "VAL_001"},
		{"provider auth", apperror.ErrProviderAuth(domain.ErrProviderAuth), http.StatusInternalServerError, "PRV_001"},
		{"provider deposit", apperror.ErrProviderDeposit(domain.ErrProviderDeposit), http.StatusInternalServerError, "PRV_002"},
		{"internal", apperror.InternalError(errors.New("secret detail")), http.StatusInternalServerError, "SYS_001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := setupRouter(t)
			d.expectAuth()
			d.chargeSv.EXPECT().CreateCharge(gomock.Any(), testCred, gomock.Any()).Return(nil, tt.err)

			w := d.do(http.MethodPost, "/api/v1/charges", `{"amount":0,"description":"x"}`, "sk_live_test")
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
			assert.NotContains(t, w.Body.String(), "secret detail")
		})
	}
}

func TestGetCharge(t *testing.T) {
	paidAt := time.Date(2026, 1, 1, 12, 5, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		d := setupRouter(t)
		d.expectAuth()
		d.chargeSv.EXPECT().GetCharge(gomock.Any(), testCred, "tx_1").Return(&domain.Transaction{
			ID:          "tx_1",
			Amount:      decimal.RequireFromString("5.00"),
			Description: "order-1",
			Status:      domain.TransactionStatusPaid,
			CreatedAt:   paidAt.Add(-5 * time.Minute),
			PaidAt:      &paidAt,
		}, nil)

		w := d.do(http.MethodGet, "/api/v1/charges/tx_1", "", "sk_live_test")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{
			"id": "tx_1",
			"amount": 500,
			"description": "order-1",
			"status": "paid",
			"created_at": "2026-01-01T12:00:00Z",
			"paid_at": "2026-01-01T12:05:00Z"
		}`, w.Body.String())
	})

	t.Run("not found", func(t *testing.T) {
		d := setupRouter(t)
		d.expectAuth()
		d.chargeSv.EXPECT().GetCharge(gomock.Any(), testCred, "nope").Return(nil, apperror.ErrNotFound("Charge"))

		w := d.do(http.MethodGet, "/api/v1/charges/nope", "", "sk_live_test")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "NF_001", errorCode(t, w))
	})

	t.Run("unauthorized", func(t *testing.T) {
		d := setupRouter(t)
		d.credSvc.EXPECT().Validate(gomock.Any(), "sk_live_revoked").Return(nil, apperror.ErrInvalidAPIKey())

		w := d.do(http.MethodGet, "/api/v1/charges/tx_1", "", "sk_live_revoked")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "AUTH_001", errorCode(t, w))
	})
}

// --- Credentials ---

func TestCreateAPIKey(t *testing.T) {
	created := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	issued := &domain.APICredential{
		KeyID:      "pk_live_abc",
		SecretKey:  "sk_live_xyz",
		SecretHash: "digest",
		ClientName: "Acme",
		Active:     true,
		CreatedAt:  created,
	}

	t.Run("with name", func(t *testing.T) {
		d := setupRouter(t)
		d.credSvc.EXPECT().Issue(gomock.Any(), "Acme").Return(issued, nil)

		w := d.do(http.MethodPost, "/admin/create_api_key", `{"client_name":" Acme "}`, "")
		require.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{
			"key_id": "pk_live_abc",
			"secret_key": "sk_live_xyz",
			"client_name": "Acme",
			"created_at": "2026-02-03T04:05:06Z"
		}`, w.Body.String())
		assert.NotContains(t, w.Body.String(), "digest")
	})

	t.Run("empty body", func(t *testing.T) {
		d := setupRouter(t)
		d.credSvc.EXPECT().Issue(gomock.Any(), "").Return(issued, nil)

		w := d.do(http.MethodPost, "/admin/create_api_key", "", "")
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		d := setupRouter(t)
		w := d.do(http.MethodPost, "/admin/create_api_key", `{"client_name":`, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("conflict", func(t *testing.T) {
		d := setupRouter(t)
		d.credSvc.EXPECT().Issue(gomock.Any(), "").Return(nil, apperror.ErrConflict(domain.ErrCredentialConflict))

		w := d.do(http.MethodPost, "/admin/create_api_key", `{}`, "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "SYS_002", errorCode(t, w))
	})
}

// --- Callback ---

func TestCallback(t *testing.T) {
	t.Run("processed", func(t *testing.T) {
		d := setupRouter(t)
		d.callback.EXPECT().
			ApplyCallback(gomock.Any(), ports.CallbackRequest{TransactionID: "tx_1", Status: "COMPLETED"}).
			Return(&ports.CallbackResult{Applied: true, Message: "Callback processed"}, nil)

		w := d.do(http.MethodPost, "/callback", `{"transaction_id":"tx_1","status":"COMPLETED"}`, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"Callback processed"}`, w.Body.String())
	})

	for name, body := range map[string]string{
		"empty":     ``,
		"malformed": `{"transaction_id":`,
		"not json":  `transaction_id=tx_1`,
	} {
		t.Run(name, func(t *testing.T) {
			d := setupRouter(t)
			w := d.do(http.MethodPost, "/callback", body, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "VAL_001", errorCode(t, w))
		})
	}

	for name, tt := range map[string]struct {
		body string
		req  ports.CallbackRequest
	}{
		"unrelated event": {`{"event":"ping"}`, ports.CallbackRequest{}},
		"missing id":      {`{"status":"COMPLETED"}`, ports.CallbackRequest{Status: "COMPLETED"}},
		"missing status":  {`{"transaction_id":"tx_1"}`, ports.CallbackRequest{TransactionID: "tx_1"}},
	} {
		t.Run(name, func(t *testing.T) {
			d := setupRouter(t)
			d.callback.EXPECT().ApplyCallback(gomock.Any(), tt.req).
				Return(&ports.CallbackResult{Message: "Callback processed"}, nil)

			w := d.do(http.MethodPost, "/callback", tt.body, "")
			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"message":"Callback processed"}`, w.Body.String())
		})
	}

	t.Run("storage failure", func(t *testing.T) {
		d := setupRouter(t)
		d.callback.EXPECT().ApplyCallback(gomock.Any(), gomock.Any()).Return(nil, apperror.InternalError(errors.New("db")))

		w := d.do(http.MethodPost, "/callback", `{"transaction_id":"tx_1","status":"COMPLETED"}`, "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

// --- Health ---

func TestHealthCheck(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := mocks.NewMockHealthChecker(ctrl)
	cache := mocks.NewMockHealthChecker(ctrl)

	db.EXPECT().Name().Return("postgresql").AnyTimes()
	cache.EXPECT().Name().Return("redis").AnyTimes()
	db.EXPECT().Ping(gomock.Any()).Return(nil).Times(2)
	gomock.InOrder(
		cache.EXPECT().Ping(gomock.Any()).Return(nil),
		cache.EXPECT().Ping(gomock.Any()).Return(errors.New("connection refused")),
	)

	d := setupRouter(t, db, cache)

	var body struct {
		Status       string            `json:"status"`
		Service      string            `json:"service"`
		Version      string            `json:"version"`
		Timestamp    string            `json:"timestamp"`
		Dependencies map[string]string `json:"dependencies"`
	}

	w := d.do(http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "Gateway PIX", body.Service)
	assert.Equal(t, "3.0", body.Version)
	_, err := time.Parse(time.RFC3339, body.Timestamp)
	assert.NoError(t, err)
	assert.Equal(t, map[string]string{"postgresql": "healthy", "redis": "healthy"}, body.Dependencies)

	w = d.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "unhealthy", body.Dependencies["redis"])
}

type failingStore struct{}

func (failingStore) Ping(context.Context) error { return errors.New("down") }
func (failingStore) Name() string               { return "bolt" }

func TestHealthCheck_NoPanicWithoutCheckers(t *testing.T) {
	d := setupRouter(t)
	w := d.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"healthy"`)

	d = setupRouter(t, failingStore{})
	w = d.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"degraded"`)
}
