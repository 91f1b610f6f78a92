// Package provider talks to the external PIX provider over its JSON API.
package provider

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pix-gateway/config"
	"pix-gateway/internal/core/domain"
	"pix-gateway/internal/core/ports"

	"github.com/rs/zerolog"
)

const (
	loginPath   = "/api/auth/login"
	depositPath = "/api/payments/deposit"

	maxResponseBytes = 1 << 20
	externalIDBytes  = 8
)

// HTTPClient is the subset of *http.Client the provider client needs.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type loginRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type depositRequest struct {
	Amount      json.Number  `json:"amount"`
	ExternalID  string       `json:"external_id"`
	CallbackURL string       `json:"clientCallbackUrl"`
	Payer       domain.Payer `json:"payer"`
	Description string       `json:"description"`
}

type depositResponse struct {
	TransactionID string `json:"transaction_id"`
	PixQRCode     string `json:"pix_qr_code"`
	PixKey        string `json:"pix_key"`
}

// Client implements ports.PaymentProvider.
type Client struct {
	httpClient  HTTPClient
	baseURL     string
	clientID    string
	secret      string
	callbackURL string
	payer       domain.Payer
	timeout     time.Duration
	log         zerolog.Logger
}

// NewClient creates a provider client. Every call is bounded by cfg.Timeout.
func NewClient(cfg config.ProviderConfig, callbackURL string, log zerolog.Logger) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		clientID:    cfg.ClientID,
		secret:      cfg.ClientSecret,
		callbackURL: callbackURL,
		payer: domain.Payer{
			Name:     cfg.Payer.Name,
			Email:    cfg.Payer.Email,
			Document: cfg.Payer.Document,
		},
		timeout: cfg.Timeout,
		log:     log,
	}
}

// WithHTTPClient replaces the HTTP transport.
func (c *Client) WithHTTPClient(hc HTTPClient) *Client {
	c.httpClient = hc
	return c
}

// Authenticate logs in with the gateway's client credentials and returns a
// bearer token. Only HTTP 200 with a non-empty token counts as success.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	status, body, err := c.post(ctx, loginPath, "", loginRequest{ClientID: c.clientID, ClientSecret: c.secret})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrProviderAuth, err)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("%w: login returned status %d: %s", domain.ErrProviderAuth, status, truncate(body))
	}

	var out loginResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("%w: decode login response: %v", domain.ErrProviderAuth, err)
	}
	if out.Token == "" {
		return "", fmt.Errorf("%w: login response carried no token", domain.ErrProviderAuth)
	}
	return out.Token, nil
}

// CreateDeposit registers a charge with the provider. Only HTTP 201 with a
// transaction id counts as success.
func (c *Client) CreateDeposit(ctx context.Context, token string, req ports.DepositRequest) (*ports.DepositResult, error) {
	externalID, err := newExternalID()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderDeposit, err)
	}

	payload := depositRequest{
		Amount:      json.Number(req.Amount.StringFixed(2)),
		ExternalID:  externalID,
		CallbackURL: c.callbackURL,
		Payer:       c.payer,
		Description: req.Description,
	}

	status, body, err := c.post(ctx, depositPath, token, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderDeposit, err)
	}
	if status != http.StatusCreated {
		return nil, fmt.Errorf("%w: deposit returned status %d: %s", domain.ErrProviderDeposit, status, truncate(body))
	}

	var out depositResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: decode deposit response: %v", domain.ErrProviderDeposit, err)
	}
	if out.TransactionID == "" {
		return nil, fmt.Errorf("%w: deposit response carried no transaction_id", domain.ErrProviderDeposit)
	}

	c.log.Debug().
		Str("transaction_id", out.TransactionID).
		Str("external_id", externalID).
		Msg("provider deposit created")

	return &ports.DepositResult{
		TransactionID: out.TransactionID,
		ExternalID:    externalID,
		QRCode:        out.PixQRCode,
		PaymentCode:   out.PixKey,
	}, nil
}

func (c *Client) post(ctx context.Context, path, token string, payload any) (int, []byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("encode request: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read %s response: %w", path, err)
	}
	return resp.StatusCode, body, nil
}

// newExternalID returns "gw_" followed by 16 hex characters.
func newExternalID() (string, error) {
	b := make([]byte, externalIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate external id: %w", err)
	}
	return domain.ExternalIDPrefix + hex.EncodeToString(b), nil
}

func truncate(body []byte) string {
	const limit = 256
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
