package domain

import (
	"errors"
	"time"
)

const (
	// DefaultClientName labels credentials issued without a name.
	DefaultClientName = "Cliente Padrão"

	KeyIDPrefix     = "pk_live_"
	SecretKeyPrefix = "sk_live_"
)

var (
	// ErrCredentialConflict is returned by stores when a generated key id or
	// secret collides with an existing record.
	ErrCredentialConflict = errors.New("credential identifier already exists")
)

// APICredential authorizes a client to create and read charges.
// Only the digest of the secret is persisted; SecretKey is populated once,
// on the value returned from issuance.
type APICredential struct {
	KeyID      string    `json:"key_id"`
	SecretHash string    `json:"secret_hash"`
	SecretKey  string    `json:"-"`
	ClientName string    `json:"client_name"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}
