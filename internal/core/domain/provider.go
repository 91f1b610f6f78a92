package domain

import "errors"

var (
	// ErrProviderAuth covers every failed provider login: rejected
	// credentials, unreachable host, timeout or an unreadable reply.
	ErrProviderAuth = errors.New("provider authentication failed")

	// ErrProviderDeposit covers every deposit call that did not return a
	// created charge.
	ErrProviderDeposit = errors.New("provider deposit failed")
)

// Payer identifies the paying party on a deposit request.
type Payer struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Document string `json:"document"`
}
