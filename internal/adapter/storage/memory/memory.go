// Package memory holds process-local repositories. State is lost on restart;
// they back the "memory" storage driver and end-to-end tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pix-gateway/internal/core/domain"
)

// TransactionRepo implements ports.TransactionRepository in memory.
type TransactionRepo struct {
	mu  sync.RWMutex
	txs map[string]domain.Transaction
}

// NewTransactionRepo creates an empty TransactionRepo.
func NewTransactionRepo() *TransactionRepo {
	return &TransactionRepo{txs: make(map[string]domain.Transaction)}
}

func (r *TransactionRepo) Create(_ context.Context, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.txs[t.ID]; ok {
		return fmt.Errorf("insert transaction: %s already exists", t.ID)
	}
	r.txs[t.ID] = *t
	return nil
}

func (r *TransactionRepo) GetByID(_ context.Context, id string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.txs[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r *TransactionRepo) MarkPaid(_ context.Context, id string, paidAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.txs[id]
	if !ok {
		return false, nil
	}
	if !t.MarkPaid(paidAt) {
		return false, nil
	}
	r.txs[id] = t
	return true, nil
}

// CredentialRepo implements ports.CredentialRepository in memory.
type CredentialRepo struct {
	mu       sync.RWMutex
	byKeyID  map[string]domain.APICredential
	byDigest map[string]string
}

// NewCredentialRepo creates an empty CredentialRepo.
func NewCredentialRepo() *CredentialRepo {
	return &CredentialRepo{
		byKeyID:  make(map[string]domain.APICredential),
		byDigest: make(map[string]string),
	}
}

func (r *CredentialRepo) Create(_ context.Context, c *domain.APICredential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byKeyID[c.KeyID]; ok {
		return fmt.Errorf("%w: key_id", domain.ErrCredentialConflict)
	}
	if _, ok := r.byDigest[c.SecretHash]; ok {
		return fmt.Errorf("%w: secret", domain.ErrCredentialConflict)
	}
	stored := *c
	stored.SecretKey = ""
	r.byKeyID[c.KeyID] = stored
	r.byDigest[c.SecretHash] = c.KeyID
	return nil
}

func (r *CredentialRepo) GetBySecretHash(_ context.Context, secretHash string) (*domain.APICredential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keyID, ok := r.byDigest[secretHash]
	if !ok {
		return nil, nil
	}
	c := r.byKeyID[keyID]
	return &c, nil
}

func (r *CredentialRepo) Deactivate(_ context.Context, keyID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byKeyID[keyID]
	if !ok {
		return false, nil
	}
	c.Active = false
	r.byKeyID[keyID] = c
	return true, nil
}
