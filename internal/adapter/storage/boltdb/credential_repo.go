package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"pix-gateway/internal/core/domain"

	bolt "github.com/boltdb/bolt"
)

// CredentialRepo implements ports.CredentialRepository on bolt.
// Credentials are keyed by key_id; a second bucket indexes them by secret digest.
type CredentialRepo struct {
	db *bolt.DB
}

// NewCredentialRepo creates a new CredentialRepo.
func NewCredentialRepo(db *bolt.DB) *CredentialRepo {
	return &CredentialRepo{db: db}
}

// Create stores a credential unless its key id or secret digest is taken.
func (r *CredentialRepo) Create(_ context.Context, c *domain.APICredential) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode api key: %w", err)
	}

	return r.db.Update(func(tx *bolt.Tx) error {
		creds := tx.Bucket(bucketCredentials)
		digests := tx.Bucket(bucketSecretDigests)

		if creds.Get([]byte(c.KeyID)) != nil {
			return fmt.Errorf("%w: key_id", domain.ErrCredentialConflict)
		}
		if digests.Get([]byte(c.SecretHash)) != nil {
			return fmt.Errorf("%w: secret", domain.ErrCredentialConflict)
		}

		if err := creds.Put([]byte(c.KeyID), data); err != nil {
			return err
		}
		return digests.Put([]byte(c.SecretHash), []byte(c.KeyID))
	})
}

// GetBySecretHash resolves the digest index, then loads the credential.
func (r *CredentialRepo) GetBySecretHash(_ context.Context, secretHash string) (*domain.APICredential, error) {
	var c *domain.APICredential

	err := r.db.View(func(tx *bolt.Tx) error {
		keyID := tx.Bucket(bucketSecretDigests).Get([]byte(secretHash))
		if keyID == nil {
			return nil
		}
		v := tx.Bucket(bucketCredentials).Get(keyID)
		if v == nil {
			return fmt.Errorf("dangling secret index for %s", keyID)
		}
		c = &domain.APICredential{}
		return json.Unmarshal(v, c)
	})
	if err != nil {
		return nil, fmt.Errorf("get api key by secret: %w", err)
	}
	return c, nil
}

// Deactivate clears the active flag. It reports false for unknown key ids.
func (r *CredentialRepo) Deactivate(_ context.Context, keyID string) (bool, error) {
	found := false

	err := r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCredentials)
		v := b.Get([]byte(keyID))
		if v == nil {
			return nil
		}
		found = true

		var c domain.APICredential
		if err := json.Unmarshal(v, &c); err != nil {
			return err
		}
		if !c.Active {
			return nil
		}
		c.Active = false
		data, err := json.Marshal(&c)
		if err != nil {
			return err
		}
		return b.Put([]byte(keyID), data)
	})
	if err != nil {
		return false, fmt.Errorf("deactivate api key: %w", err)
	}
	return found, nil
}
