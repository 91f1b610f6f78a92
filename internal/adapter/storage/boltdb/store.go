// Package boltdb persists charges and API credentials in a single BoltDB file.
//
// Bolt serializes write transactions, so every read-check-write sequence
// inside db.Update is atomic with respect to other writers. MarkPaid and
// credential creation rely on that.
package boltdb

import (
	"context"
	"fmt"
	"time"

	bolt "github.com/boltdb/bolt"
	"github.com/rs/zerolog"
)

var (
	bucketTransactions  = []byte("transactions")
	bucketCredentials   = []byte("api_keys")
	bucketSecretDigests = []byte("api_key_secrets") // secret_hash -> key_id
)

// Open opens (or creates) the database file and ensures all buckets exist.
func Open(path string, timeout time.Duration, log zerolog.Logger) (*bolt.DB, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening bolt file %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketTransactions, bucketCredentials, bucketSecretDigests} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	log.Info().Str("path", path).Msg("Bolt store opened")
	return db, nil
}

// HealthCheck implements ports.HealthChecker for the bolt file.
type HealthCheck struct {
	db *bolt.DB
}

// NewHealthCheck creates a bolt health checker.
func NewHealthCheck(db *bolt.DB) *HealthCheck {
	return &HealthCheck{db: db}
}

// Ping opens a read transaction; it fails once the file has been closed.
func (h *HealthCheck) Ping(_ context.Context) error {
	return h.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketTransactions) == nil {
			return fmt.Errorf("bucket %s missing", bucketTransactions)
		}
		return nil
	})
}

// Name returns the dependency name.
func (h *HealthCheck) Name() string {
	return "bolt"
}
