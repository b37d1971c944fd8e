// Package blob stores raw message bodies in object storage. Bodies are
// written once under generated keys; the metadata rows in the relational
// store point at them via those keys.
package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when no object exists under the key.
var ErrNotFound = errors.New("blob: not found")

// Store is the object storage boundary.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// BodyKey derives the storage key for a message body from its identity. The
// same message always maps to the same key, so re-syncing re-puts identical
// bytes instead of accumulating copies, and the store stays write-once in
// practice.
func BodyKey(connectionID, messageID string) string {
	sum := sha256.Sum256([]byte(messageID))
	return fmt.Sprintf("bodies/%s/%s", connectionID, hex.EncodeToString(sum[:]))
}
