// Package blobs stores attachment ciphertexts outside the message store.
package blobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Store is an object store for attachment ciphertexts.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// NewStorageKey returns a fresh key of the form attachments/yyyy/m/d/uuid.
func NewStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("attachments/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}
