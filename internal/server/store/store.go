// Package store persists messages together with their one-time-pad keys and
// issues message identifiers. Two backends are provided: PostgreSQL through
// the repository layer, and an embedded badger database.
package store

import (
	"context"

	"github.com/dmitrijs2005/otpmail/internal/server/models"
)

// Store is the message and key store.
//
// NextID never returns the same value twice. An identifier reserved by
// NextID but never passed to Save leaves a gap.
type Store interface {
	NextID(ctx context.Context) (int64, error)
	Save(ctx context.Context, m *models.Message) (*models.Message, error)
	FindByID(ctx context.Context, id int64) (*models.Message, error)
	MarkRead(ctx context.Context, id int64) error
	ListBySender(ctx context.Context, sender string) ([]*models.MessageSummary, error)
	ListByRecipient(ctx context.Context, recipient string) ([]*models.MessageSummary, error)
	Close() error
}
