package messages

import (
	"context"

	"github.com/dmitrijs2005/otpmail/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, m *models.Message) (*models.Message, error)
	FindByID(ctx context.Context, id int64) (*models.Message, error)
	MarkRead(ctx context.Context, id int64) error
	ListBySender(ctx context.Context, sender string) ([]*models.MessageSummary, error)
	ListByRecipient(ctx context.Context, recipient string) ([]*models.MessageSummary, error)
}
