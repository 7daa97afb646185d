package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/otpmail/internal/common"
	"github.com/dmitrijs2005/otpmail/internal/dbx"
	"github.com/dmitrijs2005/otpmail/internal/server/models"
	"github.com/dmitrijs2005/otpmail/internal/server/repositories/counters"
	"github.com/dmitrijs2005/otpmail/internal/server/repositories/repomanager"
)

// SQLStore keeps messages in PostgreSQL.
type SQLStore struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
}

func NewSQLStore(db *sql.DB, repos repomanager.RepositoryManager) *SQLStore {
	return &SQLStore{db: db, repos: repos}
}

// OpenSQLStore connects to dsn and applies pending migrations.
func OpenSQLStore(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return NewSQLStore(db, repos), nil
}

func (s *SQLStore) NextID(ctx context.Context) (int64, error) {
	id, err := s.repos.Counters(s.db).Next(ctx, counters.MessageID)
	if err != nil {
		return 0, persistence(err)
	}
	return id, nil
}

func (s *SQLStore) Save(ctx context.Context, m *models.Message) (*models.Message, error) {
	var saved *models.Message
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		saved, err = s.repos.Messages(tx).Create(ctx, m)
		return err
	})
	if err != nil {
		return nil, persistence(err)
	}
	return saved, nil
}

func (s *SQLStore) FindByID(ctx context.Context, id int64) (*models.Message, error) {
	m, err := s.repos.Messages(s.db).FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrPersistence(err)
	}
	return m, nil
}

func (s *SQLStore) MarkRead(ctx context.Context, id int64) error {
	if err := s.repos.Messages(s.db).MarkRead(ctx, id); err != nil {
		return notFoundOrPersistence(err)
	}
	return nil
}

func (s *SQLStore) ListBySender(ctx context.Context, sender string) ([]*models.MessageSummary, error) {
	list, err := s.repos.Messages(s.db).ListBySender(ctx, sender)
	if err != nil {
		return nil, persistence(err)
	}
	return list, nil
}

func (s *SQLStore) ListByRecipient(ctx context.Context, recipient string) ([]*models.MessageSummary, error) {
	list, err := s.repos.Messages(s.db).ListByRecipient(ctx, recipient)
	if err != nil {
		return nil, persistence(err)
	}
	return list, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func persistence(err error) error {
	return fmt.Errorf("%w: %w", common.ErrPersistence, err)
}

func notFoundOrPersistence(err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return err
	}
	return persistence(err)
}
