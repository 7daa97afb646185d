package counters

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/otpmail/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Next runs as a single upsert, so concurrent callers serialize on the row lock.
func (r *PostgresRepository) Next(ctx context.Context, name string) (int64, error) {
	query :=
		`INSERT INTO counters (name, sequence) VALUES ($1, 1)
		 ON CONFLICT (name) DO UPDATE SET sequence = counters.sequence + 1
		 RETURNING sequence
		 `

	var seq int64
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&seq); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return seq, nil
}
