package messages

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/otpmail/internal/common"
	"github.com/dmitrijs2005/otpmail/internal/dbx"
	"github.com/dmitrijs2005/otpmail/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicateID is returned when a message with the same id already exists.
var ErrDuplicateID = errors.New("duplicate message id")

const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, m *models.Message) (*models.Message, error) {
	query :=
		`INSERT INTO messages (id, sender, recipient, encrypted_subject, encrypted_body,
			attachment_name, encrypted_attachment, attachment_storage_key,
			key_material, key_fingerprint, error_rate, is_read, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 `

	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.Sender, m.Recipient, m.EncryptedSubject, m.EncryptedBody,
		nullString(m.AttachmentName), nullString(m.EncryptedAttachment), nullString(m.AttachmentStorageKey),
		m.Key, m.KeyFingerprint, m.ErrorRate, m.IsRead, m.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, m.ID)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return m, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (*models.Message, error) {
	query :=
		`SELECT id, sender, recipient, encrypted_subject, encrypted_body,
			attachment_name, encrypted_attachment, attachment_storage_key,
			key_material, key_fingerprint, error_rate, is_read, created_at
		 FROM messages
		 WHERE id = $1
		 `

	var (
		m                                     models.Message
		attName, attCiphertext, attStorageKey sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&m.ID, &m.Sender, &m.Recipient, &m.EncryptedSubject, &m.EncryptedBody,
		&attName, &attCiphertext, &attStorageKey,
		&m.Key, &m.KeyFingerprint, &m.ErrorRate, &m.IsRead, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	m.AttachmentName = attName.String
	m.EncryptedAttachment = attCiphertext.String
	m.AttachmentStorageKey = attStorageKey.String

	return &m, nil
}

func (r *PostgresRepository) MarkRead(ctx context.Context, id int64) error {
	query := `UPDATE messages SET is_read = TRUE WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) ListBySender(ctx context.Context, sender string) ([]*models.MessageSummary, error) {
	return r.list(ctx, "sender", sender)
}

func (r *PostgresRepository) ListByRecipient(ctx context.Context, recipient string) ([]*models.MessageSummary, error) {
	return r.list(ctx, "recipient", recipient)
}

// list selects summaries by an indexed address column. column is never user input.
func (r *PostgresRepository) list(ctx context.Context, column, address string) ([]*models.MessageSummary, error) {
	query := fmt.Sprintf(
		`SELECT id, sender, recipient, encrypted_subject, attachment_name, error_rate, is_read, created_at
		 FROM messages
		 WHERE %s = $1
		 ORDER BY id
		 `, column)

	rows, err := r.db.QueryContext(ctx, query, address)
	if err != nil {
		return nil, fmt.Errorf("failed to select messages: %w", err)
	}
	defer rows.Close()

	var result []*models.MessageSummary
	for rows.Next() {
		var (
			item    models.MessageSummary
			attName sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.Sender, &item.Recipient, &item.EncryptedSubject,
			&attName, &item.ErrorRate, &item.IsRead, &item.CreatedAt); err != nil {
			return nil, err
		}
		item.AttachmentName = attName.String
		result = append(result, &item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
