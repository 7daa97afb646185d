package store

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/dmitrijs2005/otpmail/internal/common"
	"github.com/dmitrijs2005/otpmail/internal/logging"
	"github.com/dmitrijs2005/otpmail/internal/server/models"
)

const (
	messagePrefix   = "msg:"
	senderPrefix    = "snd:"
	recipientPrefix = "rcp:"
	sequenceKey     = "seq:message_id"
	idWidth         = 20
)

// BadgerStore keeps messages in an embedded badger database. Messages live
// under msg:<id>; snd:<addr>:<id> and rcp:<addr>:<id> hold list summaries.
type BadgerStore struct {
	db  *badger.DB
	seq *badger.Sequence
}

// OpenBadgerStore opens (or creates) a store in dir. An empty dir opens an
// in-memory store.
func OpenBadgerStore(dir string, logger logging.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(badgerLogger{logger.With("module", "badger")})
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	seq, err := db.GetSequence([]byte(sequenceKey), 1)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("badger sequence: %w", err)
	}

	return &BadgerStore{db: db, seq: seq}, nil
}

// NextID is safe for concurrent use; the sequence serializes callers.
func (s *BadgerStore) NextID(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n, err := s.seq.Next()
	if err != nil {
		return 0, persistence(err)
	}
	return int64(n) + 1, nil
}

func (s *BadgerStore) Save(ctx context.Context, m *models.Message) (*models.Message, error) {
	val, err := encode(m)
	if err != nil {
		return nil, persistence(err)
	}
	summary, err := encode(summarize(m))
	if err != nil {
		return nil, persistence(err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		key := messageKey(m.ID)
		_, err := txn.Get(key)
		switch {
		case err == nil:
			return fmt.Errorf("duplicate message id %d", m.ID)
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		if err := txn.Set(key, val); err != nil {
			return err
		}
		if err := txn.Set(indexKey(senderPrefix, m.Sender, m.ID), summary); err != nil {
			return err
		}
		return txn.Set(indexKey(recipientPrefix, m.Recipient, m.ID), summary)
	})
	if err != nil {
		return nil, persistence(err)
	}

	return m, nil
}

func (s *BadgerStore) FindByID(ctx context.Context, id int64) (*models.Message, error) {
	var m models.Message
	err := s.db.View(func(txn *badger.Txn) error {
		return getMessage(txn, id, &m)
	})
	if err != nil {
		return nil, notFoundOrPersistence(err)
	}
	return &m, nil
}

// MarkRead updates the message and both of its index entries.
func (s *BadgerStore) MarkRead(ctx context.Context, id int64) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		var m models.Message
		if err := getMessage(txn, id, &m); err != nil {
			return err
		}
		if m.IsRead {
			return nil
		}
		m.IsRead = true

		val, err := encode(&m)
		if err != nil {
			return err
		}
		summary, err := encode(summarize(&m))
		if err != nil {
			return err
		}

		if err := txn.Set(messageKey(id), val); err != nil {
			return err
		}
		if err := txn.Set(indexKey(senderPrefix, m.Sender, id), summary); err != nil {
			return err
		}
		return txn.Set(indexKey(recipientPrefix, m.Recipient, id), summary)
	})
	if err != nil {
		return notFoundOrPersistence(err)
	}
	return nil
}

func (s *BadgerStore) ListBySender(ctx context.Context, sender string) ([]*models.MessageSummary, error) {
	return s.list(senderPrefix, sender)
}

func (s *BadgerStore) ListByRecipient(ctx context.Context, recipient string) ([]*models.MessageSummary, error) {
	return s.list(recipientPrefix, recipient)
}

func (s *BadgerStore) list(prefix, address string) ([]*models.MessageSummary, error) {
	p := []byte(prefix + address + ":")

	var result []*models.MessageSummary
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = p
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			// Skip addresses that merely share the prefix, e.g. "a" and "a:b".
			if len(item.Key())-len(p) != idWidth {
				continue
			}

			var sum models.MessageSummary
			if err := item.Value(func(v []byte) error { return decode(v, &sum) }); err != nil {
				return err
			}
			result = append(result, &sum)
		}
		return nil
	})
	if err != nil {
		return nil, persistence(err)
	}
	return result, nil
}

// Close returns unused sequence leases before closing the database.
func (s *BadgerStore) Close() error {
	return errors.Join(s.seq.Release(), s.db.Close())
}

func getMessage(txn *badger.Txn, id int64, m *models.Message) error {
	item, err := txn.Get(messageKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return common.ErrorNotFound
		}
		return err
	}
	return item.Value(func(v []byte) error { return decode(v, m) })
}

func messageKey(id int64) []byte {
	return fmt.Appendf(nil, "%s%0*d", messagePrefix, idWidth, id)
}

func indexKey(prefix, address string, id int64) []byte {
	return fmt.Appendf(nil, "%s%s:%0*d", prefix, address, idWidth, id)
}

func summarize(m *models.Message) *models.MessageSummary {
	return &models.MessageSummary{
		ID:               m.ID,
		Sender:           m.Sender,
		Recipient:        m.Recipient,
		EncryptedSubject: m.EncryptedSubject,
		AttachmentName:   m.AttachmentName,
		ErrorRate:        m.ErrorRate,
		IsRead:           m.IsRead,
		CreatedAt:        m.CreatedAt,
	}
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("gob encode: %w", err)
	}
	return buf.Bytes(), nil
}

func decode(b []byte, v any) error {
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(v); err != nil {
		return fmt.Errorf("gob decode: %w", err)
	}
	return nil
}

// badgerLogger routes badger's printf-style logging into a logging.Logger.
type badgerLogger struct {
	l logging.Logger
}

func (b badgerLogger) Errorf(format string, args ...any) {
	b.l.Error(context.Background(), trim(format, args))
}

func (b badgerLogger) Warningf(format string, args ...any) {
	b.l.Warn(context.Background(), trim(format, args))
}

// Infof is demoted to debug; badger reports every compaction at info.
func (b badgerLogger) Infof(format string, args ...any) {
	b.l.Debug(context.Background(), trim(format, args))
}

func (b badgerLogger) Debugf(format string, args ...any) {
	b.l.Debug(context.Background(), trim(format, args))
}

func trim(format string, args []any) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
