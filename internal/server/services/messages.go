package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/otpmail/internal/common"
	"github.com/dmitrijs2005/otpmail/internal/keygen"
	"github.com/dmitrijs2005/otpmail/internal/logging"
	"github.com/dmitrijs2005/otpmail/internal/otp"
	"github.com/dmitrijs2005/otpmail/internal/server/blobs"
	transport "github.com/dmitrijs2005/otpmail/internal/server/mail"
	"github.com/dmitrijs2005/otpmail/internal/server/models"
	"github.com/dmitrijs2005/otpmail/internal/server/store"
)

// DefaultMaxAttachmentSize is the attachment limit when none is configured.
const DefaultMaxAttachmentSize = 10 << 20

const StatusSent = "sent"

// KeyGenerator produces pads covering the given segment lengths.
type KeyGenerator interface {
	Generate(ctx context.Context, lengths []int) (*keygen.Key, error)
}

type AttachmentInput struct {
	Name    string
	Content []byte
}

type SendInput struct {
	To         string
	Subject    string
	Body       string
	Attachment *AttachmentInput
}

type SendResult struct {
	ID                  int64
	EncryptedSubject    string
	EncryptedBody       string
	EncryptedAttachment string
	AttachmentName      string
	ErrorRate           float64
	KeyFingerprint      []byte
	Status              string
}

type AttachmentInfo struct {
	Name      string
	MessageID int64
}

type DecryptResult struct {
	ID         int64
	Sender     string
	Recipient  string
	Subject    string
	Body       string
	Attachment *AttachmentInfo
}

type Attachment struct {
	Name    string
	Content []byte
}

type MessageService struct {
	store     store.Store
	keys      KeyGenerator
	deliverer transport.Deliverer
	blobs     blobs.Store
	maxAttach int
	logger    logging.Logger
	now       func() time.Time
}

type Option func(*MessageService)

// WithBlobStore offloads attachment ciphertexts to bs.
func WithBlobStore(bs blobs.Store) Option {
	return func(s *MessageService) {
		s.blobs = bs
	}
}

// WithMaxAttachmentSize sets the largest accepted attachment in bytes.
func WithMaxAttachmentSize(n int) Option {
	return func(s *MessageService) {
		if n > 0 {
			s.maxAttach = n
		}
	}
}

func NewMessageService(st store.Store, keys KeyGenerator, d transport.Deliverer, logger logging.Logger, opts ...Option) *MessageService {
	s := &MessageService{
		store:     st,
		keys:      keys,
		deliverer: d,
		maxAttach: DefaultMaxAttachmentSize,
		logger:    logger.With("module", "messages"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// validate checks in and returns the bare recipient address.
func (s *MessageService) validate(in SendInput) (string, error) {
	if strings.TrimSpace(in.To) == "" {
		return "", fmt.Errorf("%w: recipient is required", common.ErrorValidation)
	}
	to, err := mail.ParseAddress(in.To)
	if err != nil {
		return "", fmt.Errorf("%w: invalid recipient %q", common.ErrorValidation, in.To)
	}
	if in.Body == "" {
		return "", fmt.Errorf("%w: body is required", common.ErrorValidation)
	}
	if !utf8.ValidString(in.Subject) || !utf8.ValidString(in.Body) {
		return "", fmt.Errorf("%w: subject and body must be valid UTF-8", common.ErrorValidation)
	}
	if a := in.Attachment; a != nil {
		if a.Name == "" {
			return "", fmt.Errorf("%w: attachment name is required", common.ErrorValidation)
		}
		if len(a.Content) > s.maxAttach {
			return "", fmt.Errorf("%w: attachment exceeds %d bytes", common.ErrorValidation, s.maxAttach)
		}
	}
	return to.Address, nil
}

// Send encrypts the message under a fresh pad, delivers it, and only then
// reserves an identifier and persists it. A failed delivery leaves nothing
// behind.
func (s *MessageService) Send(ctx context.Context, sender string, in SendInput) (*SendResult, error) {
	to, err := s.validate(in)
	if err != nil {
		return nil, err
	}

	var attachment []byte
	if in.Attachment != nil {
		attachment = in.Attachment.Content
	}
	segments := [][]byte{[]byte(in.Subject), []byte(in.Body), attachment}

	key, err := s.keys.Generate(ctx, []int{len(segments[0]), len(segments[1]), len(segments[2])})
	if err != nil {
		s.logger.Error(ctx, "key generation failed", "error", err.Error())
		return nil, err
	}

	ct, err := otp.EncryptSegments(segments, key.Material)
	if err != nil {
		return nil, err
	}

	env := transport.Envelope{
		From:    sender,
		To:      to,
		Subject: transport.Subject(ct[0]),
		Body:    transport.Body(ct[1], ct[2], in.Attachment != nil),
	}
	if err := s.deliverer.Deliver(ctx, env); err != nil {
		s.logger.Warn(ctx, "delivery failed", "to", to, "error", err.Error())
		return nil, err
	}

	m := &models.Message{
		Sender:           sender,
		Recipient:        to,
		EncryptedSubject: ct[0],
		EncryptedBody:    ct[1],
		Key:              key.Material,
		KeyFingerprint:   key.Fingerprint,
		ErrorRate:        key.ErrorRate,
		CreatedAt:        s.now().UTC(),
	}
	if in.Attachment != nil {
		m.AttachmentName = in.Attachment.Name
		m.EncryptedAttachment = ct[2]
		if s.blobs != nil {
			m.AttachmentStorageKey = blobs.NewStorageKey()
			if err := s.blobs.Put(ctx, m.AttachmentStorageKey, []byte(ct[2])); err != nil {
				return nil, s.notStored(ctx, m, err)
			}
			m.EncryptedAttachment = ""
		}
	}

	id, err := s.store.NextID(ctx)
	if err != nil {
		s.dropBlob(ctx, m)
		return nil, s.notStored(ctx, m, err)
	}
	m.ID = id

	if _, err := s.store.Save(ctx, m); err != nil {
		s.dropBlob(ctx, m)
		return nil, s.notStored(ctx, m, err)
	}

	s.logger.Info(ctx, "message sent", "id", m.ID, "to", m.Recipient, "key_bytes", len(m.Key))

	return &SendResult{
		ID:                  m.ID,
		EncryptedSubject:    ct[0],
		EncryptedBody:       ct[1],
		EncryptedAttachment: ct[2],
		AttachmentName:      m.AttachmentName,
		ErrorRate:           m.ErrorRate,
		KeyFingerprint:      m.KeyFingerprint,
		Status:              StatusSent,
	}, nil
}

func (s *MessageService) notStored(ctx context.Context, m *models.Message, err error) error {
	s.logger.Error(ctx, "message delivered but not stored", "id", m.ID, "to", m.Recipient, "error", err.Error())
	if errors.Is(err, common.ErrPersistence) {
		return fmt.Errorf("not sent: %w", err)
	}
	return fmt.Errorf("not sent: %w: %w", common.ErrPersistence, err)
}

func (s *MessageService) dropBlob(ctx context.Context, m *models.Message) {
	if s.blobs == nil || m.AttachmentStorageKey == "" {
		return
	}
	if err := s.blobs.Delete(ctx, m.AttachmentStorageKey); err != nil {
		s.logger.Warn(ctx, "failed to delete orphaned attachment", "key", m.AttachmentStorageKey, "error", err.Error())
	}
}

// load fetches a message the requester is a party to and checks its key.
func (s *MessageService) load(ctx context.Context, requester string, id int64) (*models.Message, error) {
	m, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sameAddress(requester, m.Sender) && !sameAddress(requester, m.Recipient) {
		return nil, common.ErrorUnauthorized
	}
	if !keygen.VerifyFingerprint(m.Key, m.KeyFingerprint) {
		s.logger.Error(ctx, "key fingerprint mismatch", "id", id)
		return nil, common.ErrKeyIntegrity
	}
	return m, nil
}

// Decrypt returns the plaintext subject and body and marks the message read.
func (s *MessageService) Decrypt(ctx context.Context, requester string, id int64) (*DecryptResult, error) {
	m, err := s.load(ctx, requester, id)
	if err != nil {
		return nil, err
	}

	pt, err := otp.DecryptText([]string{m.EncryptedSubject, m.EncryptedBody}, m.Key)
	if err != nil {
		return nil, err
	}

	if err := s.store.MarkRead(ctx, id); err != nil {
		return nil, err
	}

	res := &DecryptResult{
		ID:        m.ID,
		Sender:    m.Sender,
		Recipient: m.Recipient,
		Subject:   pt[0],
		Body:      pt[1],
	}
	if m.HasAttachment() {
		res.Attachment = &AttachmentInfo{Name: m.AttachmentName, MessageID: m.ID}
	}
	return res, nil
}

// DownloadAttachment returns the decrypted attachment of message id.
func (s *MessageService) DownloadAttachment(ctx context.Context, requester string, id int64) (*Attachment, error) {
	m, err := s.load(ctx, requester, id)
	if err != nil {
		return nil, err
	}
	if !m.HasAttachment() {
		return nil, fmt.Errorf("%w: message %d has no attachment", common.ErrorNotFound, id)
	}

	ciphertext := m.EncryptedAttachment
	if m.AttachmentStorageKey != "" {
		if s.blobs == nil {
			return nil, fmt.Errorf("%w: attachment is offloaded but no blob store is configured", common.ErrPersistence)
		}
		b, err := s.blobs.Get(ctx, m.AttachmentStorageKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrPersistence, err)
		}
		ciphertext = string(b)
	}

	pt, err := otp.DecryptSegments([]string{m.EncryptedSubject, m.EncryptedBody, ciphertext}, m.Key)
	if err != nil {
		return nil, err
	}

	return &Attachment{Name: m.AttachmentName, Content: pt[2]}, nil
}

func (s *MessageService) ListSent(ctx context.Context, sender string) ([]*models.MessageSummary, error) {
	return s.store.ListBySender(ctx, sender)
}

func (s *MessageService) ListInbox(ctx context.Context, recipient string) ([]*models.MessageSummary, error) {
	return s.store.ListByRecipient(ctx, recipient)
}

func sameAddress(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
