// Package models defines server-side data models persisted by the store.
package models

import "time"

// Message is an encrypted message together with the pad that encrypts it.
type Message struct {
	ID        int64
	Sender    string
	Recipient string

	// EncryptedSubject and EncryptedBody are lowercase hex.
	EncryptedSubject string
	EncryptedBody    string

	// AttachmentName is empty when the message carries no attachment.
	AttachmentName string
	// EncryptedAttachment is hex; empty when the ciphertext lives in the blob store.
	EncryptedAttachment string
	// AttachmentStorageKey is the blob key of an offloaded attachment.
	AttachmentStorageKey string

	Key            []byte
	KeyFingerprint []byte
	ErrorRate      float64
	IsRead         bool
	CreatedAt      time.Time
}

// HasAttachment reports whether an attachment was sent with the message.
func (m *Message) HasAttachment() bool {
	return m.AttachmentName != ""
}

// MessageSummary is a list entry. It never carries key material or the
// attachment ciphertext.
type MessageSummary struct {
	ID               int64
	Sender           string
	Recipient        string
	EncryptedSubject string
	AttachmentName   string
	ErrorRate        float64
	IsRead           bool
	CreatedAt        time.Time
}
