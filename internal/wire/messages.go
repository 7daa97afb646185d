package wire

import "time"

type Attachment struct {
	Name    string `json:"name"`
	Content []byte `json:"content,omitempty"`
}

type SendRequest struct {
	To         string      `json:"to"`
	Subject    string      `json:"subject,omitempty"`
	Body       string      `json:"body"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

type SendResponse struct {
	ID                  int64   `json:"id"`
	EncryptedSubject    string  `json:"encrypted_subject"`
	EncryptedBody       string  `json:"encrypted_body"`
	EncryptedAttachment string  `json:"encrypted_attachment,omitempty"`
	AttachmentName      string  `json:"attachment_name,omitempty"`
	ErrorRate           float64 `json:"error_rate"`
	KeyFingerprint      string  `json:"key_fingerprint"`
	Status              string  `json:"status"`
}

type MessageRequest struct {
	ID int64 `json:"id"`
}

type AttachmentRef struct {
	Name      string `json:"name"`
	MessageID int64  `json:"message_id"`
}

type DecryptResponse struct {
	ID         int64          `json:"id"`
	Sender     string         `json:"sender"`
	Recipient  string         `json:"recipient"`
	Subject    string         `json:"subject"`
	Body       string         `json:"body"`
	Attachment *AttachmentRef `json:"attachment,omitempty"`
}

type AttachmentResponse struct {
	Name    string `json:"name"`
	Content []byte `json:"content"`
}

type ListRequest struct{}

type MessageSummary struct {
	ID               int64     `json:"id"`
	Sender           string    `json:"sender"`
	Recipient        string    `json:"recipient"`
	EncryptedSubject string    `json:"encrypted_subject"`
	AttachmentName   string    `json:"attachment_name,omitempty"`
	ErrorRate        float64   `json:"error_rate"`
	IsRead           bool      `json:"is_read"`
	CreatedAt        time.Time `json:"created_at"`
}

type ListResponse struct {
	Messages []MessageSummary `json:"messages"`
}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}
