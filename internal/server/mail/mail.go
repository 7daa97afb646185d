// Package mail delivers encrypted messages over an outbound mail transport.
package mail

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/otpmail/internal/common"
	"github.com/dmitrijs2005/otpmail/internal/logging"
)

// DefaultSubject is used when the message has no subject.
const DefaultSubject = "Quantum Secure Email"

const attachmentPreviewLen = 50

// Envelope is what goes over the wire. Subject and Body carry ciphertext.
type Envelope struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Deliverer hands an envelope to a mail transport. Failures wrap common.ErrDelivery.
type Deliverer interface {
	Deliver(ctx context.Context, env Envelope) error
}

// Body renders the mail body: the body ciphertext followed, when an
// attachment is present, by a short preview of its ciphertext.
func Body(bodyHex, attachmentHex string, hasAttachment bool) string {
	if !hasAttachment {
		return bodyHex
	}
	preview := attachmentHex
	if len(preview) > attachmentPreviewLen {
		preview = preview[:attachmentPreviewLen]
	}
	return fmt.Sprintf("%s\n\nAttachment (hex): %s... (download via API)", bodyHex, preview)
}

// Subject returns subjectHex or DefaultSubject when it is empty.
func Subject(subjectHex string) string {
	if subjectHex == "" {
		return DefaultSubject
	}
	return subjectHex
}

// LogDeliverer logs envelopes instead of sending them.
type LogDeliverer struct {
	logger logging.Logger
}

func NewLogDeliverer(logger logging.Logger) *LogDeliverer {
	return &LogDeliverer{logger: logger.With("module", "mail")}
}

func (d *LogDeliverer) Deliver(ctx context.Context, env Envelope) error {
	if env.To == "" {
		return fmt.Errorf("%w: empty recipient", common.ErrDelivery)
	}
	d.logger.Info(ctx, "message delivered to log",
		"from", env.From, "to", env.To, "subject", env.Subject, "body_len", len(env.Body))
	return nil
}
