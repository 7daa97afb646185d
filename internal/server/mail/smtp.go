package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"time"

	"github.com/dmitrijs2005/otpmail/internal/common"
)

// DefaultDialTimeout bounds connecting to the SMTP server.
const DefaultDialTimeout = 20 * time.Second

type SMTPConfig struct {
	Addr     string
	Username string
	Password string
	// From is used when an envelope has no sender.
	From        string
	DialTimeout time.Duration
}

// SMTPDeliverer sends plain-text mail through an SMTP relay. STARTTLS is used
// when the server offers it; PLAIN auth when a username is configured.
type SMTPDeliverer struct {
	cfg SMTPConfig
	now func() time.Time
}

func NewSMTPDeliverer(cfg SMTPConfig) *SMTPDeliverer {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	return &SMTPDeliverer{cfg: cfg, now: time.Now}
}

func (d *SMTPDeliverer) Deliver(ctx context.Context, env Envelope) error {
	if env.From == "" {
		env.From = d.cfg.From
	}
	if err := d.send(ctx, env); err != nil {
		return fmt.Errorf("%w: %v", common.ErrDelivery, err)
	}
	return nil
}

func (d *SMTPDeliverer) send(ctx context.Context, env Envelope) error {
	host, _, err := net.SplitHostPort(d.cfg.Addr)
	if err != nil {
		return fmt.Errorf("bad smtp address %q: %w", d.cfg.Addr, err)
	}

	dialer := net.Dialer{Timeout: d.cfg.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", d.cfg.Addr)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if d.cfg.Username != "" {
		if err := c.Auth(smtp.PlainAuth("", d.cfg.Username, d.cfg.Password, host)); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := c.Mail(env.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := c.Rcpt(env.To); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(d.render(env)); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("data close: %w", err)
	}

	return c.Quit()
}

func (d *SMTPDeliverer) render(env Envelope) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", (&mail.Address{Address: env.From}).String())
	fmt.Fprintf(&b, "To: %s\r\n", (&mail.Address{Address: env.To}).String())
	fmt.Fprintf(&b, "Subject: %s\r\n", env.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", d.now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(env.Body)
	b.WriteString("\r\n")
	return b.Bytes()
}
