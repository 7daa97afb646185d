package grpc

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/otpmail/internal/common"
	"github.com/dmitrijs2005/otpmail/internal/logging"
	"github.com/dmitrijs2005/otpmail/internal/otp"
	"github.com/dmitrijs2005/otpmail/internal/server/models"
	"github.com/dmitrijs2005/otpmail/internal/server/services"
	"github.com/dmitrijs2005/otpmail/internal/wire"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ---- fakes ----

type fakeMessages struct {
	sendIn     services.SendInput
	sendSender string
	sendResp   *services.SendResult
	sendErr    error

	decryptResp *services.DecryptResult
	decryptErr  error

	attResp *services.Attachment
	attErr  error

	list    []*models.MessageSummary
	listErr error
	listFor string
}

func (f *fakeMessages) Send(ctx context.Context, sender string, in services.SendInput) (*services.SendResult, error) {
	f.sendSender, f.sendIn = sender, in
	return f.sendResp, f.sendErr
}

func (f *fakeMessages) Decrypt(ctx context.Context, requester string, id int64) (*services.DecryptResult, error) {
	return f.decryptResp, f.decryptErr
}

func (f *fakeMessages) DownloadAttachment(ctx context.Context, requester string, id int64) (*services.Attachment, error) {
	return f.attResp, f.attErr
}

func (f *fakeMessages) ListSent(ctx context.Context, sender string) ([]*models.MessageSummary, error) {
	f.listFor = "sent:" + sender
	return f.list, f.listErr
}

func (f *fakeMessages) ListInbox(ctx context.Context, recipient string) ([]*models.MessageSummary, error) {
	f.listFor = "inbox:" + recipient
	return f.list, f.listErr
}

// ---- helpers ----

func newServer(ms messageService) *GRPCServer {
	return NewGRPCServer("127.0.0.1:0", logging.Nop{}, ms, "k")
}

func asCaller(address string) context.Context {
	return context.WithValue(context.Background(), addressKey, address)
}

// ---- tests ----

func TestPing_OK(t *testing.T) {
	s := newServer(&fakeMessages{})
	resp, err := s.Ping(context.Background(), &wire.PingRequest{})
	if err != nil {
		t.Fatalf("Ping error: %v", err)
	}
	if resp.Status != "OK" {
		t.Fatalf("unexpected status: %q", resp.Status)
	}
}

func TestSend_OK(t *testing.T) {
	f := &fakeMessages{sendResp: &services.SendResult{
		ID: 3, EncryptedSubject: "aa", EncryptedBody: "bb", KeyFingerprint: []byte{0xab, 0xcd}, Status: services.StatusSent,
	}}
	s := newServer(f)

	resp, err := s.Send(asCaller("alice@x"), &wire.SendRequest{
		To: "bob@x", Subject: "s", Body: "b", Attachment: &wire.Attachment{Name: "a", Content: []byte{1}},
	})
	if err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if resp.ID != 3 || resp.KeyFingerprint != "abcd" || resp.Status != "sent" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if f.sendSender != "alice@x" || f.sendIn.To != "bob@x" || f.sendIn.Attachment == nil || f.sendIn.Attachment.Name != "a" {
		t.Fatalf("unexpected service input: %q %+v", f.sendSender, f.sendIn)
	}
}

func TestSend_RequiresCaller(t *testing.T) {
	s := newServer(&fakeMessages{})
	_, err := s.Send(context.Background(), &wire.SendRequest{})
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("want Unauthenticated, got %v", status.Code(err))
	}
}

func TestToStatus_Mapping(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{fmt.Errorf("%w: body is required", common.ErrorValidation), codes.InvalidArgument},
		{common.ErrInvalidCiphertextEncoding, codes.InvalidArgument},
		{common.ErrInvalidPlaintextEncoding, codes.InvalidArgument},
		{common.ErrorNotFound, codes.NotFound},
		{common.ErrorUnauthorized, codes.PermissionDenied},
		{common.ErrInvalidToken, codes.Unauthenticated},
		{&otp.KeyTooShortError{Required: 300, Available: 100}, codes.Internal},
		{common.ErrKeyIntegrity, codes.Internal},
		{fmt.Errorf("not sent: %w", common.ErrPersistence), codes.Internal},
		{common.ErrEntropySourceUnavailable, codes.Internal},
		{fmt.Errorf("%w: smtp", common.ErrDelivery), codes.Unavailable},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{errors.New("boom"), codes.Internal},
	}
	for _, tt := range tests {
		if got := status.Code(toStatus(tt.err)); got != tt.want {
			t.Errorf("toStatus(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestSend_MapsServiceErrors(t *testing.T) {
	s := newServer(&fakeMessages{sendErr: common.ErrDelivery})
	_, err := s.Send(asCaller("a@x"), &wire.SendRequest{To: "b@x", Body: "b"})
	if status.Code(err) != codes.Unavailable {
		t.Fatalf("want Unavailable, got %v", status.Code(err))
	}
}

func TestDecrypt_OK_and_Errors(t *testing.T) {
	f := &fakeMessages{decryptResp: &services.DecryptResult{
		ID: 1, Sender: "a@x", Recipient: "b@x", Subject: "Hi", Body: "there",
		Attachment: &services.AttachmentInfo{Name: "f", MessageID: 1},
	}}
	s := newServer(f)

	resp, err := s.Decrypt(asCaller("b@x"), &wire.MessageRequest{ID: 1})
	if err != nil {
		t.Fatalf("Decrypt error: %v", err)
	}
	if resp.Subject != "Hi" || resp.Attachment == nil || resp.Attachment.MessageID != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}

	s2 := newServer(&fakeMessages{decryptErr: common.ErrorUnauthorized})
	_, err = s2.Decrypt(asCaller("eve@x"), &wire.MessageRequest{ID: 1})
	if status.Code(err) != codes.PermissionDenied {
		t.Fatalf("want PermissionDenied, got %v", status.Code(err))
	}
}

func TestDownloadAttachment(t *testing.T) {
	s := newServer(&fakeMessages{attResp: &services.Attachment{Name: "f.bin", Content: []byte{9}}})
	resp, err := s.DownloadAttachment(asCaller("b@x"), &wire.MessageRequest{ID: 1})
	if err != nil {
		t.Fatalf("DownloadAttachment error: %v", err)
	}
	if resp.Name != "f.bin" || len(resp.Content) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}

	s2 := newServer(&fakeMessages{attErr: common.ErrorNotFound})
	_, err = s2.DownloadAttachment(asCaller("b@x"), &wire.MessageRequest{ID: 1})
	if status.Code(err) != codes.NotFound {
		t.Fatalf("want NotFound, got %v", status.Code(err))
	}
}

func TestLists(t *testing.T) {
	now := time.Now()
	f := &fakeMessages{list: []*models.MessageSummary{{ID: 1, Sender: "a@x", Recipient: "b@x", CreatedAt: now}}}
	s := newServer(f)

	sent, err := s.ListSent(asCaller("a@x"), &wire.ListRequest{})
	if err != nil {
		t.Fatalf("ListSent error: %v", err)
	}
	if len(sent.Messages) != 1 || f.listFor != "sent:a@x" {
		t.Fatalf("unexpected: %+v %q", sent, f.listFor)
	}

	inbox, err := s.ListInbox(asCaller("b@x"), &wire.ListRequest{})
	if err != nil {
		t.Fatalf("ListInbox error: %v", err)
	}
	if len(inbox.Messages) != 1 || f.listFor != "inbox:b@x" || !inbox.Messages[0].CreatedAt.Equal(now) {
		t.Fatalf("unexpected: %+v %q", inbox, f.listFor)
	}

	s2 := newServer(&fakeMessages{listErr: common.ErrPersistence})
	_, err = s2.ListInbox(asCaller("b@x"), &wire.ListRequest{})
	if status.Code(err) != codes.Internal {
		t.Fatalf("want Internal, got %v", status.Code(err))
	}

	empty, err := newServer(&fakeMessages{}).ListSent(asCaller("a@x"), &wire.ListRequest{})
	if err != nil || empty.Messages == nil {
		t.Fatalf("expected empty non-nil list, got %+v %v", empty, err)
	}
}
