package grpc

import (
	"context"
	"encoding/hex"
	"errors"

	"github.com/dmitrijs2005/otpmail/internal/common"
	"github.com/dmitrijs2005/otpmail/internal/server/models"
	"github.com/dmitrijs2005/otpmail/internal/server/services"
	"github.com/dmitrijs2005/otpmail/internal/wire"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps service errors to gRPC status codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrorValidation),
		errors.Is(err, common.ErrInvalidCiphertextEncoding),
		errors.Is(err, common.ErrInvalidPlaintextEncoding):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.PermissionDenied, "not a party to this message")
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, common.ErrDelivery):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func (s *GRPCServer) caller(ctx context.Context) (string, error) {
	address, ok := AddressFromContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "missing caller address")
	}
	return address, nil
}

func (s *GRPCServer) Send(ctx context.Context, req *wire.SendRequest) (*wire.SendResponse, error) {
	sender, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}

	in := services.SendInput{To: req.To, Subject: req.Subject, Body: req.Body}
	if req.Attachment != nil {
		in.Attachment = &services.AttachmentInput{Name: req.Attachment.Name, Content: req.Attachment.Content}
	}

	res, err := s.messages.Send(ctx, sender, in)
	if err != nil {
		s.logger.Error(ctx, "send failed", "sender", sender, "error", err.Error())
		return nil, toStatus(err)
	}

	return &wire.SendResponse{
		ID:                  res.ID,
		EncryptedSubject:    res.EncryptedSubject,
		EncryptedBody:       res.EncryptedBody,
		EncryptedAttachment: res.EncryptedAttachment,
		AttachmentName:      res.AttachmentName,
		ErrorRate:           res.ErrorRate,
		KeyFingerprint:      hex.EncodeToString(res.KeyFingerprint),
		Status:              res.Status,
	}, nil
}

func (s *GRPCServer) Decrypt(ctx context.Context, req *wire.MessageRequest) (*wire.DecryptResponse, error) {
	requester, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}

	res, err := s.messages.Decrypt(ctx, requester, req.ID)
	if err != nil {
		return nil, toStatus(err)
	}

	resp := &wire.DecryptResponse{
		ID:        res.ID,
		Sender:    res.Sender,
		Recipient: res.Recipient,
		Subject:   res.Subject,
		Body:      res.Body,
	}
	if res.Attachment != nil {
		resp.Attachment = &wire.AttachmentRef{Name: res.Attachment.Name, MessageID: res.Attachment.MessageID}
	}
	return resp, nil
}

func (s *GRPCServer) DownloadAttachment(ctx context.Context, req *wire.MessageRequest) (*wire.AttachmentResponse, error) {
	requester, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}

	att, err := s.messages.DownloadAttachment(ctx, requester, req.ID)
	if err != nil {
		return nil, toStatus(err)
	}

	return &wire.AttachmentResponse{Name: att.Name, Content: att.Content}, nil
}

func (s *GRPCServer) ListSent(ctx context.Context, _ *wire.ListRequest) (*wire.ListResponse, error) {
	sender, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.messages.ListSent(ctx, sender)
	if err != nil {
		return nil, toStatus(err)
	}
	return &wire.ListResponse{Messages: summaries(list)}, nil
}

func (s *GRPCServer) ListInbox(ctx context.Context, _ *wire.ListRequest) (*wire.ListResponse, error) {
	recipient, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.messages.ListInbox(ctx, recipient)
	if err != nil {
		return nil, toStatus(err)
	}
	return &wire.ListResponse{Messages: summaries(list)}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, _ *wire.PingRequest) (*wire.PingResponse, error) {
	return &wire.PingResponse{Status: "OK"}, nil
}

func summaries(list []*models.MessageSummary) []wire.MessageSummary {
	out := make([]wire.MessageSummary, 0, len(list))
	for _, m := range list {
		out = append(out, wire.MessageSummary{
			ID:               m.ID,
			Sender:           m.Sender,
			Recipient:        m.Recipient,
			EncryptedSubject: m.EncryptedSubject,
			AttachmentName:   m.AttachmentName,
			ErrorRate:        m.ErrorRate,
			IsRead:           m.IsRead,
			CreatedAt:        m.CreatedAt,
		})
	}
	return out
}
