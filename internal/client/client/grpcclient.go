package client

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/otpmail/internal/common"
	"github.com/dmitrijs2005/otpmail/internal/wire"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// DefaultTimeout bounds a single call when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// MessageAPI is the subset of wire.MessageServiceClient used here.
type MessageAPI interface {
	Send(ctx context.Context, in *wire.SendRequest, opts ...grpc.CallOption) (*wire.SendResponse, error)
	Decrypt(ctx context.Context, in *wire.MessageRequest, opts ...grpc.CallOption) (*wire.DecryptResponse, error)
	DownloadAttachment(ctx context.Context, in *wire.MessageRequest, opts ...grpc.CallOption) (*wire.AttachmentResponse, error)
	ListSent(ctx context.Context, in *wire.ListRequest, opts ...grpc.CallOption) (*wire.ListResponse, error)
	ListInbox(ctx context.Context, in *wire.ListRequest, opts ...grpc.CallOption) (*wire.ListResponse, error)
	Ping(ctx context.Context, in *wire.PingRequest, opts ...grpc.CallOption) (*wire.PingResponse, error)
}

// TokenRefresher returns a fresh access token.
type TokenRefresher func() (string, error)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      MessageAPI
	accessToken string
	refresh     TokenRefresher
	timeout     time.Duration
}

type Option func(*GRPCClient)

func WithTokenRefresher(r TokenRefresher) Option {
	return func(c *GRPCClient) {
		c.refresh = r
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *GRPCClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	if token != "" {
		md.Set(common.AccessTokenHeaderName, token)
	}

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	err := invoker(withAccessToken(ctx, s.accessToken), method, req, reply, cc, opts...)
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	if st.Code() != codes.Unauthenticated || st.Message() != common.ErrTokenExpired.Error() {
		return err
	}
	if s.refresh == nil {
		return err
	}

	token, rerr := s.refresh()
	if rerr != nil {
		return fmt.Errorf("refresh token: %w", rerr)
	}
	s.accessToken = token

	return invoker(withAccessToken(ctx, s.accessToken), method, req, reply, cc, opts...)
}

// NewMessageClient prepares a client for endpointURL. The connection is
// established lazily on the first call.
func NewMessageClient(endpointURL, accessToken string, opts ...Option) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, accessToken: accessToken, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.InitGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient(dialOpts ...grpc.DialOption) error {
	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
	}, dialOpts...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = wire.NewMessageServiceClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Send encrypts and mails a message; attachment may be nil.
func (s *GRPCClient) Send(ctx context.Context, to, subject, body string, attachment *wire.Attachment) (*wire.SendResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.Send(ctx, &wire.SendRequest{To: to, Subject: subject, Body: body, Attachment: attachment})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) Decrypt(ctx context.Context, id int64) (*wire.DecryptResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.Decrypt(ctx, &wire.MessageRequest{ID: id})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) DownloadAttachment(ctx context.Context, id int64) (*wire.AttachmentResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.DownloadAttachment(ctx, &wire.MessageRequest{ID: id})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) Sent(ctx context.Context) ([]wire.MessageSummary, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.ListSent(ctx, &wire.ListRequest{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Messages, nil
}

func (s *GRPCClient) Inbox(ctx context.Context) ([]wire.MessageSummary, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.ListInbox(ctx, &wire.ListRequest{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Messages, nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.Ping(ctx, &wire.PingRequest{})
	if err != nil {
		return s.mapError(err)
	}

	if resp.Status != "OK" {
		return ErrUnavailable
	}

	return nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	case codes.NotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, st.Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidRequest, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
