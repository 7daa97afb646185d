package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/otpmail/internal/logging"
	"github.com/dmitrijs2005/otpmail/internal/server/models"
	"github.com/dmitrijs2005/otpmail/internal/server/services"
	"github.com/dmitrijs2005/otpmail/internal/wire"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// messageService is what the handlers need from services.MessageService.
type messageService interface {
	Send(ctx context.Context, sender string, in services.SendInput) (*services.SendResult, error)
	Decrypt(ctx context.Context, requester string, id int64) (*services.DecryptResult, error)
	DownloadAttachment(ctx context.Context, requester string, id int64) (*services.Attachment, error)
	ListSent(ctx context.Context, sender string) ([]*models.MessageSummary, error)
	ListInbox(ctx context.Context, recipient string) ([]*models.MessageSummary, error)
}

type GRPCServer struct {
	address   string
	messages  messageService
	logger    logging.Logger
	jwtSecret []byte
}

func NewGRPCServer(a string, l logging.Logger, ms messageService, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		messages:  ms,
		jwtSecret: []byte(secretKey),
	}
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {
	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))

	wire.RegisterMessageServiceServer(srv, s)

	hs := health.NewServer()
	hs.SetServingStatus(wire.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		hs.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
