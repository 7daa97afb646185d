// Package server wires configuration, entropy, storage, mail delivery and the
// gRPC endpoint into a runnable otpmail server and handles graceful shutdown.
package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/otpmail/internal/entropy"
	"github.com/dmitrijs2005/otpmail/internal/keygen"
	"github.com/dmitrijs2005/otpmail/internal/logging"
	"github.com/dmitrijs2005/otpmail/internal/server/blobs"
	"github.com/dmitrijs2005/otpmail/internal/server/config"
	"github.com/dmitrijs2005/otpmail/internal/server/mail"
	"github.com/dmitrijs2005/otpmail/internal/server/services"
	"github.com/dmitrijs2005/otpmail/internal/server/store"

	gs "github.com/dmitrijs2005/otpmail/internal/server/grpc"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	store    store.Store
	messages *services.MessageService
}

// NewApp builds every server component from c. Logs go to out as JSON.
func NewApp(ctx context.Context, c *config.Config, out io.Writer) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logger := logging.NewJSONLogger(out, c.LogLevel)

	source, err := newEntropySource(c, logger)
	if err != nil {
		return nil, fmt.Errorf("entropy init error: %w", err)
	}

	sizing, err := keygen.ParseSizing(c.KeySizing)
	if err != nil {
		return nil, err
	}
	keys := keygen.New(source,
		keygen.WithMinLength(c.MinKeyLength),
		keygen.WithSizing(sizing),
		keygen.WithRetries(c.EntropyRetries),
		keygen.WithRetryDelay(c.EntropyRetryDelay),
	)

	st, err := newStore(ctx, c, logger)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	opts := []services.Option{services.WithMaxAttachmentSize(c.MaxAttachmentSize)}
	if c.S3Bucket != "" {
		bs, err := newBlobStore(ctx, c)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("blob store init error: %w", err)
		}
		opts = append(opts, services.WithBlobStore(bs))
	}

	ms := services.NewMessageService(st, keys, newDeliverer(c, logger), logger, opts...)

	return &App{config: c, logger: logger, store: st, messages: ms}, nil
}

func newEntropySource(c *config.Config, logger logging.Logger) (entropy.Source, error) {
	local := entropy.NewLocalSource()
	if c.QRNGURL == "" {
		return local, nil
	}

	qrng, err := entropy.NewQRNGSource(c.QRNGURL,
		entropy.WithAPIKey(c.QRNGAPIKey),
		entropy.WithTimeout(c.QRNGTimeout),
		entropy.WithBatchSize(c.QRNGBatchSize),
	)
	if err != nil {
		return nil, err
	}
	return entropy.NewFallbackSource(qrng, local, logger), nil
}

func newStore(ctx context.Context, c *config.Config, logger logging.Logger) (store.Store, error) {
	if c.StorageBackend == config.StorageBadger {
		return store.OpenBadgerStore(c.BadgerDir, logger)
	}
	return store.OpenSQLStore(ctx, c.DatabaseDSN)
}

func newDeliverer(c *config.Config, logger logging.Logger) mail.Deliverer {
	if c.SMTPAddr == "" {
		return mail.NewLogDeliverer(logger)
	}
	return mail.NewSMTPDeliverer(mail.SMTPConfig{
		Addr:     c.SMTPAddr,
		Username: c.SMTPUser,
		Password: c.SMTPPassword,
		From:     c.MailFrom,
	})
}

func newBlobStore(ctx context.Context, c *config.Config) (blobs.Store, error) {
	client, err := blobs.NewS3Client(ctx, blobs.S3Config{
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
		Bucket:       c.S3Bucket,
	})
	if err != nil {
		return nil, err
	}
	return blobs.NewS3Store(client, c.S3Bucket), nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.messages, app.config.SecretKey)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// closes the store.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "addr", app.config.EndpointAddrGRPC, "storage", app.config.StorageBackend)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.logger.Info(context.Background(), "Stopping app...")
	return app.store.Close()
}
