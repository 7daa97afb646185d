package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/otpmail/internal/client/client"
	"github.com/dmitrijs2005/otpmail/internal/client/config"
	"github.com/dmitrijs2005/otpmail/internal/server/auth"
	"github.com/dmitrijs2005/otpmail/internal/wire"
)

// DefaultTokenValidity is used when minting tokens with --as.
const DefaultTokenValidity = 24 * time.Hour

// messageClient is what the commands need from client.GRPCClient.
type messageClient interface {
	Send(ctx context.Context, to, subject, body string, attachment *wire.Attachment) (*wire.SendResponse, error)
	Decrypt(ctx context.Context, id int64) (*wire.DecryptResponse, error)
	DownloadAttachment(ctx context.Context, id int64) (*wire.AttachmentResponse, error)
	Sent(ctx context.Context) ([]wire.MessageSummary, error)
	Inbox(ctx context.Context) ([]wire.MessageSummary, error)
	Ping(ctx context.Context) error
	Close() error
}

type App struct {
	config *config.Config
	reader *bufio.Reader
	out    io.Writer

	configPath string
	server     string
	token      string
	timeout    time.Duration
	as         string
	secret     string

	// getPassword and newClient are seams for tests.
	getPassword func(w io.Writer, prompt string) ([]byte, error)
	newClient   func(cfg *config.Config, refresh client.TokenRefresher) (messageClient, error)
}

func NewApp(in io.Reader, out io.Writer) *App {
	return &App{
		reader:      bufio.NewReader(in),
		out:         out,
		getPassword: GetPassword,
		newClient:   dialClient,
	}
}

func dialClient(cfg *config.Config, refresh client.TokenRefresher) (messageClient, error) {
	return client.NewMessageClient(cfg.ServerEndpointAddr, cfg.AccessToken,
		client.WithTimeout(cfg.RequestTimeout),
		client.WithTokenRefresher(refresh),
	)
}

// secretKey returns the server signing secret from --secret, OTPMAIL_SECRET
// or an interactive prompt, in that order.
func (a *App) secretKey() ([]byte, error) {
	if a.secret != "" {
		return []byte(a.secret), nil
	}
	if v := os.Getenv("OTPMAIL_SECRET"); v != "" {
		return []byte(v), nil
	}
	secret, err := a.getPassword(a.out, "Enter server secret: ")
	if err != nil {
		return nil, fmt.Errorf("read secret: %w", err)
	}
	if len(secret) == 0 {
		return nil, fmt.Errorf("empty secret")
	}
	return secret, nil
}

// connect opens a client. With --as set, a token is minted locally when none
// was given and kept fresh through the client's refresher.
func (a *App) connect() (messageClient, error) {
	var refresh client.TokenRefresher

	if a.as != "" {
		secret, err := a.secretKey()
		if err != nil {
			return nil, err
		}
		address := a.as
		refresh = func() (string, error) {
			return auth.GenerateToken(address, secret, DefaultTokenValidity)
		}
		if a.config.AccessToken == "" {
			token, err := refresh()
			if err != nil {
				return nil, err
			}
			a.config.AccessToken = token
		}
	}

	if a.config.AccessToken == "" {
		return nil, fmt.Errorf("no access token: use --token, OTPMAIL_TOKEN or --as")
	}

	return a.newClient(a.config, refresh)
}

func (a *App) withClient(fn func(c messageClient) error) error {
	c, err := a.connect()
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}
