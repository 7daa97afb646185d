package cli

import (
	"context"
	"os"

	"github.com/dmitrijs2005/otpmail/internal/client/config"
	"github.com/spf13/cobra"
)

// NewRootCommand builds the command tree around a.
func NewRootCommand(a *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "otpmail",
		Short:         "One-time-pad mail client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(a.configPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("server") {
				cfg.ServerEndpointAddr = a.server
			}
			if flags.Changed("token") {
				cfg.AccessToken = a.token
			}
			if flags.Changed("timeout") {
				cfg.RequestTimeout = a.timeout
			}
			a.config = cfg
			return nil
		},
	}

	root.SetOut(a.out)
	root.SetErr(a.out)

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "JSON config file")
	pf.StringVarP(&a.server, "server", "s", "", "server address (host:port)")
	pf.StringVarP(&a.token, "token", "t", "", "access token (default $OTPMAIL_TOKEN)")
	pf.DurationVar(&a.timeout, "timeout", 0, "per-call timeout")
	pf.StringVar(&a.as, "as", "", "mint tokens locally for this sender address")
	pf.StringVar(&a.secret, "secret", "", "server signing secret used with --as (default $OTPMAIL_SECRET)")

	root.AddCommand(
		tokenCmd(a),
		sendCmd(a),
		decryptCmd(a),
		downloadCmd(a),
		inboxCmd(a),
		sentCmd(a),
		pingCmd(a),
	)
	return root
}

// Execute runs the CLI against the process arguments and standard streams.
func Execute(ctx context.Context) error {
	return NewRootCommand(NewApp(os.Stdin, os.Stdout)).ExecuteContext(ctx)
}
