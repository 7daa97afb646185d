package cli

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/otpmail/internal/common"
	"github.com/dmitrijs2005/otpmail/internal/server/auth"
	"github.com/spf13/cobra"
)

// token <address>: mint an access token signed with the server secret.
func tokenCmd(a *App) *cobra.Command {
	var validity time.Duration

	cmd := &cobra.Command{
		Use:   "token <address>",
		Short: "Mint an access token for a sender address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := a.secretKey()
			if err != nil {
				return err
			}
			defer common.WipeByteArray(secret)

			token, err := auth.GenerateToken(args[0], secret, validity)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&validity, "validity", DefaultTokenValidity, "token lifetime")
	return cmd
}
