package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func pingCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the server is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.newClient(a.config, nil)
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.Ping(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "OK")
			return nil
		},
	}
}
