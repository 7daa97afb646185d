package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/otpmail/internal/wire"
	"github.com/spf13/cobra"
)

func inboxCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "inbox",
		Short: "List messages addressed to you",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.list(cmd.Context(), "FROM", func(ctx context.Context, c messageClient) ([]wire.MessageSummary, error) {
				return c.Inbox(ctx)
			})
		},
	}
}

func sentCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sent",
		Short: "List messages you sent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.list(cmd.Context(), "TO", func(ctx context.Context, c messageClient) ([]wire.MessageSummary, error) {
				return c.Sent(ctx)
			})
		},
	}
}

func (a *App) list(ctx context.Context, peerHeader string, fetch func(context.Context, messageClient) ([]wire.MessageSummary, error)) error {
	return a.withClient(func(c messageClient) error {
		msgs, err := fetch(ctx, c)
		if err != nil {
			return err
		}
		if len(msgs) == 0 {
			fmt.Fprintln(a.out, "No messages.")
			return nil
		}

		w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "ID\t%s\tREAD\tERROR RATE\tATTACHMENT\tCREATED\n", peerHeader)
		for _, m := range msgs {
			peer := m.Sender
			if peerHeader == "TO" {
				peer = m.Recipient
			}
			read := "no"
			if m.IsRead {
				read = "yes"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%.4f\t%s\t%s\n",
				m.ID, peer, read, m.ErrorRate, m.AttachmentName, m.CreatedAt.Format(time.RFC3339))
		}
		return w.Flush()
	})
}
