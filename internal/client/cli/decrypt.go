package cli

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/dmitrijs2005/otpmail/internal/filex"
	"github.com/spf13/cobra"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid message id %q", s)
	}
	return id, nil
}

// decrypt <id>: print the plaintext of a stored message.
func decryptCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "decrypt <id>",
		Short: "Decrypt a stored message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return a.withClient(func(c messageClient) error {
				m, err := c.Decrypt(cmd.Context(), id)
				if err != nil {
					return err
				}

				fmt.Fprintf(a.out, "Message %d\n", m.ID)
				fmt.Fprintf(a.out, "From: %s\n", m.Sender)
				fmt.Fprintf(a.out, "To: %s\n", m.Recipient)
				fmt.Fprintf(a.out, "Subject: %s\n", m.Subject)
				if m.Attachment != nil {
					fmt.Fprintf(a.out, "Attachment: %s\n", m.Attachment.Name)
				}
				fmt.Fprintf(a.out, "\n%s\n", m.Body)
				return nil
			})
		},
	}
}

// download <id>: decrypt the attachment of a message and save it.
func downloadCmd(a *App) *cobra.Command {
	var dir, out string

	cmd := &cobra.Command{
		Use:   "download <id>",
		Short: "Decrypt and save a message attachment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return a.withClient(func(c messageClient) error {
				att, err := c.DownloadAttachment(cmd.Context(), id)
				if err != nil {
					return err
				}

				path := out
				if path == "" {
					d, err := filex.EnsureSubdDir(dir)
					if err != nil {
						return err
					}
					path = filepath.Join(d, filex.SafeName(att.Name, fmt.Sprintf("attachment-%d", id)))
				}

				if err := filex.WriteNew(path, att.Content); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Saved %s (%d bytes)\n", path, len(att.Content))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "downloads", "directory for saved attachments")
	cmd.Flags().StringVarP(&out, "out", "o", "", "exact output path (overrides --dir)")
	return cmd
}
