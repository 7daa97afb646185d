package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/otpmail/internal/wire"
	"github.com/spf13/cobra"
)

// send <to>: encrypt and mail a message, optionally with one attachment.
func sendCmd(a *App) *cobra.Command {
	var subject, body, bodyFile, attach string

	cmd := &cobra.Command{
		Use:   "send <to>",
		Short: "Encrypt and send a message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case bodyFile != "":
				b, err := os.ReadFile(bodyFile)
				if err != nil {
					return fmt.Errorf("read body: %w", err)
				}
				body = string(b)
			case body == "":
				b, err := GetMultiline(a.reader, "Enter message body", a.out)
				if err != nil {
					return err
				}
				body = b
			}

			var att *wire.Attachment
			if attach != "" {
				content, err := os.ReadFile(attach)
				if err != nil {
					return fmt.Errorf("read attachment: %w", err)
				}
				att = &wire.Attachment{Name: filepath.Base(attach), Content: content}
			}

			return a.withClient(func(c messageClient) error {
				res, err := c.Send(cmd.Context(), args[0], subject, body, att)
				if err != nil {
					return err
				}

				fmt.Fprintf(a.out, "Message %d %s\n", res.ID, res.Status)
				fmt.Fprintf(a.out, "Error rate: %.4f\n", res.ErrorRate)
				fmt.Fprintf(a.out, "Key fingerprint: %s\n", res.KeyFingerprint)
				fmt.Fprintf(a.out, "Encrypted subject: %s\n", res.EncryptedSubject)
				fmt.Fprintf(a.out, "Encrypted body: %s\n", res.EncryptedBody)
				if res.AttachmentName != "" {
					fmt.Fprintf(a.out, "Attachment: %s (%d hex chars)\n", res.AttachmentName, len(res.EncryptedAttachment))
				}
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&subject, "subject", "", "message subject")
	f.StringVarP(&body, "body", "b", "", "message body (prompted when empty)")
	f.StringVar(&bodyFile, "body-file", "", "read the body from a file")
	f.StringVarP(&attach, "attach", "a", "", "file to attach")
	cmd.MarkFlagsMutuallyExclusive("body", "body-file")
	return cmd
}
