// Package cli implements the otpmail command-line client.
//
// Commands: token, send, decrypt, download, inbox, sent, ping. Global flags
// --config, --server, --token and --timeout override the values loaded by the
// config package. With --as (plus --secret or OTPMAIL_SECRET) the CLI mints
// its own access token and re-mints it when the server reports expiry.
package cli
