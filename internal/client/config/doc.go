// Package config loads runtime configuration for the otpmail CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file given with --config.
//  3. Environment variables OTPMAIL_SERVER, OTPMAIL_TOKEN, OTPMAIL_TIMEOUT.
//
// Command-line flags are applied afterwards by the cli package.
//
// # JSON schema
//
// The JSON loader uses timex.Duration for the timeout, so values can be either
// strings like "30s" or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "access_token": "eyJ...",
//	  "request_timeout": "30s"
//	}
package config
