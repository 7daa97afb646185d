package config

import (
	"fmt"
	"os"
	"time"
)

func parseEnv(cfg *Config) error {
	if v, ok := os.LookupEnv("OTPMAIL_SERVER"); ok {
		cfg.ServerEndpointAddr = v
	}
	if v, ok := os.LookupEnv("OTPMAIL_TOKEN"); ok {
		cfg.AccessToken = v
	}
	if v, ok := os.LookupEnv("OTPMAIL_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("OTPMAIL_TIMEOUT: %w", err)
		}
		cfg.RequestTimeout = d
	}
	return nil
}
