package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"endpoint_addr_grpc":             "www.example:9000",
		"storage_backend":                "badger",
		"database_dsn":                   "otpmail.db",
		"badger_dir":                     "/var/lib/otpmail",
		"secret_key":                     "my_secret_key",
		"access_token_validity_duration": "1m",
		"log_level":                      "debug",
		"qrng_api_url":                   "https://qrng.example/api",
		"qrng_api_key":                   "apikey",
		"qrng_timeout":                   "2s",
		"qrng_batch_size":                512,
		"entropy_retries":                5,
		"entropy_retry_delay":            int64(time.Second),
		"min_key_length":                 256,
		"key_sizing":                     "legacy",
		"smtp_addr":                      "smtp.example:587",
		"smtp_user":                      "mailer",
		"smtp_password":                  "pw",
		"mail_from":                      "otp@example.com",
		"s3_root_user":                   "user",
		"s3_root_password":               "password",
		"s3_bucket":                      "bucket",
		"s3_region":                      "region",
		"s3_base_endpoint":               "base_endpoint",
		"max_attachment_size":            1024,
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		parseJson(cfg)

		assert.Equal(t, "www.example:9000", cfg.EndpointAddrGRPC)
		assert.Equal(t, "badger", cfg.StorageBackend)
		assert.Equal(t, "otpmail.db", cfg.DatabaseDSN)
		assert.Equal(t, "/var/lib/otpmail", cfg.BadgerDir)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, 1*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, "https://qrng.example/api", cfg.QRNGURL)
		assert.Equal(t, "apikey", cfg.QRNGAPIKey)
		assert.Equal(t, 2*time.Second, cfg.QRNGTimeout)
		assert.Equal(t, 512, cfg.QRNGBatchSize)
		assert.Equal(t, 5, cfg.EntropyRetries)
		assert.Equal(t, time.Second, cfg.EntropyRetryDelay)
		assert.Equal(t, 256, cfg.MinKeyLength)
		assert.Equal(t, "legacy", cfg.KeySizing)
		assert.Equal(t, "smtp.example:587", cfg.SMTPAddr)
		assert.Equal(t, "mailer", cfg.SMTPUser)
		assert.Equal(t, "pw", cfg.SMTPPassword)
		assert.Equal(t, "otp@example.com", cfg.MailFrom)
		assert.Equal(t, "user", cfg.S3RootUser)
		assert.Equal(t, "password", cfg.S3RootPassword)
		assert.Equal(t, "bucket", cfg.S3Bucket)
		assert.Equal(t, "region", cfg.S3Region)
		assert.Equal(t, "base_endpoint", cfg.S3BaseEndpoint)
		assert.Equal(t, 1024, cfg.MaxAttachmentSize)
	})

	t.Run("partial file keeps other values", func(t *testing.T) {
		partial := writeTempJSON(t, dir, "partial.json", map[string]any{
			"secret_key": "rotated",
		})
		os.Args = []string{"testbin", "-c", partial}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "rotated", cfg.SecretKey)
		assert.Equal(t, ":50051", cfg.EndpointAddrGRPC)
		assert.Equal(t, 24*time.Hour, cfg.AccessTokenValidityDuration)
	})

	t.Run("no CONFIG and no flags → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{
			EndpointAddrGRPC:            "defaults:1234",
			DatabaseDSN:                 "otpmail.db",
			SecretKey:                   "key",
			AccessTokenValidityDuration: 2 * time.Minute,
			S3Bucket:                    "s3bucket",
		}
		parseJson(cfg)

		assert.Equal(t, "defaults:1234", cfg.EndpointAddrGRPC)
		assert.Equal(t, "otpmail.db", cfg.DatabaseDSN)
		assert.Equal(t, "key", cfg.SecretKey)
		assert.Equal(t, 2*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, "s3bucket", cfg.S3Bucket)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})

	t.Run("missing file → panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", filepath.Join(dir, "absent.json")}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})
}
