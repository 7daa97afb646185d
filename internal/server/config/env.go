package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/otpmail/internal/flagx"
	"github.com/joho/godotenv"
)

const envPrefix = "OTPMAIL_"

// parseEnv loads a dotenv file (given with -env, otherwise ./.env when it
// exists) and then reads OTPMAIL_* variables. Variables already present in
// the process environment win over the file. Malformed values panic.
func parseEnv(config *Config) {
	if file := flagx.EnvFileFlags(); file != "" {
		if err := godotenv.Load(file); err != nil {
			panic(err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	envString("ADDR", &config.EndpointAddrGRPC)
	envString("STORAGE", &config.StorageBackend)
	envString("DATABASE_DSN", &config.DatabaseDSN)
	envString("BADGER_DIR", &config.BadgerDir)
	envString("SECRET_KEY", &config.SecretKey)
	envDuration("TOKEN_VALIDITY", &config.AccessTokenValidityDuration)
	envString("LOG_LEVEL", &config.LogLevel)

	envString("QRNG_API_URL", &config.QRNGURL)
	envString("QRNG_API_KEY", &config.QRNGAPIKey)
	envDuration("QRNG_TIMEOUT", &config.QRNGTimeout)
	envInt("QRNG_BATCH_SIZE", &config.QRNGBatchSize)
	envInt("ENTROPY_RETRIES", &config.EntropyRetries)
	envDuration("ENTROPY_RETRY_DELAY", &config.EntropyRetryDelay)
	envInt("MIN_KEY_LENGTH", &config.MinKeyLength)
	envString("KEY_SIZING", &config.KeySizing)

	envString("SMTP_ADDR", &config.SMTPAddr)
	envString("SMTP_USER", &config.SMTPUser)
	envString("SMTP_PASSWORD", &config.SMTPPassword)
	envString("MAIL_FROM", &config.MailFrom)

	envString("S3_ROOT_USER", &config.S3RootUser)
	envString("S3_ROOT_PASSWORD", &config.S3RootPassword)
	envString("S3_BUCKET", &config.S3Bucket)
	envString("S3_REGION", &config.S3Region)
	envString("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	envInt("MAX_ATTACHMENT_SIZE", &config.MaxAttachmentSize)
}

func envString(name string, dst *string) {
	if v, ok := os.LookupEnv(envPrefix + name); ok {
		*dst = v
	}
}

func envInt(name string, dst *int) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(err)
	}
	*dst = n
}

func envDuration(name string, dst *time.Duration) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	*dst = d
}
