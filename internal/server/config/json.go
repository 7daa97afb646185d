package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/otpmail/internal/flagx"
	"github.com/dmitrijs2005/otpmail/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "1s" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON configuration
// files. Only fields present in the file override the current Config.
type JsonConfig struct {
	EndpointAddrGRPC            *string         `json:"endpoint_addr_grpc"`
	StorageBackend              *string         `json:"storage_backend"`
	DatabaseDSN                 *string         `json:"database_dsn"`
	BadgerDir                   *string         `json:"badger_dir"`
	SecretKey                   *string         `json:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	LogLevel                    *string         `json:"log_level"`

	QRNGURL           *string         `json:"qrng_api_url"`
	QRNGAPIKey        *string         `json:"qrng_api_key"`
	QRNGTimeout       *timex.Duration `json:"qrng_timeout"`
	QRNGBatchSize     *int            `json:"qrng_batch_size"`
	EntropyRetries    *int            `json:"entropy_retries"`
	EntropyRetryDelay *timex.Duration `json:"entropy_retry_delay"`
	MinKeyLength      *int            `json:"min_key_length"`
	KeySizing         *string         `json:"key_sizing"`

	SMTPAddr     *string `json:"smtp_addr"`
	SMTPUser     *string `json:"smtp_user"`
	SMTPPassword *string `json:"smtp_password"`
	MailFrom     *string `json:"mail_from"`

	S3RootUser        *string `json:"s3_root_user"`
	S3RootPassword    *string `json:"s3_root_password"`
	S3Bucket          *string `json:"s3_bucket"`
	S3Region          *string `json:"s3_region"`
	S3BaseEndpoint    *string `json:"s3_base_endpoint"`
	MaxAttachmentSize *int    `json:"max_attachment_size"`
}

// parseJson loads configuration values from the JSON file named by the -c or
// -config flag into config. Without the flag nothing is loaded. An unreadable
// file or invalid JSON panics.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	set(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	set(&config.StorageBackend, c.StorageBackend)
	set(&config.DatabaseDSN, c.DatabaseDSN)
	set(&config.BadgerDir, c.BadgerDir)
	set(&config.SecretKey, c.SecretKey)
	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	set(&config.LogLevel, c.LogLevel)

	set(&config.QRNGURL, c.QRNGURL)
	set(&config.QRNGAPIKey, c.QRNGAPIKey)
	setDuration(&config.QRNGTimeout, c.QRNGTimeout)
	set(&config.QRNGBatchSize, c.QRNGBatchSize)
	set(&config.EntropyRetries, c.EntropyRetries)
	setDuration(&config.EntropyRetryDelay, c.EntropyRetryDelay)
	set(&config.MinKeyLength, c.MinKeyLength)
	set(&config.KeySizing, c.KeySizing)

	set(&config.SMTPAddr, c.SMTPAddr)
	set(&config.SMTPUser, c.SMTPUser)
	set(&config.SMTPPassword, c.SMTPPassword)
	set(&config.MailFrom, c.MailFrom)

	set(&config.S3RootUser, c.S3RootUser)
	set(&config.S3RootPassword, c.S3RootPassword)
	set(&config.S3Bucket, c.S3Bucket)
	set(&config.S3Region, c.S3Region)
	set(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	set(&config.MaxAttachmentSize, c.MaxAttachmentSize)
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
