package config

import (
	"os"
	"strconv"
	"time"
)

// parseEnv overlays Config fields from environment variables. Unset or
// malformed values leave the current value untouched.
//
// Recognized variables:
//
//	HTTP_ADDR, DATABASE_DSN, SECRET_KEY,
//	ACCESS_TOKEN_VALIDITY, REFRESH_TOKEN_VALIDITY, VERIFICATION_TOKEN_VALIDITY,
//	REQUIRE_VERIFIED_EMAIL, SWEEP_INTERVAL, AUTH_RATE_LIMIT,
//	S3_ROOT_USER, S3_ROOT_PASSWORD, S3_BUCKET, S3_REGION, S3_BASE_ENDPOINT,
//	S3_PRESIGN_TTL, SMTP_HOST, SMTP_PORT, MAIL_FROM, METRICS_PASSWORD
//
// Durations accept Go syntax ("15m", "720h").
func parseEnv(config *Config) {
	setString(&config.HTTPAddr, "HTTP_ADDR")
	setString(&config.DatabaseDSN, "DATABASE_DSN")
	setString(&config.SecretKey, "SECRET_KEY")
	setDuration(&config.AccessTokenValidity, "ACCESS_TOKEN_VALIDITY")
	setDuration(&config.RefreshTokenValidity, "REFRESH_TOKEN_VALIDITY")
	setDuration(&config.VerificationTokenValidity, "VERIFICATION_TOKEN_VALIDITY")
	setBool(&config.RequireVerifiedEmail, "REQUIRE_VERIFIED_EMAIL")
	setDuration(&config.SweepInterval, "SWEEP_INTERVAL")
	setString(&config.AuthRateLimit, "AUTH_RATE_LIMIT")
	setString(&config.S3RootUser, "S3_ROOT_USER")
	setString(&config.S3RootPassword, "S3_ROOT_PASSWORD")
	setString(&config.S3Bucket, "S3_BUCKET")
	setString(&config.S3Region, "S3_REGION")
	setString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")
	setDuration(&config.S3PresignTTL, "S3_PRESIGN_TTL")
	setString(&config.SMTPHost, "SMTP_HOST")
	setInt(&config.SMTPPort, "SMTP_PORT")
	setString(&config.MailFrom, "MAIL_FROM")
	setString(&config.MetricsPassword, "METRICS_PASSWORD")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
