package config

import (
	"os"
	"strconv"
	"strings"
)

// Storage backend selectors.
const (
	StorageDynamo = "dynamo"
	StorageFile   = "file"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	// BaseAPIURL is the URL web clients use to reach this server; served
	// back to them via the runtime-config endpoint.
	BaseAPIURL string

	StorageBackend string // "dynamo" or "file"
	FileStorePath  string // directory for the file backend

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	GoogleClientID    string
	BlockRegistration bool

	VAPIDPublicKey  string
	VAPIDPrivateKey string
	PushSubject     string // contact claim embedded in VAPID signatures
	PushTTLSeconds  int

	// SchedulerPeriodSeconds is the interval between reveal/notification
	// sweeps. SchedulerToken, when set, switches to serverless mode: the
	// ticker is not started and sweeps run only via the authenticated
	// trigger endpoint.
	SchedulerPeriodSeconds int
	SchedulerToken         string

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users    string
	Messages string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:    getEnv("APP_PORT", "8080"),
		AppEnv:     getEnv("APP_ENV", "development"),
		BaseAPIURL: getEnv("BASE_API_URL", "http://localhost:8080"),

		StorageBackend: getEnv("STORAGE_BACKEND", StorageFile),
		FileStorePath:  getEnv("FILE_STORE_PATH", "./db"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:    getEnv("DYNAMO_TABLE_USERS", "users"),
			Messages: getEnv("DYNAMO_TABLE_MESSAGES", "messages"),
		},

		GoogleClientID:    getEnv("GOOGLE_CLIENT_ID", ""),
		BlockRegistration: getEnvBool("BLOCK_REGISTRATION", false),

		VAPIDPublicKey:  getEnv("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey: getEnv("VAPID_PRIVATE_KEY", ""),
		PushSubject:     getEnv("PUSH_SUBJECT", "admin@localhost"),
		PushTTLSeconds:  getEnvInt("PUSH_TTL_SECONDS", 1000),

		SchedulerPeriodSeconds: getEnvInt("SCHEDULER_PERIOD_SECONDS", 3600),
		SchedulerToken:         getEnv("SCHEDULER_TOKEN", ""),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", "25"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
