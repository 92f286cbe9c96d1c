package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the notifier reads from the environment
type Config struct {
	Port        string
	ReleaseMode bool

	// Database
	DatabaseDSN string

	// Civil timezone used for event times and daily job boundaries
	TZOffset string
	Location *time.Location

	// Dispatch
	DispatchInterval  time.Duration
	DispatchBatchSize int

	// Retention of terminal tasks
	RetentionDays      int
	RetentionBatchSize int
	RetentionCron      string

	// Attachment cleanup
	AttachmentRetentionDays int
	AttachmentCron          string

	// Push transport
	PushAPIURL      string
	PushAccessToken string
	PushChunkSize   int

	// Cloudinary
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	// HTTP triggers
	TriggerAudience    string
	CORSAllowedOrigins []string

	// Logging
	LogLevel string
	LogFile  string

	RiverWorkers int
}

// Load reads a .env file when present and builds the Config from the environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}

	cfg := &Config{
		Port:                    getEnv("PORT", "8080"),
		ReleaseMode:             os.Getenv("GIN_MODE") == "release",
		TZOffset:                getEnv("APP_TZ_OFFSET", "+09:00"),
		DispatchBatchSize:       getEnvInt("DISPATCH_BATCH_SIZE", 100),
		RetentionDays:           getEnvInt("RETENTION_DAYS", 7),
		RetentionBatchSize:      getEnvInt("RETENTION_BATCH_SIZE", 500),
		RetentionCron:           getEnv("RETENTION_CRON", "0 3 * * *"),
		AttachmentRetentionDays: getEnvInt("ATTACHMENT_RETENTION_DAYS", 90),
		AttachmentCron:          getEnv("ATTACHMENT_CRON", "30 3 * * *"),
		PushAPIURL:              getEnv("PUSH_API_URL", "https://exp.host/--/api/v2/push/send"),
		PushAccessToken:         os.Getenv("PUSH_ACCESS_TOKEN"),
		PushChunkSize:           getEnvInt("PUSH_CHUNK_SIZE", 100),
		CloudinaryCloudName:     os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:        os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret:     os.Getenv("CLOUDINARY_API_SECRET"),
		TriggerAudience:         os.Getenv("TRIGGER_AUDIENCE"),
		CORSAllowedOrigins:      splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		LogFile:                 os.Getenv("LOG_FILE"),
		RiverWorkers:            getEnvInt("RIVER_WORKERS", 10),
	}

	interval, err := time.ParseDuration(getEnv("DISPATCH_INTERVAL", "1m"))
	if err != nil {
		return nil, fmt.Errorf("invalid DISPATCH_INTERVAL: %w", err)
	}
	cfg.DispatchInterval = interval

	cfg.Location, err = ParseOffset(cfg.TZOffset)
	if err != nil {
		return nil, err
	}

	cfg.DatabaseDSN, err = databaseDSN(cfg.ReleaseMode)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// ParseOffset turns "+09:00" style offsets into a fixed time.Location
func ParseOffset(offset string) (*time.Location, error) {
	t, err := time.Parse("-07:00", strings.TrimSpace(offset))
	if err != nil {
		return nil, fmt.Errorf("invalid timezone offset %q: %w", offset, err)
	}
	_, seconds := t.Zone()
	return time.FixedZone("UTC"+offset, seconds), nil
}

// databaseDSN picks the connection string the same way in every environment
func databaseDSN(release bool) (string, error) {
	if release {
		// In production, use the platform DATABASE_URL
		return getEnvRequired("DATABASE_URL")
	}

	// In development, use individual connection parameters
	var missing []string
	lookup := func(key string) string {
		v, err := getEnvRequired(key)
		if err != nil {
			missing = append(missing, key)
		}
		return v
	}
	host := lookup("DB_HOST")
	user := lookup("DB_USER")
	password := lookup("DB_PASSWORD")
	dbname := lookup("DB_NAME")
	port := lookup("DB_PORT")
	if len(missing) > 0 {
		return "", fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	sslMode := getEnv("DB_SSL_MODE", "disable")
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC connect_timeout=10",
		host, user, password, dbname, port, sslMode), nil
}

func getEnvRequired(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value, nil
	}
	return "", fmt.Errorf("required environment variable %s is not set", key)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		log.Printf("Warning: ignoring invalid %s=%q, using %d", key, value, fallback)
		return fallback
	}
	return n
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
