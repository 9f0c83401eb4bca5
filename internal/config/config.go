package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration
type Config struct {
	HTTPAddr string
	LogLevel string
	// SiteURL is the public address quoted in invitations
	SiteURL string

	DBDriver string
	DBDSN    string

	SessionSecret string
	SessionTTL    time.Duration
	DefaultRegion string

	RedisURL string
	CodeTTL  time.Duration

	MediaBackend  string
	MediaDir      string
	MediaBaseURL  string
	MediaMaxBytes int64
	S3Bucket      string
	S3Region      string
	// S3PublicURL overrides the bucket's default public URL
	S3PublicURL string

	WhatsAppEnabled bool
	WhatsAppDataDir string

	GoogleServiceAccountJSON string

	WeddingDate     string
	WeddingLocation string
	BrideName       string
	GroomName       string
}

// LoadConfig loads configuration from environment variables or defaults
func LoadConfig() (*Config, error) {
	cfg := &Config{
		HTTPAddr:                 getEnv("HTTP_ADDR", ":8080"),
		LogLevel:                 getEnv("LOG_LEVEL", "info"),
		SiteURL:                  strings.TrimRight(getEnv("SITE_URL", "http://localhost:8080"), "/"),
		DBDriver:                 getEnv("DB_DRIVER", "sqlite"),
		DBDSN:                    getEnv("DB_DSN", "data/wedding.db"),
		SessionSecret:            strings.TrimSpace(os.Getenv("SESSION_SECRET")),
		DefaultRegion:            strings.ToUpper(getEnv("DEFAULT_REGION", "PK")),
		RedisURL:                 strings.TrimSpace(os.Getenv("REDIS_URL")),
		MediaBackend:             getEnv("MEDIA_BACKEND", "dir"),
		MediaDir:                 getEnv("MEDIA_DIR", "data/media"),
		MediaBaseURL:             strings.TrimRight(getEnv("MEDIA_BASE_URL", "/media"), "/"),
		S3Bucket:                 getEnv("S3_BUCKET", "slide-backgrounds"),
		S3Region:                 getEnv("S3_REGION", "us-east-1"),
		S3PublicURL:              strings.TrimRight(os.Getenv("S3_PUBLIC_URL"), "/"),
		WhatsAppDataDir:          getEnv("WHATSAPP_DATA_DIR", "data"),
		GoogleServiceAccountJSON: strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")),
		WeddingDate:              getEnv("WEDDING_DATE", "Saturday, January 1, 2025"),
		WeddingLocation:          getEnv("WEDDING_LOCATION", "Venue TBD"),
		BrideName:                getEnv("BRIDE_NAME", "Bride"),
		GroomName:                getEnv("GROOM_NAME", "Groom"),
	}

	var err error
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 30*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.CodeTTL, err = getDuration("CODE_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.MediaMaxBytes, err = getInt64("MEDIA_MAX_BYTES", 50<<20); err != nil {
		return nil, err
	}
	if cfg.WhatsAppEnabled, err = getBool("WHATSAPP_ENABLED", false); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is empty")
	}
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown DB_DRIVER: %s", c.DBDriver)
	}
	switch c.MediaBackend {
	case "dir", "s3":
	default:
		return fmt.Errorf("unknown MEDIA_BACKEND: %s", c.MediaBackend)
	}
	if len(c.DefaultRegion) != 2 {
		return fmt.Errorf("DEFAULT_REGION must be a two-letter region code, got %q", c.DefaultRegion)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getInt64(key string, defaultValue int64) (int64, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}
