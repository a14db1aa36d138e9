package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends.
const (
	BackendCSV     = "csv"
	BackendMongoDB = "mongodb"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	MongoDB   MongoDBConfig
	Auth      AuthConfig
	Log       LogConfig
	Sheets    SheetsConfig
	Reporting ReportingConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port           string
	APIURL         string
	StaticDir      string
	AllowedOrigins []string
}

// StorageConfig selects the record store.
type StorageConfig struct {
	Backend string
	CSVFile string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
	Layout string
}

// AuthConfig holds token settings and the single operator identity.
type AuthConfig struct {
	JWTSecret         string
	TokenTTL          time.Duration
	AdminEmail        string
	AdminPasswordHash string
	AdminName         string
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level string
	File  string
}

// SheetsConfig contains configuration required to mirror records to Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	Range           string
	SyncSchedule    string
}

// Enabled reports whether both the credentials and the spreadsheet are configured.
func (s SheetsConfig) Enabled() bool {
	return s.CredentialsPath != "" && s.SpreadsheetID != ""
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	CronSchedule string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	ttl, err := ParseTokenTTL(getenvWithDefault("JWT_EXPIRES_IN", "30m"))
	if err != nil {
		return nil, err
	}

	port := getenvWithDefault("PORT", "3000")

	cfg := &Config{
		Server: ServerConfig{
			Port:           port,
			APIURL:         getenvWithDefault("API_URL", "http://localhost:"+port),
			StaticDir:      os.Getenv("STATIC_DIR"),
			AllowedOrigins: splitList(getenvWithDefault("CORS_ALLOWED_ORIGINS", "*")),
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(getenvWithDefault("STORAGE_BACKEND", BackendCSV)),
			CSVFile: getenvWithDefault("CSV_FILE", "data.csv"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "rtm-traders"),
			Layout: strings.ToLower(getenvWithDefault("MONGODB_LAYOUT", "monthly")),
		},
		Auth: AuthConfig{
			JWTSecret:         os.Getenv("JWT_SECRET"),
			TokenTTL:          ttl,
			AdminEmail:        os.Getenv("ADMIN_EMAIL"),
			AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
			AdminName:         os.Getenv("ADMIN_NAME"),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
			File:  os.Getenv("LOG_FILE"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
			Range:           getenvWithDefault("SHEETS_RANGE", "Records!A:K"),
			SyncSchedule:    os.Getenv("SHEETS_SYNC_SCHEDULE"),
		},
		Reporting: ReportingConfig{
			CronSchedule: getenvWithDefault("REPORT_CRON_SCHEDULE", "0 20 * * 5"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	port, err := strconv.Atoi(c.Server.Port)
	if err != nil {
		return fmt.Errorf("invalid port '%s': must be a number", c.Server.Port)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", port)
	}

	switch c.Storage.Backend {
	case BackendCSV:
		if c.Storage.CSVFile == "" {
			return errors.New("CSV_FILE must not be empty")
		}
	case BackendMongoDB:
		if c.MongoDB.URI == "" {
			return errors.New("MONGODB_URI must be provided for the mongodb backend")
		}
		if c.MongoDB.DBName == "" {
			return errors.New("MONGODB_DB_NAME must not be empty")
		}
		if c.MongoDB.Layout != "monthly" && c.MongoDB.Layout != "single" {
			return fmt.Errorf("invalid MONGODB_LAYOUT '%s': must be one of [monthly single]", c.MongoDB.Layout)
		}
	default:
		return fmt.Errorf("invalid storage backend '%s': must be one of [csv mongodb]", c.Storage.Backend)
	}

	switch {
	case c.Auth.JWTSecret == "":
		return errors.New("JWT_SECRET must be provided")
	case c.Auth.TokenTTL <= 0:
		return errors.New("JWT_EXPIRES_IN must be positive")
	case c.Auth.AdminEmail == "":
		return errors.New("ADMIN_EMAIL must be provided")
	case c.Auth.AdminPasswordHash == "":
		return errors.New("ADMIN_PASSWORD_HASH must be provided")
	}

	if c.Auth.AdminName == "" {
		c.Auth.AdminName = c.Auth.AdminEmail
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_DATABASE_ID must be set together")
	}
	if c.Sheets.Enabled() && c.Sheets.Range == "" {
		return errors.New("SHEETS_RANGE must not be empty")
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}

	return nil
}

// ParseTokenTTL accepts Go durations ("30m", "12h"), whole days ("7d") or a
// plain number of seconds ("3600").
func ParseTokenTTL(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, errors.New("JWT_EXPIRES_IN must not be empty")
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}

	if days, ok := strings.CutSuffix(value, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid JWT_EXPIRES_IN '%s'", value)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}

	ttl, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid JWT_EXPIRES_IN '%s': %w", value, err)
	}
	return ttl, nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
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
