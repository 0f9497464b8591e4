package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// FileEnv names the environment variable pointing at an optional TOML file.
const FileEnv = "SPENDYZE_CONFIG"

// Backend kinds the web client and CLI can talk to.
const (
	BackendHTTP   = "http"
	BackendMemory = "memory"
)

type Config struct {
	// Web client
	Port            string        `toml:"port"`
	Backend         string        `toml:"backend"`
	BackendURL      string        `toml:"backend_url"`
	SnapshotTimeout time.Duration `toml:"snapshot_timeout"`

	// Model endpoint
	ModelEndpoint string        `toml:"model_endpoint"`
	ModelAPIKey   string        `toml:"model_api_key"`
	ChatTimeout   time.Duration `toml:"chat_timeout"`

	// Logging
	LogLevel string `toml:"log_level"`

	// Backend API
	APIPort      string `toml:"api_port"`
	SQLiteDBPath string `toml:"sqlite_db_path"`

	// AMQP
	AMQPURL      string `toml:"amqp_url"`
	AMQPExchange string `toml:"amqp_exchange"`
	AMQPQueue    string `toml:"amqp_queue"`

	// Google Sheets export
	GoogleSpreadsheetID        string `toml:"google_spreadsheet_id"`
	GoogleSheetName            string `toml:"google_sheet_name"`
	GoogleServiceAccountFile   string `toml:"google_service_account_file"`
	GoogleServiceAccountJSON   string `toml:"google_service_account_json"`
	GoogleApplicationCredsFile string `toml:"-"`

	// Export worker
	ExportBatchSize int           `toml:"export_batch_size"`
	ExportInterval  time.Duration `toml:"export_interval"`

	// Rate limiting on auth and chat endpoints
	RateLimitPerMinute int `toml:"rate_limit_per_minute"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:               "8080",
		Backend:            BackendHTTP,
		BackendURL:         "http://localhost:8081",
		SnapshotTimeout:    10 * time.Second,
		ModelEndpoint:      "https://generativelanguage.googleapis.com/v1beta/models/gemini-pro:generateContent",
		ChatTimeout:        60 * time.Second,
		LogLevel:           "info",
		APIPort:            "8081",
		SQLiteDBPath:       "./data/spendyze.db",
		AMQPExchange:       "spendyze",
		AMQPQueue:          "export_transactions",
		GoogleSheetName:    "Transactions",
		ExportBatchSize:    50,
		ExportInterval:     5 * time.Minute,
		RateLimitPerMinute: 60,
	}
}

// Load reads the configuration from the environment on top of Defaults.
// When SPENDYZE_CONFIG names a TOML file, its values sit between the
// defaults and the environment.
func Load() (*Config, error) {
	base := Defaults()
	if path := strings.TrimSpace(os.Getenv(FileEnv)); path != "" {
		if err := decodeFile(path, &base); err != nil {
			return nil, err
		}
	}
	return fromEnv(base), nil
}

func decodeFile(path string, cfg *Config) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("config file %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return nil
}

func fromEnv(base Config) *Config {
	return &Config{
		Port:            getEnv("PORT", base.Port),
		Backend:         strings.ToLower(getEnv("BACKEND", base.Backend)),
		BackendURL:      getEnv("BACKEND_URL", base.BackendURL),
		SnapshotTimeout: getEnvDuration("SNAPSHOT_TIMEOUT", base.SnapshotTimeout),

		ModelEndpoint: getEnv("MODEL_ENDPOINT", base.ModelEndpoint),
		ModelAPIKey:   getEnv("MODEL_API_KEY", base.ModelAPIKey),
		ChatTimeout:   getEnvDuration("CHAT_TIMEOUT", base.ChatTimeout),

		LogLevel: getEnv("LOG_LEVEL", base.LogLevel),

		APIPort:      getEnv("API_PORT", base.APIPort),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", base.SQLiteDBPath),

		AMQPURL:      getEnv("AMQP_URL", base.AMQPURL),
		AMQPExchange: getEnv("AMQP_EXCHANGE", base.AMQPExchange),
		AMQPQueue:    getEnv("AMQP_QUEUE", base.AMQPQueue),

		GoogleSpreadsheetID:        getEnv("GOOGLE_SPREADSHEET_ID", base.GoogleSpreadsheetID),
		GoogleSheetName:            getEnv("GOOGLE_SHEET_NAME", base.GoogleSheetName),
		GoogleServiceAccountFile:   getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", base.GoogleServiceAccountFile),
		GoogleServiceAccountJSON:   getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", base.GoogleServiceAccountJSON),
		GoogleApplicationCredsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),

		ExportBatchSize: getEnvInt("EXPORT_BATCH_SIZE", base.ExportBatchSize),
		ExportInterval:  getEnvDuration("EXPORT_INTERVAL", base.ExportInterval),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", base.RateLimitPerMinute),
	}
}

// Validate checks the settings used by the web client and CLI.
func (c *Config) Validate() error {
	var errors []string

	errors = append(errors, validatePort("port", c.Port)...)

	switch c.Backend {
	case BackendHTTP:
		if u, err := url.Parse(c.BackendURL); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid backend URL '%s': must be an absolute http(s) URL", c.BackendURL))
		}
	case BackendMemory:
	default:
		errors = append(errors, fmt.Sprintf("invalid backend '%s': must be one of [%s %s]", c.Backend, BackendHTTP, BackendMemory))
	}

	if u, err := url.Parse(c.ModelEndpoint); err != nil || u.Scheme == "" || u.Host == "" {
		errors = append(errors, fmt.Sprintf("invalid model endpoint '%s': must be an absolute URL", c.ModelEndpoint))
	}

	if c.ChatTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid chat timeout %v: must be at least 1 second", c.ChatTimeout))
	}
	if c.SnapshotTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid snapshot timeout %v: must be at least 1 second", c.SnapshotTimeout))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 per minute", c.RateLimitPerMinute))
	}

	return joinErrors(errors)
}

// ValidateAPI checks the settings used by the backend API server.
func (c *Config) ValidateAPI() error {
	var errors []string

	errors = append(errors, validatePort("API port", c.APIPort)...)
	errors = append(errors, c.validateSQLite()...)
	errors = append(errors, c.validateAMQP()...)

	return joinErrors(errors)
}

// ValidateWorker checks the settings used by the export worker.
func (c *Config) ValidateWorker() error {
	var errors []string

	errors = append(errors, c.validateSQLite()...)
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP URL is required for the export worker")
	}
	errors = append(errors, c.validateAMQP()...)

	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "Google Spreadsheet ID is required for the export worker")
	}
	if c.GoogleSheetName == "" {
		errors = append(errors, "Google Sheet name is required for the export worker")
	}
	if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" && c.GoogleApplicationCredsFile == "" {
		errors = append(errors, "one of GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS must be provided")
	}
	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}

	if c.ExportBatchSize < 1 || c.ExportBatchSize > 1000 {
		errors = append(errors, fmt.Sprintf("invalid export batch size %d: must be between 1 and 1000", c.ExportBatchSize))
	}
	if c.ExportInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid export interval %v: must be at least 1 second", c.ExportInterval))
	}

	return joinErrors(errors)
}

func (c *Config) validateSQLite() []string {
	if c.SQLiteDBPath == "" {
		return []string{"SQLite database path cannot be empty"}
	}
	// Check if directory exists or can be created
	dir := filepath.Dir(c.SQLiteDBPath)
	if dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return []string{fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err)}
			}
		}
	}
	return nil
}

func (c *Config) validateAMQP() []string {
	if c.AMQPURL == "" {
		return nil
	}
	var errors []string
	if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
	} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
		errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
	}
	if c.AMQPExchange == "" {
		errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
	}
	if c.AMQPQueue == "" {
		errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
	}
	return errors
}

func validatePort(name, value string) []string {
	port, err := strconv.Atoi(value)
	if err != nil {
		return []string{fmt.Sprintf("invalid %s '%s': must be a number", name, value)}
	}
	if port < 1 || port > 65535 {
		return []string{fmt.Sprintf("invalid %s %d: must be between 1 and 65535", name, port)}
	}
	return nil
}

func joinErrors(errors []string) error {
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
