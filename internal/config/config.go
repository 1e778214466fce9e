package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Log     LogConfig
	Watch   WatchConfig
	Output  OutputConfig
	Extract ExtractConfig
	Sync    SyncConfig
	DB      DBConfig
	S3      S3Config
	Metrics MetricsConfig
}

// ServerConfig holds status HTTP server settings.
type ServerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// WatchConfig holds ingestion pipeline settings.
type WatchConfig struct {
	InputDir         string        `mapstructure:"input_dir"`
	ArchiveDir       string        `mapstructure:"archive_dir"`
	ErrorDir         string        `mapstructure:"error_dir"`
	Workers          int           `mapstructure:"workers"`
	StabilityDelay   time.Duration `mapstructure:"stability_delay"`
	StabilityRetries int           `mapstructure:"stability_retries"`
	ScanInterval     time.Duration `mapstructure:"scan_interval"`
	MaxFileSizeMB    int64         `mapstructure:"max_file_size_mb"`
}

// OutputConfig holds CSV/XLSX output settings.
type OutputConfig struct {
	Dir  string `mapstructure:"dir"`
	XLSX bool   `mapstructure:"xlsx"`
	BOM  bool   `mapstructure:"bom"`
}

// ExtractConfig holds parser settings.
type ExtractConfig struct {
	RulesFile string `mapstructure:"rules_file"`
	// TextFallback also accepts pre-extracted .txt siblings when a PDF has no text layer.
	TextFallback bool `mapstructure:"text_fallback"`
}

// SyncConfig holds remote table sync settings.
type SyncConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	Interval          time.Duration `mapstructure:"interval"`
	ServerURL         string        `mapstructure:"server_url"`
	DocID             string        `mapstructure:"doc_id"`
	APIKey            string        `mapstructure:"api_key"`
	HeadersTable      string        `mapstructure:"headers_table"`
	ItemsTable        string        `mapstructure:"items_table"`
	BatchSize         int           `mapstructure:"batch_size"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	LogBackend        string        `mapstructure:"log_backend"`
	LogFile           string        `mapstructure:"log_file"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds archive mirror settings.
type S3Config struct {
	Enabled   bool   `mapstructure:"enabled"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Sync log backends.
const (
	SyncLogFile     = "file"
	SyncLogPostgres = "postgres"
)

// Load reads configuration from defaults, an optional YAML file, a .env file
// in the working directory and environment variables with the INVWATCH_ prefix,
// in increasing order of precedence.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("INVWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.cors_origins", []string{})

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Watch defaults
	v.SetDefault("watch.input_dir", "files/input")
	v.SetDefault("watch.archive_dir", "files/archive")
	v.SetDefault("watch.error_dir", "files/error")
	v.SetDefault("watch.workers", 1)
	v.SetDefault("watch.stability_delay", "1s")
	v.SetDefault("watch.stability_retries", 3)
	v.SetDefault("watch.scan_interval", "1m")
	v.SetDefault("watch.max_file_size_mb", 50)

	// Output defaults
	v.SetDefault("output.dir", "files/output")
	v.SetDefault("output.xlsx", false)
	v.SetDefault("output.bom", false)

	// Extract defaults
	v.SetDefault("extract.rules_file", "")
	v.SetDefault("extract.text_fallback", true)

	// Sync defaults
	v.SetDefault("sync.enabled", false)
	v.SetDefault("sync.interval", "120s")
	v.SetDefault("sync.server_url", "https://docs.getgrist.com")
	v.SetDefault("sync.doc_id", "")
	v.SetDefault("sync.api_key", "")
	v.SetDefault("sync.headers_table", "InvoiceHeaders")
	v.SetDefault("sync.items_table", "InvoiceItems")
	v.SetDefault("sync.batch_size", 100)
	v.SetDefault("sync.timeout", "30s")
	v.SetDefault("sync.requests_per_second", 5.0)
	v.SetDefault("sync.log_backend", SyncLogFile)
	v.SetDefault("sync.log_file", "files/output/synced_invoices.json")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "invwatch")
	v.SetDefault("db.password", "invwatch_secret")
	v.SetDefault("db.name", "invwatch")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 5)
	v.SetDefault("db.max_idle", 2)

	// S3 defaults
	v.SetDefault("s3.enabled", false)
	v.SetDefault("s3.region", "ap-south-1")
	v.SetDefault("s3.bucket", "invwatch-archive")
	v.SetDefault("s3.endpoint", "")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Bind environment variables explicitly for nested keys. The sync keys
	// also accept the GRIST_* names used by existing deployments.
	envBindings := map[string][]string{
		"server.port":               {"INVWATCH_SERVER_PORT"},
		"log.level":                 {"INVWATCH_LOG_LEVEL"},
		"log.format":                {"INVWATCH_LOG_FORMAT"},
		"watch.input_dir":           {"INVWATCH_WATCH_INPUT_DIR"},
		"watch.archive_dir":         {"INVWATCH_WATCH_ARCHIVE_DIR"},
		"watch.error_dir":           {"INVWATCH_WATCH_ERROR_DIR"},
		"watch.workers":             {"INVWATCH_WATCH_WORKERS"},
		"watch.stability_delay":     {"INVWATCH_WATCH_STABILITY_DELAY"},
		"watch.stability_retries":   {"INVWATCH_WATCH_STABILITY_RETRIES"},
		"output.dir":                {"INVWATCH_OUTPUT_DIR"},
		"sync.enabled":              {"INVWATCH_SYNC_ENABLED"},
		"sync.interval":             {"INVWATCH_SYNC_INTERVAL"},
		"sync.server_url":           {"INVWATCH_SYNC_SERVER_URL", "GRIST_SERVER_URL"},
		"sync.doc_id":               {"INVWATCH_SYNC_DOC_ID", "GRIST_DOC_ID"},
		"sync.api_key":              {"INVWATCH_SYNC_API_KEY", "GRIST_API_KEY"},
		"sync.headers_table":        {"INVWATCH_SYNC_HEADERS_TABLE"},
		"sync.items_table":          {"INVWATCH_SYNC_ITEMS_TABLE"},
		"sync.batch_size":           {"INVWATCH_SYNC_BATCH_SIZE"},
		"sync.log_backend":          {"INVWATCH_SYNC_LOG_BACKEND"},
		"sync.log_file":             {"INVWATCH_SYNC_LOG_FILE"},
		"db.host":                   {"INVWATCH_DB_HOST"},
		"db.port":                   {"INVWATCH_DB_PORT"},
		"db.user":                   {"INVWATCH_DB_USER"},
		"db.password":               {"INVWATCH_DB_PASSWORD"},
		"db.name":                   {"INVWATCH_DB_NAME"},
		"db.sslmode":                {"INVWATCH_DB_SSLMODE"},
		"s3.enabled":                {"INVWATCH_S3_ENABLED"},
		"s3.region":                 {"INVWATCH_S3_REGION"},
		"s3.bucket":                 {"INVWATCH_S3_BUCKET"},
		"s3.endpoint":               {"INVWATCH_S3_ENDPOINT"},
		"s3.access_key":             {"INVWATCH_S3_ACCESS_KEY"},
		"s3.secret_key":             {"INVWATCH_S3_SECRET_KEY"},
		"extract.rules_file":        {"INVWATCH_EXTRACT_RULES_FILE"},
		"metrics.enabled":           {"INVWATCH_METRICS_ENABLED"},
		"sync.requests_per_second":  {"INVWATCH_SYNC_REQUESTS_PER_SECOND"},
		"watch.max_file_size_mb":    {"INVWATCH_WATCH_MAX_FILE_SIZE_MB"},
	}
	for key, envs := range envBindings {
		_ = v.BindEnv(append([]string{key}, envs...)...)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", configFile, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	// UPLOAD_INTERVAL is a bare number of seconds.
	if raw := os.Getenv("UPLOAD_INTERVAL"); raw != "" && os.Getenv("INVWATCH_SYNC_INTERVAL") == "" {
		secs, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing UPLOAD_INTERVAL %q: %w", raw, err)
		}
		cfg.Sync.Interval = time.Duration(secs) * time.Second
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	var errs []error
	if c.Watch.Workers < 1 {
		errs = append(errs, errors.New("watch.workers must be at least 1"))
	}
	if c.Watch.StabilityRetries < 1 {
		errs = append(errs, errors.New("watch.stability_retries must be at least 1"))
	}
	if c.Sync.BatchSize < 1 {
		errs = append(errs, errors.New("sync.batch_size must be at least 1"))
	}
	if c.Sync.LogBackend != SyncLogFile && c.Sync.LogBackend != SyncLogPostgres {
		errs = append(errs, fmt.Errorf("sync.log_backend must be %q or %q", SyncLogFile, SyncLogPostgres))
	}
	if c.Sync.Enabled {
		if c.Sync.DocID == "" {
			errs = append(errs, errors.New("sync.doc_id is required when sync is enabled"))
		}
		if c.Sync.APIKey == "" {
			errs = append(errs, errors.New("sync.api_key is required when sync is enabled"))
		}
		if c.Sync.Interval <= 0 {
			errs = append(errs, errors.New("sync.interval must be positive"))
		}
	}
	if c.S3.Enabled && c.S3.Bucket == "" {
		errs = append(errs, errors.New("s3.bucket is required when s3 is enabled"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
