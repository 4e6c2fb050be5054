package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "debrief.cfg.json"

// StorageConfig selects and configures the database backend.
type StorageConfig struct {
	Type     string         `json:"type" mapstructure:"type"`
	SQLite   SQLiteConfig   `json:"sqlite" mapstructure:"sqlite"`
	Postgres PostgresConfig `json:"postgres" mapstructure:"postgres"`
}

// SQLiteConfig holds SQLite backend settings. An empty path means in-memory.
type SQLiteConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// PostgresConfig holds Postgres connection settings.
type PostgresConfig struct {
	Host         string
	Port         string
	Username     string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
}

// DSN renders the connection string.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=%s`,
		c.Host, c.Port, c.Username, c.Password, c.Database, c.SSLMode)
}

// SummaryConfig controls mission summary aggregation.
type SummaryConfig struct {
	// RatingCategoryCount overrides inference when > 0.
	RatingCategoryCount int
	// DefaultRatingCategoryCount is used when nothing can be inferred.
	DefaultRatingCategoryCount int
}

// InfluxConfig holds InfluxDB publisher settings.
type InfluxConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Protocol string
	Token    string
	Org      string
	Bucket   string
}

// URL returns the server URL.
func (c InfluxConfig) URL() string {
	return fmt.Sprintf("%s://%s:%s", c.Protocol, c.Host, c.Port)
}

// OTelConfig holds OpenTelemetry settings.
type OTelConfig struct {
	Enabled      bool
	ServiceName  string
	BatchTimeout time.Duration
	Endpoint     string
	Insecure     bool
}

// GraylogConfig holds the GELF sink settings.
type GraylogConfig struct {
	Enabled bool
	Address string
}

// LoggingConfig holds log level, log directory and remote sinks.
type LoggingConfig struct {
	Level   string
	Dir     string
	Graylog GraylogConfig
}

// SetDefaults registers every default value. Load calls it; tests that skip
// the config file can call it directly.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./debrieflogs")

	viper.SetDefault("storage.type", "sqlite")
	viper.SetDefault("storage.sqlite.path", "./debrief.db")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "debrief")
	viper.SetDefault("db.sslmode", "disable")
	viper.SetDefault("db.maxOpenConns", 10)

	viper.SetDefault("summary.ratingCategoryCount", 0)
	viper.SetDefault("summary.defaultRatingCategoryCount", 8)

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "debrief-metrics")
	viper.SetDefault("influx.bucket", "mission_data")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "debrief")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
}

// Load reads configuration from the JSON file in configDir and sets default values.
// DEBRIEF_* environment variables override file values, e.g. DEBRIEF_DB_HOST.
func Load(configDir string) error {
	SetDefaults()

	viper.SetEnvPrefix("DEBRIEF")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetStorageConfig returns the storage backend settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		SQLite: SQLiteConfig{
			Path: viper.GetString("storage.sqlite.path"),
		},
		Postgres: PostgresConfig{
			Host:         viper.GetString("db.host"),
			Port:         viper.GetString("db.port"),
			Username:     viper.GetString("db.username"),
			Password:     viper.GetString("db.password"),
			Database:     viper.GetString("db.database"),
			SSLMode:      viper.GetString("db.sslmode"),
			MaxOpenConns: viper.GetInt("db.maxOpenConns"),
		},
	}
}

// GetSummaryConfig returns the aggregation settings.
func GetSummaryConfig() SummaryConfig {
	return SummaryConfig{
		RatingCategoryCount:        viper.GetInt("summary.ratingCategoryCount"),
		DefaultRatingCategoryCount: viper.GetInt("summary.defaultRatingCategoryCount"),
	}
}

// GetInfluxConfig returns the InfluxDB publisher settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Protocol: viper.GetString("influx.protocol"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetLoggingConfig returns the logging settings.
func GetLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level: viper.GetString("logLevel"),
		Dir:   viper.GetString("logsDir"),
		Graylog: GraylogConfig{
			Enabled: viper.GetBool("graylog.enabled"),
			Address: viper.GetString("graylog.address"),
		},
	}
}
