package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Platform drivers.
const (
	DriverBleve = "bleve"
	DriverRedis = "redis"
)

// Config holds the docsearch worker configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Platform PlatformConfig `yaml:"platform"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Postgres PostgresConfig `yaml:"postgres"`
	Tasks    TasksConfig    `yaml:"tasks"`
	Indexing IndexingConfig `yaml:"indexing"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`

	// Models declares the searchable models, keyed by "app.model".
	Models map[string]ModelConfig `yaml:"models"`
}

// ModelConfig declares a model's index, document schema and rank.
type ModelConfig struct {
	Index  string        `yaml:"index"`
	Schema string        `yaml:"schema"`
	Rank   string        `yaml:"rank"` // field name, "-" prefix for descending
	Fields []FieldConfig `yaml:"fields"`
}

// FieldConfig declares one schema field.
type FieldConfig struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`    // text, html, atom, integer, float, boolean, date, datetime, tzdatetime, geo
	Indexer  string `yaml:"indexer"` // startswith, contains, firstletter, literal (text types only)
	Nullable *bool  `yaml:"nullable"`
}

// FieldTypes lists the accepted FieldConfig types.
var FieldTypes = []string{"text", "html", "atom", "integer", "float", "boolean", "date", "datetime", "tzdatetime", "geo"}

// Indexers lists the accepted FieldConfig indexers.
var Indexers = []string{"startswith", "contains", "firstletter", "literal"}

// AuthConfig holds admin API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"` // empty disables auth
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds admin server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// PlatformConfig selects and configures the search platform.
type PlatformConfig struct {
	Driver           string   `yaml:"driver"` // bleve, redis (default: bleve)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// KafkaConfig holds the task queue settings.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	GroupID string   `yaml:"group_id"`
}

// PostgresConfig holds the system of record settings. Tables maps a model
// ("app.model") to the table its rows live in.
type PostgresConfig struct {
	DSN      string            `yaml:"dsn"`
	Tables   map[string]string `yaml:"tables"`
	IDColumn string            `yaml:"id_column"`
}

// TasksConfig holds maintenance batch sizes.
type TasksConfig struct {
	DeleteBatchSize   int `yaml:"delete_batch_size"`
	RetrieveBatchSize int `yaml:"retrieve_batch_size"`
}

// IndexingConfig holds whether automatic indexing starts enabled.
type IndexingConfig struct {
	Enabled *bool `yaml:"enabled"`
}

// IsEnabled reports whether indexing starts enabled. Unset means enabled.
func (c IndexingConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, expanding ${VAR} references, applying
// defaults and validating the result.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8090
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Platform.Driver == "" {
		c.Platform.Driver = DriverBleve
	}
	if c.Platform.ReadinessTimeout <= 0 {
		c.Platform.ReadinessTimeout = 10
	}
	if c.Platform.KeyPrefix == "" {
		c.Platform.KeyPrefix = "docsearch:"
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "docsearch.tasks"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "docsearch-worker"
	}
	if c.Postgres.IDColumn == "" {
		c.Postgres.IDColumn = "id"
	}
	if c.Tasks.DeleteBatchSize <= 0 {
		c.Tasks.DeleteBatchSize = 200
	}
	if c.Tasks.RetrieveBatchSize <= 0 {
		c.Tasks.RetrieveBatchSize = 500
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Platform.Driver {
	case DriverBleve:
	case DriverRedis:
		if len(c.Platform.Addrs) == 0 {
			return fmt.Errorf("platform.addrs is required for the %s driver", DriverRedis)
		}
	default:
		return fmt.Errorf("platform.driver must be %q or %q, got %q", DriverBleve, DriverRedis, c.Platform.Driver)
	}
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required")
	}
	if c.Tasks.DeleteBatchSize > 200 {
		return fmt.Errorf("tasks.delete_batch_size must be at most 200, got %d", c.Tasks.DeleteBatchSize)
	}
	for model := range c.Postgres.Tables {
		if !strings.Contains(model, ".") {
			return fmt.Errorf("postgres.tables key %q must be app.model", model)
		}
	}
	if len(c.Postgres.Tables) > 0 && c.Postgres.DSN == "" {
		return fmt.Errorf("postgres.dsn is required when postgres.tables is set")
	}
	for model, mc := range c.Models {
		if err := mc.validate(model); err != nil {
			return err
		}
	}
	return nil
}

func (mc ModelConfig) validate(model string) error {
	if !strings.Contains(model, ".") {
		return fmt.Errorf("models key %q must be app.model", model)
	}
	if len(mc.Fields) == 0 {
		return fmt.Errorf("models.%s.fields is required", model)
	}
	seen := make(map[string]struct{}, len(mc.Fields))
	for _, f := range mc.Fields {
		if f.Name == "" {
			return fmt.Errorf("models.%s: field name is required", model)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("models.%s: duplicate field %q", model, f.Name)
		}
		seen[f.Name] = struct{}{}
		if !slices.Contains(FieldTypes, f.Type) {
			return fmt.Errorf("models.%s.%s: unknown type %q", model, f.Name, f.Type)
		}
		if f.Indexer != "" && !slices.Contains(Indexers, f.Indexer) {
			return fmt.Errorf("models.%s.%s: unknown indexer %q", model, f.Name, f.Indexer)
		}
	}
	if mc.Rank != "" {
		if _, ok := seen[strings.TrimPrefix(mc.Rank, "-")]; !ok {
			return fmt.Errorf("models.%s.rank: unknown field %q", model, mc.Rank)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
