package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. METAQUERY_SERVER_PORT.
const EnvPrefix = "METAQUERY"

var drivers = []string{"postgres", "sqlite3", "duckdb"}

type Config struct {
	Server   ServerConfig            `mapstructure:"server"`
	Models   ModelsConfig            `mapstructure:"models"`
	Metadata MetadataConfig          `mapstructure:"metadata"`
	Sources  map[string]SourceConfig `mapstructure:"sources"`
	Query    QueryConfig             `mapstructure:"query"`
	Log      LogConfig               `mapstructure:"log"`
}

type ServerConfig struct {
	Port        string   `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type ModelsConfig struct {
	// Dir holds one YAML file per domain.
	Dir string `mapstructure:"dir"`
}

type MetadataConfig struct {
	// DatabaseURL, when set, loads models from the Postgres metadata
	// repository in addition to Models.Dir.
	DatabaseURL string `mapstructure:"database_url"`
}

// SourceConfig describes one physical connection named by a domain.
type SourceConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type QueryConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	// MaxRows caps every result; -1 means no cap.
	MaxRows int `mapstructure:"max_rows"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from path, or from metaquery.yaml in the working
// directory when path is empty. A missing file is not an error; defaults and
// METAQUERY_* environment variables apply either way.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("metaquery")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("models.dir", "")
	v.SetDefault("metadata.database_url", "")
	v.SetDefault("query.timeout", 30*time.Second)
	v.SetDefault("query.max_rows", -1)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var result *multierror.Error
	if c.Query.Timeout < 0 {
		result = multierror.Append(result, fmt.Errorf("query.timeout must not be negative"))
	}
	if c.Query.MaxRows < -1 {
		result = multierror.Append(result, fmt.Errorf("query.max_rows must be -1 or more"))
	}
	for _, name := range c.SourceNames() {
		src := c.Sources[name]
		if !slices.Contains(drivers, src.Driver) {
			result = multierror.Append(result, fmt.Errorf("sources.%s.driver %q is not one of %s", name, src.Driver, strings.Join(drivers, ", ")))
		}
		if src.DSN == "" && src.Driver != "duckdb" {
			result = multierror.Append(result, fmt.Errorf("sources.%s.dsn is required", name))
		}
	}
	if _, err := c.Log.level(); err != nil {
		result = multierror.Append(result, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		result = multierror.Append(result, fmt.Errorf("log.format %q is not text or json", c.Log.Format))
	}
	return result.ErrorOrNil()
}

// SourceNames returns the configured source names in sorted order.
func (c *Config) SourceNames() []string {
	names := make([]string, 0, len(c.Sources))
	for name := range c.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%s", c.Server.Port)
}

// Logger builds the logger described by the log section.
func (c LogConfig) Logger(w io.Writer) *slog.Logger {
	level, err := c.level()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (c LogConfig) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return 0, fmt.Errorf("log.level %q: %w", c.Level, err)
	}
	return level, nil
}
