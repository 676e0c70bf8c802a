package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	ErrConfigNotFound = errors.New("configuration not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// Opponent kinds.
const (
	OpponentNone      = "none"
	OpponentHeuristic = "heuristic"
	OpponentLLM       = "llm"
)

// Archive kinds.
const (
	ArchiveNone     = "none"
	ArchiveFile     = "file"
	ArchiveRedis    = "redis"
	ArchivePostgres = "postgres"
)

// Config is the server configuration. Sources apply in order: defaults,
// YAML file, environment, command-line flags.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Opponent OpponentConfig `yaml:"opponent"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Ngrok    NgrokConfig    `yaml:"ngrok"`
}

type ServerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	StaticDir string `yaml:"static_dir"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
	Caller bool   `yaml:"caller"`
}

type OpponentConfig struct {
	Kind      string        `yaml:"kind"`
	BaseURL   string        `yaml:"base_url"`
	Model     string        `yaml:"model"`
	APIKey    string        `yaml:"api_key"`
	Timeout   time.Duration `yaml:"timeout"`
	AutoReply bool          `yaml:"auto_reply"`
	Seed      int64         `yaml:"seed"`
}

type ArchiveConfig struct {
	Kind        string        `yaml:"kind"`
	Dir         string        `yaml:"dir"`
	RedisURL    string        `yaml:"redis_url"`
	DatabaseURL string        `yaml:"database_url"`
	KeyPrefix   string        `yaml:"key_prefix"`
	TTL         time.Duration `yaml:"ttl"`
}

type NgrokConfig struct {
	Enabled   bool   `yaml:"enabled"`
	AuthToken string `yaml:"auth_token"`
	Domain    string `yaml:"domain"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Host: "localhost", Port: 8080},
		Log:    LogConfig{Level: "info", Format: "legacy"},
		Opponent: OpponentConfig{
			Kind:      OpponentHeuristic,
			BaseURL:   "http://localhost:11434/v1",
			Model:     "llama3.2",
			Timeout:   30 * time.Second,
			AutoReply: true,
		},
		Archive: ArchiveConfig{
			Kind:      ArchiveNone,
			Dir:       "sessions",
			KeyPrefix: "arena:",
			TTL:       7 * 24 * time.Hour,
		},
	}
}

// Load builds a configuration from defaults, the YAML file at path (skipped
// when path is empty) and the process environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if err := cfg.Decode(f); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode overlays YAML onto cfg. Unknown keys are rejected.
func (c *Config) Decode(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ApplyEnv overlays environment variables read through getenv. Empty values
// are ignored.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	var errs []error
	boolean := func(key string, dst *bool) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("ARENA_HOST", &c.Server.Host)
	if v := strings.TrimSpace(getenv("ARENA_PORT")); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("ARENA_PORT: %w", err))
		} else {
			c.Server.Port = p
		}
	}
	str("STATIC_DIR", &c.Server.StaticDir)

	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("LOG_FILE", &c.Log.File)
	boolean("LOG_CALLER", &c.Log.Caller)

	str("OPPONENT_KIND", &c.Opponent.Kind)
	str("OPPONENT_BASE_URL", &c.Opponent.BaseURL)
	str("OPPONENT_MODEL", &c.Opponent.Model)
	str("OPPONENT_API_KEY", &c.Opponent.APIKey)
	duration("OPPONENT_TIMEOUT", &c.Opponent.Timeout)
	boolean("OPPONENT_AUTO_REPLY", &c.Opponent.AutoReply)

	str("ARCHIVE_KIND", &c.Archive.Kind)
	str("ARCHIVE_DIR", &c.Archive.Dir)
	str("REDIS_URL", &c.Archive.RedisURL)
	str("DATABASE_URL", &c.Archive.DatabaseURL)
	str("ARCHIVE_KEY_PREFIX", &c.Archive.KeyPrefix)
	duration("ARCHIVE_TTL", &c.Archive.TTL)

	boolean("NGROK_ENABLED", &c.Ngrok.Enabled)
	str("NGROK_AUTHTOKEN", &c.Ngrok.AuthToken)
	if c.Ngrok.AuthToken == "" {
		str("NGROK_AUTH_TOKEN", &c.Ngrok.AuthToken)
	}
	str("NGROK_DOMAIN", &c.Ngrok.Domain)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		add("server.port must be between 0 and 65535, got %d", c.Server.Port)
	}
	if c.Server.StaticDir != "" {
		if st, err := os.Stat(c.Server.StaticDir); err != nil || !st.IsDir() {
			add("server.static_dir %q is not a directory", c.Server.StaticDir)
		}
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		add("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "legacy", "json", "console":
	default:
		add("log.format must be legacy, json or console, got %q", c.Log.Format)
	}

	switch c.Opponent.Kind {
	case OpponentNone, OpponentHeuristic:
	case OpponentLLM:
		if c.Opponent.BaseURL == "" {
			add("opponent.base_url is required for the llm opponent")
		}
		if c.Opponent.Timeout <= 0 {
			add("opponent.timeout must be positive")
		}
	default:
		add("opponent.kind must be none, heuristic or llm, got %q", c.Opponent.Kind)
	}

	switch c.Archive.Kind {
	case ArchiveNone:
	case ArchiveFile:
		if c.Archive.Dir == "" {
			add("archive.dir is required for the file archive")
		}
	case ArchiveRedis:
		if c.Archive.RedisURL == "" {
			add("archive.redis_url is required for the redis archive")
		}
		if c.Archive.TTL < 0 {
			add("archive.ttl must not be negative")
		}
	case ArchivePostgres:
		if c.Archive.DatabaseURL == "" {
			add("archive.database_url is required for the postgres archive")
		}
	default:
		add("archive.kind must be none, file, redis or postgres, got %q", c.Archive.Kind)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Addr returns host:port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
