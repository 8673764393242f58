package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the top-level application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Extension  ExtensionConfig  `yaml:"extension"`
	Container  ContainerConfig  `yaml:"container"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Handoff    HandoffConfig    `yaml:"handoff"`
	Bridge     BridgeConfig     `yaml:"bridge"`
	Sweeper    SweeperConfig    `yaml:"sweeper"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// ExtensionConfig describes the share extension and the app it hands off to.
type ExtensionConfig struct {
	AppGroupID     string `yaml:"app_group_id"`
	HostAppURL     string `yaml:"host_app_url"`
	ActivationRule string `yaml:"activation_rule"` // expr over share counts, empty accepts all
}

// ContainerConfig locates the shared app group containers.
type ContainerConfig struct {
	Root   string `yaml:"root"`
	Create bool   `yaml:"create"`
}

// ExtractionConfig tunes attachment extraction.
type ExtractionConfig struct {
	Parallel    bool          `yaml:"parallel"`
	LoadTimeout time.Duration `yaml:"load_timeout"` // per attachment, 0 disables
	TempDir     string        `yaml:"temp_dir"`     // empty means the OS temp dir
}

// HandoffConfig selects the store the consuming app reads shares from.
type HandoffConfig struct {
	Driver string `yaml:"driver"` // memory, sqlite or postgres
	DSN    string `yaml:"dsn"`
}

// BridgeConfig secures the HTTP bridge.
type BridgeConfig struct {
	JWTSecret      string   `yaml:"jwt_secret"` // empty disables auth
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// SweeperConfig schedules cleanup of unrelocated temporary files.
type SweeperConfig struct {
	Schedule string        `yaml:"schedule"` // cron expression, empty disables
	MaxAge   time.Duration `yaml:"max_age"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// defaults returns a Config populated with sensible default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Container: ContainerConfig{
			Root:   "containers",
			Create: true,
		},
		Extraction: ExtractionConfig{
			LoadTimeout: 30 * time.Second,
		},
		Handoff: HandoffConfig{
			Driver: "sqlite",
			DSN:    "sharemenu.db",
		},
		Bridge: BridgeConfig{
			AllowedOrigins: []string{"*"},
		},
		Sweeper: SweeperConfig{
			Schedule: "@every 10m",
			MaxAge:   time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML configuration file at path and returns a Config with
// environment overrides applied.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault loads ".env" (if present) into the environment, then tries
// "config.yaml" from the current directory. If the file does not exist, it
// returns defaults with environment overrides.
// Any other error (e.g. permission denied, malformed YAML) is returned.
func LoadDefault() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	cfg, err := Load("config.yaml")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg = defaults()
			if err := cfg.applyEnv(); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, err
	}
	return cfg, nil
}

// EnvPrefix starts every environment override, e.g. SHAREMENU_HANDOFF_DSN.
const EnvPrefix = "SHAREMENU_"

func (c *Config) applyEnv() error {
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*dst = v
		}
	}
	var errs []error
	boolean := func(name string, dst *bool) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = b
		}
	}
	duration := func(name string, dst *time.Duration) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = d
		}
	}

	str("SERVER_HOST", &c.Server.Host)
	if v, ok := os.LookupEnv(EnvPrefix + "SERVER_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sSERVER_PORT: %w", EnvPrefix, err))
		} else {
			c.Server.Port = port
		}
	}
	str("APP_GROUP_ID", &c.Extension.AppGroupID)
	str("HOST_APP_URL", &c.Extension.HostAppURL)
	str("ACTIVATION_RULE", &c.Extension.ActivationRule)
	str("CONTAINER_ROOT", &c.Container.Root)
	boolean("CONTAINER_CREATE", &c.Container.Create)
	boolean("EXTRACTION_PARALLEL", &c.Extraction.Parallel)
	duration("EXTRACTION_LOAD_TIMEOUT", &c.Extraction.LoadTimeout)
	str("EXTRACTION_TEMP_DIR", &c.Extraction.TempDir)
	str("HANDOFF_DRIVER", &c.Handoff.Driver)
	str("HANDOFF_DSN", &c.Handoff.DSN)
	str("BRIDGE_JWT_SECRET", &c.Bridge.JWTSecret)
	if v, ok := os.LookupEnv(EnvPrefix + "BRIDGE_ALLOWED_ORIGINS"); ok {
		c.Bridge.AllowedOrigins = splitList(v)
	}
	str("SWEEPER_SCHEDULE", &c.Sweeper.Schedule)
	duration("SWEEPER_MAX_AGE", &c.Sweeper.MaxAge)
	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_FORMAT", &c.Logging.Format)

	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	var errs []error
	if c.Extension.AppGroupID == "" {
		errs = append(errs, errors.New("extension.app_group_id is required"))
	}
	switch c.Handoff.Driver {
	case "memory", "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("handoff.driver %q is not one of memory, sqlite, postgres", c.Handoff.Driver))
	}
	if c.Handoff.Driver != "memory" && c.Handoff.DSN == "" {
		errs = append(errs, fmt.Errorf("handoff.dsn is required for driver %q", c.Handoff.Driver))
	}
	if c.Extraction.LoadTimeout < 0 {
		errs = append(errs, errors.New("extraction.load_timeout must not be negative"))
	}
	return errors.Join(errs...)
}
