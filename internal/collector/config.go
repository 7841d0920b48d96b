package collector

import (
	"fmt"
	"os"
	"regexp"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"xrdcc/internal/collector/storage"
	"xrdcc/pkg/identifier"
)

// ReplaceConfig is one (pattern, replacement) pair as written in the
// wsdl_replaces configuration key.
type ReplaceConfig struct {
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
}

// LoggingConfig is the nested logging-config block: its shape in the
// Python original carries a full stdlib logging.config.dictConfig tree;
// this port narrows it to the one knob zerolog needs from a config file.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Config is the top-level collector configuration, loaded from a single
// YAML file.
type Config struct {
	StoragePlugin string `yaml:"storage_plugin"`

	ServerURL  string   `yaml:"server_url"`
	Client     []string `yaml:"client"`
	Instance   string   `yaml:"instance"`
	Timeout    int      `yaml:"timeout"`
	ServerCert string   `yaml:"server_cert"`
	ClientCert string   `yaml:"client_cert"`
	ClientKey  string   `yaml:"client_key"`

	ThreadCount int `yaml:"thread_count"`

	WSDLReplaces           []ReplaceConfig `yaml:"wsdl_replaces"`
	ExcludedMemberCodes    []string        `yaml:"excluded_member_codes"`
	ExcludedSubsystemCodes [][2]string     `yaml:"excluded_subsystem_codes"`

	Schedule      string        `yaml:"schedule"`
	LoggingConfig LoggingConfig `yaml:"logging-config"`

	// Filesystem backend.
	OutputPath string `yaml:"output_path"`

	// Shared by both backends.
	FilteredHours   int `yaml:"filtered_hours"`
	FilteredDays    int `yaml:"filtered_days"`
	FilteredMonths  int `yaml:"filtered_months"`
	CleanupInterval int `yaml:"cleanup_interval"`
	DaysToKeep      int `yaml:"days_to_keep"`

	// Object-store backend.
	MinioURL       string `yaml:"minio_url"`
	MinioBucket    string `yaml:"minio_bucket"`
	MinioAccessKey string `yaml:"minio_access_key"`
	MinioSecretKey string `yaml:"minio_secret_key"`
	MinioSecure    bool   `yaml:"minio_secure"`
	MinioCACerts   string `yaml:"minio_ca_certs"`
	MinioPath      string `yaml:"minio_path"`
}

const (
	defaultTimeout         = 30
	defaultThreadCount     = 5
	defaultFilteredHours   = 24
	defaultFilteredDays    = 30
	defaultFilteredMonths  = 12
	defaultCleanupInterval = 7
	defaultDaysToKeep      = 30
)

// LoadConfig reads and validates a Config from a YAML file, applying the
// same defaults the plugins fall back on when a tunable is omitted.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := &Config{
		Timeout:         defaultTimeout,
		ThreadCount:     defaultThreadCount,
		FilteredHours:   defaultFilteredHours,
		FilteredDays:    defaultFilteredDays,
		FilteredMonths:  defaultFilteredMonths,
		CleanupInterval: defaultCleanupInterval,
		DaysToKeep:      defaultDaysToKeep,
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required fields are present and well-formed.
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("config: server_url is required")
	}
	if _, err := identifier.Parse(identifier.Join(c.Client), identifier.KindClient); err != nil {
		return fmt.Errorf("config: client: %w", err)
	}
	if c.Instance == "" {
		return fmt.Errorf("config: instance is required")
	}
	if c.ThreadCount < 1 {
		return fmt.Errorf("config: thread_count must be at least 1")
	}

	switch c.StoragePlugin {
	case "", "filesystem":
		if c.OutputPath == "" {
			return fmt.Errorf("config: output_path is required for the filesystem storage plugin")
		}
	case "objectstore":
		if c.MinioURL == "" || c.MinioBucket == "" {
			return fmt.Errorf("config: minio_url and minio_bucket are required for the objectstore storage plugin")
		}
	default:
		return fmt.Errorf("config: unknown storage_plugin %q", c.StoragePlugin)
	}

	if c.Schedule != "" {
		if _, err := cron.ParseStandard(c.Schedule); err != nil {
			return fmt.Errorf("config: invalid schedule %q: %w", c.Schedule, err)
		}
	}

	for _, r := range c.WSDLReplaces {
		if _, err := regexp.Compile(r.Pattern); err != nil {
			return fmt.Errorf("config: invalid wsdl_replaces pattern %q: %w", r.Pattern, err)
		}
	}

	return nil
}

// CompiledWSDLReplaces compiles WSDLReplaces into storage.Replace values.
func (c *Config) CompiledWSDLReplaces() ([]storage.Replace, error) {
	out := make([]storage.Replace, 0, len(c.WSDLReplaces))
	for _, r := range c.WSDLReplaces {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("config: invalid wsdl_replaces pattern %q: %w", r.Pattern, err)
		}
		out = append(out, storage.Replace{Pattern: re, Replacement: r.Replacement})
	}
	return out, nil
}

// StorageConfig builds the shared retention Config from the top-level
// Config's tunables.
func (c *Config) StorageConfig() (storage.Config, error) {
	replaces, err := c.CompiledWSDLReplaces()
	if err != nil {
		return storage.Config{}, err
	}
	return storage.Config{
		Instance:        c.Instance,
		WSDLReplaces:    replaces,
		FilteredHours:   c.FilteredHours,
		FilteredDays:    c.FilteredDays,
		FilteredMonths:  c.FilteredMonths,
		CleanupInterval: c.CleanupInterval,
		DaysToKeep:      c.DaysToKeep,
	}, nil
}
