// Package config loads project settings from .xmlref/config.yaml.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/morozRed/xmlref/internal/schema"
)

const (
	Dir      = ".xmlref"
	FileName = "config.yaml"

	OutputInPlace = "inplace"
	OutputDir     = "dir"
	OutputZip     = "zip"
)

// Config is the project configuration.
type Config struct {
	Include []string      `yaml:"include" mapstructure:"include"`
	Schema  SchemaConfig  `yaml:"schema" mapstructure:"schema"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	History HistoryConfig `yaml:"history" mapstructure:"history"`
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// SchemaConfig points at an optional attribute table file.
type SchemaConfig struct {
	File    string `yaml:"file" mapstructure:"file"`
	Replace bool   `yaml:"replace" mapstructure:"replace"`
}

// OutputConfig controls where renamed documents are written.
type OutputConfig struct {
	Mode   string `yaml:"mode" mapstructure:"mode"`
	Dir    string `yaml:"dir" mapstructure:"dir"`
	Zip    string `yaml:"zip" mapstructure:"zip"`
	Indent int    `yaml:"indent" mapstructure:"indent"`
}

type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultConfig returns the settings used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Include: []string{"**/*.xml"},
		Output: OutputConfig{
			Mode:   OutputInPlace,
			Indent: 2,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    filepath.ToSlash(filepath.Join(Dir, "history.db")),
		},
		Logging: LoggingConfig{
			Level:  "error",
			Format: "human",
		},
	}
}

// Load reads configuration for the project at root. configPath overrides
// the default location; a missing default file yields the defaults, a
// missing explicit file is an error. XMLREF_* environment variables
// override file values (XMLREF_OUTPUT_MODE, XMLREF_LOGGING_LEVEL, ...).
func Load(root, configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix("XMLREF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(root, Dir))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("include", cfg.Include)
	v.SetDefault("schema.file", cfg.Schema.File)
	v.SetDefault("schema.replace", cfg.Schema.Replace)
	v.SetDefault("output.mode", cfg.Output.Mode)
	v.SetDefault("output.dir", cfg.Output.Dir)
	v.SetDefault("output.zip", cfg.Output.Zip)
	v.SetDefault("output.indent", cfg.Output.Indent)
	v.SetDefault("history.enabled", cfg.History.Enabled)
	v.SetDefault("history.path", cfg.History.Path)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Save writes the configuration to .xmlref/config.yaml below root.
func (c *Config) Save(root string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(root, Dir), 0755); err != nil {
		return err
	}
	return os.WriteFile(Path(root), data, 0644)
}

// Path returns the default config file location for root.
func Path(root string) string {
	return filepath.Join(root, Dir, FileName)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if len(c.Include) == 0 {
		return &ConfigError{Field: "include", Message: "at least one pattern is required"}
	}
	switch c.Output.Mode {
	case OutputInPlace:
	case OutputDir:
		if c.Output.Dir == "" {
			return &ConfigError{Field: "output.dir", Message: "required when output.mode is dir"}
		}
	case OutputZip:
		if c.Output.Zip == "" {
			return &ConfigError{Field: "output.zip", Message: "required when output.mode is zip"}
		}
	default:
		return &ConfigError{Field: "output.mode", Message: "must be one of inplace, dir, zip"}
	}
	if c.Output.Indent < 0 {
		return &ConfigError{Field: "output.indent", Message: "must not be negative"}
	}
	return nil
}

// LoadSchema builds the attribute table: the built-in table, overlaid or
// replaced by schema.file when one is configured. Relative paths resolve
// against root.
func (c *Config) LoadSchema(root string) (*schema.Schema, error) {
	base := schema.Default()
	if c.Schema.File == "" {
		return base, nil
	}
	loaded, err := schema.LoadFile(resolve(root, c.Schema.File))
	if err != nil {
		return nil, err
	}
	if c.Schema.Replace {
		return loaded, nil
	}
	return base.Overlay(loaded), nil
}

// HistoryPath returns the resolved journal path.
func (c *Config) HistoryPath(root string) string {
	path := c.History.Path
	if path == "" {
		path = filepath.Join(Dir, "history.db")
	}
	return resolve(root, path)
}

func resolve(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, filepath.FromSlash(path))
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
