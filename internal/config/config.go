package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Cleaning policy
	SkewThreshold float64 `mapstructure:"skew_threshold" yaml:"skew_threshold"`
	IQRMultiplier float64 `mapstructure:"iqr_multiplier" yaml:"iqr_multiplier"`
	Strict        bool    `mapstructure:"strict" yaml:"strict"`
	Workers       int     `mapstructure:"workers" yaml:"workers"`

	// Ingestion
	MissingTokens []string `mapstructure:"missing_tokens" yaml:"missing_tokens"`
	TextLowercase bool     `mapstructure:"text_lowercase" yaml:"text_lowercase"`
	ASCIIHeaders  bool     `mapstructure:"ascii_headers" yaml:"ascii_headers"`
	MaxRows       int      `mapstructure:"max_rows" yaml:"max_rows"`

	// Output
	OutputFormat string `mapstructure:"output_format" yaml:"output_format"`
	ProjectsDir  string `mapstructure:"projects_dir" yaml:"projects_dir"`

	// Postgres sink
	PostgresDSN    string `mapstructure:"postgres_dsn" yaml:"postgres_dsn"`
	PostgresSchema string `mapstructure:"postgres_schema" yaml:"postgres_schema"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"skew_threshold", "iqr_multiplier", "strict", "workers",
	"missing_tokens", "text_lowercase", "ascii_headers", "max_rows",
	"output_format", "projects_dir", "postgres_dsn", "postgres_schema",
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".datatidy"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.datatidy/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := configDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("DATATIDY")
	v.AutomaticEnv()

	v.SetDefault("skew_threshold", 0.5)
	v.SetDefault("iqr_multiplier", 1.5)
	v.SetDefault("strict", false)
	v.SetDefault("workers", 0)
	v.SetDefault("missing_tokens", []string{})
	v.SetDefault("text_lowercase", true)
	v.SetDefault("ascii_headers", false)
	v.SetDefault("max_rows", 0)
	v.SetDefault("output_format", "csv")
	v.SetDefault("postgres_dsn", "")
	v.SetDefault("postgres_schema", "public")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// Resolve projects_dir default: ~/.datatidy/projects
	if c.ProjectsDir == "" {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		c.ProjectsDir = filepath.Join(dir, "projects")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects settings the cleaning stages cannot run with.
func (c *Global) Validate() error {
	if c.SkewThreshold < 0 {
		return fmt.Errorf("invalid skew_threshold %v: must be >= 0", c.SkewThreshold)
	}
	if c.IQRMultiplier <= 0 {
		return fmt.Errorf("invalid iqr_multiplier %v: must be > 0", c.IQRMultiplier)
	}
	if c.Workers < 0 {
		return fmt.Errorf("invalid workers %d: must be >= 0", c.Workers)
	}
	if c.MaxRows < 0 {
		return fmt.Errorf("invalid max_rows %d: must be >= 0", c.MaxRows)
	}
	switch strings.ToLower(c.OutputFormat) {
	case "csv", "parquet":
	default:
		return fmt.Errorf("invalid output_format %q: want csv or parquet", c.OutputFormat)
	}
	return nil
}

// Get returns the string form of a configuration key.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "skew_threshold":
		return fmt.Sprint(c.SkewThreshold), nil
	case "iqr_multiplier":
		return fmt.Sprint(c.IQRMultiplier), nil
	case "strict":
		return fmt.Sprint(c.Strict), nil
	case "workers":
		return fmt.Sprint(c.Workers), nil
	case "missing_tokens":
		return strings.Join(c.MissingTokens, ","), nil
	case "text_lowercase":
		return fmt.Sprint(c.TextLowercase), nil
	case "ascii_headers":
		return fmt.Sprint(c.ASCIIHeaders), nil
	case "max_rows":
		return fmt.Sprint(c.MaxRows), nil
	case "output_format":
		return c.OutputFormat, nil
	case "projects_dir":
		return c.ProjectsDir, nil
	case "postgres_dsn":
		return c.PostgresDSN, nil
	case "postgres_schema":
		return c.PostgresSchema, nil
	}
	return "", fmt.Errorf("unknown config key %q", key)
}

// Set parses val for key and stores it, then re-validates.
func (c *Global) Set(key, val string) error {
	val = strings.TrimSpace(val)
	switch key {
	case "skew_threshold", "iqr_multiplier":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid float for %s: %v", key, val)
		}
		if key == "skew_threshold" {
			c.SkewThreshold = f
		} else {
			c.IQRMultiplier = f
		}
	case "strict", "text_lowercase", "ascii_headers":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for %s: %v", key, val)
		}
		switch key {
		case "strict":
			c.Strict = b
		case "text_lowercase":
			c.TextLowercase = b
		default:
			c.ASCIIHeaders = b
		}
	case "workers", "max_rows":
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid int for %s: %v", key, val)
		}
		if key == "workers" {
			c.Workers = i
		} else {
			c.MaxRows = i
		}
	case "missing_tokens":
		c.MissingTokens = nil
		for _, tok := range strings.Split(val, ",") {
			c.MissingTokens = append(c.MissingTokens, strings.TrimSpace(tok))
		}
	case "output_format":
		c.OutputFormat = strings.ToLower(val)
	case "projects_dir":
		c.ProjectsDir = val
	case "postgres_dsn":
		c.PostgresDSN = val
	case "postgres_schema":
		c.PostgresSchema = val
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return c.Validate()
}
