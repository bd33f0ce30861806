package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// SourceGelbooru selects the gelbooru.com API root
	SourceGelbooru = "gelbooru"
	// SourceRule34 selects the api.rule34.xxx API root
	SourceRule34 = "rule34"
)

// Config holds all configuration options for the booru downloader
type Config struct {
	// Booru API selection
	Booru BooruConfig `yaml:"booru" json:"booru"`

	// Search query
	Search SearchConfig `yaml:"search" json:"search"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Metrics export
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// BooruConfig holds the API source and where to find credentials.
// BaseURL, when set, replaces the source's API root (for mirrors).
type BooruConfig struct {
	Source          string `yaml:"source" json:"source"`
	BaseURL         string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	CredentialsFile string `yaml:"credentials_file" json:"credentials_file"`
	UserAgent       string `yaml:"user_agent" json:"user_agent"`
}

// SearchConfig holds the tag query
type SearchConfig struct {
	Tags        []string `yaml:"tags" json:"tags"`
	ExcludeTags []string `yaml:"exclude_tags" json:"exclude_tags"`
	StartPage   int      `yaml:"start_page" json:"start_page"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	OutputDirectory string        `yaml:"output_directory" json:"output_directory"`
	Parallel        int           `yaml:"parallel" json:"parallel"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout" json:"connect_timeout"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	File       string `yaml:"file" json:"file"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAge     int    `yaml:"max_age" json:"max_age"`
	Compress   bool   `yaml:"compress" json:"compress"`
	NoColor    bool   `yaml:"no_color" json:"no_color"`
}

// MetricsConfig holds the Prometheus textfile export path
type MetricsConfig struct {
	TextFile string `yaml:"textfile" json:"textfile"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Booru: BooruConfig{
			Source:          SourceGelbooru,
			CredentialsFile: "credentials.json",
			UserAgent:       "boorudl/1.0",
		},
		Search: SearchConfig{
			StartPage: 0,
		},
		Download: DownloadConfig{
			OutputDirectory: "./downloads",
			Parallel:        5,
			ConnectTimeout:  10 * time.Second,
			ReadTimeout:     30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   false,
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if source := os.Getenv("BOORUDL_SOURCE"); source != "" {
		c.Booru.Source = source
	}
	if baseURL := os.Getenv("BOORUDL_BASE_URL"); baseURL != "" {
		c.Booru.BaseURL = baseURL
	}
	if credentials := os.Getenv("BOORUDL_CREDENTIALS_FILE"); credentials != "" {
		c.Booru.CredentialsFile = credentials
	}
	if userAgent := os.Getenv("BOORUDL_USER_AGENT"); userAgent != "" {
		c.Booru.UserAgent = userAgent
	}

	if tags := os.Getenv("BOORUDL_TAGS"); tags != "" {
		c.Search.Tags = strings.Fields(tags)
	}

	if outputDir := os.Getenv("BOORUDL_OUTPUT_DIR"); outputDir != "" {
		c.Download.OutputDirectory = outputDir
	}

	if parallel := os.Getenv("BOORUDL_PARALLEL"); parallel != "" {
		var val int
		if _, err := fmt.Sscanf(parallel, "%d", &val); err != nil {
			return fmt.Errorf("invalid BOORUDL_PARALLEL %q: %w", parallel, err)
		}
		if val > 0 {
			c.Download.Parallel = val
		}
	}

	if logLevel := os.Getenv("BOORUDL_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv("BOORUDL_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		c.Logging.NoColor = true
	}

	if metricsFile := os.Getenv("BOORUDL_METRICS_FILE"); metricsFile != "" {
		c.Metrics.TextFile = metricsFile
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".boorudl.yaml",
		".boorudl.yml",
		filepath.Join(home, ".config", "boorudl", "config.yaml"),
		filepath.Join(home, ".config", "boorudl", "config.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Booru.Source) {
	case SourceGelbooru, SourceRule34:
	default:
		errs = append(errs, fmt.Errorf("unknown source %q (want %s or %s)", c.Booru.Source, SourceGelbooru, SourceRule34))
	}
	if c.Booru.BaseURL != "" && !strings.HasPrefix(c.Booru.BaseURL, "http://") && !strings.HasPrefix(c.Booru.BaseURL, "https://") {
		errs = append(errs, fmt.Errorf("base url %q must start with http:// or https://", c.Booru.BaseURL))
	}
	if c.Booru.CredentialsFile == "" {
		errs = append(errs, errors.New("credentials file is required"))
	}

	if c.Search.StartPage < 0 {
		errs = append(errs, errors.New("start page cannot be negative"))
	}

	if c.Download.OutputDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Download.Parallel <= 0 {
		errs = append(errs, errors.New("parallel downloads must be positive"))
	}
	if c.Download.ConnectTimeout <= 0 {
		errs = append(errs, errors.New("connect timeout must be positive"))
	}
	if c.Download.ReadTimeout <= 0 {
		errs = append(errs, errors.New("read timeout must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// ValidateSearch checks the fields a download run needs on top of Validate
func (c *Config) ValidateSearch() error {
	if len(c.Search.Tags) == 0 {
		return errors.New("at least one search tag is required")
	}
	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in flags are applied, so callers pass just the flags the user changed.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if source, ok := flags["source"].(string); ok && source != "" {
		c.Booru.Source = strings.ToLower(source)
	}
	if credentials, ok := flags["credentials"].(string); ok && credentials != "" {
		c.Booru.CredentialsFile = credentials
	}
	if tags, ok := flags["tags"].([]string); ok && len(tags) > 0 {
		c.Search.Tags = tags
	}
	if exclude, ok := flags["exclude-tags"].([]string); ok && len(exclude) > 0 {
		c.Search.ExcludeTags = exclude
	}
	if page, ok := flags["page"].(int); ok {
		c.Search.StartPage = page
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Download.OutputDirectory = outputDir
	}
	if parallel, ok := flags["parallel"].(int); ok {
		c.Download.Parallel = parallel
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile, ok := flags["log-file"].(string); ok && logFile != "" {
		c.Logging.File = logFile
	}
	if noColor, ok := flags["no-color"].(bool); ok && noColor {
		c.Logging.NoColor = true
	}
	if metricsFile, ok := flags["metrics-file"].(string); ok && metricsFile != "" {
		c.Metrics.TextFile = metricsFile
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".boorudl.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
