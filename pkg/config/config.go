package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable read by LoadFromEnv
const EnvPrefix = "BARCHIVE"

// Config holds all configuration options for the archive retriever
type Config struct {
	// Provider endpoints and HTTP session settings
	Broadcastify BroadcastifyConfig `yaml:"broadcastify" json:"broadcastify"`

	// Minimum pacing intervals per request class
	Throttle ThrottleConfig `yaml:"throttle" json:"throttle"`

	// Browser session used for calendar navigation
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	Download DownloadConfig `yaml:"download" json:"download"`

	Build BuildConfig `yaml:"build" json:"build"`

	// Provider account used by the downloader
	Credentials CredentialsConfig `yaml:"credentials" json:"credentials"`

	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// BroadcastifyConfig holds the provider's URL stems. Feed, archive and
// download URLs are built by appending an identifier to the stem.
type BroadcastifyConfig struct {
	FeedURL        string        `yaml:"feed_url" json:"feed_url" split_words:"true"`
	ArchiveURL     string        `yaml:"archive_url" json:"archive_url" split_words:"true"`
	DownloadURL    string        `yaml:"download_url" json:"download_url" split_words:"true"`
	LoginURL       string        `yaml:"login_url" json:"login_url" split_words:"true"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent" split_words:"true"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout" split_words:"true"`
}

// ThrottleConfig holds the minimum interval between two calls of the same class
type ThrottleConfig struct {
	Page           time.Duration `yaml:"page" json:"page"`
	File           time.Duration `yaml:"file" json:"file"`
	DateNavigation time.Duration `yaml:"date_navigation" json:"date_navigation" split_words:"true"`
}

// BrowserConfig holds browser session and render-wait settings
type BrowserConfig struct {
	Headless       bool          `yaml:"headless" json:"headless"`
	ExecPath       string        `yaml:"exec_path" json:"exec_path" split_words:"true"`
	LoadTimeout    time.Duration `yaml:"load_timeout" json:"load_timeout" split_words:"true"`
	RefreshTimeout time.Duration `yaml:"refresh_timeout" json:"refresh_timeout" split_words:"true"`
	PollInterval   time.Duration `yaml:"poll_interval" json:"poll_interval" split_words:"true"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	OutputDirectory string `yaml:"output_directory" json:"output_directory" split_words:"true"`
	WriteReport     bool   `yaml:"write_report" json:"write_report" split_words:"true"`
}

// BuildConfig holds archive build settings
type BuildConfig struct {
	Chronological     bool   `yaml:"chronological" json:"chronological"`
	ManifestDirectory string `yaml:"manifest_directory" json:"manifest_directory" split_words:"true"`
}

// CredentialsConfig holds the provider account. When UseStore is set and
// no username is configured, the auth credential store is consulted.
type CredentialsConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"-"`
	UseStore bool   `yaml:"use_store" json:"use_store" split_words:"true"`
}

// MetricsConfig holds metrics export settings
type MetricsConfig struct {
	// TextfilePath is a node-exporter textfile written after each run. Empty disables it.
	TextfilePath string `yaml:"textfile_path" json:"textfile_path" split_words:"true"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	File   string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Broadcastify: BroadcastifyConfig{
			FeedURL:        "https://www.broadcastify.com/listen/feed/",
			ArchiveURL:     "https://www.broadcastify.com/archives/feed/",
			DownloadURL:    "https://m.broadcastify.com/archives/id/",
			LoginURL:       "https://www.broadcastify.com/login/",
			UserAgent:      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
			RequestTimeout: 60 * time.Second,
		},
		Throttle: ThrottleConfig{
			Page:           2 * time.Second,
			File:           5 * time.Second,
			DateNavigation: 100 * time.Millisecond,
		},
		Browser: BrowserConfig{
			Headless:       true,
			LoadTimeout:    15 * time.Second,
			RefreshTimeout: 5 * time.Second,
			PollInterval:   100 * time.Millisecond,
		},
		Download: DownloadConfig{
			OutputDirectory: "./archives",
			WriteReport:     true,
		},
		Build: BuildConfig{
			Chronological:     false,
			ManifestDirectory: defaultManifestDirectory(),
		},
		Credentials: CredentialsConfig{
			UseStore: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func defaultManifestDirectory() string {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, "barchive", "manifests")
	}
	return filepath.Join(os.Getenv("HOME"), ".local", "share", "barchive", "manifests")
}

// LoadFromEnv overlays BARCHIVE_* environment variables, e.g.
// BARCHIVE_THROTTLE_PAGE=3s or BARCHIVE_CREDENTIALS_USERNAME=alice.
// Unset variables leave the current value untouched.
func (c *Config) LoadFromEnv() error {
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return fmt.Errorf("failed to process environment: %w", err)
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
	locations := []string{
		".barchive.yaml",
		".barchive.yml",
		DefaultConfigPath(),
		filepath.Join(os.Getenv("HOME"), ".barchive.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// DefaultConfigPath is where `config init` writes by default
func DefaultConfigPath() string {
	return filepath.Join(os.Getenv("HOME"), ".config", "barchive", "config.yaml")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	for name, raw := range map[string]string{
		"feed URL":     c.Broadcastify.FeedURL,
		"archive URL":  c.Broadcastify.ArchiveURL,
		"download URL": c.Broadcastify.DownloadURL,
		"login URL":    c.Broadcastify.LoginURL,
	} {
		u, err := url.Parse(raw)
		if raw == "" || err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s must be an absolute URL, got %q", name, raw))
		}
	}
	if c.Broadcastify.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	if c.Throttle.Page < 0 || c.Throttle.File < 0 || c.Throttle.DateNavigation < 0 {
		errs = append(errs, errors.New("throttle intervals cannot be negative"))
	}

	if c.Browser.LoadTimeout <= 0 {
		errs = append(errs, errors.New("browser load timeout must be positive"))
	}
	if c.Browser.RefreshTimeout <= 0 {
		errs = append(errs, errors.New("browser refresh timeout must be positive"))
	}
	if c.Browser.PollInterval <= 0 || c.Browser.PollInterval > c.Browser.RefreshTimeout {
		errs = append(errs, errors.New("browser poll interval must be positive and below the refresh timeout"))
	}

	if c.Download.OutputDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Build.ManifestDirectory == "" {
		errs = append(errs, errors.New("manifest directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
	default:
		errs = append(errs, errors.New("log format must be console or json"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file. The password is never written.
func (c *Config) Save(path string) error {
	out := *c
	out.Credentials.Password = ""

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only flags the user actually set should be present in the map.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["username"].(string); ok && v != "" {
		c.Credentials.Username = v
	}
	if v, ok := flags["password"].(string); ok && v != "" {
		c.Credentials.Password = v
	}
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Download.OutputDirectory = v
	}
	if v, ok := flags["chronological"].(bool); ok {
		c.Build.Chronological = v
	}
	if v, ok := flags["headless"].(bool); ok {
		c.Browser.Headless = v
	}
	if v, ok := flags["page-interval"].(time.Duration); ok && v >= 0 {
		c.Throttle.Page = v
	}
	if v, ok := flags["file-interval"].(time.Duration); ok && v >= 0 {
		c.Throttle.File = v
	}
	if v, ok := flags["metrics-file"].(string); ok && v != "" {
		c.Metrics.TextfilePath = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["log-format"].(string); ok && v != "" {
		c.Logging.Format = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".barchive.env"))

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
