// Package config loads and validates the releasekit configuration: source and
// artifact roots, external tool locations, publish feed destinations and
// credentials, and the ambient knobs (retry, history, events, metrics, daemon,
// watch). Environment variables referenced as ${VAR} in the YAML are expanded
// at load time; a .env file next to the working directory is loaded first.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	pipeerr "git.home.luguber.info/inful/releasekit/internal/errors"
)

// RetryBackoffMode selects the fan-out retry backoff curve.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

// Config is the root configuration document.
type Config struct {
	SourceRoot    string `yaml:"source_root"`
	ArtifactsDir  string `yaml:"artifacts_dir"`
	Configuration string `yaml:"configuration"`
	FailFast      bool   `yaml:"fail_fast"`

	Version VersionConfig `yaml:"version"`
	Tools   ToolsConfig   `yaml:"tools"`
	Docs    DocsConfig    `yaml:"docs"`
	Feeds   FeedsConfig   `yaml:"feeds"`
	Retry   RetryConfig   `yaml:"retry"`
	History HistoryConfig `yaml:"history"`
	Events  EventsConfig  `yaml:"events"`
	Metrics MetricsConfig `yaml:"metrics"`
	Daemon  DaemonConfig  `yaml:"daemon"`
	Watch   WatchConfig   `yaml:"watch"`
}

// VersionConfig supplies the coarse version fields the codec does not derive
// from time.
type VersionConfig struct {
	Build uint16 `yaml:"build"`
	Major uint16 `yaml:"major"`
}

// ToolsConfig names the external tools the pipeline shells out to.
type ToolsConfig struct {
	Dotnet      string `yaml:"dotnet"`
	MSBuild     string `yaml:"msbuild"`
	PropsReader string `yaml:"props_reader"`
	Docfx       string `yaml:"docfx"`

	// StageTimeout bounds each external invocation; zero disables the bound.
	StageTimeout time.Duration `yaml:"stage_timeout"`
}

// DocsConfig controls the per-unit docs generation stage.
type DocsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// FeedConfig is one remote package feed destination.
type FeedConfig struct {
	URL string `yaml:"url"`
	// CredentialEnv names the environment variable holding the push
	// credential. The value itself never appears in config.
	CredentialEnv string `yaml:"credential_env"`
}

// FeedsConfig holds the four feed destinations of the channel table.
type FeedsConfig struct {
	LocalDir       string     `yaml:"local"`
	GitHub         FeedConfig `yaml:"github"`
	TestRegistry   FeedConfig `yaml:"test_registry"`
	PublicRegistry FeedConfig `yaml:"public_registry"`
}

// RetryConfig tunes fan-out push retries.
type RetryConfig struct {
	Backoff    RetryBackoffMode `yaml:"backoff"`
	Initial    time.Duration    `yaml:"initial"`
	Max        time.Duration    `yaml:"max"`
	MaxRetries int              `yaml:"max_retries"`
}

// HistoryConfig controls the run history store.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // empty: <artifacts>/releasekit.db
}

// EventsConfig controls run/stage event publishing.
type EventsConfig struct {
	NATSURL string `yaml:"nats_url"` // empty: publishing disabled
}

// MetricsConfig controls the Prometheus endpoint outside daemon mode.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// DaemonConfig controls scheduled daemon mode.
type DaemonConfig struct {
	Interval time.Duration `yaml:"interval"`
	Listen   string        `yaml:"listen"`
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Load reads, expands and validates a configuration file.
func Load(path string) (*Config, error) {
	// Best effort; absence of a .env file is the normal case.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pipeerr.ConfigNotFound(path)
		}
		return nil, pipeerr.Wrap(err, pipeerr.CategoryConfig, pipeerr.SeverityFatal, "read configuration")
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, pipeerr.Wrap(err, pipeerr.CategoryConfig, pipeerr.SeverityFatal, "parse configuration").
			WithContext("path", path)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file exists (discover-only
// commands work without one).
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.SourceRoot == "" {
		c.SourceRoot = "src"
	}
	if c.ArtifactsDir == "" {
		c.ArtifactsDir = "artifacts"
	}
	if c.Configuration == "" {
		c.Configuration = "Release"
	}
	if c.Version.Build == 0 && c.Version.Major == 0 {
		c.Version.Build = 1
	}
	if c.Tools.Dotnet == "" {
		c.Tools.Dotnet = "dotnet"
	}
	if c.Tools.MSBuild == "" {
		c.Tools.MSBuild = "msbuild"
	}
	if c.Tools.PropsReader == "" {
		c.Tools.PropsReader = "msbuildprops"
	}
	if c.Tools.Docfx == "" {
		c.Tools.Docfx = "docfx"
	}
	if c.Feeds.LocalDir == "" {
		c.Feeds.LocalDir = "feeds/local"
	}
	if c.Retry.Backoff == "" {
		c.Retry.Backoff = RetryBackoffLinear
	}
	if c.Retry.Initial == 0 {
		c.Retry.Initial = time.Second
	}
	if c.Retry.Max == 0 {
		c.Retry.Max = 30 * time.Second
	}
	if c.Retry.MaxRetries == 0 {
		c.Retry.MaxRetries = 2
	}
	if c.Metrics.Listen == "" {
		c.Metrics.Listen = ":9464"
	}
	if c.Daemon.Interval == 0 {
		c.Daemon.Interval = 15 * time.Minute
	}
	if c.Daemon.Listen == "" {
		c.Daemon.Listen = ":9464"
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = 2 * time.Second
	}
}

// Validate checks structural invariants that hold regardless of channel.
// Channel-dependent requirements (feed credentials) are checked by the
// fan-out preflight once the run's classification is known.
func (c *Config) Validate() error {
	if c.SourceRoot == "" {
		return pipeerr.ConfigRequired("source_root")
	}
	if c.Retry.MaxRetries < 0 {
		return pipeerr.New(pipeerr.CategoryConfig, pipeerr.SeverityFatal, "retry.max_retries cannot be negative")
	}
	switch c.Retry.Backoff {
	case RetryBackoffFixed, RetryBackoffLinear, RetryBackoffExponential:
	default:
		return pipeerr.New(pipeerr.CategoryConfig, pipeerr.SeverityFatal, "unknown retry backoff mode").
			WithContext("backoff", string(c.Retry.Backoff))
	}
	return nil
}

// Credential resolves a feed credential from its environment variable.
// A feed declared with a credential_env whose variable is unset is a config
// error at the point of use.
func (f FeedConfig) Credential(feedName string) (string, error) {
	if f.CredentialEnv == "" {
		return "", nil
	}
	value := os.Getenv(f.CredentialEnv)
	if value == "" {
		return "", pipeerr.CredentialMissing(feedName, f.CredentialEnv)
	}
	return value, nil
}

// HistoryPath resolves the history database location.
func (c *Config) HistoryPath() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	return fmt.Sprintf("%s/releasekit.db", c.ArtifactsDir)
}
