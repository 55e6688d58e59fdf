// Package config loads ent's settings from a config file and the
// environment.
//
// Files named ent.toml, ent.yaml or ent.yml are searched in the working
// directory and then $XDG_CONFIG_HOME/ent. Every key can be overridden by
// an ENT_ environment variable with dots replaced by underscores
// (ENT_CONCURRENCY, ENT_CACHE_FRESHNESS). The GitHub token also falls back
// to GITHUB_TOKEN.
package config

import (
	stderrors "errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
	"github.com/spf13/viper"

	"github.com/serpent-os/ent/pkg/cache"
	"github.com/serpent-os/ent/pkg/errors"
	"github.com/serpent-os/ent/pkg/integrations/summit"
	"github.com/serpent-os/ent/pkg/pipeline"
	"github.com/serpent-os/ent/pkg/source"
	"github.com/serpent-os/ent/pkg/walker"
)

// AppName names the config and cache directories.
const AppName = "ent"

const (
	DefaultHistoryDatabase = "ent"
	DefaultServerAddr      = "127.0.0.1:8080"
	DefaultLogLevel        = "info"
)

type CacheConfig struct {
	Backend   string        `mapstructure:"backend"`
	Freshness time.Duration `mapstructure:"freshness"`
	Dir       string        `mapstructure:"dir"`
	RedisURL  string        `mapstructure:"redis_url"`

	// Prefix scopes keys so several deployments can share one backend.
	Prefix string `mapstructure:"prefix"`
}

type HistoryConfig struct {
	MongoURI string `mapstructure:"mongo_uri"`
	Database string `mapstructure:"database"`
}

type TokenConfig struct {
	Token string `mapstructure:"token"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type SummitConfig struct {
	URL string `mapstructure:"url"`
}

// Config is the resolved application configuration.
type Config struct {
	Concurrency int           `mapstructure:"concurrency"`
	RunDeadline time.Duration `mapstructure:"run_deadline"`
	Ignore      []string      `mapstructure:"ignore"`

	Cache   CacheConfig   `mapstructure:"cache"`
	History HistoryConfig `mapstructure:"history"`
	GitHub  TokenConfig   `mapstructure:"github"`
	GitLab  TokenConfig   `mapstructure:"gitlab"`
	Log     LogConfig     `mapstructure:"log"`
	Server  ServerConfig  `mapstructure:"server"`
	Summit  SummitConfig  `mapstructure:"summit"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

// Dir returns $XDG_CONFIG_HOME/ent.
func Dir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DefaultCacheDir returns $XDG_CACHE_HOME/ent.
func DefaultCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("concurrency", pipeline.DefaultConcurrency)
	v.SetDefault("run_deadline", pipeline.DefaultRunDeadline)
	v.SetDefault("ignore", walker.DefaultIgnore)

	v.SetDefault("cache.backend", string(cache.BackendFile))
	v.SetDefault("cache.freshness", pipeline.DefaultFreshness)
	v.SetDefault("cache.dir", DefaultCacheDir())
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.prefix", "")

	v.SetDefault("history.mongo_uri", "")
	v.SetDefault("history.database", DefaultHistoryDatabase)

	v.SetDefault("github.token", "")
	v.SetDefault("gitlab.token", "")
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("server.addr", DefaultServerAddr)
	v.SetDefault("summit.url", summit.DefaultBaseURL)
}

// Load reads configuration. A non-empty file is read directly and must
// exist; otherwise the search path is used and a missing file is fine.
func Load(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("ENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("github.token", "ENT_GITHUB_TOKEN", "GITHUB_TOKEN")

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(AppName)
		v.AddConfigPath(".")
		v.AddConfigPath(Dir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !stderrors.As(err, &notFound) {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode config")
	}
	cfg.File = v.ConfigFileUsed()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Concurrency <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "concurrency must be positive, got %d", c.Concurrency)
	}
	if c.RunDeadline < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "run_deadline must not be negative")
	}
	if c.Cache.Freshness < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.freshness must not be negative")
	}
	backend, err := cache.ParseBackend(c.Cache.Backend)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "cache.backend")
	}
	if backend == cache.BackendRedis && c.Cache.RedisURL == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.redis_url is required for the redis backend")
	}
	if c.Summit.URL == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "summit.url must not be empty")
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "log.level")
	}
	return nil
}

// PipelineOptions maps the run settings onto pipeline options.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Concurrency: c.Concurrency,
		RunDeadline: c.RunDeadline,
		Freshness:   c.Cache.Freshness,
		Ignore:      c.Ignore,
		Sources:     c.SourceOptions(),
	}
}

// CacheOptions returns the settings for cache.Open.
func (c *Config) CacheOptions() cache.Options {
	backend, _ := cache.ParseBackend(c.Cache.Backend)
	return cache.Options{
		Backend:  backend,
		Dir:      c.Cache.Dir,
		RedisURL: c.Cache.RedisURL,
	}
}

// CacheKeyer returns the keyer for cache entries, scoped by cache.prefix
// when one is set.
func (c *Config) CacheKeyer() cache.Keyer {
	if c.Cache.Prefix == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(nil, c.Cache.Prefix)
}

// SourceOptions returns the API tokens for the upstream clients.
func (c *Config) SourceOptions() source.Options {
	return source.Options{
		GitHubToken: c.GitHub.Token,
		GitLabToken: c.GitLab.Token,
	}
}
