// Package config loads the preview tooling's configuration from
// pigment.yaml and PIGMENT_* environment variables, and the brand
// palette file that feeds the color wall.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ConfigFileName is the configuration file the preview looks for when
// no explicit path is given.
const ConfigFileName = "pigment.yaml"

// Config is the preview tooling configuration. The runtime itself is
// configured in code through pigment.Config; this file/env surface
// exists for the CLI.
type Config struct {
	Site    SiteConfig    `mapstructure:"site"`
	Preview PreviewConfig `mapstructure:"preview"`
	Storage StorageConfig `mapstructure:"storage"`
	Sync    SyncConfig    `mapstructure:"sync"`
}

// SiteConfig locates the authored site content.
type SiteConfig struct {
	// Dir holds the authored HTML pages the preview serves.
	Dir string `mapstructure:"dir" validate:"required"`

	// Palette is the path to the palette YAML file. Empty uses the
	// built-in brand palette.
	Palette string `mapstructure:"palette"`

	// Delay is the wait before the delayed page phase.
	Delay time.Duration `mapstructure:"delay"`
}

// PreviewConfig configures the dev HTTP server.
type PreviewConfig struct {
	// Host is the interface to bind to.
	Host string `mapstructure:"host"`

	// Port is the port to listen on. Zero asks the system for one.
	Port int `mapstructure:"port" validate:"min=0,max=65535"`
}

// Addr returns the host:port the preview server listens on.
func (c PreviewConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StorageConfig selects the persistence backend for saved state.
type StorageConfig struct {
	// Backend is one of memory, file, sqlite, s3.
	Backend string `mapstructure:"backend" validate:"oneof=memory file sqlite s3"`

	// Dir is the file backend's directory.
	Dir string `mapstructure:"dir"`

	// Path is the sqlite backend's database file.
	Path string `mapstructure:"path"`

	// Bucket and Prefix locate the s3 backend's objects.
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
}

// SyncConfig configures the cross-process sync hub.
type SyncConfig struct {
	// Enabled turns the /sync websocket endpoint on.
	Enabled bool `mapstructure:"enabled"`

	// Secret signs and verifies hub bearer tokens. Empty disables auth.
	Secret string `mapstructure:"secret"`

	// ReplayTTL is how long the hub replays the last payload per
	// channel to late joiners.
	ReplayTTL time.Duration `mapstructure:"replay_ttl"`
}

// Default returns the configuration used when no file or environment
// overrides exist.
func Default() Config {
	return Config{
		Site: SiteConfig{
			Dir:   "site",
			Delay: 3 * time.Second,
		},
		Preview: PreviewConfig{
			Host: "127.0.0.1",
			Port: 8736,
		},
		Storage: StorageConfig{
			Backend: "memory",
			Dir:     ".pigment/store",
			Path:    ".pigment/store.db",
		},
		Sync: SyncConfig{
			Enabled:   true,
			ReplayTTL: 5 * time.Minute,
		},
	}
}

// Load reads configuration from path, or from pigment.yaml in the
// working directory when path is empty, layered under PIGMENT_*
// environment variables. A missing default file is not an error; a
// missing explicit path is.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(strings.TrimSuffix(ConfigFileName, filepath.Ext(ConfigFileName)))
	}

	v.SetEnvPrefix("PIGMENT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	def := Default()
	v.SetDefault("site.dir", def.Site.Dir)
	v.SetDefault("site.palette", def.Site.Palette)
	v.SetDefault("site.delay", def.Site.Delay)
	v.SetDefault("preview.host", def.Preview.Host)
	v.SetDefault("preview.port", def.Preview.Port)
	v.SetDefault("storage.backend", def.Storage.Backend)
	v.SetDefault("storage.dir", def.Storage.Dir)
	v.SetDefault("storage.path", def.Storage.Path)
	v.SetDefault("storage.bucket", def.Storage.Bucket)
	v.SetDefault("storage.prefix", def.Storage.Prefix)
	v.SetDefault("sync.enabled", def.Sync.Enabled)
	v.SetDefault("sync.secret", def.Sync.Secret)
	v.SetDefault("sync.replay_ttl", def.Sync.ReplayTTL)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints, then the cross-field requirements
// struct tags cannot express.
func Validate(cfg *Config) error {
	if err := validatorInstance().Struct(cfg); err != nil {
		return convertValidationError(err)
	}

	switch cfg.Storage.Backend {
	case "file":
		if cfg.Storage.Dir == "" {
			return fmt.Errorf("storage backend %q needs storage.dir", cfg.Storage.Backend)
		}
	case "sqlite":
		if cfg.Storage.Path == "" {
			return fmt.Errorf("storage backend %q needs storage.path", cfg.Storage.Backend)
		}
	case "s3":
		if cfg.Storage.Bucket == "" {
			return fmt.Errorf("storage backend %q needs storage.bucket", cfg.Storage.Backend)
		}
	}
	return nil
}
