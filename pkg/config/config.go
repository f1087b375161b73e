// Package config loads the zplkit TOML configuration file.
//
// The file lives at $XDG_CONFIG_HOME/zplkit/config.toml (usually
// ~/.config/zplkit/config.toml). Every key is optional:
//
//	[preview]
//	base_url = "http://api.labelary.com"
//	resolution = "8dpmm"
//	size = "4x6"
//	timeout = "15s"
//
//	[cache]
//	backend = "file"        # file, redis or none
//	redis_addr = "localhost:6379"
//
//	[store]
//	backend = "file"        # file or mongo
//	mongo_uri = "mongodb://localhost:27017"
//
//	[server]
//	addr = ":8080"
//
//	[compile]
//	escape = "hex"          # hex, strip, reject or none
//	substitution = "longest-first"
//	scale = 2.0
//
//	[catalog]
//	dir = "~/labels/templates"
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/zplkit/pkg/cache"
	"github.com/matzehuels/zplkit/pkg/errors"
	"github.com/matzehuels/zplkit/pkg/label"
	"github.com/matzehuels/zplkit/pkg/preview"
	"github.com/matzehuels/zplkit/pkg/store"
	"github.com/matzehuels/zplkit/pkg/zpl"
)

// Duration is a time.Duration written as "15s" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the whole configuration file.
type Config struct {
	Preview PreviewConfig `toml:"preview"`
	Cache   CacheConfig   `toml:"cache"`
	Store   StoreConfig   `toml:"store"`
	Server  ServerConfig  `toml:"server"`
	Compile CompileConfig `toml:"compile"`
	Catalog CatalogConfig `toml:"catalog"`
}

// PreviewConfig configures the preview service.
type PreviewConfig struct {
	BaseURL    string           `toml:"base_url"`
	Resolution label.Resolution `toml:"resolution"`
	Size       label.Size       `toml:"size"`
	Timeout    Duration         `toml:"timeout"`
}

// CacheConfig configures the preview cache.
type CacheConfig struct {
	Backend   cache.Backend `toml:"backend"`
	Dir       string        `toml:"dir,omitempty"`
	RedisAddr string        `toml:"redis_addr,omitempty"`
	RedisDB   int           `toml:"redis_db,omitempty"`
	Prefix    string        `toml:"prefix,omitempty"`
}

// StoreConfig configures the document store.
type StoreConfig struct {
	Backend  store.Backend `toml:"backend"`
	Dir      string        `toml:"dir,omitempty"`
	MongoURI string        `toml:"mongo_uri,omitempty"`
	Database string        `toml:"database,omitempty"`
}

// ServerConfig configures `zplkit serve`.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// CompileConfig holds compiler defaults.
type CompileConfig struct {
	Escape       zpl.EscapePolicy       `toml:"escape"`
	Substitution zpl.SubstitutionPolicy `toml:"substitution"`
	Scale        float64                `toml:"scale"`
}

// CatalogConfig points at extra template files merged over the built-in
// catalog.
type CatalogConfig struct {
	Dir string `toml:"dir,omitempty"`
}

// DefaultAddr is the default server listen address.
const DefaultAddr = ":8080"

// Default returns the built-in configuration.
func Default() Config {
	profile := label.DefaultProfile()
	return Config{
		Preview: PreviewConfig{
			BaseURL:    preview.DefaultBaseURL,
			Resolution: profile.Resolution,
			Size:       profile.Size,
			Timeout:    Duration{preview.DefaultTimeout},
		},
		Cache:   CacheConfig{Backend: cache.BackendFile},
		Store:   StoreConfig{Backend: store.BackendFile},
		Server:  ServerConfig{Addr: DefaultAddr},
		Compile: CompileConfig{Escape: zpl.EscapeHex, Substitution: zpl.SubstituteLongestFirst, Scale: zpl.DefaultScale},
	}
}

// Path returns the default config file location.
func Path() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "zplkit", "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", "zplkit", "config.toml"), nil
}

// Load reads path over Default. An empty path reads the default location,
// where a missing file is not an error; a missing explicit path is.
// Unknown keys are returned in the second value so callers can warn.
func Load(path string) (Config, []string, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := Path()
		if err != nil {
			return cfg, nil, err
		}
		path = p
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return Default(), nil, nil
		}
		if os.IsNotExist(err) {
			return cfg, nil, fmt.Errorf("config: %w", err)
		}
		return cfg, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "config: parse %s", path)
	}

	var unknown []string
	for _, key := range md.Undecoded() {
		unknown = append(unknown, key.String())
	}
	sort.Strings(unknown)

	cfg.Catalog.Dir = expandHome(cfg.Catalog.Dir)
	cfg.Cache.Dir = expandHome(cfg.Cache.Dir)
	cfg.Store.Dir = expandHome(cfg.Store.Dir)
	return cfg, unknown, cfg.Validate()
}

// Validate checks enumerated values.
func (c Config) Validate() error {
	if err := errors.ValidateURL(c.Preview.BaseURL); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "preview.base_url")
	}
	if err := c.Profile().Validate(); err != nil {
		return err
	}
	if _, err := zpl.ParseEscapePolicy(string(c.Compile.Escape)); err != nil {
		return err
	}
	if _, err := zpl.ParseSubstitutionPolicy(string(c.Compile.Substitution)); err != nil {
		return err
	}
	if c.Compile.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "compile.scale must not be negative")
	}
	switch c.Cache.Backend {
	case cache.BackendFile, cache.BackendRedis, cache.BackendNone, "":
	default:
		return errors.New(errors.ErrCodeInvalidInput, "invalid cache.backend: %q", c.Cache.Backend)
	}
	switch c.Store.Backend {
	case store.BackendFile, store.BackendMongo, "":
	default:
		return errors.New(errors.ErrCodeInvalidInput, "invalid store.backend: %q", c.Store.Backend)
	}
	return nil
}

// Profile returns the configured preview profile.
func (c Config) Profile() label.Profile {
	return label.Profile{Resolution: c.Preview.Resolution, Size: c.Preview.Size}.WithDefaults()
}

// PreviewOptions returns client options for the preview section.
func (c Config) PreviewOptions() []preview.Option {
	var opts []preview.Option
	if c.Preview.BaseURL != "" {
		opts = append(opts, preview.WithBaseURL(c.Preview.BaseURL))
	}
	if c.Preview.Timeout.Duration > 0 {
		opts = append(opts, preview.WithTimeout(c.Preview.Timeout.Duration))
	}
	return opts
}

// CacheOptions returns the cache section as cache.Options.
func (c Config) CacheOptions() cache.Options {
	return cache.Options{
		Backend:   c.Cache.Backend,
		Dir:       c.Cache.Dir,
		RedisAddr: c.Cache.RedisAddr,
		RedisDB:   c.Cache.RedisDB,
		Prefix:    c.Cache.Prefix,
	}
}

// StoreOptions returns the store section as store.Options.
func (c Config) StoreOptions() store.Options {
	return store.Options{
		Backend:  c.Store.Backend,
		Dir:      c.Store.Dir,
		MongoURI: c.Store.MongoURI,
		Database: c.Store.Database,
	}
}

// Encode renders c as TOML.
func (c Config) Encode() (string, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
