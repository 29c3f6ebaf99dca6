// Package config resolves parkdl's settings: built-in defaults, then an
// optional config.json in the config directory. CLI flags are applied on
// top by the cmd package.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/warpdl/parkdl/common"
	"github.com/warpdl/parkdl/internal/browser"
	"github.com/warpdl/parkdl/internal/fallback"
	"github.com/warpdl/parkdl/internal/session"
	"github.com/warpdl/parkdl/internal/upstream"
	"github.com/warpdl/parkdl/pkg/retry"
)

const (
	FileName      = "config.json"
	DBFileName    = "sessions.db"
	CacheDirName  = "cache"
	LogFileName   = "parkdl.log"
	DEF_KEEPALIVE = "*/30 * * * *"
)

// Config is the fully resolved configuration.
type Config struct {
	// Dir is the configuration directory everything else lives under.
	Dir string

	Session session.Config
	Retry   retry.Config
	// HTTPTimeout bounds one request attempt.
	HTTPTimeout time.Duration
	Proxy       string
	Browser     browser.RodOptions

	// PrimaryBases overrides the private API base URL per destination.
	PrimaryBases       map[common.Destination]string
	FallbackBaseURL    string
	FallbackRate       float64
	FallbackOnAnyError bool

	KeepaliveCron string
}

func (c Config) DBPath() string   { return filepath.Join(c.Dir, DBFileName) }
func (c Config) CacheDir() string { return filepath.Join(c.Dir, CacheDirName) }
func (c Config) LogPath() string  { return filepath.Join(c.Dir, LogFileName) }

// Default returns the built-in configuration rooted at dir.
func Default(dir string) Config {
	return Config{
		Dir:             dir,
		Session:         session.DefaultConfig(),
		Retry:           retry.DefaultConfig(),
		HTTPTimeout:     upstream.DEF_REQUEST_TIMEOUT,
		Browser:         browser.RodOptions{Headless: true},
		PrimaryBases:    map[common.Destination]string{},
		FallbackBaseURL: fallback.DEF_BASE_URL,
		FallbackRate:    fallback.DEF_RATE,
		KeepaliveCron:   DEF_KEEPALIVE,
	}
}

// Dir returns the configuration directory, creating it if needed. A
// non-empty override wins, then PARKDL_CONFIG_DIR, then the per-user
// default.
func Dir(override string) (string, error) {
	dir := override
	if dir == "" {
		dir = os.Getenv(common.ConfigDirEnv)
	}
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("config: locate user config dir: %w", err)
		}
		dir = filepath.Join(base, "parkdl")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(abs, 0o700); err != nil {
		return "", fmt.Errorf("config: create %s: %w", abs, err)
	}
	return abs, nil
}

// Load reads dir/config.json from the OS filesystem.
func Load(dir string) (Config, error) {
	return LoadFs(afero.NewOsFs(), dir)
}

// LoadFs reads dir/config.json from fs over the defaults. A missing file
// yields the defaults.
func LoadFs(fs afero.Fs, dir string) (Config, error) {
	cfg := Default(dir)
	b, err := afero.ReadFile(fs, filepath.Join(dir, FileName))
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", FileName, err)
	}
	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", FileName, err)
	}
	if err := f.apply(&cfg); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", FileName, err)
	}
	return cfg, nil
}
