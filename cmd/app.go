package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/urfave/cli"

	"github.com/warpdl/parkdl/common"
	"github.com/warpdl/parkdl/internal/acquire"
	"github.com/warpdl/parkdl/internal/browser"
	"github.com/warpdl/parkdl/internal/cache"
	"github.com/warpdl/parkdl/internal/catalog"
	"github.com/warpdl/parkdl/internal/config"
	"github.com/warpdl/parkdl/internal/fallback"
	"github.com/warpdl/parkdl/internal/primary"
	"github.com/warpdl/parkdl/internal/session"
	"github.com/warpdl/parkdl/internal/store"
	"github.com/warpdl/parkdl/internal/upstream"
	"github.com/warpdl/parkdl/pkg/credman"
	"github.com/warpdl/parkdl/pkg/logger"
)

var (
	debugMode   bool
	configDir   string
	proxyURL    string
	ephemeral   bool
	controlURL  string
	fallbackAny bool

	globalFlags = []cli.Flag{
		cli.BoolFlag{
			Name:        "debug",
			Usage:       "log informational messages too (default: false)",
			EnvVar:      common.DebugEnv,
			Destination: &debugMode,
		},
		cli.StringFlag{
			Name:        "config-dir",
			Usage:       "directory holding config.json, the session store and the cache",
			EnvVar:      common.ConfigDirEnv,
			Destination: &configDir,
		},
		cli.StringFlag{
			Name:        "proxy",
			Usage:       "http, https or socks5 proxy for API calls",
			EnvVar:      common.ProxyEnv,
			Destination: &proxyURL,
		},
		cli.BoolFlag{
			Name:        "ephemeral",
			Usage:       "keep sessions in memory only (default: false)",
			Destination: &ephemeral,
		},
		cli.StringFlag{
			Name:        "browser-url",
			Usage:       "attach to a running Chrome DevTools endpoint instead of launching one",
			Destination: &controlURL,
		},
		cli.BoolFlag{
			Name:        "fallback-on-any-error",
			Usage:       "use the public API on any primary failure, not only rejected sessions",
			Destination: &fallbackAny,
		},
	}
)

// app is everything a command may need, built once per invocation.
type app struct {
	cfg     config.Config
	l       logger.Logger
	manager *session.Manager
	orch    *acquire.Orchestrator
	catalog *catalog.Service

	closers []func() error
}

// Hooks for tests.
var (
	newBackend = func(opts browser.RodOptions, l logger.Logger) browser.Backend {
		return browser.NewRod(opts, l)
	}
	newLogger = func(debug bool) logger.Logger {
		return logger.NewZerologLogger(os.Stderr, debug)
	}
	osFs = afero.NewOsFs()
)

func loadConfig() (config.Config, error) {
	dir, err := config.Dir(configDir)
	if err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return cfg, err
	}
	if proxyURL != "" {
		cfg.Proxy = proxyURL
	}
	if controlURL != "" {
		cfg.Browser.ControlURL = controlURL
	}
	if fallbackAny {
		cfg.FallbackOnAnyError = true
	}
	return cfg, nil
}

// appLogger adds a JSON file backend when --log-file is set; "-" selects
// parkdl.log in the config directory.
func appLogger(cfg config.Config) (logger.Logger, error) {
	console := newLogger(debugMode)
	if logFile == "" {
		return console, nil
	}
	path := logFile
	if path == "-" {
		path = cfg.LogPath()
	}
	f, err := osFs.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("log file: %w", err)
	}
	return logger.NewMultiLogger(console, logger.NewZerologJSONLogger(f)), nil
}

func openSessionStore(cfg config.Config) (session.Store, func() error, error) {
	if ephemeral {
		return session.NewMemoryStore(), func() error { return nil }, nil
	}
	sealer, err := credman.NewSealer(os.Getenv(common.EncryptionKeyEnv), cfg.Dir)
	if err != nil {
		return nil, nil, fmt.Errorf("session key: %w", err)
	}
	db, err := store.Open(store.FileDSN(cfg.DBPath()), sealer)
	if err != nil {
		return nil, nil, err
	}
	return db, db.Close, nil
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	l, err := appLogger(cfg)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, l: l}
	a.closers = append(a.closers, a.l.Close)

	st, closeStore, err := openSessionStore(cfg)
	if err != nil {
		a.close()
		return nil, err
	}
	a.closers = append(a.closers, closeStore)

	a.manager = session.NewManager(cfg.Session, newBackend(cfg.Browser, a.l), st, a.l)
	a.closers = append(a.closers, a.manager.Shutdown)
	if err := a.manager.Initialize(ctx); err != nil {
		a.close()
		return nil, err
	}

	hc, err := upstream.NewHTTPClient(cfg.Proxy)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("proxy: %w", err)
	}
	ua := browser.GetUserAgent(cfg.Session.UserAgent)
	primaryAPI := upstream.NewClient(upstream.Options{
		HTTPClient: hc,
		Retry:      cfg.Retry,
		Timeout:    cfg.HTTPTimeout,
		UserAgent:  ua,
		Logger:     a.l,
	})
	publicAPI := upstream.NewClient(upstream.Options{
		HTTPClient: hc,
		Retry:      cfg.Retry,
		Timeout:    cfg.HTTPTimeout,
		UserAgent:  ua,
		Limiter:    fallback.NewLimiter(cfg.FallbackRate),
		Logger:     a.l,
	})

	a.orch = acquire.NewOrchestrator(
		primary.NewClient(primaryAPI, a.manager, cfg.PrimaryBases),
		fallback.NewClient(publicAPI, cfg.FallbackBaseURL),
		a.manager,
		acquire.Options{FallbackOnAnyError: cfg.FallbackOnAnyError},
		a.l,
	)

	cs, err := cache.NewFileStore(osFs, cfg.CacheDir())
	if err != nil {
		a.l.Warning("cache disabled: %v", err)
		a.catalog = catalog.NewService(a.orch, nil, a.l)
	} else {
		a.catalog = catalog.NewService(a.orch, cs, a.l)
	}
	return a, nil
}

// close runs the closers in reverse order and returns the first error.
func (a *app) close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
