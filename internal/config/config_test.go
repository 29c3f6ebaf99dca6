package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/warpdl/parkdl/common"
	"github.com/warpdl/parkdl/internal/session"
)

func TestLoadFs_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadFs(afero.NewMemMapFs(), "/cfg")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Session.RefreshBuffer != session.DEF_REFRESH_BUFFER {
		t.Errorf("refresh buffer = %v", cfg.Session.RefreshBuffer)
	}
	if cfg.Retry.MaxRetries != 3 || cfg.Retry.BaseDelay != time.Second {
		t.Errorf("retry = %+v", cfg.Retry)
	}
	if cfg.Session.Token.DefaultSessionDuration != 8*time.Hour {
		t.Errorf("session duration = %v", cfg.Session.Token.DefaultSessionDuration)
	}
	if !cfg.Browser.Headless || cfg.FallbackOnAnyError {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.DBPath() != filepath.Join("/cfg", DBFileName) {
		t.Errorf("db path = %s", cfg.DBPath())
	}
}

func TestLoadFs_AppliesFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	body := `{
		"refreshBufferMinutes": 2,
		"defaultSessionHours": 4,
		"cookiePollAttempts": 5,
		"cookiePollIntervalMs": 250,
		"httpTimeoutMs": 1500,
		"consentSelectors": ["#accept"],
		"retry": {"maxRetries": 1, "baseDelayMs": 10, "nonRetryableStatusCodes": [400]},
		"destinations": {
			"wdw": {"locale": "en-GB", "apiBase": "http://127.0.0.1:9999"}
		},
		"fallbackOnAnyError": true,
		"browser": {"headless": false, "controlUrl": "ws://127.0.0.1:9222"},
		"keepaliveCron": "0 * * * *"
	}`
	if err := afero.WriteFile(fs, "/cfg/config.json", []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFs(fs, "/cfg")
	if err != nil {
		t.Fatal(err)
	}
	s := cfg.Session
	if s.RefreshBuffer != 2*time.Minute || s.Token.DefaultSessionDuration != 4*time.Hour {
		t.Errorf("durations = %v, %v", s.RefreshBuffer, s.Token.DefaultSessionDuration)
	}
	if s.CookiePollAttempts != 5 || s.CookiePollInterval != 250*time.Millisecond {
		t.Errorf("poll = %d, %v", s.CookiePollAttempts, s.CookiePollInterval)
	}
	if cfg.HTTPTimeout != 1500*time.Millisecond {
		t.Errorf("http timeout = %v", cfg.HTTPTimeout)
	}
	if len(s.ConsentSelectors) != 1 || s.ConsentSelectors[0] != "#accept" {
		t.Errorf("selectors = %v", s.ConsentSelectors)
	}
	if cfg.Retry.MaxRetries != 1 || cfg.Retry.BaseDelay != 10*time.Millisecond || len(cfg.Retry.NonRetryableStatusCodes) != 1 {
		t.Errorf("retry = %+v", cfg.Retry)
	}
	if s.Destinations[common.WaltDisneyWorld].Locale != "en-GB" {
		t.Errorf("destinations = %+v", s.Destinations)
	}
	if cfg.PrimaryBases[common.WaltDisneyWorld] != "http://127.0.0.1:9999" {
		t.Errorf("bases = %v", cfg.PrimaryBases)
	}
	if !cfg.FallbackOnAnyError || cfg.Browser.Headless || cfg.Browser.ControlURL == "" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.KeepaliveCron != "0 * * * *" {
		t.Errorf("cron = %q", cfg.KeepaliveCron)
	}
}

func TestLoadFs_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"syntax", `{`},
		{"unknown destination", `{"destinations": {"tdr": {}}}`},
		{"negative buffer", `{"refreshBufferMinutes": -1}`},
		{"zero session", `{"defaultSessionHours": 0}`},
		{"negative retries", `{"retry": {"maxRetries": -2}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			if err := afero.WriteFile(fs, "/cfg/config.json", []byte(tt.body), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadFs(fs, "/cfg"); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestDir_EnvOverride(t *testing.T) {
	want := filepath.Join(t.TempDir(), "nested", "parkdl")
	t.Setenv(common.ConfigDirEnv, want)
	got, err := Dir("")
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("Dir = %q, want %q", got, want)
	}
	if ok, _ := afero.DirExists(afero.NewOsFs(), got); !ok {
		t.Fatal("dir not created")
	}

	override := filepath.Join(t.TempDir(), "flag")
	if got, err := Dir(override); err != nil || got != override {
		t.Fatalf("Dir(override) = %q, %v", got, err)
	}
}
