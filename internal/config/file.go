package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/warpdl/parkdl/common"
	"github.com/warpdl/parkdl/internal/session"
)

// File is the on-disk shape of config.json. Durations use the units in
// their names. Absent fields keep the default.
type File struct {
	RefreshBufferMinutes *float64 `json:"refreshBufferMinutes"`
	DefaultSessionHours  *float64 `json:"defaultSessionHours"`
	CookiePollAttempts   *int     `json:"cookiePollAttempts"`
	CookiePollIntervalMs *int     `json:"cookiePollIntervalMs"`
	NavigationTimeoutMs  *int     `json:"navigationTimeoutMs"`
	HTTPTimeoutMs        *int     `json:"httpTimeoutMs"`
	ConsentSelectors     []string `json:"consentSelectors"`
	UserAgent            string   `json:"userAgent"`

	Retry *struct {
		MaxRetries              *int  `json:"maxRetries"`
		BaseDelayMs             *int  `json:"baseDelayMs"`
		NonRetryableStatusCodes []int `json:"nonRetryableStatusCodes"`
	} `json:"retry"`

	Destinations map[string]DestinationFile `json:"destinations"`

	Proxy              string   `json:"proxy"`
	FallbackBaseURL    string   `json:"fallbackBaseUrl"`
	FallbackRate       *float64 `json:"fallbackRequestsPerSecond"`
	FallbackOnAnyError *bool    `json:"fallbackOnAnyError"`

	Browser *struct {
		ControlURL string `json:"controlUrl"`
		Bin        string `json:"bin"`
		Headless   *bool  `json:"headless"`
		NoSandbox  bool   `json:"noSandbox"`
	} `json:"browser"`

	KeepaliveCron string `json:"keepaliveCron"`
}

type DestinationFile struct {
	session.DestinationOverride
	APIBase string `json:"apiBase,omitempty"`
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func (f *File) apply(cfg *Config) error {
	s := &cfg.Session
	if f.RefreshBufferMinutes != nil {
		if *f.RefreshBufferMinutes < 0 {
			return errors.New("refreshBufferMinutes must not be negative")
		}
		s.RefreshBuffer = time.Duration(*f.RefreshBufferMinutes * float64(time.Minute))
	}
	if f.DefaultSessionHours != nil {
		if *f.DefaultSessionHours <= 0 {
			return errors.New("defaultSessionHours must be positive")
		}
		s.Token.DefaultSessionDuration = time.Duration(*f.DefaultSessionHours * float64(time.Hour))
	}
	if f.CookiePollAttempts != nil {
		s.CookiePollAttempts = *f.CookiePollAttempts
	}
	if f.CookiePollIntervalMs != nil {
		s.CookiePollInterval = ms(*f.CookiePollIntervalMs)
	}
	if f.NavigationTimeoutMs != nil {
		s.NavigationTimeout = ms(*f.NavigationTimeoutMs)
	}
	if f.HTTPTimeoutMs != nil {
		cfg.HTTPTimeout = ms(*f.HTTPTimeoutMs)
	}
	if len(f.ConsentSelectors) > 0 {
		s.ConsentSelectors = f.ConsentSelectors
	}
	if f.UserAgent != "" {
		s.UserAgent = f.UserAgent
	}

	if r := f.Retry; r != nil {
		if r.MaxRetries != nil {
			if *r.MaxRetries < 0 {
				return errors.New("retry.maxRetries must not be negative")
			}
			cfg.Retry.MaxRetries = *r.MaxRetries
		}
		if r.BaseDelayMs != nil {
			cfg.Retry.BaseDelay = ms(*r.BaseDelayMs)
		}
		if r.NonRetryableStatusCodes != nil {
			cfg.Retry.NonRetryableStatusCodes = r.NonRetryableStatusCodes
		}
	}

	for name, d := range f.Destinations {
		dest, err := common.ParseDestination(name)
		if err != nil {
			return fmt.Errorf("destinations.%s: %w", name, err)
		}
		if s.Destinations == nil {
			s.Destinations = map[common.Destination]session.DestinationOverride{}
		}
		s.Destinations[dest] = d.DestinationOverride
		if d.APIBase != "" {
			cfg.PrimaryBases[dest] = d.APIBase
		}
	}

	if f.Proxy != "" {
		cfg.Proxy = f.Proxy
	}
	if f.FallbackBaseURL != "" {
		cfg.FallbackBaseURL = f.FallbackBaseURL
	}
	if f.FallbackRate != nil {
		cfg.FallbackRate = *f.FallbackRate
	}
	if f.FallbackOnAnyError != nil {
		cfg.FallbackOnAnyError = *f.FallbackOnAnyError
	}
	if b := f.Browser; b != nil {
		cfg.Browser.ControlURL = b.ControlURL
		cfg.Browser.Bin = b.Bin
		cfg.Browser.NoSandbox = b.NoSandbox
		if b.Headless != nil {
			cfg.Browser.Headless = *b.Headless
		}
	}
	if f.KeepaliveCron != "" {
		cfg.KeepaliveCron = f.KeepaliveCron
	}
	return nil
}
