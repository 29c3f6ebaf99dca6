package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/warpdl/parkdl/internal/cookies"
	"github.com/warpdl/parkdl/pkg/logger"
)

// RodOptions configures the Chrome process behind a Rod backend.
type RodOptions struct {
	// ControlURL attaches to an already running browser instead of
	// launching one.
	ControlURL string
	// Bin overrides the browser binary; empty lets the launcher find or
	// download one.
	Bin       string
	Headless  bool
	NoSandbox bool
}

// Rod is a Backend driving Chrome over the DevTools protocol.
type Rod struct {
	opts RodOptions
	l    logger.Logger

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
	closed   bool
}

// launchBrowser starts or attaches to Chrome. It is a var so tests can
// swap it.
var launchBrowser = func(opts RodOptions) (*rod.Browser, *launcher.Launcher, error) {
	controlURL := opts.ControlURL
	var l *launcher.Launcher
	if controlURL == "" {
		l = launcher.New().Headless(opts.Headless).NoSandbox(opts.NoSandbox)
		if opts.Bin != "" {
			l = l.Bin(opts.Bin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, nil, fmt.Errorf("launch chrome: %w", err)
		}
		controlURL = u
	}
	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		if l != nil {
			l.Kill()
		}
		return nil, nil, fmt.Errorf("connect to chrome: %w", err)
	}
	return b, l, nil
}

// NewRod creates a backend. The browser starts on the first NewContext.
func NewRod(opts RodOptions, l logger.Logger) *Rod {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Rod{opts: opts, l: l}
}

func (r *Rod) ensureBrowser() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	if r.browser != nil {
		return r.browser, nil
	}
	r.l.Info("browser: starting headless browser")
	b, l, err := launchBrowser(r.opts)
	if err != nil {
		return nil, err
	}
	r.browser, r.launcher = b, l
	return b, nil
}

// NewContext opens an incognito context with one blank page configured
// with opts.
func (r *Rod) NewContext(ctx context.Context, opts ContextOptions) (Context, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := r.ensureBrowser()
	if err != nil {
		return nil, err
	}
	incognito, err := b.Incognito()
	if err != nil {
		return nil, fmt.Errorf("incognito context: %w", err)
	}
	page, err := incognito.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = incognito.Close()
		return nil, fmt.Errorf("create page: %w", err)
	}

	ua := GetUserAgent(opts.UserAgent)
	if err := (proto.NetworkSetUserAgentOverride{
		UserAgent:      ua,
		AcceptLanguage: AcceptLanguage(opts.Locale),
	}).Call(page); err != nil {
		r.l.Warning("browser: failed to set user agent: %v", err)
	}
	if opts.Locale != "" {
		if err := (proto.EmulationSetLocaleOverride{Locale: opts.Locale}).Call(page); err != nil {
			r.l.Warning("browser: failed to set locale %s: %v", opts.Locale, err)
		}
	}
	if opts.Timezone != "" {
		if err := (proto.EmulationSetTimezoneOverride{TimezoneID: opts.Timezone}).Call(page); err != nil {
			r.l.Warning("browser: failed to set timezone %s: %v", opts.Timezone, err)
		}
	}
	return &rodContext{browser: incognito, page: page}, nil
}

// Close kills the browser process. It is safe to call more than once.
func (r *Rod) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	if r.launcher != nil {
		r.launcher.Kill()
		r.launcher = nil
	}
	return err
}

type rodContext struct {
	browser *rod.Browser
	page    *rod.Page
}

func (c *rodContext) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	p := c.page.Context(ctx)
	if timeout > 0 {
		p = p.Timeout(timeout)
		defer p.CancelTimeout()
	}
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("wait load %s: %w", url, err)
	}
	return nil
}

func (c *rodContext) TryClick(ctx context.Context, selector string) (bool, error) {
	has, el, err := c.page.Context(ctx).Has(selector)
	if err != nil {
		return false, err
	}
	if !has {
		return false, nil
	}
	err = clickWithin(ctx, clickTimeout, func(cctx context.Context) error {
		return el.Context(cctx).Click(proto.InputMouseButtonLeft, 1)
	})
	if err != nil {
		return false, fmt.Errorf("click %s: %w", selector, err)
	}
	return true, nil
}

// DEF_CLICK_TIMEOUT bounds a single consent click independently of the
// caller's deadline.
const DEF_CLICK_TIMEOUT = 5 * time.Second

var clickTimeout = DEF_CLICK_TIMEOUT

func clickWithin(ctx context.Context, d time.Duration, click func(context.Context) error) error {
	cctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return click(cctx)
}

func (c *rodContext) Cookies(ctx context.Context) ([]cookies.Cookie, error) {
	raw, err := c.page.Context(ctx).Cookies(nil)
	if err != nil {
		return nil, fmt.Errorf("get cookies: %w", err)
	}
	out := make([]cookies.Cookie, 0, len(raw))
	for _, nc := range raw {
		out = append(out, convertCookie(nc))
	}
	return out, nil
}

const localStorageJS = `() => {
	try {
		const out = {};
		for (let i = 0; i < localStorage.length; i++) {
			const k = localStorage.key(i);
			out[k] = localStorage.getItem(k);
		}
		return JSON.stringify(out);
	} catch (e) {
		return "{}";
	}
}`

func (c *rodContext) LocalStorage(ctx context.Context) (map[string]string, error) {
	res, err := c.page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS:      localStorageJS,
		ByValue: true,
	})
	if err != nil {
		return nil, fmt.Errorf("read local storage: %w", err)
	}
	if res == nil || res.Value.Nil() {
		return map[string]string{}, nil
	}
	return decodeStorage(res.Value.String())
}

// Close disposes of the incognito context and its page.
func (c *rodContext) Close() error {
	return c.browser.Close()
}

func decodeStorage(s string) (map[string]string, error) {
	out := map[string]string{}
	if s == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("decode local storage: %w", err)
	}
	return out, nil
}

func convertCookie(nc *proto.NetworkCookie) cookies.Cookie {
	c := cookies.Cookie{
		Name:     nc.Name,
		Value:    nc.Value,
		Domain:   nc.Domain,
		Path:     nc.Path,
		HttpOnly: nc.HTTPOnly,
		Secure:   nc.Secure,
		SameSite: string(nc.SameSite),
	}
	// Session cookies report -1.
	if !nc.Session && nc.Expires > 0 {
		sec := float64(nc.Expires)
		c.Expires = time.Unix(int64(sec), int64((sec-float64(int64(sec)))*1e9)).UTC()
	}
	return c
}
