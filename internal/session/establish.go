package session

import (
	"context"
	"time"

	"github.com/warpdl/parkdl/common"
	"github.com/warpdl/parkdl/internal/browser"
	"github.com/warpdl/parkdl/internal/cookies"
	"github.com/warpdl/parkdl/internal/token"
)

// establish runs one browser visit to the destination landing page and
// turns the resulting cookie jar into a persisted session.
func (m *Manager) establish(ctx context.Context, dest common.Destination) (*Session, error) {
	info, ok := m.cfg.destination(dest)
	if !ok {
		return nil, &EstablishmentError{Destination: dest, Stage: StageLaunch, Err: common.ErrUnknownDestination}
	}
	start := m.now()
	m.l.Info("session: establishing %s session via %s", dest, info.LandingURL)

	bctx, err := m.backend.NewContext(ctx, browser.ContextOptions{
		Locale:    info.Locale,
		Timezone:  info.Timezone,
		UserAgent: m.cfg.UserAgent,
	})
	if err != nil {
		return nil, &EstablishmentError{Destination: dest, Stage: StageLaunch, Err: err}
	}
	defer func() {
		if err := bctx.Close(); err != nil {
			m.l.Warning("session: closing %s browser context: %v", dest, err)
		}
	}()

	if err := bctx.Navigate(ctx, info.LandingURL, m.cfg.NavigationTimeout); err != nil {
		return nil, &EstablishmentError{Destination: dest, Stage: StageNavigate, Err: err}
	}

	m.dismissConsent(ctx, bctx, dest)

	if !m.waitForCredentials(ctx, bctx) {
		// The rest of the jar may still be enough for the API.
		m.l.Warning("session: %s credential cookies did not appear after %d polls, continuing",
			dest, m.cfg.CookiePollAttempts)
	}

	cooks, err := bctx.Cookies(ctx)
	if err != nil {
		return nil, &EstablishmentError{Destination: dest, Stage: StageCookies, Err: err}
	}
	if len(cooks) == 0 {
		return nil, &EstablishmentError{Destination: dest, Stage: StageCookies, Err: ErrNoCookies}
	}

	storage, err := bctx.LocalStorage(ctx)
	if err != nil {
		m.l.Warning("session: reading %s local storage: %v", dest, err)
	}

	s := m.newSession(dest, cooks, relevantStorage(storage))
	if err := m.store.Save(ctx, s); err != nil {
		return nil, &EstablishmentError{Destination: dest, Stage: StagePersist, Err: err}
	}
	m.install(s)
	m.l.Info("session: %s session established in %s with cookies %v, valid until %s",
		dest, m.now().Sub(start).Round(time.Millisecond), cookies.Names(cooks), s.ExpiresAt.Format(time.RFC3339))
	return s, nil
}

// dismissConsent clicks the first consent selector that matches. Banners
// are not always shown, so no match is not an error.
func (m *Manager) dismissConsent(ctx context.Context, bctx browser.Context, dest common.Destination) {
	for _, sel := range m.cfg.ConsentSelectors {
		clicked, err := bctx.TryClick(ctx, sel)
		if err != nil {
			m.l.Warning("session: %s consent selector %q: %v", dest, sel, err)
			continue
		}
		if clicked {
			m.l.Info("session: dismissed %s consent banner with %q", dest, sel)
			return
		}
	}
}

// waitForCredentials polls the cookie jar until one of the ready cookies
// shows up or the attempts run out.
func (m *Manager) waitForCredentials(ctx context.Context, bctx browser.Context) bool {
	ready := m.cfg.Token.ReadyCookies()
	for i := 0; i < m.cfg.CookiePollAttempts; i++ {
		if cooks, err := bctx.Cookies(ctx); err == nil && cookies.HasAny(cooks, ready...) {
			return true
		}
		if i == m.cfg.CookiePollAttempts-1 {
			break
		}
		t := time.NewTimer(m.cfg.CookiePollInterval)
		select {
		case <-ctx.Done():
			t.Stop()
			return false
		case <-t.C:
		}
	}
	return false
}

func relevantStorage(storage map[string]string) map[string]string {
	out := make(map[string]string)
	for k, v := range storage {
		if token.StorageKeyRelevant(k) {
			out[k] = v
		}
	}
	return out
}
