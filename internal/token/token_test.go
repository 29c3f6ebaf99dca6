package token

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/warpdl/parkdl/internal/cookies"
)

func bearer(t *testing.T, header, claims map[string]any) string {
	t.Helper()
	enc := func(v map[string]any) string {
		b, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		return base64.RawURLEncoding.EncodeToString(b)
	}
	return enc(header) + "." + enc(claims) + ".c2lnbmF0dXJl"
}

var hs256 = map[string]any{"alg": "HS256", "typ": "JWT"}

func TestComputeExpiration_BearerWins(t *testing.T) {
	now := time.Date(2023, 11, 14, 0, 0, 0, 0, time.UTC)
	cfg := DefaultConfig()
	cooks := []cookies.Cookie{
		{Name: "SWID", Value: "{x}", Expires: now.Add(time.Hour)},
		{Name: "__d", Value: bearer(t, hs256, map[string]any{"iat": 1700000000, "expires_in": "28800"}), Expires: now.Add(30 * time.Minute)},
		{Name: DEF_PUBLIC_EXPIRY, Value: "1800000000000"},
	}
	got, src := Resolve(cooks, now, cfg)
	want := time.Date(2023, 11, 15, 6, 13, 20, 0, time.UTC)
	if !got.Equal(want) || src != SourceBearer {
		t.Errorf("Resolve() = %v (%v), want %v (bearer)", got, src, want)
	}
}

func TestComputeExpiration_Chain(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	cfg := DefaultConfig()
	futureMs := now.Add(3 * time.Hour).UnixMilli()
	pastMs := now.Add(-time.Hour).UnixMilli()

	tests := []struct {
		name    string
		cookies []cookies.Cookie
		want    time.Time
		src     Source
	}{
		{
			name: "numeric expires_in",
			cookies: []cookies.Cookie{
				{Name: "__d", Value: bearer(t, hs256, map[string]any{"iat": now.Unix(), "expires_in": 600})},
			},
			want: now.Add(10 * time.Minute),
			src:  SourceBearer,
		},
		{
			name: "no alg header still decodes",
			cookies: []cookies.Cookie{
				{Name: "__d", Value: bearer(t, map[string]any{"typ": "x"}, map[string]any{"iat": now.Unix(), "expires_in": 60})},
			},
			want: now.Add(time.Minute),
			src:  SourceBearer,
		},
		{
			name: "bearer without expires_in falls to public expiry",
			cookies: []cookies.Cookie{
				{Name: "__d", Value: bearer(t, hs256, map[string]any{"iat": now.Unix()})},
				{Name: DEF_PUBLIC_EXPIRY, Value: itoa(futureMs)},
			},
			want: time.UnixMilli(futureMs).UTC(),
			src:  SourcePublicExpiry,
		},
		{
			name: "garbage bearer falls through",
			cookies: []cookies.Cookie{
				{Name: "__d", Value: "not.a.jwt!!"},
				{Name: DEF_PUBLIC_EXPIRY, Value: itoa(futureMs)},
			},
			want: time.UnixMilli(futureMs).UTC(),
			src:  SourcePublicExpiry,
		},
		{
			name: "past public expiry ignored, earliest cookie expiry used",
			cookies: []cookies.Cookie{
				{Name: DEF_PUBLIC_EXPIRY, Value: itoa(pastMs)},
				{Name: "SWID", Value: "a", Expires: now.Add(5 * time.Hour)},
				{Name: "userSession", Value: "b", Expires: now.Add(2 * time.Hour)},
				{Name: "oauth_state", Value: "c", Expires: now.Add(90 * time.Minute)},
				{Name: "tracking", Value: "d", Expires: now.Add(time.Minute)},
				{Name: "old_session", Value: "e", Expires: now.Add(-time.Minute)},
			},
			want: now.Add(90 * time.Minute),
			src:  SourceCookieExpiry,
		},
		{
			name:    "nothing usable",
			cookies: []cookies.Cookie{{Name: "tracking", Value: "x", Expires: now.Add(time.Hour)}},
			want:    now.Add(8 * time.Hour),
			src:     SourceDefault,
		},
		{
			name: "non-numeric public expiry",
			cookies: []cookies.Cookie{
				{Name: DEF_PUBLIC_EXPIRY, Value: "soon"},
			},
			want: now.Add(8 * time.Hour),
			src:  SourceDefault,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, src := Resolve(tt.cookies, now, cfg)
			if !got.Equal(tt.want) || src != tt.src {
				t.Errorf("Resolve() = %v (%v), want %v (%v)", got, src, tt.want, tt.src)
			}
			if ce := ComputeExpiration(tt.cookies, now, cfg); !ce.Equal(got) {
				t.Errorf("ComputeExpiration() = %v, want %v", ce, got)
			}
		})
	}
}

func TestComputeExpiration_CustomDefault(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := DefaultConfig()
	cfg.DefaultSessionDuration = 2 * time.Hour
	if got := ComputeExpiration(nil, now, cfg); !got.Equal(now.Add(2 * time.Hour)) {
		t.Errorf("got %v", got)
	}
	cfg.DefaultSessionDuration = 0
	if got := ComputeExpiration(nil, now, cfg); !got.Equal(now.Add(DEF_SESSION_DURATION)) {
		t.Errorf("zero duration should use default, got %v", got)
	}
}

func TestDecodePayload(t *testing.T) {
	twoPart := "eyJhbGciOiJub25lIn0." + base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"guest"}`))
	tests := []struct {
		name string
		raw  string
		ok   bool
	}{
		{"jwt", bearer(t, hs256, map[string]any{"sub": "a"}), true},
		{"two segments", twoPart, true},
		{"padded std encoding", "h." + base64.StdEncoding.EncodeToString([]byte(`{"a":1}`)) + ".s", true},
		{"no dots", "abcdef", false},
		{"bad base64", "a.!!!.c", false},
		{"not json", "a." + base64.RawURLEncoding.EncodeToString([]byte("hello")) + ".c", false},
	}
	for _, tt := range tests {
		if _, ok := DecodePayload(tt.raw); ok != tt.ok {
			t.Errorf("%s: DecodePayload ok = %v, want %v", tt.name, ok, tt.ok)
		}
	}
}

func TestExtractTokens(t *testing.T) {
	cfg := DefaultConfig()
	cooks := []cookies.Cookie{
		{Name: "SWID", Value: "{guest}"},
		{Name: "__d", Value: "bearer-value"},
		{Name: "XSRF-TOKEN", Value: "csrf-2"},
		{Name: "pep_csrf", Value: ""},
	}
	got := ExtractTokens(cooks, map[string]string{"authToken": "ignored"}, cfg)
	want := Tokens{SessionID: "{guest}", AuthToken: "bearer-value", CSRFToken: "csrf-2"}
	if got != want {
		t.Errorf("ExtractTokens() = %+v, want %+v", got, want)
	}

	storage := map[string]string{
		"theme":        "dark",
		"z_auth_state": "zzz",
		"access_token": "from-storage",
	}
	got = ExtractTokens(nil, storage, cfg)
	if got.AuthToken != "from-storage" || got.SessionID != "" || got.CSRFToken != "" {
		t.Errorf("storage fallback = %+v", got)
	}
	if got := ExtractTokens(nil, map[string]string{"theme": "dark"}, cfg); got != (Tokens{}) {
		t.Errorf("irrelevant storage produced %+v", got)
	}
}

func TestStorageKeyRelevant(t *testing.T) {
	for key, want := range map[string]bool{
		"accessToken": true,
		"AUTH_STATE":  true,
		"theme":       false,
		"":            false,
	} {
		if got := StorageKeyRelevant(key); got != want {
			t.Errorf("StorageKeyRelevant(%q) = %v, want %v", key, got, want)
		}
	}
}

func itoa(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
