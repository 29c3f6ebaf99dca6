package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/urfave/cli"

	cmdcommon "github.com/warpdl/parkdl/cmd/common"
	"github.com/warpdl/parkdl/common"
	"github.com/warpdl/parkdl/internal/browser"
	"github.com/warpdl/parkdl/internal/catalog"
	"github.com/warpdl/parkdl/internal/entity"
	"github.com/warpdl/parkdl/internal/session"
	"github.com/warpdl/parkdl/pkg/logger"
)

var errNoBrowser = errors.New("no browser in tests")

// failingBackend never produces a browsing context, so every establishment
// fails at launch.
type failingBackend struct {
	launches atomic.Int32
	closed   atomic.Int32
}

func (b *failingBackend) NewContext(context.Context, browser.ContextOptions) (browser.Context, error) {
	b.launches.Add(1)
	return nil, errNoBrowser
}

func (b *failingBackend) Close() error {
	b.closed.Add(1)
	return nil
}

func newContext(app *cli.App, args []string, name string) *cli.Context {
	set := flag.NewFlagSet(name, flag.ContinueOnError)
	_ = set.Parse(args)
	ctx := cli.NewContext(app, set, nil)
	ctx.Command = cli.Command{Name: name}
	return ctx
}

// setupCmd points every hook at test doubles and restores the globals when
// the test ends. The returned buffer collects command output.
func setupCmd(t *testing.T, cfgJSON string) (*bytes.Buffer, *failingBackend) {
	t.Helper()
	dir := t.TempDir()
	if cfgJSON != "" {
		if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(cfgJSON), 0600); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	backend := &failingBackend{}
	out := &bytes.Buffer{}

	oldBackend, oldLogger, oldFs := newBackend, newLogger, osFs
	oldStdout, oldProgress := stdout, progressOut
	newBackend = func(browser.RodOptions, logger.Logger) browser.Backend { return backend }
	newLogger = func(bool) logger.Logger { return logger.NewNopLogger() }
	osFs = afero.NewMemMapFs()
	stdout = out
	progressOut = io.Discard

	configDir, ephemeral = dir, true
	destination, parkID = "wdw", ""
	jsonOut, noCache = false, false
	proxyURL, controlURL, fallbackAny = "", "", false
	cronExpr, logFile, importFrom = "", "", ""

	t.Cleanup(func() {
		newBackend, newLogger, osFs = oldBackend, oldLogger, oldFs
		stdout, progressOut = oldStdout, oldProgress
		configDir, ephemeral = "", false
		logFile, importFrom = "", ""
	})
	return out, backend
}

// fakePublicAPI serves the children listing of every destination.
func fakePublicAPI(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		if !strings.HasSuffix(r.URL.Path, "/children") {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"id":"x","children":[
			{"id":"a1","name":"Space Mountain","entityType":"ATTRACTION","parkId":"80007944",
			 "tags":[{"key":"heightRequirement","value":"44 in"},{"key":"thrillLevel","value":"thrill"}]},
			{"id":"d1","name":"Be Our Guest","entityType":"RESTAURANT","parkId":"80007944",
			 "tags":[{"key":"serviceType","value":"Table Service"}]},
			{"id":"s1","name":"Happily Ever After","entityType":"SHOW","parkId":"80007944"}
		]}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func fallbackConfig(base string) string {
	return fmt.Sprintf(`{"fallbackBaseUrl":%q,"fallbackRequestsPerSecond":1000,"retry":{"maxRetries":0}}`, base)
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	setupCmd(t, `{"proxy":"http://file-proxy:3128","keepaliveCron":"0 * * * *"}`)
	proxyURL = "socks5://127.0.0.1:1080"
	controlURL = "ws://127.0.0.1:9222/devtools/browser/x"
	fallbackAny = true

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Proxy != proxyURL {
		t.Errorf("Proxy = %q, want flag value", cfg.Proxy)
	}
	if cfg.Browser.ControlURL != controlURL {
		t.Errorf("ControlURL = %q", cfg.Browser.ControlURL)
	}
	if !cfg.FallbackOnAnyError {
		t.Error("FallbackOnAnyError not set by flag")
	}
	if cfg.KeepaliveCron != "0 * * * *" {
		t.Errorf("KeepaliveCron = %q, want file value", cfg.KeepaliveCron)
	}
}

func TestLoadConfig_BadFile(t *testing.T) {
	setupCmd(t, `{"refreshBufferMinutes":-1}`)
	if _, err := loadConfig(); err == nil {
		t.Fatal("expected error for negative refresh buffer")
	}
}

func TestNewApp_CloseShutsDownBackendOnce(t *testing.T) {
	_, backend := setupCmd(t, "")
	a, err := newApp(context.Background())
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	if err := a.close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := a.close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if got := backend.closed.Load(); got != 1 {
		t.Fatalf("backend closed %d times, want 1", got)
	}
	if got := backend.launches.Load(); got != 0 {
		t.Fatalf("startup launched the browser %d times", got)
	}
}

func TestNewApp_BadProxy(t *testing.T) {
	setupCmd(t, "")
	proxyURL = "ftp://nope"
	if _, err := newApp(context.Background()); err == nil {
		t.Fatal("expected proxy error")
	}
}

func TestAppLogger_WritesFile(t *testing.T) {
	setupCmd(t, "")
	logFile = "-"
	cfg, err := loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	l, err := appLogger(cfg)
	if err != nil {
		t.Fatalf("appLogger: %v", err)
	}
	l.Warning("keepalive: %s", "wdw")
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	data, err := afero.ReadFile(osFs, cfg.LogPath())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "keepalive: wdw") {
		t.Fatalf("log file = %q", data)
	}
}

func TestListAction_FallsBackWithoutBrowser(t *testing.T) {
	var hits atomic.Int32
	srv := fakePublicAPI(t, &hits)
	out, backend := setupCmd(t, fallbackConfig(srv.URL))
	jsonOut = true

	ctx := newContext(cli.NewApp(), nil, "attractions")
	if err := listAction("attractions")(ctx); err != nil {
		t.Fatalf("listAction: %v", err)
	}
	var got catalog.Listing
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decode output %q: %v", out.String(), err)
	}
	if got.Source != "fallback" {
		t.Errorf("Source = %q, want fallback", got.Source)
	}
	if len(got.Entities) != 1 || got.Entities[0].Name != "Space Mountain" {
		t.Fatalf("Entities = %+v", got.Entities)
	}
	if backend.launches.Load() == 0 {
		t.Error("primary path never tried to establish a session")
	}

	// Second run is served from the cache.
	out.Reset()
	if err := listAction("attractions")(ctx); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if !got.FromCache || hits.Load() != 1 {
		t.Fatalf("FromCache = %v hits = %d", got.FromCache, hits.Load())
	}
}

func TestListAction_UnknownDestination(t *testing.T) {
	setupCmd(t, "")
	destination = "nowhere"
	var helped bool
	old := cmdcommon.SetShowCommandHelp(func(*cli.Context, string) error {
		helped = true
		return nil
	})
	defer cmdcommon.SetShowCommandHelp(old)

	_ = listAction("shows")(newContext(cli.NewApp(), nil, "shows"))
	if !helped {
		t.Fatal("command help not shown for bad destination")
	}
}

func TestRunSync(t *testing.T) {
	srv := fakePublicAPI(t, nil)
	setupCmd(t, fallbackConfig(srv.URL))
	a, err := newApp(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer a.close()

	results := runSync(context.Background(), a.catalog, common.Destinations(), io.Discard)
	if want := len(common.Destinations()) * len(entity.Kinds()); len(results) != want {
		t.Fatalf("results = %d, want %d", len(results), want)
	}
	for _, r := range results {
		if r.err != nil || r.count != 1 || r.source != "fallback" {
			t.Errorf("%s %s: count=%d source=%q err=%v", r.dest, r.kind, r.count, r.source, r.err)
		}
	}

	var buf bytes.Buffer
	if err := writeSyncSummary(&buf, results); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), fmt.Sprintf("synced %d/%d", len(results), len(results))) {
		t.Fatalf("summary = %q", buf.String())
	}
}

func TestSessionImport_NetscapeFile(t *testing.T) {
	out, backend := setupCmd(t, "")
	path := filepath.Join(t.TempDir(), "cookies.txt")
	exp := time.Now().Add(48 * time.Hour).Unix()
	content := "# Netscape HTTP Cookie File\n" +
		fmt.Sprintf(".disney.go.com\tTRUE\t/\tTRUE\t%d\tSWID\t{ABC}\n", exp) +
		fmt.Sprintf("#HttpOnly_.disneyworld.disney.go.com\tTRUE\t/\tTRUE\t%d\t__d\tsecret\n", exp) +
		fmt.Sprintf(".example.com\tTRUE\t/\tFALSE\t%d\tother\tx\n", exp)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	importFrom = path

	if err := sessionImport(newContext(cli.NewApp(), nil, "import")); err != nil {
		t.Fatalf("sessionImport: %v", err)
	}
	if !strings.Contains(out.String(), "imported 2 cookies") {
		t.Fatalf("output = %q", out.String())
	}
	if backend.launches.Load() != 0 {
		t.Fatal("import launched a browser")
	}
}

func TestSessionImport_RequiresFrom(t *testing.T) {
	setupCmd(t, "")
	var helped bool
	old := cmdcommon.SetShowCommandHelp(func(*cli.Context, string) error {
		helped = true
		return nil
	})
	defer cmdcommon.SetShowCommandHelp(old)

	_ = sessionImport(newContext(cli.NewApp(), nil, "import"))
	if !helped {
		t.Fatal("missing --from did not show help")
	}
}

func TestSessionRefresh_ReportsFailure(t *testing.T) {
	out, _ := setupCmd(t, "")
	if err := sessionRefresh(newContext(cli.NewApp(), nil, "refresh")); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "wdw: refresh failed") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestStatus_JSON(t *testing.T) {
	out, _ := setupCmd(t, "")
	destination = "all"
	jsonOut = true
	if err := status(newContext(cli.NewApp(), nil, "status")); err != nil {
		t.Fatal(err)
	}
	var got []session.Status
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decode %q: %v", out.String(), err)
	}
	if len(got) != len(common.Destinations()) {
		t.Fatalf("statuses = %d", len(got))
	}
	for _, st := range got {
		if st.HasSession || st.IsValid {
			t.Errorf("%s: unexpected session %+v", st.Destination, st)
		}
	}
}

func TestWriteStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	exp := now.Add(90 * time.Minute)
	var buf bytes.Buffer
	err := writeStatus(&buf, []session.Status{
		{Destination: common.WaltDisneyWorld, HasSession: true, IsValid: true, State: session.StateActive, ExpiresAt: &exp},
		{Destination: common.DisneylandResort, State: session.StateError, ErrorCount: 3, LastError: "launch failed", RefreshInFlight: true},
	}, now)
	if err != nil {
		t.Fatal(err)
	}
	s := buf.String()
	for _, want := range []string{"wdw (Walt Disney World", "in 1h30m0s", "launch failed", "no, refreshing"} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %q:\n%s", want, s)
		}
	}
}

func TestDetails(t *testing.T) {
	str := func(s string) *string { return &s }
	yes := true
	thrill := entity.ThrillThrill
	tests := []struct {
		name string
		kind entity.Kind
		e    entity.Entity
		want string
	}{
		{"empty", entity.KindAttraction, entity.Entity{}, "-"},
		{
			"attraction",
			entity.KindAttraction,
			entity.Entity{
				HeightRequirement: &entity.HeightRequirement{Inches: 44},
				ThrillLevel:       &thrill,
				LightningLane:     &entity.LightningLane{Tier: "multi"},
				SingleRider:       &yes,
			},
			"min 44in, " + string(thrill) + ", LL multi, single rider",
		},
		{
			"dining",
			entity.KindDining,
			entity.Entity{ServiceType: str("Quick Service"), PriceRange: str("$"), CuisineTypes: []string{"American", "BBQ"}},
			"Quick Service, $, American/BBQ",
		},
		{"show", entity.KindShow, entity.Entity{ShowType: str("Fireworks"), Duration: str("18 minutes")}, "Fireworks, 18 minutes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := details(tt.kind, tt.e); got != tt.want {
				t.Errorf("details = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteTable(t *testing.T) {
	park := "Magic Kingdom Park"
	var buf bytes.Buffer
	err := writeTable(&buf, entity.KindShow, catalog.Listing{
		Entities:  []entity.Entity{{ID: "s1", Name: "Happily Ever After", ParkName: &park}},
		Source:    "primary",
		FetchedAt: time.Now(),
		FromCache: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	s := buf.String()
	for _, want := range []string{"Happily Ever After", "Magic Kingdom Park", "1 shows from primary, cached"} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %q:\n%s", want, s)
		}
	}
}
