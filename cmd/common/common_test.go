package common

import (
	"errors"
	"flag"
	"reflect"
	"testing"

	"github.com/urfave/cli"
	"github.com/vbauerster/mpb/v8"

	pcommon "github.com/warpdl/parkdl/common"
)

func newTestContext() *cli.Context {
	app := cli.NewApp()
	app.Name = "parkdl"
	app.Version = "test"
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	ctx := cli.NewContext(app, set, nil)
	ctx.Command = cli.Command{Name: "cmd"}
	return ctx
}

func TestInitSyncBar(t *testing.T) {
	p := mpb.New()
	bar := InitSyncBar(p, "wdw", 3)
	if bar == nil {
		t.Fatal("expected bar")
	}
	for i := 0; i < 3; i++ {
		bar.Increment()
	}
	p.Wait()
	if !bar.Completed() {
		t.Fatal("bar not completed after total increments")
	}
}

func TestPrintRuntimeErr(t *testing.T) {
	PrintRuntimeErr(newTestContext(), "status", "load", errors.New("boom"))
	PrintRuntimeErr(nil, "status", "load", nil)
}

func TestPrintErrWithHelp(t *testing.T) {
	called := false
	prev := SetShowAppHelpAndExit(func(*cli.Context, int) { called = true })
	defer SetShowAppHelpAndExit(prev)

	if err := PrintErrWithHelp(newTestContext(), errors.New("bad")); err != nil {
		t.Fatalf("PrintErrWithHelp: %v", err)
	}
	if !called {
		t.Fatal("expected app help")
	}
	if err := PrintErrWithHelp(newTestContext(), nil); err != nil {
		t.Fatalf("nil err: %v", err)
	}
}

func TestPrintErrWithCmdHelp(t *testing.T) {
	var got string
	prev := SetShowCommandHelp(func(_ *cli.Context, name string) error {
		got = name
		return errors.New("ignored")
	})
	defer SetShowCommandHelp(prev)

	if err := PrintErrWithCmdHelp(newTestContext(), errors.New("bad")); err != nil {
		t.Fatalf("PrintErrWithCmdHelp: %v", err)
	}
	if got != "cmd" {
		t.Fatalf("help shown for %q", got)
	}
}

func TestUsageErrorCallback(t *testing.T) {
	cmdHelp := false
	appHelp := false
	prevCmd := SetShowCommandHelp(func(*cli.Context, string) error { cmdHelp = true; return nil })
	prevApp := SetShowAppHelpAndExit(func(*cli.Context, int) { appHelp = true })
	defer SetShowCommandHelp(prevCmd)
	defer SetShowAppHelpAndExit(prevApp)

	if err := UsageErrorCallback(newTestContext(), errors.New("oops"), false); err != nil {
		t.Fatal(err)
	}
	ctx := newTestContext()
	ctx.Command = cli.Command{}
	if err := UsageErrorCallback(ctx, errors.New("oops"), false); err != nil {
		t.Fatal(err)
	}
	if !cmdHelp || !appHelp {
		t.Fatalf("cmdHelp=%v appHelp=%v", cmdHelp, appHelp)
	}
}

func TestHelp(t *testing.T) {
	called := false
	prev := SetShowAppHelpAndExit(func(*cli.Context, int) { called = true })
	defer SetShowAppHelpAndExit(prev)

	if err := Help(newTestContext()); err != nil {
		t.Fatalf("Help: %v", err)
	}
	if !called {
		t.Fatal("expected help to be called")
	}
}

func TestHelpWithCommandArg(t *testing.T) {
	app := cli.NewApp()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	_ = set.Parse([]string{"status"})
	ctx := cli.NewContext(app, set, nil)
	ctx.Command = cli.Command{Name: "help"}

	var got string
	prev := SetShowCommandHelp(func(_ *cli.Context, name string) error {
		got = name
		return nil
	})
	defer SetShowCommandHelp(prev)

	if err := Help(ctx); err != nil {
		t.Fatalf("Help: %v", err)
	}
	if got != "status" {
		t.Fatalf("help shown for %q", got)
	}
}

func TestGetVersion(t *testing.T) {
	old := VersionCmdStr
	VersionCmdStr = "parkdl v1.2.3"
	defer func() { VersionCmdStr = old }()

	if err := GetVersion(newTestContext()); err != nil {
		t.Fatalf("GetVersion: %v", err)
	}
}

func TestParseDestinations(t *testing.T) {
	tests := []struct {
		raw     string
		want    []pcommon.Destination
		wantErr bool
	}{
		{"", pcommon.Destinations(), false},
		{"all", pcommon.Destinations(), false},
		{"wdw", []pcommon.Destination{pcommon.WaltDisneyWorld}, false},
		{"WDW, dlr,wdw", []pcommon.Destination{pcommon.WaltDisneyWorld, pcommon.DisneylandResort}, false},
		{"wdw,tdr", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseDestinations(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v", err)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			if tt.wantErr && !errors.Is(err, pcommon.ErrUnknownDestination) {
				t.Fatalf("err = %v, want ErrUnknownDestination", err)
			}
		})
	}
}
