package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/urfave/cli"

	"github.com/warpdl/parkdl/cmd/common"
	pcommon "github.com/warpdl/parkdl/common"
	"github.com/warpdl/parkdl/internal/catalog"
	"github.com/warpdl/parkdl/internal/entity"
)

var (
	destination string
	parkID      string
	jsonOut     bool
	noCache     bool

	destinationFlag = cli.StringFlag{
		Name:        "destination, d",
		Usage:       "destination id (wdw, dlr)",
		Value:       string(pcommon.WaltDisneyWorld),
		Destination: &destination,
	}
	destinationsFlag = cli.StringFlag{
		Name:        "destination, d",
		Usage:       "comma separated destination ids, or all",
		Value:       "all",
		Destination: &destination,
	}

	listFlags = []cli.Flag{
		destinationFlag,
		cli.StringFlag{
			Name:        "park, p",
			Usage:       "only list entities of this park id",
			Destination: &parkID,
		},
		cli.BoolFlag{
			Name:        "json, j",
			Usage:       "print the listing as JSON (default: false)",
			Destination: &jsonOut,
		},
		cli.BoolFlag{
			Name:        "no-cache",
			Usage:       "always fetch, ignoring cached listings (default: false)",
			Destination: &noCache,
		},
	}
)

// stdout is swapped by tests.
var stdout io.Writer = os.Stdout

func listCommand(name, alias, description string) cli.Command {
	return cli.Command{
		Name:                   name,
		Aliases:                []string{alias},
		Usage:                  "list " + name + " for a destination",
		Description:            description,
		CustomHelpTemplate:     CMD_HELP_TEMPL,
		OnUsageError:           common.UsageErrorCallback,
		Action:                 listAction(name),
		Flags:                  listFlags,
		UseShortOptionHandling: true,
	}
}

// commandContext is cancelled on SIGINT or SIGTERM.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func listAction(name string) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		kind, err := entity.ParseKind(name)
		if err != nil {
			return common.PrintErrWithCmdHelp(ctx, err)
		}
		dest, err := pcommon.ParseDestination(destination)
		if err != nil {
			return common.PrintErrWithCmdHelp(ctx, fmt.Errorf("%w: %q", err, destination))
		}

		cctx, cancel := commandContext()
		defer cancel()
		a, err := newApp(cctx)
		if err != nil {
			common.PrintRuntimeErr(ctx, name, "init", err)
			return nil
		}
		defer a.close()

		svc := a.catalog
		if noCache {
			svc = svc.WithoutCache()
		}
		listing, err := svc.Fetch(cctx, kind, dest, parkID)
		if err != nil {
			common.PrintRuntimeErr(ctx, name, "fetch", err)
			return nil
		}
		if jsonOut {
			return writeJSON(stdout, listing)
		}
		return writeTable(stdout, kind, listing)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTable(w io.Writer, kind entity.Kind, l catalog.Listing) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPARK\tDETAILS")
	for _, e := range l.Entities {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID, e.Name, deref(e.ParkName, "-"), details(kind, e))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	origin := l.Source
	if l.FromCache {
		origin += ", cached"
	}
	_, err := fmt.Fprintf(w, "\n%d %s from %s at %s\n", len(l.Entities), kind.Plural(), origin, l.FetchedAt.Local().Format("2006-01-02 15:04"))
	return err
}

func deref(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}

func details(kind entity.Kind, e entity.Entity) string {
	var parts []string
	switch kind {
	case entity.KindAttraction:
		if e.HeightRequirement != nil {
			parts = append(parts, fmt.Sprintf("min %din", e.HeightRequirement.Inches))
		}
		if e.ThrillLevel != nil {
			parts = append(parts, string(*e.ThrillLevel))
		}
		if e.LightningLane != nil {
			parts = append(parts, "LL "+e.LightningLane.Tier)
		}
		if e.SingleRider != nil && *e.SingleRider {
			parts = append(parts, "single rider")
		}
	case entity.KindDining:
		if e.ServiceType != nil {
			parts = append(parts, *e.ServiceType)
		}
		if e.PriceRange != nil {
			parts = append(parts, *e.PriceRange)
		}
		if len(e.CuisineTypes) > 0 {
			parts = append(parts, strings.Join(e.CuisineTypes, "/"))
		}
	case entity.KindShow:
		if e.ShowType != nil {
			parts = append(parts, *e.ShowType)
		}
		if e.Duration != nil {
			parts = append(parts, *e.Duration)
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}
