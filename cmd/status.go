package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli"

	"github.com/warpdl/parkdl/cmd/common"
	"github.com/warpdl/parkdl/internal/session"
)

var statusFlags = []cli.Flag{
	destinationsFlag,
	cli.BoolFlag{
		Name:        "json, j",
		Usage:       "print status as JSON (default: false)",
		Destination: &jsonOut,
	},
}

// status only reads persisted state; it never launches a browser.
func status(ctx *cli.Context) error {
	dests, err := common.ParseDestinations(destination)
	if err != nil {
		return common.PrintErrWithCmdHelp(ctx, err)
	}
	cctx, cancel := commandContext()
	defer cancel()
	a, err := newApp(cctx)
	if err != nil {
		common.PrintRuntimeErr(ctx, "status", "init", err)
		return nil
	}
	defer a.close()

	out := make([]session.Status, 0, len(dests))
	for _, d := range dests {
		out = append(out, a.manager.GetSessionStatus(d))
	}
	if jsonOut {
		return writeJSON(stdout, out)
	}
	return writeStatus(stdout, out, time.Now())
}

func writeStatus(w io.Writer, statuses []session.Status, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DESTINATION\tSTATE\tVALID\tEXPIRES\tERRORS\tLAST ERROR")
	for _, st := range statuses {
		expires := "-"
		if st.ExpiresAt != nil {
			expires = fmt.Sprintf("%s (%s)", st.ExpiresAt.Local().Format("2006-01-02 15:04"), relative(st.ExpiresAt.Sub(now)))
		}
		lastErr := st.LastError
		if lastErr == "" {
			lastErr = "-"
		}
		name := string(st.Destination)
		if info, ok := st.Destination.Info(); ok {
			name = fmt.Sprintf("%s (%s)", st.Destination, info.Name)
		}
		valid := "no"
		if st.IsValid {
			valid = "yes"
		}
		if st.RefreshInFlight {
			valid += ", refreshing"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", name, st.State, valid, expires, st.ErrorCount, lastErr)
	}
	return tw.Flush()
}

func relative(d time.Duration) string {
	d = d.Round(time.Minute)
	if d < 0 {
		return fmt.Sprintf("%s ago", -d)
	}
	return "in " + d.String()
}
