package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli"

	"github.com/warpdl/parkdl/cmd/common"
	pcommon "github.com/warpdl/parkdl/common"
	"github.com/warpdl/parkdl/internal/cookies"
)

var (
	importFrom string

	refreshFlags = []cli.Flag{destinationsFlag}
	importFlags  = []cli.Flag{
		destinationFlag,
		cli.StringFlag{
			Name:        "from, f",
			Usage:       "cookie file: cookies.txt, Chrome Cookies or Firefox cookies.sqlite",
			Destination: &importFrom,
		},
	}
)

var errNoImportSource = errors.New("--from is required")

func sessionRefresh(ctx *cli.Context) error {
	dests, err := common.ParseDestinations(destination)
	if err != nil {
		return common.PrintErrWithCmdHelp(ctx, err)
	}
	cctx, cancel := commandContext()
	defer cancel()
	a, err := newApp(cctx)
	if err != nil {
		common.PrintRuntimeErr(ctx, "session refresh", "init", err)
		return nil
	}
	defer a.close()

	for _, d := range dests {
		s := a.manager.RefreshSession(cctx, d)
		if s == nil {
			st := a.manager.GetSessionStatus(d)
			fmt.Fprintf(stdout, "%s: refresh failed: %s\n", d, st.LastError)
			continue
		}
		fmt.Fprintf(stdout, "%s: session valid until %s (%d cookies)\n",
			d, s.ExpiresAt.Local().Format(time.RFC1123), len(s.Cookies))
	}
	return nil
}

func sessionImport(ctx *cli.Context) error {
	if importFrom == "" {
		return common.PrintErrWithCmdHelp(ctx, errNoImportSource)
	}
	dest, err := pcommon.ParseDestination(destination)
	if err != nil {
		return common.PrintErrWithCmdHelp(ctx, err)
	}
	info, _ := dest.Info()

	cooks, src, err := cookies.ImportCookies(importFrom, info.Domain, time.Now())
	if err != nil {
		common.PrintRuntimeErr(ctx, "session import", "read", err)
		return nil
	}

	cctx, cancel := commandContext()
	defer cancel()
	a, err := newApp(cctx)
	if err != nil {
		common.PrintRuntimeErr(ctx, "session import", "init", err)
		return nil
	}
	defer a.close()

	s, err := a.manager.ImportSession(cctx, dest, cooks)
	if err != nil {
		common.PrintRuntimeErr(ctx, "session import", "save", err)
		return nil
	}
	fmt.Fprintf(stdout, "%s: imported %d cookies from %s (%s), valid until %s\n",
		dest, len(cooks), src.Path, src.Format, s.ExpiresAt.Local().Format(time.RFC1123))
	return nil
}
