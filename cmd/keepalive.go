package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli"

	"github.com/warpdl/parkdl/cmd/common"
	pcommon "github.com/warpdl/parkdl/common"
	"github.com/warpdl/parkdl/internal/scheduler"
)

var (
	cronExpr string
	logFile  string

	keepaliveFlags = []cli.Flag{
		destinationsFlag,
		cli.StringFlag{
			Name:        "cron, c",
			Usage:       "refresh schedule, 5-field cron (default: from config, */30 * * * *)",
			Destination: &cronExpr,
		},
		cli.StringFlag{
			Name:        "log-file, l",
			Usage:       "also write JSON logs to this file, - for parkdl.log in the config dir",
			Destination: &logFile,
		},
	}
)

func keepalive(ctx *cli.Context) error {
	dests, err := common.ParseDestinations(destination)
	if err != nil {
		return common.PrintErrWithCmdHelp(ctx, err)
	}
	cctx, cancel := commandContext()
	defer cancel()
	a, err := newApp(cctx)
	if err != nil {
		common.PrintRuntimeErr(ctx, "keepalive", "init", err)
		return nil
	}
	defer a.close()

	expr := cronExpr
	if expr == "" {
		expr = a.cfg.KeepaliveCron
	}
	keys := make([]string, len(dests))
	for i, d := range dests {
		keys[i] = string(d)
	}
	jobs, err := scheduler.Plan(keys, expr, time.Now(), true)
	if err != nil {
		return common.PrintErrWithCmdHelp(ctx, err)
	}

	s := scheduler.New(cctx, func(key string) {
		go func() {
			d := pcommon.Destination(key)
			if sess := a.manager.RefreshSession(cctx, d); sess != nil {
				a.l.Info("keepalive: %s refreshed, valid until %s", d, sess.ExpiresAt.Format(time.RFC3339))
			}
		}()
	})
	for _, j := range jobs {
		s.Add(j)
	}
	fmt.Fprintf(stdout, "keepalive: refreshing %v on %q, press Ctrl+C to stop\n", keys, expr)
	<-cctx.Done()
	return nil
}
