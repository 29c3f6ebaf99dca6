package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/urfave/cli"
	"github.com/vbauerster/mpb/v8"
	"golang.org/x/sync/errgroup"

	"github.com/warpdl/parkdl/cmd/common"
	pcommon "github.com/warpdl/parkdl/common"
	"github.com/warpdl/parkdl/internal/catalog"
	"github.com/warpdl/parkdl/internal/entity"
)

var syncFlags = []cli.Flag{destinationsFlag}

// progressOut is where sync draws its bars; tests silence it.
var progressOut io.Writer = os.Stderr

type syncResult struct {
	dest   pcommon.Destination
	kind   entity.Kind
	count  int
	source string
	err    error
}

// syncAll refreshes every entity type for each destination. Destinations run
// concurrently, entity types of one destination run in order so they share
// one session refresh.
func syncAll(ctx *cli.Context) error {
	dests, err := common.ParseDestinations(destination)
	if err != nil {
		return common.PrintErrWithCmdHelp(ctx, err)
	}
	cctx, cancel := commandContext()
	defer cancel()
	a, err := newApp(cctx)
	if err != nil {
		common.PrintRuntimeErr(ctx, "sync", "init", err)
		return nil
	}
	defer a.close()

	results := runSync(cctx, a.catalog, dests, progressOut)
	return writeSyncSummary(stdout, results)
}

func runSync(ctx context.Context, svc *catalog.Service, dests []pcommon.Destination, progress io.Writer) []syncResult {
	p := mpb.NewWithContext(ctx, mpb.WithOutput(progress), mpb.WithWidth(40))
	kinds := entity.Kinds()

	var (
		mu      sync.Mutex
		results []syncResult
		g       errgroup.Group
	)
	for _, d := range dests {
		d := d
		bar := common.InitSyncBar(p, string(d), int64(len(kinds)))
		g.Go(func() error {
			for _, k := range kinds {
				l, err := svc.Refresh(ctx, k, d, "")
				mu.Lock()
				results = append(results, syncResult{dest: d, kind: k, count: len(l.Entities), source: l.Source, err: err})
				mu.Unlock()
				bar.Increment()
			}
			return nil
		})
	}
	_ = g.Wait()
	p.Wait()

	sort.Slice(results, func(i, j int) bool {
		if results[i].dest != results[j].dest {
			return results[i].dest < results[j].dest
		}
		return results[i].kind < results[j].kind
	})
	return results
}

func writeSyncSummary(w io.Writer, results []syncResult) error {
	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			fmt.Fprintf(w, "%s %s: %v\n", r.dest, r.kind.Plural(), r.err)
			continue
		}
		fmt.Fprintf(w, "%s %s: %d from %s\n", r.dest, r.kind.Plural(), r.count, r.source)
	}
	_, err := fmt.Fprintf(w, "synced %d/%d listings\n", len(results)-failed, len(results))
	return err
}
