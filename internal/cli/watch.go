package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/ckuethe/astro-tools/internal/fits"
	"github.com/ckuethe/astro-tools/internal/solver"
	"github.com/ckuethe/astro-tools/internal/storage"

	"github.com/spf13/cobra"
)

func newWatchCmd(root *Root) *cobra.Command {
	var (
		exts      []string
		saveTemps bool
		catalog   bool
	)

	cmd := &cobra.Command{
		Use:   "watch [flags] DIR...",
		Short: "Watch directories and solve new images as they arrive",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			inv := solver.NewInvoker(root.cfg.Solver.Binary, root.cfg.Solver.TempRoot, root.log)
			batch := solver.NewBatch(inv, fits.ReadHeaderMap, root.log)
			batch.SaveTemps = saveTemps || root.cfg.Solver.SaveTemps

			if catalog {
				store, err := storage.New(root.cfg.Paths.DatabasePath)
				if err != nil {
					return fmt.Errorf("opening catalog: %w", err)
				}
				defer store.Close()
				batch.SetRecorder(store)
			}

			if len(exts) == 0 {
				exts = root.cfg.Watch.Extensions
			}
			debounce := time.Duration(root.cfg.Watch.DebounceMS) * time.Millisecond
			w, err := solver.NewWatcher(exts, debounce, root.log)
			if err != nil {
				return err
			}
			if err := w.Start(args); err != nil {
				return err
			}
			defer w.Stop()

			req := solver.Request{
				ScaleLow:   root.cfg.Solver.ScaleLow,
				ScaleHigh:  root.cfg.Solver.ScaleHigh,
				GuessScale: root.cfg.Solver.GuessScale,
				CPULimit:   root.cfg.Solver.CPULimit,
			}

			return runWatchLoop(ctx, w, batch, req, nil)
		},
	}

	cmd.Flags().StringSliceVar(&exts, "ext", nil, "image extensions to solve (default from config)")
	cmd.Flags().BoolVar(&saveTemps, "save-temps", false, "retain each run's working directory and transcript")
	cmd.Flags().BoolVar(&catalog, "catalog", false, "record results in the sqlite catalog")

	return cmd
}

// publisher receives results produced in watch mode; the serve command
// plugs its websocket hub in here.
type publisher interface {
	Publish(*solver.Result)
}

// runWatchLoop solves arrivals one at a time until ctx is canceled. The
// solver core stays sequential; concurrency exists only around it.
func runWatchLoop(ctx context.Context, w *solver.Watcher, batch *solver.Batch, req solver.Request, pub publisher) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case path, ok := <-w.Events:
			if !ok {
				return nil
			}
			res := batch.Solve(ctx, path, req)
			if pub != nil {
				pub.Publish(res)
			}
		}
	}
}
