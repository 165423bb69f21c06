package cli

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/ckuethe/astro-tools/internal/fits"
	"github.com/ckuethe/astro-tools/internal/server"
	"github.com/ckuethe/astro-tools/internal/solver"
	"github.com/ckuethe/astro-tools/internal/storage"

	"github.com/spf13/cobra"
)

func newServeCmd(root *Root) *cobra.Command {
	var (
		addr      string
		watchDirs []string
	)

	cmd := &cobra.Command{
		Use:   "serve [flags]",
		Short: "Serve the solve result catalog over HTTP",
		Long: `Expose recorded solve results via a JSON API. With --watch, new images
in the given directories are solved as they arrive, recorded, and pushed
to websocket subscribers on /api/events.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if addr == "" {
				addr = root.cfg.Server.Addr
			}

			store, err := storage.New(root.cfg.Paths.DatabasePath)
			if err != nil {
				return fmt.Errorf("opening catalog: %w", err)
			}
			defer store.Close()

			srv := server.New(addr, store, root.log)

			if len(watchDirs) > 0 {
				inv := solver.NewInvoker(root.cfg.Solver.Binary, root.cfg.Solver.TempRoot, root.log)
				batch := solver.NewBatch(inv, fits.ReadHeaderMap, root.log)
				batch.SetRecorder(store)

				debounce := time.Duration(root.cfg.Watch.DebounceMS) * time.Millisecond
				w, err := solver.NewWatcher(root.cfg.Watch.Extensions, debounce, root.log)
				if err != nil {
					return err
				}
				if err := w.Start(watchDirs); err != nil {
					return err
				}
				defer w.Stop()

				req := solver.Request{
					ScaleLow:   root.cfg.Solver.ScaleLow,
					ScaleHigh:  root.cfg.Solver.ScaleHigh,
					GuessScale: root.cfg.Solver.GuessScale,
					CPULimit:   root.cfg.Solver.CPULimit,
				}
				go runWatchLoop(ctx, w, batch, req, srv.Hub())
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringSliceVar(&watchDirs, "watch", nil, "also watch these directories and solve arrivals")

	return cmd
}
