// Package cli defines the astro command tree.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/ckuethe/astro-tools/internal/config"
	"github.com/ckuethe/astro-tools/internal/logging"

	"github.com/spf13/cobra"
)

const version = "astro-tools v1.0.0-dev"

// Root carries the shared state every command needs.
type Root struct {
	cfg     *config.Config
	log     *slog.Logger
	verbose int
}

// Logger returns the active logger.
func (r *Root) Logger() *slog.Logger { return r.log }

// NewRootCmd creates the root Cobra command.
func NewRootCmd(cfg *config.Config, log *slog.Logger) *cobra.Command {
	root := &Root{cfg: cfg, log: log}

	rootCmd := &cobra.Command{
		Use:   "astro",
		Short: "Tools for plate solving and FITS header wrangling",
		Long: `Astro-tools identifies images by plate solving with astrometry.net's
solve-field, and provides sibling utilities to rename, patch, and probe
FITS files by their header metadata.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// -v raises verbosity above the configured level.
			if root.verbose > 0 {
				root.log = logging.New(logging.Verbosity(root.verbose), cfg.Logging.Format)
			}
		},
	}

	rootCmd.PersistentFlags().CountVarP(&root.verbose, "verbose", "v", "increase verbosity (-v info, -vv debug)")

	rootCmd.AddCommand(newSolveCmd(root))
	rootCmd.AddCommand(newWatchCmd(root))
	rootCmd.AddCommand(newServeCmd(root))
	rootCmd.AddCommand(newRenameCmd(root))
	rootCmd.AddCommand(newPatchCmd(root))
	rootCmd.AddCommand(newProbeCmd(root))
	rootCmd.AddCommand(newConfigCmd(root))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
