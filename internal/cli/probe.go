package cli

import (
	"github.com/ckuethe/astro-tools/internal/probe"

	"github.com/spf13/cobra"
)

func newProbeCmd(root *Root) *cobra.Command {
	var opts probe.Options

	cmd := &cobra.Command{
		Use:   "probe [flags] FILE...",
		Short: "Dump and aggregate FITS header columns",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Verbose = opts.Verbose || root.verbose > 0
			return probe.Run(cmd.OutOrStdout(), args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Average, "average", "a", "", "column to average")
	cmd.Flags().StringVarP(&opts.Sum, "sum", "S", "", "column to add")
	cmd.Flags().StringArrayVarP(&opts.Columns, "column", "k", nil, "column to include (repeatable)")
	cmd.Flags().BoolVarP(&opts.JSON, "json", "j", false, "emit JSON instead of aligned text")
	cmd.Flags().BoolVarP(&opts.Summary, "summary", "s", false, "show the standard summary columns")

	return cmd
}
