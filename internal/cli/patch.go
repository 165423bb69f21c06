package cli

import (
	"fmt"
	"path/filepath"

	"github.com/ckuethe/astro-tools/internal/patch"

	"github.com/spf13/cobra"
)

func newPatchCmd(root *Root) *cobra.Command {
	var (
		glob    string
		kvpairs []string
		update  bool
	)

	cmd := &cobra.Command{
		Use:   "patch [flags] [FITS...]",
		Short: "Bulk edit FITS headers",
		Long: `A very dangerous utility to bulk edit FITS headers. Pairs are given as
KEY=VALUE (also KEY:VALUE or KEY/VALUE). Nothing is written without
--update; the default is a dry run that prints the planned edits.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			files := args
			if len(files) == 0 {
				matches, err := filepath.Glob(glob)
				if err != nil {
					return err
				}
				files = matches
			}

			pairs := patch.SplitPairs(kvpairs)
			if len(pairs) == 0 {
				return fmt.Errorf("no valid key-value pairs given")
			}
			if !update {
				root.log.Info("dry run, pass --update to write")
			}

			return patch.Apply(cmd.OutOrStdout(), files, pairs, update)
		},
	}

	cmd.Flags().StringVarP(&glob, "glob", "g", "*.fits", "file pattern to match when no files are given")
	cmd.Flags().StringArrayVarP(&kvpairs, "kvpair", "k", nil, "key-value pair, separated by '/', ':', or '='")
	cmd.Flags().BoolVar(&update, "update", false, "updates won't be written without this flag")

	return cmd
}
