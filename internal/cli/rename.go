package cli

import (
	"fmt"
	"path/filepath"

	"github.com/ckuethe/astro-tools/internal/fits"
	"github.com/ckuethe/astro-tools/internal/rename"

	"github.com/spf13/cobra"
)

func newRenameCmd(root *Root) *cobra.Command {
	var (
		move       bool
		glob       string
		srcdir     string
		format     string
		listTokens bool
	)

	cmd := &cobra.Command{
		Use:   "rename [flags] [FILE...]",
		Short: "Sort images into directories named from header tokens",
		Long: `Derive naming tokens from each file's FITS header and compute a
destination directory from the output format. The plan is printed; files
move only under --move. With no files given, the glob and srcdir select
the inputs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if listTokens {
				fmt.Fprint(out, rename.TokenHelp)
				return nil
			}

			files := args
			if len(files) == 0 {
				matches, err := filepath.Glob(filepath.Join(srcdir, glob))
				if err != nil {
					return err
				}
				files = matches
			}

			moves, errs := rename.Plan(files, "", format)
			for i, m := range moves {
				if errs[i] != nil {
					root.log.Warn("skipping file", "error", errs[i])
					continue
				}

				if root.verbose > 0 {
					h, err := fits.ReadHeader(m.Source)
					if err == nil {
						for k, v := range rename.Tokens(h, filepath.Base(m.Source)) {
							fmt.Fprintf(out, "%-8s = %v\n", k, v)
						}
						fmt.Fprintln(out)
					}
				}

				fmt.Fprintf(out, "rename %q -> %q\n", m.Source, m.Target())
				if move {
					if err := rename.Apply(m); err != nil {
						return fmt.Errorf("moving %s: %w", m.Source, err)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&move, "move", false, "actually move files (default is a dry run)")
	cmd.Flags().StringVar(&glob, "glob", "*.fits", "glob pattern used when no files are given")
	cmd.Flags().StringVarP(&srcdir, "srcdir", "i", ".", "directory from which to read files")
	cmd.Flags().StringVarP(&format, "outdir", "o", rename.DefaultFormat, "output path format")
	cmd.Flags().BoolVarP(&listTokens, "list-tokens", "l", false, "describe the available tokens and exit")

	return cmd
}
