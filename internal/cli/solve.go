package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/ckuethe/astro-tools/internal/fits"
	"github.com/ckuethe/astro-tools/internal/solver"
	"github.com/ckuethe/astro-tools/internal/storage"

	"github.com/spf13/cobra"
)

func newSolveCmd(root *Root) *cobra.Command {
	var (
		output    string
		ra        float64
		dec       float64
		scaleLow  float64
		scaleHigh float64
		depth     int
		sigma     float64
		testFile  bool
		saveTemps bool
		catalog   bool
	)

	cmd := &cobra.Command{
		Use:   "solve [flags] FILE...",
		Short: "Identify images by plate solving",
		Long: `Run astrometry.net's solve-field on each image, scrape its report,
and emit one JSON record per image. Unsolved images are dropped from the
output unless verbosity is raised to -vv.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := solver.Request{
				ScaleLow:   scaleLow,
				ScaleHigh:  scaleHigh,
				GuessScale: root.cfg.Solver.GuessScale,
				CPULimit:   root.cfg.Solver.CPULimit,
				Depth:      depth,
				Sigma:      sigma,
			}
			if cmd.Flags().Changed("ra") {
				req.RA = &ra
			}
			if cmd.Flags().Changed("dec") {
				req.Dec = &dec
			}

			inv := solver.NewInvoker(root.cfg.Solver.Binary, root.cfg.Solver.TempRoot, root.log)
			batch := solver.NewBatch(inv, fits.ReadHeaderMap, root.log)
			batch.SaveTemps = saveTemps || root.cfg.Solver.SaveTemps
			batch.Transcript = testFile
			batch.IncludeUnsolved = root.verbose > 1

			if catalog {
				store, err := storage.New(root.cfg.Paths.DatabasePath)
				if err != nil {
					return fmt.Errorf("opening catalog: %w", err)
				}
				defer store.Close()
				batch.SetRecorder(store)
			}

			results := batch.Run(cmd.Context(), args, req)

			dest := output
			if dest == "" {
				dest = root.cfg.Paths.DefaultOutput
			}
			w, closeFn, err := openOutput(dest)
			if err != nil {
				return err
			}
			defer closeFn()

			// Failing to write the artifact is the one error that ends
			// the whole run.
			return solver.WriteResults(w, results)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write results to this file (default stdout)")
	cmd.Flags().Float64VarP(&ra, "ra", "R", 0, "RA hint, degrees")
	cmd.Flags().Float64VarP(&dec, "dec", "D", 0, "Dec hint, degrees")
	cmd.Flags().Float64VarP(&scaleLow, "scale-low", "L", 1, "lower bound of pixel scale, arcsec/pix")
	cmd.Flags().Float64VarP(&scaleHigh, "scale-high", "H", 2, "upper bound of pixel scale, arcsec/pix")
	cmd.Flags().IntVar(&depth, "depth", 0, "number of field objects to examine (default all)")
	cmd.Flags().Float64Var(&sigma, "sigma", 0, "detection noise level override")
	cmd.Flags().BoolVar(&testFile, "test-file", false, "treat inputs as saved solver transcripts, do not run the solver")
	cmd.Flags().BoolVar(&saveTemps, "save-temps", false, "retain each run's working directory and transcript")
	cmd.Flags().BoolVar(&catalog, "catalog", false, "record results in the sqlite catalog")

	return cmd
}

func openOutput(dest string) (io.Writer, func(), error) {
	if dest == "" || dest == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(dest)
	if err != nil {
		return nil, nil, fmt.Errorf("opening output %s: %w", dest, err)
	}
	return f, func() { f.Close() }, nil
}
