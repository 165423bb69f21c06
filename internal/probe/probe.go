// Package probe dumps and aggregates FITS header columns across files.
package probe

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/ckuethe/astro-tools/internal/fits"
)

// SummaryColumns is the column set shown by the summary flag.
var SummaryColumns = []string{
	"EXPTIME", "CCD-TEMP", "OFFSET", "GAIN", "INSTRUME", "NAXIS", "NAXIS1", "NAXIS2",
}

// Options selects what to report.
type Options struct {
	Average string   // column to average across files
	Sum     string   // column to total across files
	Columns []string // restrict output to these columns
	JSON    bool
	Summary bool
	Verbose bool
}

// Record is one file's filtered header, in card order.
type Record struct {
	File  string
	Cards []fits.Card
}

// Map renders the record with FILENAME folded in, for JSON output.
func (r Record) Map() map[string]any {
	m := map[string]any{"FILENAME": r.File}
	for _, c := range r.Cards {
		m[c.Key] = c.Value
	}
	return m
}

// Run probes each file and writes the requested report. Unlike the solve
// pipeline, probe operates on explicitly named files, so an unreadable
// file is an error.
func Run(w io.Writer, files []string, opts Options) error {
	columns := opts.Columns
	if opts.Summary && len(columns) == 0 {
		columns = SummaryColumns
	}

	var records []Record
	var acc []float64

	for _, file := range files {
		h, err := fits.ReadHeader(file)
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}

		rec := Record{File: file}
		for _, c := range h.Cards() {
			if len(columns) > 0 && !contains(columns, c.Key) {
				continue
			}
			rec.Cards = append(rec.Cards, c)
		}
		records = append(records, rec)

		col := opts.Average
		if col == "" {
			col = opts.Sum
		}
		if col != "" {
			if v, ok := h.Float(col); ok {
				acc = append(acc, v)
			} else {
				acc = append(acc, math.NaN())
			}
		}
	}

	if opts.Verbose || opts.Summary {
		if err := writeRecords(w, records, opts.JSON); err != nil {
			return err
		}
	}

	if opts.Average != "" {
		fmt.Fprintf(w, "Average %s = %.2f\n", opts.Average, total(acc)/float64(len(files)))
	}
	if opts.Sum != "" {
		fmt.Fprintf(w, "Sum %s = %.2f\n", opts.Sum, total(acc))
	}
	return nil
}

func writeRecords(w io.Writer, records []Record, asJSON bool) error {
	if asJSON {
		maps := make([]map[string]any, len(records))
		for i, r := range records {
			maps[i] = r.Map()
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(maps)
	}

	for _, r := range records {
		fmt.Fprintf(w, "%-8s = %v\n", "FILENAME", r.File)
		for _, c := range r.Cards {
			fmt.Fprintf(w, "%-8s = %v\n", c.Key, c.Value)
		}
		fmt.Fprintln(w)
	}
	return nil
}

func total(vs []float64) float64 {
	t := 0.0
	for _, v := range vs {
		t += v
	}
	return t
}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}
