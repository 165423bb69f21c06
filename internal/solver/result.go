package solver

import (
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// failureMarker is the solver's own verdict. Its presence is authoritative:
// a report carrying it is unsolved even if field lines happen to parse.
const failureMarker = "Did not solve"

var sourcesRe = regexp.MustCompile(`simplexy: found (\d+) sources`)

// Location carries the header's stated position. RA/DEC header values may
// be decimal degrees or sexagesimal strings depending on the capture
// software, so they pass through untyped.
type Location struct {
	RA  any `json:"ra"`
	Dec any `json:"dec"`
}

// HeaderSummary is the slice of image metadata worth carrying next to the
// solve verdict: stated position, object name, and the field of view the
// header geometry implies.
type HeaderSummary struct {
	Loc Location  `json:"loc"`
	Obj string    `json:"obj"`
	FOV []float64 `json:"fov"` // degrees, from NAXIS*SECPIX
}

// Result is the final record for one image. Immutable once built; report
// fields are flattened in when the image solved.
type Result struct {
	File      string         `json:"file"`
	SolveTime float64        `json:"solve_time"`
	Solved    bool           `json:"solved"`
	Sources   *int           `json:"sources,omitempty"`
	Hdr       *HeaderSummary `json:"hdr,omitempty"`
	*Report
	Err string `json:"error,omitempty"`
}

// Reconcile merges a solver run with the image's header facts and decides
// the verdict. Parse failures downgrade the image to unsolved; they never
// propagate.
func Reconcile(file string, run *Run, header map[string]any, log *slog.Logger) *Result {
	res := &Result{
		File:      file,
		SolveTime: round3(run.Elapsed),
		Hdr:       headerSummary(header),
	}

	if m := sourcesRe.FindStringSubmatch(run.Output); m != nil {
		n, _ := strconv.Atoi(m[1])
		res.Sources = &n
	}

	if strings.Contains(run.Output, failureMarker) {
		log.Warn("unable to solve", "file", file)
		return res
	}

	rep, err := ParseReport(run.Output)
	if err != nil {
		log.Warn("solver report incomplete", "file", file, "error", err)
		return res
	}

	res.Solved = true
	res.Report = rep
	return res
}

// ErrorResult records a per-file fatal condition (process launch failure,
// unreadable input) without aborting the batch.
func ErrorResult(file string, err error) *Result {
	return &Result{File: file, Err: err.Error()}
}

// headerSummary builds the metadata summary from the six required keys.
// If any of them is missing the whole summary is omitted; OBJECT alone
// may be absent and defaults to "".
func headerSummary(header map[string]any) *HeaderSummary {
	ra, okRA := header["RA"]
	dec, okDec := header["DEC"]
	n1, ok1 := headerFloat(header, "NAXIS1")
	n2, ok2 := headerFloat(header, "NAXIS2")
	s1, ok3 := headerFloat(header, "SECPIX1")
	s2, ok4 := headerFloat(header, "SECPIX2")
	if !okRA || !okDec || !ok1 || !ok2 || !ok3 || !ok4 {
		return nil
	}

	obj := ""
	if v, ok := header["OBJECT"].(string); ok {
		obj = v
	}

	return &HeaderSummary{
		Loc: Location{RA: ra, Dec: dec},
		Obj: obj,
		FOV: []float64{
			round6(n1 * s1 / 3600),
			round6(n2 * s2 / 3600),
		},
	}
}

func headerFloat(header map[string]any, key string) (float64, bool) {
	switch v := header[key].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
