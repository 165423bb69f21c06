// Package solver wraps astrometry.net's solve-field: it builds the argument
// set, runs the solver in a scoped working directory, scrapes the free-text
// report into a typed result, and reconciles that with FITS header facts.
package solver

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// flagNameRe is the accepted grammar for pass-through solver option names.
// Anything else is rejected before it can reach the argument vector.
var flagNameRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

// Request describes one solver invocation. Build it once per image; the
// invoker never mutates it.
type Request struct {
	Image      string
	ScaleLow   float64
	ScaleHigh  float64
	RA         *float64 // optional position hint, degrees
	Dec        *float64
	GuessScale bool
	CPULimit   int     // seconds, 0 = solver default
	Depth      int     // field objects to examine, 0 = all
	Sigma      float64 // detection noise level override, 0 = solver default

	// Extra carries additional solve-field options. A value of true
	// becomes a bare flag, anything else a flag/value pair. Underscores
	// in names become dashes; single-character names get a single dash.
	Extra map[string]any
}

// WithImage returns a copy of the request bound to an image path. Used by
// the batch driver to stamp a template request per file.
func (r Request) WithImage(image string) Request {
	r.Image = image
	return r
}

// Args translates the request into solve-field command-line tokens. The
// working directory is always passed as both --dir and --temp-dir, and the
// image path is the final positional argument.
func (r Request) Args(workDir string) ([]string, error) {
	args := []string{"--dir", workDir, "--temp-dir", workDir}

	if r.ScaleLow > 0 {
		args = append(args, "--scale-low", fmt.Sprint(r.ScaleLow))
	}
	if r.ScaleHigh > 0 {
		args = append(args, "--scale-high", fmt.Sprint(r.ScaleHigh))
	}
	if r.RA != nil {
		args = append(args, "--ra", fmt.Sprint(*r.RA))
	}
	if r.Dec != nil {
		args = append(args, "--dec", fmt.Sprint(*r.Dec))
	}
	if r.GuessScale {
		args = append(args, "--guess-scale")
	}
	if r.CPULimit > 0 {
		args = append(args, "--cpulimit", fmt.Sprint(r.CPULimit))
	}
	if r.Depth > 0 {
		args = append(args, "--depth", fmt.Sprint(r.Depth))
	}
	if r.Sigma > 0 {
		args = append(args, "--sigma", fmt.Sprint(r.Sigma))
	}

	extra, err := extraArgs(r.Extra)
	if err != nil {
		return nil, err
	}
	args = append(args, extra...)

	args = append(args, r.Image)
	return args, nil
}

func extraArgs(extra map[string]any) ([]string, error) {
	if len(extra) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var args []string
	for _, k := range keys {
		if !flagNameRe.MatchString(k) {
			return nil, fmt.Errorf("invalid solver option name %q", k)
		}
		flag := flagName(k)
		if v, isBool := extra[k].(bool); isBool && v {
			args = append(args, flag)
			continue
		}
		args = append(args, flag, fmt.Sprint(extra[k]))
	}
	return args, nil
}

// flagName rewrites an option name to its command-line form: underscores
// become dashes, single-character names take a single dash.
func flagName(name string) string {
	dashed := strings.ReplaceAll(name, "_", "-")
	if len(dashed) == 1 {
		return "-" + dashed
	}
	return "--" + dashed
}
