package solver

import (
	"fmt"
	"regexp"
	"strconv"
)

// The solver's report is unstructured prose built from a small set of fixed
// sentence templates. Each template is scraped by its own named rule so that
// a format change in a future solver release breaks exactly one rule.
var (
	fieldSizeRe     = regexp.MustCompile(`Field size: ([0-9.]+) x ([0-9.]+)`)
	fieldCenterRe   = regexp.MustCompile(`Field center: \(RA,Dec\) = \(([0-9.-]+), ([0-9.-]+)\) deg\.`)
	pixelScaleRe    = regexp.MustCompile(`pixel scale ([0-9.]+) arcsec/pix`)
	constellationRe = regexp.MustCompile(`[Tt]he constellation (.+)`)
	starRe          = regexp.MustCompile(`The star (.+)`)
	icRe            = regexp.MustCompile(`(IC \d+.*)`)
	ngcRe           = regexp.MustCompile(`(NGC \d+.*)`)
	indexRe         = regexp.MustCompile(`Field \d+: solved with index index-([a-z0-9-]+)\.\S+endian\.fits\.`)
)

// ParseError reports a report missing one of the mandatory fields.
type ParseError struct {
	Rule string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("no %s in solver report", e.Rule)
}

// Center is a field center in degrees.
type Center struct {
	RA  float64 `json:"ra"`
	Dec float64 `json:"dec"`
}

// Report is the typed form of a solver's free-text output. FOV, FieldCenter
// and ArcsecPerPix are mandatory; everything else is absent when the text
// contains no matching line, and absence is not an error.
type Report struct {
	FOV            []float64 `json:"fov"` // width, height
	FieldCenter    Center    `json:"field_center"`
	ArcsecPerPix   float64   `json:"arcsec_pp"`
	Constellations []string  `json:"constellations,omitempty"`
	Stars          []string  `json:"stars,omitempty"`
	IC             []string  `json:"ic,omitempty"`
	NGC            []string  `json:"ngc,omitempty"`
	Index          string    `json:"index,omitempty"`
}

// ParseReport scrapes the solver's report text. Each rule is a single
// search over the whole text rather than a line-by-line state machine, so
// reordered or extraneous lines do not matter. Repeated optional matches
// are collected in order of appearance with duplicates retained.
func ParseReport(text string) (*Report, error) {
	rep := &Report{}

	m := fieldSizeRe.FindStringSubmatch(text)
	if m == nil {
		return nil, &ParseError{Rule: "field size"}
	}
	w, _ := strconv.ParseFloat(m[1], 64)
	h, _ := strconv.ParseFloat(m[2], 64)
	rep.FOV = []float64{w, h}

	m = fieldCenterRe.FindStringSubmatch(text)
	if m == nil {
		return nil, &ParseError{Rule: "field center"}
	}
	rep.FieldCenter.RA, _ = strconv.ParseFloat(m[1], 64)
	rep.FieldCenter.Dec, _ = strconv.ParseFloat(m[2], 64)

	m = pixelScaleRe.FindStringSubmatch(text)
	if m == nil {
		return nil, &ParseError{Rule: "pixel scale"}
	}
	rep.ArcsecPerPix, _ = strconv.ParseFloat(m[1], 64)

	rep.Constellations = collect(constellationRe, text)
	rep.Stars = collect(starRe, text)
	rep.IC = collect(icRe, text)
	rep.NGC = collect(ngcRe, text)

	if m = indexRe.FindStringSubmatch(text); m != nil {
		rep.Index = m[1]
	}

	return rep, nil
}

func collect(re *regexp.Regexp, text string) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	return out
}
