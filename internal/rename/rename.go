// Package rename derives naming tokens from FITS headers and relocates
// image files into a token-formatted directory layout.
package rename

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ckuethe/astro-tools/internal/fits"
)

// DefaultFormat is the out-of-the-box destination layout.
const DefaultFormat = "{SCOPE}/{OBJECT}_{FILTER}"

// scopeMap maps "aperture:focal-length" onto a short instrument name.
var scopeMap = map[string]string{
	// Askar V, 60mm objective
	"60:270": "a5_60r",
	"60:360": "a5_60f",
	"60:446": "a5_60x",
	// Askar V, 80mm objective
	"80:385": "a5_80r",
	"80:495": "a5_80f",
	"80:600": "a5_80x",
	// SVBony SV503, 70mm
	"70:336": "sv503r",
	"70:420": "sv503",
	// Dwarflab Dwarf II, 20mm f/6
	"20:100": "dwarf2",
}

// Tokens builds the interpolation namespace for one file: every header
// value plus the derived composite tokens.
func Tokens(h *fits.Header, filename string) map[string]any {
	t := map[string]any{"FILENAME": filename}
	for _, c := range h.Cards() {
		t[c.Key] = c.Value
	}

	apt, _ := h.Float("APTDIA")
	fl, _ := h.Float("FOCALLEN")
	ix := fmt.Sprintf("%.0f:%.0f", apt, fl)
	scope, ok := scopeMap[ix]
	if !ok {
		scope = "unknown"
	}
	t["SCOPE"] = scope

	if lat, ok := h.Get("SITELAT"); ok {
		if lon, ok := h.Get("SITELONG"); ok {
			t["SITE"] = pair(lat, lon)
		}
	}

	if ra, ok := h.Get("RA"); ok {
		if dec, ok := h.Get("DEC"); ok {
			t["RADEC"] = pair(ra, dec)
		}
	}

	if ra, ok := h.Str("OBJCTRA"); ok {
		if dec, ok := h.Str("OBJCTDEC"); ok {
			t["OBJRADEC"] = pair(
				strings.ReplaceAll(ra, " ", ":"),
				strings.ReplaceAll(dec, " ", ":"))
		}
	}

	if p1, ok := h.Get("PIXSIZE1"); ok {
		if p2, ok2 := h.Get("PIXSIZE2"); ok2 && p1 == p2 {
			t["PIXSIZE"] = p1
		} else if ok2 {
			t["PIXSIZE"] = pair(p1, p2)
		}
	}

	// Nonstandard exposure headers fold into EXPTIME.
	for _, k := range []string{"EXP", "EXPOSURE", "XPOSURE"} {
		if v, ok := h.Get(k); ok {
			t["EXPTIME"] = v
			delete(t, k)
		}
	}

	if b, ok := h.Str("BINNING"); ok {
		t["BINNING"] = strings.ReplaceAll(b, "*", "x")
	} else if xb, ok := h.Get("XBINNING"); ok {
		if yb, ok := h.Get("YBINNING"); ok {
			t["BINNING"] = fmt.Sprintf("%vx%v", xb, yb)
		}
	}

	if n1, ok := h.Get("NAXIS1"); ok {
		if n2, ok := h.Get("NAXIS2"); ok {
			t["IMGSIZE"] = fmt.Sprintf("%vx%v", n1, n2)
		}
	}

	return t
}

func pair(a, b any) string {
	return fmt.Sprintf("(%v,%v)", a, b)
}

// Expand interpolates {TOKEN} references in format, case-insensitively,
// and replaces spaces in the result with underscores.
func Expand(format string, tokens map[string]any) (string, error) {
	upper := make(map[string]any, len(tokens))
	for k, v := range tokens {
		upper[strings.ToUpper(k)] = v
	}

	var sb strings.Builder
	for i := 0; i < len(format); {
		ch := format[i]
		if ch != '{' {
			sb.WriteByte(ch)
			i++
			continue
		}
		end := strings.IndexByte(format[i:], '}')
		if end < 0 {
			return "", fmt.Errorf("unterminated token at %q", format[i:])
		}
		name := format[i+1 : i+end]
		v, ok := upper[strings.ToUpper(name)]
		if !ok {
			return "", fmt.Errorf("unknown token %q", name)
		}
		sb.WriteString(fmt.Sprint(v))
		i += end + 1
	}

	return strings.ReplaceAll(sb.String(), " ", "_"), nil
}

// Move is one planned relocation: the file keeps its name and moves into
// a token-derived directory.
type Move struct {
	Source string
	Dir    string
}

// Target returns the full destination path.
func (m Move) Target() string {
	return filepath.Join(m.Dir, filepath.Base(m.Source))
}

// Plan computes the destination for each file. Files whose headers cannot
// be read or whose tokens are incomplete produce errors in the returned
// slice, position-aligned with moves.
func Plan(files []string, srcdir, format string) ([]Move, []error) {
	moves := make([]Move, len(files))
	errs := make([]error, len(files))
	for i, f := range files {
		path := f
		if srcdir != "" && !filepath.IsAbs(f) {
			path = filepath.Join(srcdir, f)
		}
		h, err := fits.ReadHeader(path)
		if err != nil {
			errs[i] = fmt.Errorf("%s: %w", f, err)
			continue
		}
		dir, err := Expand(format, Tokens(h, f))
		if err != nil {
			errs[i] = fmt.Errorf("%s: %w", f, err)
			continue
		}
		moves[i] = Move{Source: path, Dir: dir}
	}
	return moves, errs
}

// Apply performs one planned move, creating the destination directory.
func Apply(m Move) error {
	if err := os.MkdirAll(m.Dir, 0o755); err != nil {
		return err
	}
	return os.Rename(m.Source, m.Target())
}

// TokenHelp describes the derivable tokens for the CLI.
const TokenHelp = `Tokens are derived from the FITS header, and may be specified case-insensitively.
Use the "-v" flag to view the header key-value pairs which may be interpolated.
Spaces are replaced by underscores.

INSTRUME = Instrument (camera) used for this image
TELESCOP = Mount holding the instrument. Bogus, IMO.
EXPTIME  = Integration time
CCD-TEMP = Sensor temperature
GAIN     = Sensor gain
FILTER   = Filter used
FOCALLEN = Effective focal length (eg. real length x reducer/extender/barlow...)
APTDIA   = Optical aperture
SCOPE    = Short name of the instrument
OBJECT   = User provided object name
SITE     = (latitude,longitude)
RADEC    = (ra_degrees, dec_degrees)
OBJRADEC = (ra_hrs:min:sec.ss, dec_deg:min:sec.ss)
PIXSIZE  = pixel size in um. will be (x,y) if pixels are not square
BINNING  = HxV, eg. 1x1, 2x2, .. not sure if H and V binning will ever be unequal
IMGSIZE  = WxH, eg. 3008x3008, 1920x1080, 2048x1536, ...
`
