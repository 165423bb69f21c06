// Package patch bulk-edits FITS headers. Edits are printed as a dry run
// and written only under an explicit update flag.
package patch

import (
	"fmt"
	"io"
	"regexp"

	"github.com/ckuethe/astro-tools/internal/fits"
)

// kvRe is the accepted pair grammar: an 8-character FITS keyword, a
// separator of '/', ':' or '=', and a value.
var kvRe = regexp.MustCompile(`^(?P<name>[0-9A-Z_-]{1,8})[/:=](?P<value>.+?)\s*$`)

// maxPairLen matches the FITS card budget: key + separator + value.
const maxPairLen = 81

// SplitPairs converts K=V arguments into header assignments. Arguments
// that do not match the grammar are silently dropped, as are oversized
// ones.
func SplitPairs(args []string) []fits.KeyValue {
	var pairs []fits.KeyValue
	for _, arg := range args {
		if len(arg) > maxPairLen {
			continue
		}
		m := kvRe.FindStringSubmatch(arg)
		if m == nil {
			continue
		}
		pairs = append(pairs, fits.KeyValue{Name: m[1], Value: m[2]})
	}
	return pairs
}

// Apply reports the planned edits for each file and, when update is true,
// writes them. A file that cannot be patched fails the whole operation;
// bulk header editing should not half-finish silently.
func Apply(w io.Writer, files []string, pairs []fits.KeyValue, update bool) error {
	for _, file := range files {
		fmt.Fprintf(w, "%s:\n", file)
		for _, kv := range pairs {
			fmt.Fprintf(w, "    %s = %s\n", kv.Name, kv.Value)
		}
		fmt.Fprintln(w)

		if !update {
			continue
		}
		if err := fits.PatchHeader(file, pairs); err != nil {
			return fmt.Errorf("patching %s: %w", file, err)
		}
	}
	return nil
}
