package solver

import (
	"strings"
	"testing"
)

func TestRequestArgs(t *testing.T) {
	ra, dec := 10.5, -20.25

	cases := []struct {
		name string
		req  Request
		want string
	}{
		{
			name: "minimal",
			req:  Request{Image: "a.fits"},
			want: "--dir WD --temp-dir WD a.fits",
		},
		{
			name: "scale bounds and hints",
			req:  Request{Image: "a.fits", ScaleLow: 1, ScaleHigh: 2, RA: &ra, Dec: &dec},
			want: "--dir WD --temp-dir WD --scale-low 1 --scale-high 2 --ra 10.5 --dec -20.25 a.fits",
		},
		{
			name: "guess scale and cpu limit",
			req:  Request{Image: "a.fits", GuessScale: true, CPULimit: 30},
			want: "--dir WD --temp-dir WD --guess-scale --cpulimit 30 a.fits",
		},
		{
			name: "depth and sigma",
			req:  Request{Image: "a.fits", Depth: 40, Sigma: 5.5},
			want: "--dir WD --temp-dir WD --depth 40 --sigma 5.5 a.fits",
		},
		{
			name: "extra underscore rewrite",
			req:  Request{Image: "a.fits", Extra: map[string]any{"long_kw_param": 2}},
			want: "--dir WD --temp-dir WD --long-kw-param 2 a.fits",
		},
		{
			name: "extra single char bare flag",
			req:  Request{Image: "a.fits", Extra: map[string]any{"p": true}},
			want: "--dir WD --temp-dir WD -p a.fits",
		},
		{
			name: "extra sorted deterministically",
			req:  Request{Image: "a.fits", Extra: map[string]any{"sigma": 5, "depth": "20,30"}},
			want: "--dir WD --temp-dir WD --depth 20,30 --sigma 5 a.fits",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			args, err := tc.req.Args("WD")
			if err != nil {
				t.Fatalf("args failed: %v", err)
			}
			if got := strings.Join(args, " "); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestRequestArgsRejectsBadOptionNames(t *testing.T) {
	for _, bad := range []string{"bad name", "-leading", "a;rm", ""} {
		req := Request{Image: "a.fits", Extra: map[string]any{bad: 1}}
		if _, err := req.Args("WD"); err == nil {
			t.Fatalf("expected rejection of option name %q", bad)
		}
	}
}

func TestRequestWithImage(t *testing.T) {
	tmpl := Request{ScaleLow: 1, ScaleHigh: 2}
	stamped := tmpl.WithImage("b.fits")
	if stamped.Image != "b.fits" {
		t.Fatalf("expected image bound, got %q", stamped.Image)
	}
	if tmpl.Image != "" {
		t.Fatalf("template must not mutate")
	}
}
