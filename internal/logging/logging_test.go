package logging

import (
	"bytes"
	"context"
	"log"
	"log/slog"
	"strings"
	"testing"
)

func TestVerbosity(t *testing.T) {
	cases := []struct {
		count int
		want  string
	}{
		{0, "warn"},
		{1, "info"},
		{2, "debug"},
		{5, "debug"},
	}
	for _, tc := range cases {
		if got := Verbosity(tc.count); got != tc.want {
			t.Fatalf("Verbosity(%d) = %q, want %q", tc.count, got, tc.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	if parseLevel("DEBUG") != slog.LevelDebug {
		t.Fatalf("level names should be case-insensitive")
	}
	if parseLevel("warning") != slog.LevelWarn {
		t.Fatalf("warning should alias warn")
	}
	if parseLevel("bogus") != slog.LevelInfo {
		t.Fatalf("unknown levels should fall back to info")
	}
}

func TestTraditionalHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	h := &TraditionalHandler{
		logger: log.New(&buf, "", 0),
		level:  slog.LevelInfo,
	}
	logger := slog.New(h)

	logger.Info("solve finished", "file", "m31.fits", "solved", true)
	out := buf.String()
	if !strings.Contains(out, "[INFO] solve finished [file=m31.fits solved=true]") {
		t.Fatalf("unexpected line %q", out)
	}

	buf.Reset()
	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug should be suppressed at info level, got %q", buf.String())
	}
	if h.Enabled(context.Background(), slog.LevelWarn) != true {
		t.Fatalf("warn should be enabled at info level")
	}
}
