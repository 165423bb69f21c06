package solver

import (
	"io"
	"log/slog"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func fullHeader() map[string]any {
	return map[string]any{
		"RA":      float64(10.68),
		"DEC":     float64(41.27),
		"OBJECT":  "M 31",
		"NAXIS1":  int64(4000),
		"NAXIS2":  int64(3000),
		"SECPIX1": float64(1.0),
		"SECPIX2": float64(1.0),
	}
}

func TestReconcileSolved(t *testing.T) {
	run := &Run{Output: sampleReport, Elapsed: 1.2344}
	res := Reconcile("m31.fits", run, fullHeader(), testLogger())

	if !res.Solved {
		t.Fatalf("expected solved")
	}
	if res.Report == nil {
		t.Fatalf("expected report fields")
	}
	if res.SolveTime != 1.234 {
		t.Fatalf("expected solve time rounded to 1.234, got %v", res.SolveTime)
	}
	if res.Sources == nil || *res.Sources != 847 {
		t.Fatalf("expected 847 sources, got %v", res.Sources)
	}
	if res.Hdr == nil {
		t.Fatalf("expected header summary")
	}
	if res.Hdr.Obj != "M 31" {
		t.Fatalf("expected object M 31, got %q", res.Hdr.Obj)
	}
}

func TestReconcileHeaderFOV(t *testing.T) {
	run := &Run{Output: sampleReport}
	res := Reconcile("m31.fits", run, fullHeader(), testLogger())

	if res.Hdr == nil {
		t.Fatalf("expected header summary")
	}
	if res.Hdr.FOV[0] != 1.111111 || res.Hdr.FOV[1] != 0.833333 {
		t.Fatalf("expected fov (1.111111, 0.833333), got %v", res.Hdr.FOV)
	}
}

func TestReconcileMarkerIsAuthoritative(t *testing.T) {
	// Fully parseable fields plus the failure marker: marker wins.
	run := &Run{Output: sampleReport + "\nDid not solve.\n"}
	res := Reconcile("m31.fits", run, map[string]any{}, testLogger())

	if res.Solved {
		t.Fatalf("marker should force unsolved")
	}
	if res.Report != nil {
		t.Fatalf("report fields must not be populated on a marked failure")
	}
}

func TestReconcileParseFailureIsUnsolved(t *testing.T) {
	run := &Run{Output: "Field size: 1.0 x 1.0 degrees\nno other fields here\n"}
	res := Reconcile("bad.fits", run, map[string]any{}, testLogger())

	if res.Solved {
		t.Fatalf("incomplete report should be unsolved")
	}
	if res.Err != "" {
		t.Fatalf("parse failure is a downgrade, not an error: %q", res.Err)
	}
}

func TestReconcileHeaderSummaryAllOrNothing(t *testing.T) {
	for _, missing := range []string{"RA", "DEC", "NAXIS1", "NAXIS2", "SECPIX1", "SECPIX2"} {
		header := fullHeader()
		delete(header, missing)
		res := Reconcile("m31.fits", &Run{Output: sampleReport}, header, testLogger())
		if res.Hdr != nil {
			t.Fatalf("missing %s should omit the whole summary", missing)
		}
	}

	// OBJECT alone is optional.
	header := fullHeader()
	delete(header, "OBJECT")
	res := Reconcile("m31.fits", &Run{Output: sampleReport}, header, testLogger())
	if res.Hdr == nil || res.Hdr.Obj != "" {
		t.Fatalf("missing OBJECT should default to empty, got %+v", res.Hdr)
	}
}

func TestReconcileNoSources(t *testing.T) {
	run := &Run{Output: "Did not solve"}
	res := Reconcile("dark.fits", run, map[string]any{}, testLogger())
	if res.Sources != nil {
		t.Fatalf("expected no source count, got %v", *res.Sources)
	}
}
