package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ckuethe/astro-tools/internal/solver"
	"github.com/ckuethe/astro-tools/internal/storage"

	"github.com/gorilla/mux"
)

func testServer(t *testing.T) (*httptest.Server, *storage.Store) {
	t.Helper()
	store, err := storage.New(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(":0", store, log)
	r := mux.NewRouter()
	s.setupRoutes(r)

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts, store
}

func seed(t *testing.T, store *storage.Store, results ...*solver.Result) {
	t.Helper()
	for _, res := range results {
		if err := store.RecordResult(res); err != nil {
			t.Fatalf("seeding store: %v", err)
		}
	}
}

func getRecords(t *testing.T, url string) []storage.Record {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}

	var recs []storage.Record
	if err := json.NewDecoder(resp.Body).Decode(&recs); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return recs
}

func TestHealthz(t *testing.T) {
	ts, _ := testServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "ok" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestResultsEndpoint(t *testing.T) {
	ts, store := testServer(t)
	seed(t, store,
		&solver.Result{File: "a.fits", Solved: true, SolveTime: 1.2},
		&solver.Result{File: "b.fits", Solved: false},
	)

	recs := getRecords(t, ts.URL+"/api/results")
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].File != "b.fits" {
		t.Fatalf("expected newest first, got %v", recs)
	}

	recs = getRecords(t, ts.URL+"/api/results?solved=1")
	if len(recs) != 1 || recs[0].File != "a.fits" {
		t.Fatalf("expected solved filter applied, got %v", recs)
	}

	recs = getRecords(t, ts.URL+"/api/results?limit=1")
	if len(recs) != 1 {
		t.Fatalf("expected limit applied, got %d records", len(recs))
	}
}

func TestResultsForFileEndpoint(t *testing.T) {
	ts, store := testServer(t)
	seed(t, store,
		&solver.Result{File: "a.fits", Solved: true},
		&solver.Result{File: "other.fits", Solved: true},
	)

	recs := getRecords(t, ts.URL+"/api/results/file?path=a.fits")
	if len(recs) != 1 || recs[0].File != "a.fits" {
		t.Fatalf("expected per-file history, got %v", recs)
	}

	resp, err := http.Get(ts.URL + "/api/results/file")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without path, got %d", resp.StatusCode)
	}
}
