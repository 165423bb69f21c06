package solver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/ckuethe/astro-tools/internal/logging"
)

// runner lets tests substitute the solver invocation.
type runner interface {
	Invoke(ctx context.Context, req Request, keepTemp bool) (*Run, error)
}

// Recorder persists results as they are produced. The batch treats
// recording as best-effort; a failed insert never stops the run.
type Recorder interface {
	RecordResult(*Result) error
}

// Batch drives the pipeline over a list of files, strictly sequentially:
// one image is solved, parsed and reconciled before the next begins. A
// fatal condition for one file is contained in that file's result.
type Batch struct {
	invoker    runner
	readHeader func(string) map[string]any
	recorder   Recorder
	log        *slog.Logger

	// SaveTemps retains each invocation's working directory.
	SaveTemps bool
	// Transcript treats inputs as pre-captured solver reports, bypassing
	// the subprocess entirely.
	Transcript bool
	// IncludeUnsolved keeps unsolved and failed records in the output
	// collection instead of dropping them.
	IncludeUnsolved bool
}

// NewBatch wires a batch driver. readHeader is the metadata collaborator;
// it must return an empty mapping (never fail) for unreadable files.
func NewBatch(inv *Invoker, readHeader func(string) map[string]any, log *slog.Logger) *Batch {
	return &Batch{invoker: inv, readHeader: readHeader, log: log}
}

// SetRecorder attaches an optional result catalog.
func (b *Batch) SetRecorder(r Recorder) { b.recorder = r }

// Run processes files in input order and returns the filtered collection,
// also in input order. No per-file error escapes.
func (b *Batch) Run(ctx context.Context, files []string, tmpl Request) []*Result {
	results := make([]*Result, 0, len(files))
	for _, f := range files {
		res := b.Solve(ctx, f, tmpl)
		if res.Solved || b.IncludeUnsolved {
			results = append(results, res)
		}
	}
	return results
}

// Solve runs the full pipeline for a single file.
func (b *Batch) Solve(ctx context.Context, file string, tmpl Request) *Result {
	if b.Transcript {
		return b.record(b.solveTranscript(file))
	}

	header := b.readHeader(file)

	run, err := b.invoker.Invoke(ctx, tmpl.WithImage(file), b.SaveTemps)
	if err != nil {
		logging.LogSolveError(b.log, file, err)
		return b.record(ErrorResult(file, err))
	}

	res := Reconcile(file, run, header, b.log)
	logging.LogSolveComplete(b.log, file, res.Solved,
		time.Duration(run.Elapsed*float64(time.Second)))
	return b.record(res)
}

// solveTranscript parses a saved solver report instead of invoking the
// solver. No header is consulted and the solve time is zero.
func (b *Batch) solveTranscript(file string) *Result {
	text, err := os.ReadFile(file)
	if err != nil {
		logging.LogSolveError(b.log, file, err)
		return ErrorResult(file, err)
	}
	return Reconcile(file, &Run{Output: string(text)}, map[string]any{}, b.log)
}

func (b *Batch) record(res *Result) *Result {
	if b.recorder != nil {
		if err := b.recorder.RecordResult(res); err != nil {
			b.log.Warn("could not record result", "file", res.File, "error", err)
		}
	}
	return res
}

// WriteResults serializes the collection as the final artifact: an ordered
// JSON array with stable field names.
func WriteResults(w io.Writer, results []*Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
