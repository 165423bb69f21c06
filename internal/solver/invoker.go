package solver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/ckuethe/astro-tools/internal/logging"
)

// Run holds the raw outcome of one solver invocation.
type Run struct {
	Output  string  // combined stdout/stderr text
	Elapsed float64 // wall-clock seconds, 3 decimals
	WorkDir string  // retained working directory, "" if cleaned up
}

// Invoker executes solve-field synchronously, one image per call.
type Invoker struct {
	Binary   string
	TempRoot string
	log      *slog.Logger
}

// NewInvoker returns an Invoker for the given solver binary. tempRoot may
// be empty to use the system default.
func NewInvoker(binary, tempRoot string, log *slog.Logger) *Invoker {
	if binary == "" {
		binary = "solve-field"
	}
	return &Invoker{Binary: binary, TempRoot: tempRoot, log: log}
}

// Invoke runs the solver on req's image inside a fresh working directory.
// The exit status is deliberately ignored: the verdict comes from the
// report text alone. A process that cannot be started at all is the only
// error, and it is scoped to this image. When keepTemp is true the captured
// output is saved as solver.txt and the directory survives; otherwise the
// directory is removed best-effort.
func (inv *Invoker) Invoke(ctx context.Context, req Request, keepTemp bool) (*Run, error) {
	wd, err := os.MkdirTemp(inv.TempRoot, "astrometry_")
	if err != nil {
		return nil, fmt.Errorf("creating solver workdir for %s: %w", req.Image, err)
	}

	args, err := req.Args(wd)
	if err != nil {
		inv.cleanup(wd)
		return nil, fmt.Errorf("%s: %w", req.Image, err)
	}

	logging.LogSolveStart(inv.log, req.Image, append([]string{inv.Binary}, args...))

	cmd := exec.CommandContext(ctx, inv.Binary, args...)
	start := time.Now()
	out, err := cmd.CombinedOutput()
	elapsed := time.Since(start)

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		// Launch failure (binary missing, not executable, ctx dead).
		inv.cleanup(wd)
		return nil, fmt.Errorf("launching solver for %s: %w", req.Image, err)
	}

	run := &Run{
		Output:  string(out),
		Elapsed: round3(elapsed.Seconds()),
	}

	if keepTemp {
		if werr := os.WriteFile(filepath.Join(wd, "solver.txt"), out, 0o644); werr != nil {
			inv.log.Warn("could not save solver transcript", "dir", wd, "error", werr)
		}
		run.WorkDir = wd
	} else {
		inv.cleanup(wd)
	}

	return run, nil
}

// Available reports whether the solver binary can be found on PATH.
func (inv *Invoker) Available() bool {
	_, err := exec.LookPath(inv.Binary)
	return err == nil
}

// cleanup removes a working directory best-effort. Removal failure is
// never fatal for the run.
func (inv *Invoker) cleanup(wd string) {
	if err := os.RemoveAll(wd); err != nil {
		inv.log.Warn("could not remove solver workdir", "dir", wd, "error", err)
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
