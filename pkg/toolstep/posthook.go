package toolstep

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/omnicli/omni/pkg/progress"
)

// PythonVenvHook implements the post-install hook spec.md §4.6 names for
// Python steps: after the interpreter itself is registered, create (if
// absent) a virtual environment scoped to the workdir's subdirectory and
// pip-install any declared requirements files.
//
// The venv directory is keyed by hash(subdir) rather than the literal
// subdir path so two workdirs that happen to share a subdir name don't
// collide, and so the path stays filesystem-safe regardless of what
// characters the subdir contains.
type PythonVenvHook struct {
	DataPath     string // <data_path>/<tool>/<version> root for this install
	PythonBin    string // resolved interpreter binary from the asdf/release install
	Subdir       string // workdir-relative subdirectory this venv serves, "." by default
	Requirements []string
	AutoDiscover bool // fall back to ./requirements.txt when Requirements is empty
}

// VenvDir returns the deterministic on-disk path for this hook's venv.
func (h PythonVenvHook) VenvDir() string {
	sum := sha256.Sum256([]byte(h.subdirOrDefault()))
	return filepath.Join(h.DataPath, hex.EncodeToString(sum[:])[:16])
}

func (h PythonVenvHook) subdirOrDefault() string {
	if h.Subdir == "" {
		return "."
	}
	return h.Subdir
}

// Run creates the venv if it doesn't already exist, then installs every
// requirements file in h.Requirements (or an auto-discovered
// requirements.txt when AutoDiscover is set and Requirements is empty).
func (h PythonVenvHook) Run(ctx context.Context, workdirRoot string, prog progress.Handler) error {
	venvDir := h.VenvDir()
	if _, err := os.Stat(filepath.Join(venvDir, "bin", "python")); err != nil {
		prog.Update(fmt.Sprintf("creating virtualenv at %s", venvDir))
		if err := Run(ctx, "", h.PythonBin, []string{"-m", "venv", venvDir}, func(line string) { prog.Update(line) }); err != nil {
			return &PostHookError{Tool: "python", Hook: "venv", Cause: err}
		}
	}

	reqFiles := h.Requirements
	if len(reqFiles) == 0 && h.AutoDiscover {
		candidate := filepath.Join(workdirRoot, h.subdirOrDefault(), "requirements.txt")
		if _, err := os.Stat(candidate); err == nil {
			reqFiles = []string{candidate}
		}
	}

	pip := filepath.Join(venvDir, "bin", "pip")
	for _, req := range reqFiles {
		prog.Update(fmt.Sprintf("pip install -r %s", req))
		err := Run(ctx, "", pip, []string{"install", "-r", req}, func(line string) { prog.Update(line) })
		if err != nil {
			return &PostHookError{Tool: "python", Hook: "pip install -r " + req, Cause: err}
		}
	}
	return nil
}

// BinDir returns the venv's bin directory, which the orchestrator shims
// ahead of the bare interpreter install's own bin directory so a
// workdir's `python`/`pip` resolve into its scoped venv.
func (h PythonVenvHook) BinDir() string {
	return filepath.Join(h.VenvDir(), "bin")
}
