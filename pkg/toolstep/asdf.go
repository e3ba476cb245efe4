package toolstep

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/omnicli/omni/pkg/progress"
)

// AsdfStep installs a language runtime through a locally-installed asdf
// (or asdf-compatible) plugin, the dominant install path named in
// spec.md §4.6 and §6's ASDF_DATA_DIR env var.
type AsdfStep struct {
	// Plugin is the asdf plugin name (e.g. "nodejs", "python", "golang").
	// ToolName may differ from Plugin for tools omni aliases (it never
	// does today, but the distinction keeps Tool() meaningful if it ever
	// does).
	Plugin   string
	ToolName string
	// Subdir is the workdir-relative path the venv/post-hook should
	// operate against, default "." when empty.
	Subdir string
}

func (s AsdfStep) ToolType() string { return "asdf" }

func (s AsdfStep) Tool() string {
	if s.ToolName != "" {
		return s.ToolName
	}
	return s.Plugin
}

func (s AsdfStep) IsAvailable() bool {
	_, err := exec.LookPath("asdf")
	return err == nil
}

// asdfDataDir resolves $ASDF_DATA_DIR, falling back to asdf's own default
// of ~/.asdf, per spec.md §6.
func asdfDataDir() string {
	if dir := os.Getenv("ASDF_DATA_DIR"); dir != "" {
		return dir
	}
	home, err := homedir.Dir()
	if err != nil {
		return ".asdf"
	}
	return filepath.Join(home, ".asdf")
}

// Resolve runs `asdf list-all <plugin>` (installing the plugin first if
// it isn't registered) and applies the shared version-match predicate
// (match.go) to pick the highest candidate satisfying versionExpr.
func (s AsdfStep) Resolve(ctx context.Context, versionExpr string) (string, error) {
	if err := s.ensurePlugin(ctx); err != nil {
		return "", err
	}

	out, err := exec.CommandContext(ctx, "asdf", "list-all", s.Plugin).Output()
	if err != nil {
		return "", fmt.Errorf("listing %s versions: %w", s.Plugin, err)
	}

	var candidates []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			candidates = append(candidates, line)
		}
	}

	best := ""
	for _, c := range candidates {
		if Matches(versionExpr, c) && (best == "" || versionLess(best, c)) {
			best = c
		}
	}
	if best == "" {
		return "", fmt.Errorf("no %s version satisfying %q (%d candidates fetched)", s.Plugin, versionExpr, len(candidates))
	}
	return best, nil
}

func (s AsdfStep) ensurePlugin(ctx context.Context) error {
	list, _ := exec.CommandContext(ctx, "asdf", "plugin", "list").Output()
	for _, line := range strings.Split(string(list), "\n") {
		if strings.TrimSpace(line) == s.Plugin {
			return nil
		}
	}
	if err := exec.CommandContext(ctx, "asdf", "plugin", "add", s.Plugin).Run(); err != nil {
		return fmt.Errorf("adding asdf plugin %s: %w", s.Plugin, err)
	}
	return nil
}

// Install invokes `asdf install <plugin> <version>` under asdf's own data
// directory (asdfDataDir), streaming output through h, and returns that
// directory's bin path for the version. installDir is not used.
func (s AsdfStep) Install(ctx context.Context, version, installDir string, h progress.Handler) (string, error) {
	err := Run(ctx, "", "asdf", []string{"install", s.Plugin, version}, func(line string) {
		h.Update(line)
	})
	if err != nil {
		return "", &InstallError{Tool: s.Plugin, Version: version, Cause: err}
	}
	return filepath.Join(asdfDataDir(), "installs", s.Plugin, version, "bin"), nil
}

// Down runs `asdf uninstall <plugin> <version>`, the mirror of Install,
// invoked by the orphan sweep (spec.md §4.6) once a tool install's
// required_by set is empty.
func (s AsdfStep) Down(ctx context.Context, version string, h progress.Handler) error {
	err := Run(ctx, "", "asdf", []string{"uninstall", s.Plugin, version}, func(line string) {
		h.Update(line)
	})
	if err != nil {
		return &UninstallError{Tool: s.Plugin, Version: version, Cause: err}
	}
	return nil
}

func versionLess(a, b string) bool {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		var av, bv string
		if i < len(as) {
			av = as[i]
		}
		if i < len(bs) {
			bv = bs[i]
		}
		if av == bv {
			continue
		}
		an, aerr := atoiPadded(av)
		bn, berr := atoiPadded(bv)
		if aerr == nil && berr == nil {
			return an < bn
		}
		return av < bv
	}
	return false
}

func atoiPadded(s string) (int, error) {
	n := 0
	if s == "" {
		return 0, nil
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("not numeric")
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}

// SortVersionsDesc sorts a slice of dotted-numeric version strings
// descending, used by variants (github release tags, homebrew formula
// versions) that don't already return candidates pre-sorted.
func SortVersionsDesc(versions []string) {
	sort.Slice(versions, func(i, j int) bool { return versionLess(versions[j], versions[i]) })
}
