// Package shim manages the directory of re-entry shims omni installs for
// tool binaries (spec.md §4.4, component C4): small scripts that call back
// into the omni binary so a workdir's resolved tool version is selected
// transparently from any shell, even one that never ran `omni up`.
package shim

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/omnicli/omni/pkg/logger"
)

var log = logger.New("shim:manager")

const shimMarker = "# omni-shim\n"

// Manager owns one shim directory (typically
// $XDG_DATA_HOME/omni/shims) and keeps its contents in sync with the set
// of tool binaries currently registered in the cache.
type Manager struct {
	Dir        string
	OmniBinary string
}

// New returns a Manager for dir, re-entering via omniBinary (normally the
// running process's own executable path).
func New(dir, omniBinary string) *Manager {
	return &Manager{Dir: dir, OmniBinary: omniBinary}
}

// EnsureShim writes (or rewrites) a shim script for toolName in the
// manager's directory, idempotently: an existing shim not written by
// omni is left untouched and reported via the returned bool, so reshim
// never clobbers something the user put there deliberately.
func (m *Manager) EnsureShim(toolName string) (wrote bool, err error) {
	if err := os.MkdirAll(m.Dir, 0o755); err != nil {
		return false, fmt.Errorf("creating shim dir %s: %w", m.Dir, err)
	}
	path := filepath.Join(m.Dir, toolName)

	if existing, err := os.ReadFile(path); err == nil {
		if !strings.Contains(string(existing), shimMarker) {
			log.Printf("leaving foreign file in place at %s", path)
			return false, nil
		}
	}

	script := fmt.Sprintf("#!/bin/sh\n%s# tool: %s\nexec %q shim exec %q -- \"$@\"\n", shimMarker, toolName, m.OmniBinary, toolName)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		return false, fmt.Errorf("writing shim %s: %w", path, err)
	}
	return true, nil
}

// Reshim regenerates shims for every tool name discovered across sources,
// then removes any omni-written shim whose tool is no longer present in
// any source, so a tool that's been fully uninstalled stops shadowing the
// system binary of the same name.
func (m *Manager) Reshim(sources ...Source) (written, removed []string, err error) {
	wanted := map[string]struct{}{}
	for _, src := range sources {
		names, serr := src.ToolNames()
		if serr != nil {
			log.Printf("source %s failed, skipping: %v", src.Describe(), serr)
			continue
		}
		for _, n := range names {
			wanted[n] = struct{}{}
		}
	}

	for name := range wanted {
		wrote, werr := m.EnsureShim(name)
		if werr != nil {
			return written, removed, werr
		}
		if wrote {
			written = append(written, name)
		}
	}

	entries, rerr := os.ReadDir(m.Dir)
	if rerr != nil {
		if os.IsNotExist(rerr) {
			return sortedCopy(written), sortedCopy(removed), nil
		}
		return written, removed, fmt.Errorf("listing shim dir %s: %w", m.Dir, rerr)
	}
	for _, e := range entries {
		if _, ok := wanted[e.Name()]; ok {
			continue
		}
		path := filepath.Join(m.Dir, e.Name())
		data, _ := os.ReadFile(path)
		if !strings.Contains(string(data), shimMarker) {
			continue // foreign file, never touched
		}
		if err := os.Remove(path); err != nil {
			return written, removed, fmt.Errorf("removing stale shim %s: %w", path, err)
		}
		removed = append(removed, e.Name())
	}

	return sortedCopy(written), sortedCopy(removed), nil
}

// Source discovers tool names a shim should exist for: the default
// tool-manager install directory, a workdir's venv bin/ directory, or a
// release/package install's bin directory (spec.md §4.4 names all three
// as expected shim sources).
type Source interface {
	ToolNames() ([]string, error)
	Describe() string
}

// DirSource lists every executable file's basename found directly inside
// Dir (non-recursive), matching how asdf/venv/package-manager bin
// directories are laid out.
type DirSource struct{ Dir string }

func (d DirSource) Describe() string { return "dir:" + d.Dir }

func (d DirSource) ToolNames() ([]string, error) {
	entries, err := os.ReadDir(d.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.Mode()&0o111 != 0 {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Exec replaces the current process image with toolName's real binary
// (resolved from PATH with the shim directory excluded, so it never
// re-enters itself), forwarding argv and the environment unchanged. On
// success this call never returns; the shim process ceases to exist.
func Exec(toolName string, args []string, shimDir string) error {
	realPath, err := resolveExcluding(toolName, shimDir)
	if err != nil {
		return err
	}
	argv := append([]string{realPath}, args...)
	return syscall.Exec(realPath, argv, os.Environ())
}

// resolveExcluding searches PATH for name, skipping any directory equal
// to excludeDir, so a shim invoking its own tool name doesn't loop back
// into itself.
func resolveExcluding(name, excludeDir string) (string, error) {
	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		if dir == "" || dir == excludeDir {
			continue
		}
		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		if info.Mode()&0o111 != 0 {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no %s found on PATH outside %s", name, excludeDir)
}

func sortedCopy(s []string) []string {
	out := append([]string{}, s...)
	sort.Strings(out)
	return out
}
