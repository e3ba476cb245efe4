package toolstep

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/omnicli/omni/pkg/progress"
)

// HomebrewStep installs a Homebrew formula or cask, per spec.md §1's
// "Homebrew formula" tool kind and §4.1's cask/non-cask migration note.
// Homebrew itself tracks only one installed version at a time per
// formula, so versionExpr's "exact pin" case is honored best-effort:
// resolution reports whatever `brew info` says is current, and a pinned
// request for something else fails rather than silently installing the
// wrong version.
type HomebrewStep struct {
	Name string
	Cask bool
	// Tap is an optional "owner/repo" third-party tap to add before
	// installing, e.g. "homebrew/cask-fonts".
	Tap string
}

func (s HomebrewStep) ToolType() string { return "homebrew" }

func (s HomebrewStep) Tool() string { return s.Name }

func (s HomebrewStep) IsAvailable() bool {
	_, err := exec.LookPath("brew")
	return err == nil
}

type brewInfoFormula struct {
	Name     string `json:"name"`
	Versions struct {
		Stable string `json:"stable"`
	} `json:"versions"`
}

type brewInfoCask struct {
	Token   string `json:"token"`
	Version string `json:"version"`
}

type brewInfoResult struct {
	Formulae []brewInfoFormula `json:"formulae"`
	Casks    []brewInfoCask    `json:"casks"`
}

// Resolve shells to `brew info --json=v2` and returns the single current
// version brew tracks for this formula/cask, accepting versionExpr only
// when it's "latest" or a prefix of that version (brew has no concept of
// installing an arbitrary historical version without a local bottle
// cache, so omni doesn't pretend to support one).
func (s HomebrewStep) Resolve(ctx context.Context, versionExpr string) (string, error) {
	if err := s.ensureTap(ctx); err != nil {
		return "", err
	}

	args := []string{"info", "--json=v2"}
	if s.Cask {
		args = append(args, "--cask")
	}
	args = append(args, s.Name)

	out, err := exec.CommandContext(ctx, "brew", args...).Output()
	if err != nil {
		return "", fmt.Errorf("querying brew info for %s: %w", s.Name, err)
	}

	var info brewInfoResult
	if err := json.Unmarshal(out, &info); err != nil {
		return "", fmt.Errorf("parsing brew info for %s: %w", s.Name, err)
	}

	var current string
	if s.Cask {
		for _, c := range info.Casks {
			if c.Token == s.Name {
				current = c.Version
			}
		}
	} else {
		for _, f := range info.Formulae {
			if f.Name == s.Name {
				current = f.Versions.Stable
			}
		}
	}
	if current == "" {
		return "", fmt.Errorf("brew info returned no version for %s", s.Name)
	}
	if !Matches(versionExpr, current) {
		return "", fmt.Errorf("brew only offers %s %s, which does not satisfy %q", s.Name, current, versionExpr)
	}
	return current, nil
}

func (s HomebrewStep) ensureTap(ctx context.Context) error {
	if s.Tap == "" {
		return nil
	}
	out, _ := exec.CommandContext(ctx, "brew", "tap").Output()
	for _, line := range strings.Split(string(out), "\n") {
		if strings.TrimSpace(line) == s.Tap {
			return nil
		}
	}
	if err := exec.CommandContext(ctx, "brew", "tap", s.Tap).Run(); err != nil {
		return fmt.Errorf("tapping %s: %w", s.Tap, err)
	}
	return nil
}

// Install runs `brew install [--cask] <name>`, streaming output through
// h, and returns brew's own --prefix for the formula/cask as the bin
// directory to shim.
func (s HomebrewStep) Install(ctx context.Context, version, installDir string, h progress.Handler) (string, error) {
	args := []string{"install"}
	if s.Cask {
		args = append(args, "--cask")
	}
	args = append(args, s.Name)

	err := Run(ctx, "", "brew", args, func(line string) {
		h.Update(line)
	})
	if err != nil {
		return "", &InstallError{Tool: s.Name, Version: version, Cause: err}
	}

	prefixArgs := []string{"--prefix"}
	if s.Cask {
		prefixArgs = append(prefixArgs, "--cask")
	}
	prefixArgs = append(prefixArgs, s.Name)
	out, err := exec.CommandContext(ctx, "brew", prefixArgs...).Output()
	if err != nil {
		return "", &InstallError{Tool: s.Name, Version: version, Cause: fmt.Errorf("resolving --prefix: %w", err)}
	}
	return filepath.Join(strings.TrimSpace(string(out)), "bin"), nil
}

// Down runs `brew uninstall [--cask] <name>`, the mirror of Install used
// by the orphan sweep.
func (s HomebrewStep) Down(ctx context.Context, version string, h progress.Handler) error {
	args := []string{"uninstall"}
	if s.Cask {
		args = append(args, "--cask")
	}
	args = append(args, s.Name)
	err := Run(ctx, "", "brew", args, func(line string) {
		h.Update(line)
	})
	if err != nil {
		return &UninstallError{Tool: s.Name, Version: version, Cause: err}
	}
	return nil
}
