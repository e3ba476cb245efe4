// Package envloader computes and applies the difference between a
// workdir's resolved EnvVersion and the variables currently exported into
// the shell (spec.md §4.3, component C3). omni never assumes it owns the
// whole environment: only variables it previously exported are eligible
// to be changed or unset on the next diff, tracked via a reserved shadow
// variable rather than a side file, so a crashed shell doesn't leave
// stale bookkeeping behind.
package envloader

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/omnicli/omni/pkg/cache"
	"github.com/omnicli/omni/pkg/constants"
	"github.com/omnicli/omni/pkg/logger"
)

var log = logger.New("envloader:diff")

const pathSep = string(filepath.ListSeparator)

// Diff is the set of shell-visible changes needed to move from the
// currently exported environment to a target EnvVersion (or to tear one
// down entirely).
type Diff struct {
	ToSet     map[string]string
	ToUnset   []string
	OwnedVars []string // full owned-vars set after applying this diff, excluding PATH
	OwnedPath []string // full set of PATH segments omni owns after applying this diff
}

// ParseShellOwnedVars decodes the colon-separated variable-name list
// omni stores in constants.ShellOwnedVarsEnv.
func ParseShellOwnedVars(env map[string]string) []string {
	raw := env[constants.ShellOwnedVarsEnv]
	if raw == "" {
		return nil
	}
	return strings.Split(raw, pathSep)
}

// EncodeShellOwnedVars is the inverse of ParseShellOwnedVars.
func EncodeShellOwnedVars(names []string) string {
	return strings.Join(dedupSorted(names), pathSep)
}

// ComputeApply diffs target against the currently exported environment,
// returning only the variables that actually changed plus the full
// updated owned-vars set. Variables target doesn't mention but the
// current shell already owns (from a previous, different EnvVersion) are
// scheduled for unset, so switching workdirs cleans up after itself.
// PATH is never unset wholesale: only the individual segments omni itself
// previously prepended are added, removed, or replaced, per spec.md
// §4.3's entry-level semantics — the rest of the user's PATH survives
// every `up`/`down` cycle untouched.
func ComputeApply(target cache.EnvVersion, currentEnv map[string]string) Diff {
	owned := ParseShellOwnedVars(currentEnv)
	ownedSet := toSet(owned)
	ownedPath := ParseShellOwnedPath(currentEnv)

	desired := map[string]string{}
	for k, v := range target.EnvVars {
		desired[k] = v
	}

	diff := Diff{ToSet: map[string]string{}}
	for k, v := range desired {
		if currentEnv[k] != v {
			diff.ToSet[k] = v
		}
		ownedSet[k] = struct{}{}
	}
	for _, k := range owned {
		if _, stillWanted := desired[k]; !stillWanted {
			diff.ToUnset = append(diff.ToUnset, k)
			delete(ownedSet, k)
		}
	}

	newPath := joinPath(target.Paths, currentEnv["PATH"], ownedPath)
	if newPath != currentEnv["PATH"] {
		diff.ToSet["PATH"] = newPath
	}
	diff.OwnedPath = dedupSorted(target.Paths)

	diff.OwnedVars = fromSet(ownedSet)
	sort.Strings(diff.ToUnset)
	log.Printf("apply diff: %d set, %d unset, %d PATH segments owned",
		len(diff.ToSet), len(diff.ToUnset), len(diff.OwnedPath))
	return diff
}

// ComputeTeardown unsets every variable the shell currently owns, rebuilds
// PATH with only omni's own contributed segments removed, and clears both
// shadow variables, used by `down` and by `hook env` outside a workdir.
func ComputeTeardown(currentEnv map[string]string) Diff {
	owned := ParseShellOwnedVars(currentEnv)
	ownedPath := ParseShellOwnedPath(currentEnv)

	diff := Diff{ToSet: map[string]string{}}
	diff.ToUnset = append(append([]string{}, owned...), constants.ShellOwnedVarsEnv, constants.ShellOwnedPathEnv)

	if newPath := joinPath(nil, currentEnv["PATH"], ownedPath); newPath != currentEnv["PATH"] {
		diff.ToSet["PATH"] = newPath
	}

	sort.Strings(diff.ToUnset)
	log.Printf("teardown diff: %d unset, %d PATH segments dropped", len(diff.ToUnset), len(ownedPath))
	return diff
}

// ParseShellOwnedPath decodes the colon-separated list of PATH segments
// omni itself previously prepended, stored in constants.ShellOwnedPathEnv.
func ParseShellOwnedPath(env map[string]string) []string {
	raw := env[constants.ShellOwnedPathEnv]
	if raw == "" {
		return nil
	}
	return strings.Split(raw, pathSep)
}

// EncodeShellOwnedPath is the inverse of ParseShellOwnedPath.
func EncodeShellOwnedPath(segments []string) string {
	return strings.Join(dedupSorted(segments), pathSep)
}

// joinPath rebuilds PATH from scratch: contributed (the target
// EnvVersion's paths, deduplicated) goes first, followed by whatever of
// existingPath's segments aren't either a duplicate of a contributed
// entry or a stale entry omni itself owns from a prior diff (prevOwned)
// that the new target no longer contributes — those are dropped instead
// of accumulating across repeated `up` runs. Segments the user added
// themselves, outside of any owned set, are always preserved.
func joinPath(contributed []string, existingPath string, prevOwned []string) string {
	seen := map[string]struct{}{}
	prevOwnedSet := toSet(prevOwned)
	var out []string
	for _, p := range contributed {
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	for _, p := range strings.Split(existingPath, pathSep) {
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		if _, stale := prevOwnedSet[p]; stale {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return strings.Join(out, pathSep)
}

func toSet(names []string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}

func fromSet(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func dedupSorted(names []string) []string {
	return fromSet(toSet(names))
}
