package envloader

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/omnicli/omni/pkg/constants"
)

// Shell identifies which shell dialect RenderShellScript should emit for.
type Shell int

const (
	Bash Shell = iota
	Zsh
	Fish
)

// RenderShellScript formats a Diff as shell commands suitable for `eval`
// by the caller's shell hook (spec.md §6, `omni hook env`). It always
// updates the two shadow variables (owned vars, then owned path) after
// every export and unset, so a script interrupted
// partway through never claims ownership of a variable it didn't
// actually set.
func RenderShellScript(diff Diff, shell Shell) string {
	var b strings.Builder
	for _, name := range sortedKeys(diff.ToSet) {
		writeExport(&b, shell, name, diff.ToSet[name])
	}
	for _, name := range diff.ToUnset {
		writeUnset(&b, shell, name)
	}
	if len(diff.OwnedVars) > 0 {
		writeExport(&b, shell, constants.ShellOwnedVarsEnv, EncodeShellOwnedVars(diff.OwnedVars))
	} else {
		writeUnset(&b, shell, constants.ShellOwnedVarsEnv)
	}
	if len(diff.OwnedPath) > 0 {
		writeExport(&b, shell, constants.ShellOwnedPathEnv, EncodeShellOwnedPath(diff.OwnedPath))
	} else {
		writeUnset(&b, shell, constants.ShellOwnedPathEnv)
	}
	return b.String()
}

func writeExport(b *strings.Builder, shell Shell, name, value string) {
	quoted := strconv.Quote(value)
	switch shell {
	case Fish:
		fmt.Fprintf(b, "set -gx %s %s;\n", name, quoted)
	default:
		fmt.Fprintf(b, "export %s=%s;\n", name, quoted)
	}
}

func writeUnset(b *strings.Builder, shell Shell, name string) {
	switch shell {
	case Fish:
		fmt.Fprintf(b, "set -e %s;\n", name)
	default:
		fmt.Fprintf(b, "unset %s;\n", name)
	}
}

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
