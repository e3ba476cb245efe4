package envloader

import (
	"testing"

	"github.com/omnicli/omni/pkg/cache"
	"github.com/stretchr/testify/require"
)

func TestComputeApplySetsNewVars(t *testing.T) {
	target := cache.EnvVersion{
		EnvVars: map[string]string{"NODE_ENV": "development"},
		Paths:   []string{"/data/asdf/installs/nodejs/20.11.0/bin"},
	}
	current := map[string]string{"PATH": "/usr/bin"}

	diff := ComputeApply(target, current)
	require.Equal(t, "development", diff.ToSet["NODE_ENV"])
	require.Contains(t, diff.ToSet["PATH"], "/data/asdf/installs/nodejs/20.11.0/bin")
	require.Contains(t, diff.ToSet["PATH"], "/usr/bin")
	require.Contains(t, diff.OwnedVars, "NODE_ENV")
	require.NotContains(t, diff.OwnedVars, "PATH")
	require.Contains(t, diff.OwnedPath, "/data/asdf/installs/nodejs/20.11.0/bin")
}

func TestComputeApplyDropsStaleOwnedPathSegments(t *testing.T) {
	target := cache.EnvVersion{Paths: []string{"/data/asdf/installs/nodejs/20.11.0/bin"}}
	current := map[string]string{
		"PATH":                  "/data/asdf/installs/nodejs/18.0.0/bin:/usr/bin",
		"OMNI_SHELL_OWNED_PATH": "/data/asdf/installs/nodejs/18.0.0/bin",
	}

	diff := ComputeApply(target, current)
	require.Contains(t, diff.ToSet["PATH"], "/data/asdf/installs/nodejs/20.11.0/bin")
	require.NotContains(t, diff.ToSet["PATH"], "18.0.0")
	require.Contains(t, diff.ToSet["PATH"], "/usr/bin")
	require.NotContains(t, diff.OwnedPath, "/data/asdf/installs/nodejs/18.0.0/bin")
}

func TestComputeApplyUnsetsStaleOwnedVars(t *testing.T) {
	target := cache.EnvVersion{EnvVars: map[string]string{"NODE_ENV": "development"}}
	current := map[string]string{
		"OMNI_SHELL_OWNED_VARS": "NODE_ENV:PYTHON_VERSION",
		"NODE_ENV":              "development",
		"PYTHON_VERSION":        "3.12.0",
	}

	diff := ComputeApply(target, current)
	require.Contains(t, diff.ToUnset, "PYTHON_VERSION")
	require.NotContains(t, diff.ToUnset, "NODE_ENV")
}

func TestComputeTeardownUnsetsEverythingOwned(t *testing.T) {
	current := map[string]string{"OMNI_SHELL_OWNED_VARS": "NODE_ENV:PATH_EXTRA"}
	diff := ComputeTeardown(current)
	require.Contains(t, diff.ToUnset, "NODE_ENV")
	require.Contains(t, diff.ToUnset, "PATH_EXTRA")
	require.Contains(t, diff.ToUnset, "OMNI_SHELL_OWNED_VARS")
	require.Contains(t, diff.ToUnset, "OMNI_SHELL_OWNED_PATH")
}

func TestComputeTeardownOnlyStripsOwnedPathSegments(t *testing.T) {
	current := map[string]string{
		"PATH":                  "/data/asdf/installs/nodejs/20.11.0/bin:/usr/bin",
		"OMNI_SHELL_OWNED_PATH": "/data/asdf/installs/nodejs/20.11.0/bin",
	}
	diff := ComputeTeardown(current)
	require.Equal(t, "/usr/bin", diff.ToSet["PATH"])
}

func TestRenderShellScriptBash(t *testing.T) {
	diff := Diff{
		ToSet:     map[string]string{"NODE_ENV": "development"},
		ToUnset:   []string{"OLD_VAR"},
		OwnedVars: []string{"NODE_ENV"},
	}
	script := RenderShellScript(diff, Bash)
	require.Contains(t, script, `export NODE_ENV="development";`)
	require.Contains(t, script, "unset OLD_VAR;")
	require.Contains(t, script, "OMNI_SHELL_OWNED_VARS")
}

func TestRenderShellScriptFish(t *testing.T) {
	diff := Diff{ToSet: map[string]string{"NODE_ENV": "development"}, OwnedVars: []string{"NODE_ENV"}}
	script := RenderShellScript(diff, Fish)
	require.Contains(t, script, "set -gx NODE_ENV")
}
