package dispatcher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/omnicli/omni/pkg/envloader"
)

func TestApplyDiffSetsAndUnsets(t *testing.T) {
	current := map[string]string{"FOO": "old", "STALE": "gone"}
	diff := envloader.Diff{
		ToSet:     map[string]string{"FOO": "new", "BAR": "added"},
		ToUnset:   []string{"STALE"},
		OwnedVars: []string{"FOO", "BAR"},
	}

	out := applyDiff(current, diff)
	assert.Equal(t, "new", out["FOO"])
	assert.Equal(t, "added", out["BAR"])
	_, stale := out["STALE"]
	assert.False(t, stale)
	assert.Equal(t, "BAR:FOO", out["OMNI_SHELL_OWNED_VARS"])
}

func TestEnvSliceRoundTrips(t *testing.T) {
	env := map[string]string{"A": "1", "B": "2"}
	slice := envSlice(env)
	assert.Len(t, slice, 2)
	assert.Contains(t, slice, "A=1")
	assert.Contains(t, slice, "B=2")
}

func TestExitErrorMessage(t *testing.T) {
	err := &ExitError{Code: 7}
	assert.Equal(t, "command exited with status 7", err.Error())
}
