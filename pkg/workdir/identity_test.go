package workdir

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRemoteURLVariants(t *testing.T) {
	cases := []struct {
		name       string
		remote     string
		host, path string
	}{
		{"https github", "https://github.com/acme/widget.git", "github.com", "acme/widget"},
		{"ssh scp-like", "git@github.com:acme/widget.git", "github.com", "acme/widget"},
		{"https gitlab subgroup", "https://gitlab.example.com/group/sub/widget.git", "gitlab.example.com", "group/sub/widget"},
		{"scp-like custom host", "git@git.internal.example:team/widget.git", "git.internal.example", "team/widget"},
		{"ssh scheme", "ssh://git@example.com/owner/repo.git", "example.com", "owner/repo"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			host, path, err := ParseRemoteURL(tc.remote)
			require.NoError(t, err)
			require.Equal(t, tc.host, host)
			require.Equal(t, tc.path, path)
		})
	}
}

func TestParseRemoteURLRejectsEmpty(t *testing.T) {
	_, _, err := ParseRemoteURL("")
	require.Error(t, err)
}

func TestIdFallsBackToSentinelForNonGitDir(t *testing.T) {
	dir := t.TempDir()
	id1, err := Id(dir)
	require.NoError(t, err)
	require.NotEmpty(t, id1)

	id2, err := Id(dir)
	require.NoError(t, err)
	require.Equal(t, id1, id2, "sentinel id must be stable across calls")

	_, err = os.Stat(filepath.Join(dir, ".omni-id"))
	require.NoError(t, err)
}

func TestIdUsesOriginRemoteWhenPresent(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		require.NoError(t, cmd.Run())
	}
	run("init", "-q")
	run("remote", "add", "origin", "https://github.com/acme/widget.git")

	id, err := Id(dir)
	require.NoError(t, err)
	require.Equal(t, "github.com:acme/widget", id)
}
