package shim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureShimWritesScript(t *testing.T) {
	dir := t.TempDir()
	m := New(dir, "/usr/local/bin/omni")

	wrote, err := m.EnsureShim("node")
	require.NoError(t, err)
	require.True(t, wrote)

	data, err := os.ReadFile(filepath.Join(dir, "node"))
	require.NoError(t, err)
	require.Contains(t, string(data), "omni-shim")
	require.Contains(t, string(data), "shim exec \"node\"")
}

func TestEnsureShimLeavesForeignFileAlone(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "node")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\necho hi\n"), 0o755))

	m := New(dir, "/usr/local/bin/omni")
	wrote, err := m.EnsureShim("node")
	require.NoError(t, err)
	require.False(t, wrote)

	data, _ := os.ReadFile(path)
	require.Equal(t, "#!/bin/sh\necho hi\n", string(data))
}

func TestReshimRemovesStaleShims(t *testing.T) {
	dir := t.TempDir()
	m := New(dir, "/usr/local/bin/omni")

	_, err := m.EnsureShim("node")
	require.NoError(t, err)
	_, err = m.EnsureShim("python")
	require.NoError(t, err)

	binDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "node"), []byte("x"), 0o755))

	written, removed, err := m.Reshim(DirSource{Dir: binDir})
	require.NoError(t, err)
	require.Contains(t, written, "node")
	require.Contains(t, removed, "python")

	_, statErr := os.Stat(filepath.Join(dir, "python"))
	require.True(t, os.IsNotExist(statErr))
}

func TestDirSourceListsExecutablesOnly(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bin1"), []byte("x"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0o644))

	names, err := DirSource{Dir: dir}.ToolNames()
	require.NoError(t, err)
	require.Equal(t, []string{"bin1"}, names)
}
