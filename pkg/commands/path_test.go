package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeExecutable(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0755))
}

func TestFromPathStripsDotDAndExtension(t *testing.T) {
	root := t.TempDir()
	writeExecutable(t, filepath.Join(root, "build.d", "release.sh"), "#!/bin/sh\n# help: builds a release\necho build")

	cmds, err := FromPath([]string{root})
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, "build release", cmds[0].Name)
	assert.Equal(t, "builds a release", cmds[0].Help)
}

func TestFromPathParsesHeaderMetadata(t *testing.T) {
	root := t.TempDir()
	script := `#!/bin/sh
# category: dev, infra
# autocompletion: true
# help: does a thing
# arg:target: what to build
# opt:verbose: be noisy
echo ok
`
	writeExecutable(t, filepath.Join(root, "thing"), script)

	cmds, err := FromPath([]string{root})
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	c := cmds[0]
	assert.Equal(t, []string{"dev", "infra"}, c.Category)
	assert.True(t, c.Autocomplete)
	assert.Equal(t, "does a thing", c.Help)
	require.Len(t, c.Args, 2)
	assert.Equal(t, "target", c.Args[0].Name)
	assert.True(t, c.Args[0].Required)
	assert.Equal(t, "verbose", c.Args[1].Name)
	assert.True(t, c.Args[1].Option)
}

func TestFromPathCollapsesSameRealPath(t *testing.T) {
	root := t.TempDir()
	realPath := filepath.Join(root, "real")
	writeExecutable(t, realPath, "#!/bin/sh\necho real")
	require.NoError(t, os.Symlink(realPath, filepath.Join(root, "alias")))

	cmds, err := FromPath([]string{root})
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Contains(t, append([]string{cmds[0].Name}, cmds[0].Aliases...), "alias")
	assert.Contains(t, append([]string{cmds[0].Name}, cmds[0].Aliases...), "real")
}

func TestFromPathSkipsNonExecutableFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("hi"), 0644))

	cmds, err := FromPath([]string{root})
	require.NoError(t, err)
	assert.Empty(t, cmds)
}
