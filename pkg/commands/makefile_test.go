package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMakefile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "Makefile")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestFromMakefileParsesTargetsAndCategories(t *testing.T) {
	dir := t.TempDir()
	writeMakefile(t, dir, `##@ Build
build: ## compile the project
	go build ./...

##@ Test
test: build ## run tests
	go test ./...

.PHONY: build test
`)

	cmds, err := FromMakefile(dir, dir, false, false)
	require.NoError(t, err)
	require.Len(t, cmds, 2)

	byName := map[string]Command{}
	for _, c := range cmds {
		byName[c.Name] = c
	}
	assert.Equal(t, "compile the project", byName["build"].Help)
	assert.Equal(t, []string{"Build"}, byName["build"].Category)
	assert.Equal(t, []string{"Test"}, byName["test"].Category)
	assert.Equal(t, "build", byName["build"].MakeTarget)
}

func TestFromMakefileSplitsSlashTargets(t *testing.T) {
	dir := t.TempDir()
	writeMakefile(t, dir, "docker/build: ## build image\n\tdocker build .\n")

	cmds, err := FromMakefile(dir, dir, true, false)
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, "docker build", cmds[0].Name)
	assert.Equal(t, "docker/build", cmds[0].MakeTarget)
}

func TestFromMakefileAncestorWalk(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0755))
	writeMakefile(t, root, "release: ## cut a release\n\techo release\n")

	cmds, err := FromMakefile(sub, root, false, false)
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, "release", cmds[0].Name)
}
