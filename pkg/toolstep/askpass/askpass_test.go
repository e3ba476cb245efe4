package askpass

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartAndClose(t *testing.T) {
	l, err := Start()
	require.NoError(t, err)
	defer l.Close()

	assert.FileExists(t, l.SockPath())

	script := l.ShimScript("/usr/local/bin/omni")
	assert.Contains(t, script, "askpass client")
	assert.Contains(t, script, l.SockPath())
}

func TestWriteShimProducesExecutable(t *testing.T) {
	l, err := Start()
	require.NoError(t, err)
	defer l.Close()

	dir := t.TempDir()
	path, err := l.WriteShim(dir, "ssh-askpass", "/usr/local/bin/omni")
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0o100)
}

func TestCloseRemovesDir(t *testing.T) {
	l, err := Start()
	require.NoError(t, err)
	sockPath := l.SockPath()
	require.NoError(t, l.Close())
	_, err = os.Stat(sockPath)
	assert.True(t, os.IsNotExist(err))
}
