package tempfiles

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTempDirs(t *testing.T) {
	root := filepath.Join(t.TempDir(), "scratch")
	require.NoError(t, os.MkdirAll(root, 0777))
	require.NoError(t, os.WriteFile(filepath.Join(root, "stale"), []byte("x"), 0666))

	td, err := NewTempDirs(root, time.Hour)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "stale"))
	require.True(t, os.IsNotExist(err))

	a, err := td.Get()
	require.NoError(t, err)
	b, err := td.Get()
	require.NoError(t, err)
	require.NotEqual(t, a, b)
	st, err := os.Stat(a)
	require.NoError(t, err)
	require.True(t, st.IsDir())

	td.Release(a)
	_, err = os.Stat(a)
	require.True(t, os.IsNotExist(err))

	require.NoError(t, td.RemoveAll())
	_, err = os.Stat(root)
	require.True(t, os.IsNotExist(err))
}

func TestTempDirsExpire(t *testing.T) {
	root := filepath.Join(t.TempDir(), "scratch")
	td, err := NewTempDirs(root, time.Nanosecond)
	require.NoError(t, err)
	a, err := td.Get()
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	_, err = td.Get()
	require.NoError(t, err)
	_, err = os.Stat(a)
	require.True(t, os.IsNotExist(err))
}
