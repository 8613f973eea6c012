package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMaxMindDB_Errors(t *testing.T) {
	_, err := OpenMaxMindDB("")
	assert.Error(t, err)

	_, err = OpenMaxMindDB(filepath.Join(t.TempDir(), "missing.mmdb"))
	assert.Error(t, err)

	_, err = OpenMaxMindDB(filepath.Join(t.TempDir(), "missing.mmdb.zst"))
	assert.Error(t, err)
}

func TestOpenMaxMindDB_DecompressesZstd(t *testing.T) {
	t.Setenv("TESTING", "1")

	src := filepath.Join(t.TempDir(), "aether-test-garbage.mmdb.zst")
	f, err := os.Create(src)
	require.NoError(t, err)
	w, err := zstd.NewWriter(f)
	require.NoError(t, err)
	_, err = w.Write([]byte("definitely not a maxmind database"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	dst := filepath.Join(ResolveDataPath(), "aether-test-garbage.mmdb")
	t.Cleanup(func() { os.Remove(dst) })

	// 解压成功, 但内容不是合法的 mmdb
	_, err = OpenMaxMindDB(src)
	require.Error(t, err)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "definitely not a maxmind database", string(got))
}
