package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/pkg/config"
)

func openBackends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()
	bolt, err := OpenBoltStore(filepath.Join(dir, "bolt", "ir.db"))
	require.NoError(t, err)
	t.Cleanup(func() { bolt.Close() })
	file := NewFileStore(filepath.Join(dir, "file", "ir.idx"))
	t.Cleanup(func() { file.Close() })
	return map[string]Store{"file": file, "bolt": bolt}
}

func TestStoreSaveLoad(t *testing.T) {
	for name, st := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, st.Save(ctx, []byte("first")))
			got, err := st.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, []byte("first"), got)

			require.NoError(t, st.Save(ctx, []byte("second")))
			got, err = st.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, []byte("second"), got)
		})
	}
}

func TestStoreLoadMissing(t *testing.T) {
	for name, st := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := st.Load(context.Background())
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStoreHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	st, err := OpenBoltStore(filepath.Join(t.TempDir(), "ir.db"))
	require.NoError(t, err)
	defer st.Close()

	assert.ErrorIs(t, st.Save(ctx, []byte("x")), context.Canceled)
	_, err = st.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileStoreLeavesNoTempFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ir.idx")
	st := NewFileStore(path)
	defer st.Close()

	require.NoError(t, st.Save(context.Background(), []byte("blob")))
	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, path, st.Location())
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	st, err := Open(config.IndexConfig{Path: filepath.Join(dir, "ir.idx")})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, st)
	st.Close()

	st, err = Open(config.IndexConfig{Path: filepath.Join(dir, "ir.db"), Backend: "bolt"})
	require.NoError(t, err)
	assert.IsType(t, &BoltStore{}, st)
	st.Close()

	_, err = Open(config.IndexConfig{Path: dir, Backend: "s3"})
	assert.Error(t, err)
}
