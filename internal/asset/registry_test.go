package asset

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/bagdasarian/ctf-team-engine/internal/lock"
	"github.com/bagdasarian/ctf-team-engine/internal/repository"
	"github.com/bagdasarian/ctf-team-engine/internal/repository/memory"
	"github.com/bagdasarian/ctf-team-engine/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupRegistry(t *testing.T) (*Registry, *storage.LocalStorage) {
	t.Helper()
	st := storage.NewLocalStorage(t.TempDir())
	store := memory.NewStore()
	return NewRegistry(st, store.Files(), lock.New(time.Second), "http://localhost:8080/", zap.NewNop().Sugar()), st
}

func TestHash(t *testing.T) {
	hash := Hash([]byte("hello"))

	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", hash)
	assert.True(t, ValidHash(hash))
	assert.False(t, ValidHash("../../etc/passwd"))
	assert.False(t, ValidHash(strings.ToUpper(hash)))
}

func TestRegistry_PutOpen(t *testing.T) {
	r, st := setupRegistry(t)
	ctx := context.Background()

	a, err := r.Put(ctx, []byte("png bytes"), "avatar")
	require.NoError(t, err)

	assert.Equal(t, Hash([]byte("png bytes")), a.Hash)
	assert.Equal(t, int64(9), a.Size)
	assert.Equal(t, "http://localhost:8080/assets/"+a.Hash+"/avatar", a.URL)

	exists, err := st.Exists(blobPath(a.Hash))
	require.NoError(t, err)
	assert.True(t, exists)

	meta, obj, err := r.Open(ctx, a.Hash)
	require.NoError(t, err)
	defer obj.Close()
	body, err := io.ReadAll(obj)
	require.NoError(t, err)
	assert.Equal(t, "png bytes", string(body))
	assert.Equal(t, a.URL, meta.URL)
}

func TestRegistry_SharedContentIsRefCounted(t *testing.T) {
	r, st := setupRegistry(t)
	ctx := context.Background()

	first, err := r.Put(ctx, []byte("same"), "avatar")
	require.NoError(t, err)
	second, err := r.Put(ctx, []byte("same"), "avatar")
	require.NoError(t, err)
	require.Equal(t, first.Hash, second.Hash)

	require.NoError(t, r.DeleteByHash(ctx, first.Hash))
	exists, err := st.Exists(blobPath(first.Hash))
	require.NoError(t, err)
	assert.True(t, exists, "файл жив, пока на него есть ссылки")

	require.NoError(t, r.DeleteByHash(ctx, first.Hash))
	exists, err = st.Exists(blobPath(first.Hash))
	require.NoError(t, err)
	assert.False(t, exists)

	err = r.DeleteByHash(ctx, first.Hash)
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestRegistry_Purge(t *testing.T) {
	r, st := setupRegistry(t)
	ctx := context.Background()

	a, err := r.Put(ctx, []byte("orphan"), "avatar")
	require.NoError(t, err)
	_, err = r.Put(ctx, []byte("orphan"), "avatar")
	require.NoError(t, err)

	purged, err := r.Purge(ctx, a.Hash, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, purged, "свежий файл не трогаем")

	purged, err = r.Purge(ctx, a.Hash, time.Now().Add(time.Second))
	require.NoError(t, err)
	assert.True(t, purged)

	exists, err := st.Exists(blobPath(a.Hash))
	require.NoError(t, err)
	assert.False(t, exists)
	_, _, err = r.Open(ctx, a.Hash)
	assert.Error(t, err)
}

func TestRegistry_InvalidHash(t *testing.T) {
	r, _ := setupRegistry(t)
	ctx := context.Background()

	assert.ErrorIs(t, r.DeleteByHash(ctx, "nope"), ErrInvalidHash)
	_, err := r.Purge(ctx, "nope", time.Now())
	assert.ErrorIs(t, err, ErrInvalidHash)
	_, _, err = r.Open(ctx, "../secret")
	assert.ErrorIs(t, err, ErrInvalidHash)
}
