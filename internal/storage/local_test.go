package storage

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage(t *testing.T) {
	s := NewLocalStorage(t.TempDir())

	n, err := s.Put("ab/abcdef", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	exists, err := s.Exists("ab/abcdef")
	require.NoError(t, err)
	assert.True(t, exists)

	obj, err := s.Open("ab/abcdef")
	require.NoError(t, err)
	body, err := io.ReadAll(obj)
	require.NoError(t, err)
	require.NoError(t, obj.Close())
	assert.Equal(t, "hello", string(body))

	require.NoError(t, s.Delete("ab/abcdef"))
	require.NoError(t, s.Delete("ab/abcdef"), "повторное удаление не ошибка")

	exists, err = s.Exists("ab/abcdef")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = s.Open("ab/abcdef")
	assert.Error(t, err)
}

func TestLocalStorage_Overwrite(t *testing.T) {
	s := NewLocalStorage(t.TempDir())

	_, err := s.Put("x", strings.NewReader("first"))
	require.NoError(t, err)
	_, err = s.Put("x", strings.NewReader("second"))
	require.NoError(t, err)

	obj, err := s.Open("x")
	require.NoError(t, err)
	defer obj.Close()
	body, err := io.ReadAll(obj)
	require.NoError(t, err)
	assert.Equal(t, "second", string(body))
}
