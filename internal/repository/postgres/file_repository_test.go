package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bagdasarian/ctf-team-engine/internal/domain"
	"github.com/bagdasarian/ctf-team-engine/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupFileRepo(t *testing.T) (*fileRepository, sqlmock.Sqlmock) {
	db, mock := setupMockDB(t)
	return NewFileRepository(db), mock
}

func TestFileRepository_Acquire(t *testing.T) {
	repo, mock := setupFileRepo(t)

	asset := &domain.Asset{Hash: "abc", Name: "avatar", Size: 10}
	mock.ExpectQuery("INSERT INTO files").
		WithArgs("abc", "avatar", int64(10), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"reference_count"}).AddRow(2))

	refs, err := repo.Acquire(context.Background(), asset)

	require.NoError(t, err)
	assert.Equal(t, 2, refs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFileRepository_Release(t *testing.T) {
	t.Run("остались ссылки - запись сохраняется", func(t *testing.T) {
		repo, mock := setupFileRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE files").
			WithArgs("abc").
			WillReturnRows(sqlmock.NewRows([]string{"reference_count"}).AddRow(1))
		mock.ExpectCommit()

		refs, err := repo.Release(context.Background(), "abc")

		require.NoError(t, err)
		assert.Equal(t, 1, refs)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("последняя ссылка - запись удаляется", func(t *testing.T) {
		repo, mock := setupFileRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE files").
			WithArgs("abc").
			WillReturnRows(sqlmock.NewRows([]string{"reference_count"}).AddRow(0))
		mock.ExpectExec("DELETE FROM files").
			WithArgs("abc").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		refs, err := repo.Release(context.Background(), "abc")

		require.NoError(t, err)
		assert.Equal(t, 0, refs)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ошибка: файл не найден", func(t *testing.T) {
		repo, mock := setupFileRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE files").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err := repo.Release(context.Background(), "missing")

		assert.True(t, errors.Is(err, repository.ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFileRepository_GetByHash(t *testing.T) {
	repo, mock := setupFileRepo(t)

	mock.ExpectQuery("SELECT hash, name, size").
		WithArgs("abc").
		WillReturnRows(sqlmock.NewRows([]string{"hash", "name", "size"}).AddRow("abc", "avatar", 10))

	asset, err := repo.GetByHash(context.Background(), "abc")

	require.NoError(t, err)
	assert.Equal(t, &domain.Asset{Hash: "abc", Name: "avatar", Size: 10}, asset)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFileRepository_ListOrphans(t *testing.T) {
	repo, mock := setupFileRepo(t)

	before := time.Now()
	mock.ExpectQuery("SELECT f.hash").
		WithArgs(before).
		WillReturnRows(sqlmock.NewRows([]string{"hash"}).AddRow("a").AddRow("b"))

	hashes, err := repo.ListOrphans(context.Background(), before)

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, hashes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFileRepository_Purge(t *testing.T) {
	t.Run("сирота удалена", func(t *testing.T) {
		repo, mock := setupFileRepo(t)
		before := time.Now()

		mock.ExpectExec("DELETE FROM files f").
			WithArgs("abc", before).
			WillReturnResult(sqlmock.NewResult(0, 1))

		purged, err := repo.Purge(context.Background(), "abc", before)
		require.NoError(t, err)
		assert.True(t, purged)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("файл снова используется", func(t *testing.T) {
		repo, mock := setupFileRepo(t)
		before := time.Now()

		mock.ExpectExec("DELETE FROM files f").
			WithArgs("abc", before).
			WillReturnResult(sqlmock.NewResult(0, 0))

		purged, err := repo.Purge(context.Background(), "abc", before)
		require.NoError(t, err)
		assert.False(t, purged)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
