package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bagdasarian/ctf-team-engine/internal/domain"
	"github.com/bagdasarian/ctf-team-engine/internal/repository"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupUserRepo создает мок БД и репозиторий для User
func setupUserRepo(t *testing.T) (*userRepository, sqlmock.Sqlmock) {
	db, mock := setupMockDB(t)
	return NewUserRepository(db), mock
}

func TestUserRepository_GetByID(t *testing.T) {
	t.Run("пользователь с командой", func(t *testing.T) {
		repo, mock := setupUserRepo(t)

		rows := sqlmock.NewRows([]string{"id", "name", "owned_team_id", "active_team_id", "avatar_hash"}).
			AddRow("u1", "alice", 3, 3, nil)
		mock.ExpectQuery("SELECT id, name, owned_team_id").
			WithArgs("u1").
			WillReturnRows(rows)

		user, err := repo.GetByID(context.Background(), "u1")

		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		require.NotNil(t, user.OwnedTeamID)
		assert.Equal(t, 3, *user.OwnedTeamID)
		require.NotNil(t, user.ActiveTeamID)
		assert.Equal(t, 3, *user.ActiveTeamID)
		assert.Nil(t, user.AvatarHash)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("пользователь без команды", func(t *testing.T) {
		repo, mock := setupUserRepo(t)

		rows := sqlmock.NewRows([]string{"id", "name", "owned_team_id", "active_team_id", "avatar_hash"}).
			AddRow("u2", "bob", nil, nil, "ffff")
		mock.ExpectQuery("SELECT id, name, owned_team_id").
			WithArgs("u2").
			WillReturnRows(rows)

		user, err := repo.GetByID(context.Background(), "u2")

		require.NoError(t, err)
		assert.Nil(t, user.OwnedTeamID)
		assert.Nil(t, user.ActiveTeamID)
		require.NotNil(t, user.AvatarHash)
		assert.Equal(t, "ffff", *user.AvatarHash)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ошибка: пользователь не найден", func(t *testing.T) {
		repo, mock := setupUserRepo(t)

		mock.ExpectQuery("SELECT id, name, owned_team_id").
			WithArgs("u404").
			WillReturnError(sql.ErrNoRows)

		user, err := repo.GetByID(context.Background(), "u404")

		assert.Nil(t, user)
		assert.True(t, errors.Is(err, repository.ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_Update(t *testing.T) {
	t.Run("сохранение указателей на команды", func(t *testing.T) {
		repo, mock := setupUserRepo(t)

		teamID := 7
		user := &domain.User{ID: "u1", OwnedTeamID: &teamID, ActiveTeamID: &teamID}

		mock.ExpectExec("UPDATE users").
			WithArgs("u1", int64(7), int64(7), nil).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Update(context.Background(), user))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("сброс указателей", func(t *testing.T) {
		repo, mock := setupUserRepo(t)

		mock.ExpectExec("UPDATE users").
			WithArgs("u1", nil, nil, nil).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Update(context.Background(), &domain.User{ID: "u1"}))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ошибка: нарушение уникальности владельца", func(t *testing.T) {
		repo, mock := setupUserRepo(t)

		teamID := 7
		mock.ExpectExec("UPDATE users").
			WillReturnError(&pgconn.PgError{Code: "23505"})

		err := repo.Update(context.Background(), &domain.User{ID: "u1", OwnedTeamID: &teamID})

		assert.True(t, errors.Is(err, repository.ErrOwnerConflict))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ошибка: пользователь не найден", func(t *testing.T) {
		repo, mock := setupUserRepo(t)

		mock.ExpectExec("UPDATE users").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Update(context.Background(), &domain.User{ID: "u404"})

		assert.True(t, errors.Is(err, repository.ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_ClearActiveTeam(t *testing.T) {
	t.Run("условный сброс одного пользователя", func(t *testing.T) {
		repo, mock := setupUserRepo(t)

		mock.ExpectExec("UPDATE users\\s+SET active_team_id = NULL\\s+WHERE id = \\$1 AND active_team_id = \\$2").
			WithArgs("u2", 1).
			WillReturnResult(sqlmock.NewResult(0, 0))

		require.NoError(t, repo.ClearActiveTeam(context.Background(), "u2", 1))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("сброс у всех пользователей команды", func(t *testing.T) {
		repo, mock := setupUserRepo(t)

		mock.ExpectExec("UPDATE users\\s+SET active_team_id = NULL\\s+WHERE active_team_id = \\$1").
			WithArgs(1).
			WillReturnResult(sqlmock.NewResult(0, 3))

		affected, err := repo.ClearActiveTeamForAll(context.Background(), 1)

		require.NoError(t, err)
		assert.Equal(t, int64(3), affected)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
