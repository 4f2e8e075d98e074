package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bagdasarian/ctf-team-engine/internal/domain"
	"github.com/bagdasarian/ctf-team-engine/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeededStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	s.AddUser(&domain.User{ID: "u1", Username: "alice"})
	s.AddUser(&domain.User{ID: "u2", Username: "bob"})
	return s
}

func TestStore_WithinTx(t *testing.T) {
	t.Run("успешная транзакция видна после фиксации", func(t *testing.T) {
		s := newSeededStore(t)
		ctx := context.Background()

		var teamID int
		err := s.WithinTx(ctx, func(ctx context.Context, teams repository.TeamRepository, users repository.UserRepository) error {
			team := &domain.Team{Name: "Foo", OwnerID: "u1", Members: []domain.TeamMember{{UserID: "u1"}}}
			if err := teams.Create(ctx, team); err != nil {
				return err
			}
			teamID = team.ID
			user, err := users.GetByID(ctx, "u1")
			if err != nil {
				return err
			}
			user.OwnedTeamID = &team.ID
			return users.Update(ctx, user)
		})
		require.NoError(t, err)

		team, err := s.Teams().GetByID(ctx, teamID)
		require.NoError(t, err)
		assert.Equal(t, "Foo", team.Name)

		user, err := s.Users().GetByID(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, user.OwnsTeam(teamID))
		assert.Equal(t, "alice", user.Username)
	})

	t.Run("ошибка откатывает все изменения", func(t *testing.T) {
		s := newSeededStore(t)
		ctx := context.Background()

		boom := errors.New("boom")
		err := s.WithinTx(ctx, func(ctx context.Context, teams repository.TeamRepository, users repository.UserRepository) error {
			if err := teams.Create(ctx, &domain.Team{Name: "Foo", OwnerID: "u1"}); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		_, err = s.Teams().GetByID(ctx, 1)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("отмена контекста до фиксации", func(t *testing.T) {
		s := newSeededStore(t)
		ctx, cancel := context.WithCancel(context.Background())

		err := s.WithinTx(ctx, func(ctx context.Context, teams repository.TeamRepository, _ repository.UserRepository) error {
			if err := teams.Create(ctx, &domain.Team{Name: "Foo", OwnerID: "u1"}); err != nil {
				return err
			}
			cancel()
			return nil
		})
		require.ErrorIs(t, err, context.Canceled)

		_, err = s.Teams().GetByID(context.Background(), 1)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestStore_Isolation(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	team := &domain.Team{Name: "Foo", OwnerID: "u1", Members: []domain.TeamMember{{UserID: "u1"}}}
	require.NoError(t, s.Teams().Create(ctx, team))

	loaded, err := s.Teams().GetByID(ctx, team.ID)
	require.NoError(t, err)
	loaded.Members = append(loaded.Members, domain.TeamMember{UserID: "u2"})
	loaded.Name = "changed"

	again, err := s.Teams().GetByID(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, "Foo", again.Name)
	assert.Len(t, again.Members, 1)
}

func TestStore_Constraints(t *testing.T) {
	t.Run("один владелец - одна команда", func(t *testing.T) {
		s := newSeededStore(t)
		ctx := context.Background()

		require.NoError(t, s.Teams().Create(ctx, &domain.Team{Name: "A", OwnerID: "u1"}))
		err := s.Teams().Create(ctx, &domain.Team{Name: "B", OwnerID: "u1"})

		assert.ErrorIs(t, err, repository.ErrOwnerConflict)
	})

	t.Run("идентификаторы команд не переиспользуются", func(t *testing.T) {
		s := newSeededStore(t)
		ctx := context.Background()

		first := &domain.Team{Name: "A", OwnerID: "u1"}
		require.NoError(t, s.Teams().Create(ctx, first))
		require.NoError(t, s.Teams().Delete(ctx, first.ID))

		second := &domain.Team{Name: "B", OwnerID: "u1"}
		require.NoError(t, s.Teams().Create(ctx, second))

		assert.NotEqual(t, first.ID, second.ID)
	})

	t.Run("обновление несуществующих записей", func(t *testing.T) {
		s := newSeededStore(t)
		ctx := context.Background()

		assert.ErrorIs(t, s.Teams().Update(ctx, &domain.Team{ID: 99}), repository.ErrNotFound)
		assert.ErrorIs(t, s.Users().Update(ctx, &domain.User{ID: "nobody"}), repository.ErrNotFound)
		assert.ErrorIs(t, s.Teams().Delete(ctx, 99), repository.ErrNotFound)
	})
}

func TestStore_ClearActiveTeam(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	one, two := 1, 2
	s.AddUser(&domain.User{ID: "u3", ActiveTeamID: &one})
	s.AddUser(&domain.User{ID: "u4", ActiveTeamID: &one})
	s.AddUser(&domain.User{ID: "u5", ActiveTeamID: &two})

	require.NoError(t, s.Users().ClearActiveTeam(ctx, "u5", 1))
	u5, err := s.Users().GetByID(ctx, "u5")
	require.NoError(t, err)
	assert.True(t, u5.IsActiveIn(2), "чужая активная команда не сбрасывается")

	affected, err := s.Users().ClearActiveTeamForAll(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	u3, err := s.Users().GetByID(ctx, "u3")
	require.NoError(t, err)
	assert.Nil(t, u3.ActiveTeamID)
}

func TestFileRepository(t *testing.T) {
	s := newSeededStore(t)
	files := s.Files()
	ctx := context.Background()

	asset := &domain.Asset{Hash: "h1", Name: "avatar", Size: 3}
	refs, err := files.Acquire(ctx, asset)
	require.NoError(t, err)
	assert.Equal(t, 1, refs)

	refs, err = files.Acquire(ctx, asset)
	require.NoError(t, err)
	assert.Equal(t, 2, refs)

	refs, err = files.Release(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, 1, refs)

	orphans, err := files.ListOrphans(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, []string{"h1"}, orphans)

	orphans, err = files.ListOrphans(ctx, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.Empty(t, orphans, "свежие файлы не считаются сиротами")

	refs, err = files.Release(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, 0, refs)

	_, err = files.GetByHash(ctx, "h1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = files.Release(ctx, "h1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestFileRepository_ReferencedByTeam(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	hash := "h2"
	require.NoError(t, s.Teams().Create(ctx, &domain.Team{Name: "A", OwnerID: "u1", AvatarHash: &hash}))
	_, err := s.Files().Acquire(ctx, &domain.Asset{Hash: hash})
	require.NoError(t, err)

	orphans, err := s.Files().ListOrphans(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Empty(t, orphans)
}
