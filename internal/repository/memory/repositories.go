package memory

import (
	"context"
	"time"

	"github.com/bagdasarian/ctf-team-engine/internal/domain"
	"github.com/bagdasarian/ctf-team-engine/internal/repository"
)

// teamRepository и userRepository работают с данными без блокировок:
// их получают только внутри WithinTx или под read-блокировкой Store.
type teamRepository struct {
	d *data
}

func (r *teamRepository) Create(_ context.Context, team *domain.Team) error {
	for _, existing := range r.d.teams {
		if existing.OwnerID == team.OwnerID {
			return repository.ErrOwnerConflict
		}
	}

	r.d.nextTeamID++
	team.ID = r.d.nextTeamID
	team.CreatedAt = time.Now()
	team.UpdatedAt = nil
	r.d.teams[team.ID] = team.Clone()
	return nil
}

func (r *teamRepository) GetByID(_ context.Context, id int) (*domain.Team, error) {
	team, ok := r.d.teams[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return team.Clone(), nil
}

func (r *teamRepository) Update(_ context.Context, team *domain.Team) error {
	existing, ok := r.d.teams[team.ID]
	if !ok {
		return repository.ErrNotFound
	}

	now := time.Now()
	team.UpdatedAt = &now
	stored := team.Clone()
	stored.OwnerID = existing.OwnerID
	stored.CreatedAt = existing.CreatedAt
	r.d.teams[team.ID] = stored
	return nil
}

func (r *teamRepository) Delete(_ context.Context, id int) error {
	if _, ok := r.d.teams[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.d.teams, id)
	return nil
}

type userRepository struct {
	d *data
}

func (r *userRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.d.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user.Clone(), nil
}

func (r *userRepository) Update(_ context.Context, user *domain.User) error {
	existing, ok := r.d.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}

	if user.OwnedTeamID != nil {
		for id, other := range r.d.users {
			if id != user.ID && other.OwnsTeam(*user.OwnedTeamID) {
				return repository.ErrOwnerConflict
			}
		}
	}

	stored := user.Clone()
	stored.Username = existing.Username
	r.d.users[user.ID] = stored
	return nil
}

func (r *userRepository) ClearActiveTeam(_ context.Context, userID string, teamID int) error {
	if user, ok := r.d.users[userID]; ok && user.IsActiveIn(teamID) {
		user.ActiveTeamID = nil
	}
	return nil
}

func (r *userRepository) ClearActiveTeamForAll(_ context.Context, teamID int) (int64, error) {
	var affected int64
	for _, user := range r.d.users {
		if user.IsActiveIn(teamID) {
			user.ActiveTeamID = nil
			affected++
		}
	}
	return affected, nil
}
