package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bagdasarian/ctf-team-engine/internal/domain"
	"github.com/bagdasarian/ctf-team-engine/internal/repository"
)

type userRepository struct {
	executor DBExecutor
}

func NewUserRepository(db *sql.DB) *userRepository {
	return &userRepository{executor: db}
}

func NewUserRepositoryWithTx(tx *sql.Tx) *userRepository {
	return &userRepository{executor: tx}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT id, name, owned_team_id, active_team_id, avatar_hash
		FROM users
		WHERE id = $1
	`

	user := &domain.User{}
	var ownedTeamID, activeTeamID sql.NullInt64
	var avatarHash sql.NullString
	err := r.executor.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&ownedTeamID,
		&activeTeamID,
		&avatarHash,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	user.OwnedTeamID = nullIntToPtr(ownedTeamID)
	user.ActiveTeamID = nullIntToPtr(activeTeamID)
	user.AvatarHash = nullStringToPtr(avatarHash)

	return user, nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET owned_team_id = $2, active_team_id = $3, avatar_hash = $4
		WHERE id = $1
	`

	result, err := r.executor.ExecContext(
		ctx,
		query,
		user.ID,
		ptrToNullInt(user.OwnedTeamID),
		ptrToNullInt(user.ActiveTeamID),
		ptrToNullString(user.AvatarHash),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrOwnerConflict
		}
		return err
	}

	return checkAffected(result)
}

func (r *userRepository) ClearActiveTeam(ctx context.Context, userID string, teamID int) error {
	query := `
		UPDATE users
		SET active_team_id = NULL
		WHERE id = $1 AND active_team_id = $2
	`

	_, err := r.executor.ExecContext(ctx, query, userID, teamID)
	return err
}

func (r *userRepository) ClearActiveTeamForAll(ctx context.Context, teamID int) (int64, error) {
	query := `
		UPDATE users
		SET active_team_id = NULL
		WHERE active_team_id = $1
	`

	result, err := r.executor.ExecContext(ctx, query, teamID)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
