package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bagdasarian/ctf-team-engine/internal/domain"
	"github.com/bagdasarian/ctf-team-engine/internal/repository"
)

type teamRepository struct {
	executor DBExecutor
}

func NewTeamRepository(db *sql.DB) *teamRepository {
	return &teamRepository{executor: db}
}

func NewTeamRepositoryWithTx(tx *sql.Tx) *teamRepository {
	return &teamRepository{executor: tx}
}

func (r *teamRepository) Create(ctx context.Context, team *domain.Team) error {
	query := `
		INSERT INTO teams (name, bio, owner_id, invite_token, avatar_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	now := time.Now()
	err := r.executor.QueryRowContext(
		ctx,
		query,
		team.Name,
		team.Bio,
		team.OwnerID,
		team.InviteToken,
		ptrToNullString(team.AvatarHash),
		now,
	).Scan(&team.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrOwnerConflict
		}
		return err
	}
	team.CreatedAt = now
	team.UpdatedAt = nil

	for _, member := range team.Members {
		if err := r.insertMember(ctx, team.ID, member.UserID, now); err != nil {
			return err
		}
	}

	return nil
}

// GetByID читает команду вместе с участниками одним запросом, поэтому результат - согласованный снимок
func (r *teamRepository) GetByID(ctx context.Context, id int) (*domain.Team, error) {
	query := `
		SELECT t.id, t.name, t.bio, t.owner_id, t.invite_token, t.avatar_hash, t.created_at, t.updated_at,
			COALESCE(
				json_agg(json_build_object('user_id', m.user_id, 'username', u.name) ORDER BY m.joined_at)
					FILTER (WHERE m.user_id IS NOT NULL),
				'[]'
			) AS members
		FROM teams t
		LEFT JOIN team_members m ON m.team_id = t.id
		LEFT JOIN users u ON u.id = m.user_id
		WHERE t.id = $1
		GROUP BY t.id
	`

	team := &domain.Team{}
	var avatarHash sql.NullString
	var updatedAt sql.NullTime
	var members []byte
	err := r.executor.QueryRowContext(ctx, query, id).Scan(
		&team.ID,
		&team.Name,
		&team.Bio,
		&team.OwnerID,
		&team.InviteToken,
		&avatarHash,
		&team.CreatedAt,
		&updatedAt,
		&members,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	team.AvatarHash = nullStringToPtr(avatarHash)
	if updatedAt.Valid {
		team.UpdatedAt = &updatedAt.Time
	}

	var rows []memberRow
	if err := json.Unmarshal(members, &rows); err != nil {
		return nil, fmt.Errorf("decode members of team %d: %w", id, err)
	}
	team.Members = make([]domain.TeamMember, 0, len(rows))
	for _, row := range rows {
		team.Members = append(team.Members, domain.TeamMember{
			UserID:   row.UserID,
			Username: row.Username,
		})
	}

	return team, nil
}

type memberRow struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// Update сохраняет атрибуты команды и синхронизирует состав участников
func (r *teamRepository) Update(ctx context.Context, team *domain.Team) error {
	query := `
		UPDATE teams
		SET name = $2, bio = $3, invite_token = $4, avatar_hash = $5, updated_at = $6
		WHERE id = $1
	`

	now := time.Now()
	result, err := r.executor.ExecContext(
		ctx,
		query,
		team.ID,
		team.Name,
		team.Bio,
		team.InviteToken,
		ptrToNullString(team.AvatarHash),
		now,
	)
	if err != nil {
		return err
	}
	if err := checkAffected(result); err != nil {
		return err
	}
	team.UpdatedAt = &now

	current, err := r.memberIDs(ctx, team.ID)
	if err != nil {
		return err
	}

	wanted := make(map[string]struct{}, len(team.Members))
	for _, member := range team.Members {
		wanted[member.UserID] = struct{}{}
	}

	for _, userID := range current {
		if _, ok := wanted[userID]; ok {
			delete(wanted, userID)
			continue
		}
		_, err := r.executor.ExecContext(ctx,
			`DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`,
			team.ID, userID,
		)
		if err != nil {
			return err
		}
	}

	for _, member := range team.Members {
		if _, ok := wanted[member.UserID]; !ok {
			continue
		}
		if err := r.insertMember(ctx, team.ID, member.UserID, now); err != nil {
			return err
		}
	}

	return nil
}

func (r *teamRepository) Delete(ctx context.Context, id int) error {
	result, err := r.executor.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func (r *teamRepository) memberIDs(ctx context.Context, teamID int) ([]string, error) {
	rows, err := r.executor.QueryContext(ctx,
		`SELECT user_id FROM team_members WHERE team_id = $1 ORDER BY joined_at`,
		teamID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (r *teamRepository) insertMember(ctx context.Context, teamID int, userID string, joinedAt time.Time) error {
	_, err := r.executor.ExecContext(ctx,
		`INSERT INTO team_members (team_id, user_id, joined_at) VALUES ($1, $2, $3)`,
		teamID, userID, joinedAt,
	)
	return err
}
