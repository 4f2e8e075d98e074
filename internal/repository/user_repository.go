package repository

import (
	"context"

	"github.com/bagdasarian/ctf-team-engine/internal/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	// ClearActiveTeam сбрасывает активную команду пользователя, только если она равна teamID
	ClearActiveTeam(ctx context.Context, userID string, teamID int) error
	// ClearActiveTeamForAll сбрасывает активную команду у всех, кто на нее указывает
	ClearActiveTeamForAll(ctx context.Context, teamID int) (int64, error)
}
