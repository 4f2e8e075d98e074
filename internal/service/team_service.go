package service

import (
	"context"

	"github.com/bagdasarian/ctf-team-engine/internal/domain"
)

// TeamService - единственная точка изменения связей между командами и пользователями
type TeamService interface {
	GetTeam(ctx context.Context, teamID int) (*domain.Team, error)
	CreateTeam(ctx context.Context, actorID, name, bio string) (*domain.Team, error)
	UpdateTeamInfo(ctx context.Context, actorID string, teamID int, name, bio *string) (*domain.Team, error)
	SetActiveTeam(ctx context.Context, actorID string, teamID int) (*domain.User, error)
	GetInviteToken(ctx context.Context, actorID string, teamID int) (string, error)
	RotateInviteToken(ctx context.Context, actorID string, teamID int) (string, error)
	KickMember(ctx context.Context, actorID string, teamID int, targetID string) (*domain.Team, error)
	AcceptInvite(ctx context.Context, actorID string, teamID int, token string) (*domain.Team, error)
	LeaveTeam(ctx context.Context, actorID string, teamID int) error
	SetTeamAvatar(ctx context.Context, actorID string, teamID int, data []byte) (string, error)
	DeleteTeam(ctx context.Context, actorID string, teamID int) error
}

// AssetRegistry - контентно-адресуемое хранилище файлов
type AssetRegistry interface {
	Put(ctx context.Context, data []byte, category string) (*domain.Asset, error)
	DeleteByHash(ctx context.Context, hash string) error
}
