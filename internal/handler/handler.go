package handler

import (
	"context"

	"github.com/bagdasarian/ctf-team-engine/internal/domain"
	"github.com/bagdasarian/ctf-team-engine/internal/service"
	"github.com/bagdasarian/ctf-team-engine/internal/storage"
	"go.uber.org/zap"
)

// AssetStore отдает сохраненные файлы по их адресу
type AssetStore interface {
	Open(ctx context.Context, hash string) (*domain.Asset, storage.Object, error)
	URL(a *domain.Asset) string
}

type Handler struct {
	teamService   service.TeamService
	assets        AssetStore
	maxAvatarSize int64
	log           *zap.SugaredLogger
}

func NewHandler(
	teamService service.TeamService,
	assets AssetStore,
	maxAvatarSize int64,
	log *zap.SugaredLogger,
) *Handler {
	return &Handler{
		teamService:   teamService,
		assets:        assets,
		maxAvatarSize: maxAvatarSize,
		log:           log.Named("handler"),
	}
}
