package repository

import (
	"context"
	"time"

	"github.com/bagdasarian/ctf-team-engine/internal/domain"
)

// FileRepository хранит счетчики ссылок на файлы в контентно-адресуемом хранилище
type FileRepository interface {
	// Acquire увеличивает счетчик ссылок (создает запись при первой загрузке) и возвращает новое значение
	Acquire(ctx context.Context, asset *domain.Asset) (int, error)
	// Release уменьшает счетчик и удаляет запись при нуле; возвращает оставшееся число ссылок
	Release(ctx context.Context, hash string) (int, error)
	GetByHash(ctx context.Context, hash string) (*domain.Asset, error)
	// ListOrphans возвращает хеши файлов, загруженных раньше before, на которые не ссылается
	// ни одна команда или пользователь
	ListOrphans(ctx context.Context, before time.Time) ([]string, error)
	// Purge удаляет запись независимо от счетчика, но только если она все еще сирота
	// и загружена раньше before. Возвращает false, если запись осталась
	Purge(ctx context.Context, hash string, before time.Time) (bool, error)
}
