package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/bagdasarian/ctf-team-engine/internal/domain"
	"github.com/bagdasarian/ctf-team-engine/internal/repository"
)

type fileRepository struct {
	db *sql.DB
}

func NewFileRepository(db *sql.DB) *fileRepository {
	return &fileRepository{db: db}
}

func (r *fileRepository) Acquire(ctx context.Context, asset *domain.Asset) (int, error) {
	query := `
		INSERT INTO files (hash, name, size, reference_count, uploaded_at)
		VALUES ($1, $2, $3, 1, $4)
		ON CONFLICT (hash) DO UPDATE
		SET reference_count = files.reference_count + 1, uploaded_at = EXCLUDED.uploaded_at
		RETURNING reference_count
	`

	var refs int
	err := r.db.QueryRowContext(ctx, query, asset.Hash, asset.Name, asset.Size, time.Now()).Scan(&refs)
	if err != nil {
		return 0, err
	}

	return refs, nil
}

// Release уменьшает счетчик под блокировкой строки, чтобы удаление записи не гонялось с Acquire
func (r *fileRepository) Release(ctx context.Context, hash string) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var refs int
	err = tx.QueryRowContext(ctx, `
		UPDATE files
		SET reference_count = reference_count - 1
		WHERE hash = $1
		RETURNING reference_count
	`, hash).Scan(&refs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, repository.ErrNotFound
		}
		return 0, err
	}

	if refs <= 0 {
		refs = 0
		if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE hash = $1`, hash); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return refs, nil
}

func (r *fileRepository) GetByHash(ctx context.Context, hash string) (*domain.Asset, error) {
	query := `
		SELECT hash, name, size
		FROM files
		WHERE hash = $1
	`

	asset := &domain.Asset{}
	err := r.db.QueryRowContext(ctx, query, hash).Scan(&asset.Hash, &asset.Name, &asset.Size)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return asset, nil
}

func (r *fileRepository) ListOrphans(ctx context.Context, before time.Time) ([]string, error) {
	query := `
		SELECT f.hash
		FROM files f
		WHERE f.uploaded_at < $1
			AND NOT EXISTS (SELECT 1 FROM teams t WHERE t.avatar_hash = f.hash)
			AND NOT EXISTS (SELECT 1 FROM users u WHERE u.avatar_hash = f.hash)
		ORDER BY f.uploaded_at
	`

	rows, err := r.db.QueryContext(ctx, query, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hashes []string
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, err
		}
		hashes = append(hashes, hash)
	}

	return hashes, rows.Err()
}

func (r *fileRepository) Purge(ctx context.Context, hash string, before time.Time) (bool, error) {
	query := `
		DELETE FROM files f
		WHERE f.hash = $1
			AND f.uploaded_at < $2
			AND NOT EXISTS (SELECT 1 FROM teams t WHERE t.avatar_hash = f.hash)
			AND NOT EXISTS (SELECT 1 FROM users u WHERE u.avatar_hash = f.hash)
	`

	result, err := r.db.ExecContext(ctx, query, hash, before)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
