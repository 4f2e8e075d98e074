package memory

import (
	"context"
	"sort"
	"time"

	"github.com/bagdasarian/ctf-team-engine/internal/domain"
	"github.com/bagdasarian/ctf-team-engine/internal/repository"
)

type fileRecord struct {
	asset      domain.Asset
	refs       int
	uploadedAt time.Time
}

type fileRepository struct {
	s *Store
}

func (r *fileRepository) Acquire(_ context.Context, asset *domain.Asset) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.files[asset.Hash]
	if !ok {
		rec = &fileRecord{asset: *asset}
		r.s.files[asset.Hash] = rec
	}
	rec.refs++
	rec.uploadedAt = time.Now()
	return rec.refs, nil
}

func (r *fileRepository) Release(_ context.Context, hash string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.files[hash]
	if !ok {
		return 0, repository.ErrNotFound
	}
	rec.refs--
	if rec.refs <= 0 {
		delete(r.s.files, hash)
		return 0, nil
	}
	return rec.refs, nil
}

func (r *fileRepository) GetByHash(_ context.Context, hash string) (*domain.Asset, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.files[hash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	asset := rec.asset
	return &asset, nil
}

func (r *fileRepository) ListOrphans(_ context.Context, before time.Time) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	referenced := r.s.data.referencedHashes()

	var hashes []string
	for hash, rec := range r.s.files {
		if _, ok := referenced[hash]; ok || !rec.uploadedAt.Before(before) {
			continue
		}
		hashes = append(hashes, hash)
	}
	sort.Strings(hashes)
	return hashes, nil
}

func (r *fileRepository) Purge(_ context.Context, hash string, before time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.files[hash]
	if !ok || !rec.uploadedAt.Before(before) {
		return false, nil
	}
	if _, used := r.s.data.referencedHashes()[hash]; used {
		return false, nil
	}
	delete(r.s.files, hash)
	return true, nil
}

func (d *data) referencedHashes() map[string]struct{} {
	referenced := make(map[string]struct{})
	for _, team := range d.teams {
		if team.AvatarHash != nil {
			referenced[*team.AvatarHash] = struct{}{}
		}
	}
	for _, user := range d.users {
		if user.AvatarHash != nil {
			referenced[*user.AvatarHash] = struct{}{}
		}
	}
	return referenced
}
