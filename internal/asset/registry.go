// Package asset implements a content-addressed, reference-counted file registry.
package asset

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bagdasarian/ctf-team-engine/internal/domain"
	"github.com/bagdasarian/ctf-team-engine/internal/lock"
	"github.com/bagdasarian/ctf-team-engine/internal/repository"
	"github.com/bagdasarian/ctf-team-engine/internal/storage"
	"go.uber.org/zap"
)

// ErrInvalidHash is returned for strings that are not a sha256 hex digest.
var ErrInvalidHash = errors.New("invalid content hash")

var hashPattern = regexp.MustCompile(`^[a-f\d]{64}$`)

type Registry struct {
	storage storage.Storage
	files   repository.FileRepository
	locks   *lock.Keyed
	baseURL string
	log     *zap.SugaredLogger
}

func NewRegistry(
	st storage.Storage,
	files repository.FileRepository,
	locks *lock.Keyed,
	baseURL string,
	log *zap.SugaredLogger,
) *Registry {
	return &Registry{
		storage: st,
		files:   files,
		locks:   locks,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log.Named("asset.registry"),
	}
}

// Hash returns the content address of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func ValidHash(hash string) bool {
	return hashPattern.MatchString(hash)
}

// Put stores data (or adds a reference to an identical blob already stored)
// and returns its address.
func (r *Registry) Put(ctx context.Context, data []byte, category string) (*domain.Asset, error) {
	a := &domain.Asset{
		Hash: Hash(data),
		Name: category,
		Size: int64(len(data)),
	}

	unlock, err := r.locks.Lock(ctx, lock.AssetKey(a.Hash))
	if err != nil {
		return nil, err
	}
	defer unlock()

	refs, err := r.files.Acquire(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", a.ShortHash(), err)
	}

	exists, err := r.storage.Exists(blobPath(a.Hash))
	if err == nil && !exists {
		_, err = r.storage.Put(blobPath(a.Hash), bytes.NewReader(data))
	}
	if err != nil {
		if _, rerr := r.files.Release(ctx, a.Hash); rerr != nil {
			r.log.Warnw("failed to roll back file reference", "hash", a.Hash, "error", rerr)
		}
		return nil, fmt.Errorf("store %s: %w", a.ShortHash(), err)
	}

	a.URL = r.URL(a)
	r.log.Debugw("asset stored", "hash", a.ShortHash(), "refs", refs, "size", a.Size)
	return a, nil
}

// DeleteByHash drops one reference; the blob is removed with the last one.
func (r *Registry) DeleteByHash(ctx context.Context, hash string) error {
	if !ValidHash(hash) {
		return ErrInvalidHash
	}

	unlock, err := r.locks.Lock(ctx, lock.AssetKey(hash))
	if err != nil {
		return err
	}
	defer unlock()

	refs, err := r.files.Release(ctx, hash)
	if err != nil {
		return fmt.Errorf("release %s: %w", hash[:8], err)
	}
	if refs > 0 {
		return nil
	}

	return r.storage.Delete(blobPath(hash))
}

// Purge removes an unreferenced blob uploaded before the cutoff, regardless of
// its reference count. It reports false when the blob turned out to be in use.
func (r *Registry) Purge(ctx context.Context, hash string, before time.Time) (bool, error) {
	if !ValidHash(hash) {
		return false, ErrInvalidHash
	}

	unlock, err := r.locks.Lock(ctx, lock.AssetKey(hash))
	if err != nil {
		return false, err
	}
	defer unlock()

	purged, err := r.files.Purge(ctx, hash, before)
	if err != nil || !purged {
		return false, err
	}
	return true, r.storage.Delete(blobPath(hash))
}

// Open returns the asset metadata and its content.
func (r *Registry) Open(ctx context.Context, hash string) (*domain.Asset, storage.Object, error) {
	if !ValidHash(hash) {
		return nil, nil, ErrInvalidHash
	}

	a, err := r.files.GetByHash(ctx, hash)
	if err != nil {
		return nil, nil, err
	}

	obj, err := r.storage.Open(blobPath(hash))
	if err != nil {
		return nil, nil, err
	}

	a.URL = r.URL(a)
	return a, obj, nil
}

func (r *Registry) URL(a *domain.Asset) string {
	return fmt.Sprintf("%s/assets/%s/%s", r.baseURL, a.Hash, a.Name)
}

func blobPath(hash string) string {
	return hash[:2] + "/" + hash
}
