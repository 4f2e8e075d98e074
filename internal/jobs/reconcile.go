package jobs

import (
	"context"
	"time"

	"github.com/bagdasarian/ctf-team-engine/internal/repository"
	"go.uber.org/zap"
)

// Purger удаляет файл, если он все еще не используется
type Purger interface {
	Purge(ctx context.Context, hash string, before time.Time) (bool, error)
}

// OrphanReconciler удаляет файлы, на которые не ссылается ни одна запись.
// Такие файлы остаются после неудачного освобождения старого аватара.
type OrphanReconciler struct {
	files  repository.FileRepository
	purger Purger
	spec   string
	grace  time.Duration
	now    func() time.Time
	log    *zap.SugaredLogger
}

func NewOrphanReconciler(
	files repository.FileRepository,
	purger Purger,
	spec string,
	grace time.Duration,
	log *zap.SugaredLogger,
) *OrphanReconciler {
	return &OrphanReconciler{
		files:  files,
		purger: purger,
		spec:   spec,
		grace:  grace,
		now:    time.Now,
		log:    log.Named("jobs.reconcile"),
	}
}

func (r *OrphanReconciler) Spec() string {
	return r.spec
}

func (r *OrphanReconciler) Func(ctx context.Context) func() {
	return func() {
		if _, err := r.Run(ctx); err != nil {
			r.log.Errorw("reconcile failed", "error", err)
		}
	}
}

// Run проходит по сиротам старше grace и возвращает число удаленных
func (r *OrphanReconciler) Run(ctx context.Context) (int, error) {
	before := r.now().Add(-r.grace)

	hashes, err := r.files.ListOrphans(ctx, before)
	if err != nil {
		return 0, err
	}

	purged := 0
	for _, hash := range hashes {
		if err := ctx.Err(); err != nil {
			return purged, err
		}

		ok, err := r.purger.Purge(ctx, hash, before)
		if err != nil {
			r.log.Warnw("failed to purge orphan", "hash", hash, "error", err)
			continue
		}
		if ok {
			purged++
		}
	}

	if len(hashes) > 0 {
		r.log.Infow("orphans reconciled", "found", len(hashes), "purged", purged)
	}
	return purged, nil
}
