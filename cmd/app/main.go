package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bagdasarian/ctf-team-engine/internal/asset"
	"github.com/bagdasarian/ctf-team-engine/internal/config"
	"github.com/bagdasarian/ctf-team-engine/internal/db"
	"github.com/bagdasarian/ctf-team-engine/internal/handler"
	"github.com/bagdasarian/ctf-team-engine/internal/handler/server"
	"github.com/bagdasarian/ctf-team-engine/internal/jobs"
	"github.com/bagdasarian/ctf-team-engine/internal/lock"
	"github.com/bagdasarian/ctf-team-engine/internal/logger"
	"github.com/bagdasarian/ctf-team-engine/internal/repository"
	"github.com/bagdasarian/ctf-team-engine/internal/repository/memory"
	"github.com/bagdasarian/ctf-team-engine/internal/repository/postgres"
	"github.com/bagdasarian/ctf-team-engine/internal/service"
	"github.com/bagdasarian/ctf-team-engine/internal/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type stores struct {
	tx    repository.Transactor
	teams repository.TeamRepository
	users repository.UserRepository
	files repository.FileRepository
	close func() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Errorw("application stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(); err != nil {
			log.Warnw("failed to close storage", "error", err)
		}
	}()

	locks := lock.New(cfg.Team.LockTimeout)
	registry := asset.NewRegistry(storage.NewLocalStorage(cfg.Assets.Root), st.files, locks, cfg.Assets.BaseURL, log)

	teamService := service.NewTeamService(
		st.tx, st.teams, st.users, registry, locks,
		service.RandomTokenGenerator{},
		service.NewGuard(),
		service.Options{
			MaxAvatarSize: cfg.Team.MaxAvatarSize,
			MaxNameLength: cfg.Team.MaxNameLength,
		},
		log,
	)

	scheduler := jobs.NewScheduler(log)
	reconciler := jobs.NewOrphanReconciler(st.files, registry, cfg.Reconcile.Schedule, cfg.Reconcile.Grace, log)
	if err := scheduler.Register(ctx, "reconcile-orphans", reconciler); err != nil {
		return err
	}

	h := handler.NewHandler(teamService, registry, cfg.Team.MaxAvatarSize, log)
	srv := server.NewServer(h, cfg.Team.MaxAvatarSize, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(cfg.Server.Addr)
	})
	g.Go(func() error {
		scheduler.Start()
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		scheduler.Shutdown(cfg.Server.ShutdownTimeout)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warnw("server forced to shutdown", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func openStores(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*stores, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		log.Warn("using in-memory storage, data will be lost on restart")
		store := memory.NewStore()
		return &stores{
			tx:    store,
			teams: store.Teams(),
			users: store.Users(),
			files: store.Files(),
			close: func() error { return nil },
		}, nil
	default:
		database, err := db.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx, database, log); err != nil {
			database.Close()
			return nil, err
		}
		log.Infow("connected to database", "host", cfg.Database.Host, "name", cfg.Database.DBName)
		return postgresStores(database), nil
	}
}

func postgresStores(database *sql.DB) *stores {
	return &stores{
		tx:    postgres.NewTransactor(database),
		teams: postgres.NewTeamRepository(database),
		users: postgres.NewUserRepository(database),
		files: postgres.NewFileRepository(database),
		close: database.Close,
	}
}
