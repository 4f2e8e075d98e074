// Package memory implements the repositories over process memory. It backs
// STORAGE_DRIVER=memory and the engine tests.
package memory

import (
	"context"
	"sync"

	"github.com/bagdasarian/ctf-team-engine/internal/domain"
	"github.com/bagdasarian/ctf-team-engine/internal/repository"
)

type data struct {
	teams      map[int]*domain.Team
	users      map[string]*domain.User
	nextTeamID int
}

func (d *data) clone() *data {
	c := &data{
		teams:      make(map[int]*domain.Team, len(d.teams)),
		users:      make(map[string]*domain.User, len(d.users)),
		nextTeamID: d.nextTeamID,
	}
	for id, team := range d.teams {
		c.teams[id] = team.Clone()
	}
	for id, user := range d.users {
		c.users[id] = user.Clone()
	}
	return c
}

// Store holds teams, users and file records. Transactions are serialized by
// txMu and run against a private copy of the data which replaces the shared
// one only on success.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data *data

	files map[string]*fileRecord
}

var _ repository.Transactor = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		data: &data{
			teams: make(map[int]*domain.Team),
			users: make(map[string]*domain.User),
		},
		files: make(map[string]*fileRecord),
	}
}

// AddUser registers an identity. Accounts are created by the identity
// provider, so the engine never does this itself.
func (s *Store) AddUser(user *domain.User) {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.users[user.ID] = user.Clone()
}

func (s *Store) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	staged := s.data.clone()
	s.mu.RUnlock()

	if err := fn(ctx, &teamRepository{d: staged}, &userRepository{d: staged}); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = staged
	s.mu.Unlock()
	return nil
}

// Teams returns a repository that works on committed data outside of any transaction.
func (s *Store) Teams() repository.TeamRepository {
	return &storeTeams{s: s}
}

func (s *Store) Users() repository.UserRepository {
	return &storeUsers{s: s}
}

func (s *Store) Files() repository.FileRepository {
	return &fileRepository{s: s}
}

func (s *Store) read(fn func(d *data)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.data)
}

type storeTeams struct {
	s *Store
}

func (r *storeTeams) Create(ctx context.Context, team *domain.Team) error {
	return r.s.WithinTx(ctx, func(ctx context.Context, teams repository.TeamRepository, _ repository.UserRepository) error {
		return teams.Create(ctx, team)
	})
}

func (r *storeTeams) GetByID(ctx context.Context, id int) (*domain.Team, error) {
	var (
		team *domain.Team
		err  error
	)
	r.s.read(func(d *data) {
		team, err = (&teamRepository{d: d}).GetByID(ctx, id)
	})
	return team, err
}

func (r *storeTeams) Update(ctx context.Context, team *domain.Team) error {
	return r.s.WithinTx(ctx, func(ctx context.Context, teams repository.TeamRepository, _ repository.UserRepository) error {
		return teams.Update(ctx, team)
	})
}

func (r *storeTeams) Delete(ctx context.Context, id int) error {
	return r.s.WithinTx(ctx, func(ctx context.Context, teams repository.TeamRepository, _ repository.UserRepository) error {
		return teams.Delete(ctx, id)
	})
}

type storeUsers struct {
	s *Store
}

func (r *storeUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var (
		user *domain.User
		err  error
	)
	r.s.read(func(d *data) {
		user, err = (&userRepository{d: d}).GetByID(ctx, id)
	})
	return user, err
}

func (r *storeUsers) Update(ctx context.Context, user *domain.User) error {
	return r.s.WithinTx(ctx, func(ctx context.Context, _ repository.TeamRepository, users repository.UserRepository) error {
		return users.Update(ctx, user)
	})
}

func (r *storeUsers) ClearActiveTeam(ctx context.Context, userID string, teamID int) error {
	return r.s.WithinTx(ctx, func(ctx context.Context, _ repository.TeamRepository, users repository.UserRepository) error {
		return users.ClearActiveTeam(ctx, userID, teamID)
	})
}

func (r *storeUsers) ClearActiveTeamForAll(ctx context.Context, teamID int) (int64, error) {
	var affected int64
	err := r.s.WithinTx(ctx, func(ctx context.Context, _ repository.TeamRepository, users repository.UserRepository) error {
		var err error
		affected, err = users.ClearActiveTeamForAll(ctx, teamID)
		return err
	})
	return affected, err
}
