package service

import (
	"context"

	"github.com/bagdasarian/ctf-team-engine/internal/domain"
	"github.com/bagdasarian/ctf-team-engine/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockTeamRepository struct {
	mock.Mock
}

func (m *MockTeamRepository) Create(ctx context.Context, team *domain.Team) error {
	args := m.Called(ctx, team)
	return args.Error(0)
}

func (m *MockTeamRepository) GetByID(ctx context.Context, id int) (*domain.Team, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Team), args.Error(1)
}

func (m *MockTeamRepository) Update(ctx context.Context, team *domain.Team) error {
	args := m.Called(ctx, team)
	return args.Error(0)
}

func (m *MockTeamRepository) Delete(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) ClearActiveTeam(ctx context.Context, userID string, teamID int) error {
	args := m.Called(ctx, userID, teamID)
	return args.Error(0)
}

func (m *MockUserRepository) ClearActiveTeamForAll(ctx context.Context, teamID int) (int64, error) {
	args := m.Called(ctx, teamID)
	return args.Get(0).(int64), args.Error(1)
}

type MockAssetRegistry struct {
	mock.Mock
}

func (m *MockAssetRegistry) Put(ctx context.Context, data []byte, category string) (*domain.Asset, error) {
	args := m.Called(ctx, data, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Asset), args.Error(1)
}

func (m *MockAssetRegistry) DeleteByHash(ctx context.Context, hash string) error {
	args := m.Called(ctx, hash)
	return args.Error(0)
}

// MockTransactor передает в fn те же моки репозиториев, транзакции не эмулируются
type MockTransactor struct {
	Teams repository.TeamRepository
	Users repository.UserRepository
	Err   error
}

func (m *MockTransactor) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	if m.Err != nil {
		return m.Err
	}
	return fn(ctx, m.Teams, m.Users)
}

type StaticTokenGenerator struct {
	Tokens []string
	next   int
}

func (g *StaticTokenGenerator) Generate() (string, error) {
	token := g.Tokens[g.next%len(g.Tokens)]
	g.next++
	return token, nil
}
