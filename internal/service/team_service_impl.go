package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bagdasarian/ctf-team-engine/internal/domain"
	"github.com/bagdasarian/ctf-team-engine/internal/lock"
	"github.com/bagdasarian/ctf-team-engine/internal/repository"
	"go.uber.org/zap"
)

const (
	DefaultMaxAvatarSize = 5 << 20
	DefaultMaxNameLength = 20
	MaxBioLength         = 72
	avatarCategory       = "avatar"
)

type Options struct {
	MaxAvatarSize int64
	MaxNameLength int
}

type teamService struct {
	tx     repository.Transactor
	teams  repository.TeamRepository
	users  repository.UserRepository
	assets AssetRegistry
	locks  *lock.Keyed
	tokens TokenGenerator
	guard  Guard
	opts   Options
	log    *zap.SugaredLogger
}

// NewTeamService создает новый экземпляр TeamService.
// teams и users используются только для чтения вне транзакции, все изменения идут через tx.
func NewTeamService(
	tx repository.Transactor,
	teams repository.TeamRepository,
	users repository.UserRepository,
	assets AssetRegistry,
	locks *lock.Keyed,
	tokens TokenGenerator,
	guard Guard,
	opts Options,
	log *zap.SugaredLogger,
) TeamService {
	if opts.MaxAvatarSize <= 0 {
		opts.MaxAvatarSize = DefaultMaxAvatarSize
	}
	if opts.MaxNameLength <= 0 {
		opts.MaxNameLength = DefaultMaxNameLength
	}
	if tokens == nil {
		tokens = RandomTokenGenerator{}
	}
	if guard == nil {
		guard = NewGuard()
	}

	return &teamService{
		tx:     tx,
		teams:  teams,
		users:  users,
		assets: assets,
		locks:  locks,
		tokens: tokens,
		guard:  guard,
		opts:   opts,
		log:    log.Named("service.team"),
	}
}

// GetTeam получает команду с участниками по идентификатору
func (s *teamService) GetTeam(ctx context.Context, teamID int) (*domain.Team, error) {
	t, err := loadTeam(ctx, s.teams, teamID)
	if err != nil {
		return nil, s.mapError("get team", err)
	}
	return t, nil
}

// CreateTeam создает команду, владельцем и первым участником которой становится actor
func (s *teamService) CreateTeam(ctx context.Context, actorID, name, bio string) (team *domain.Team, err error) {
	defer func() { observe("create_team", err) }()

	name = strings.TrimSpace(name)

	unlock, err := s.lock(ctx, lock.UserKey(actorID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	token, err := s.tokens.Generate()
	if err != nil {
		return nil, err
	}

	err = s.inTx(ctx, "create team", func(ctx context.Context, teams repository.TeamRepository, users repository.UserRepository) error {
		user, err := loadUser(ctx, users, actorID)
		if err != nil {
			return err
		}
		if user.OwnedTeamID != nil {
			return domain.ErrAlreadyOwnsTeam
		}
		if err := s.validateName(name); err != nil {
			return err
		}
		if err := validateBio(bio); err != nil {
			return err
		}

		t := &domain.Team{
			Name:        name,
			Bio:         bio,
			OwnerID:     user.ID,
			Members:     []domain.TeamMember{{UserID: user.ID, Username: user.Username}},
			InviteToken: token,
		}
		if err := teams.Create(ctx, t); err != nil {
			if errors.Is(err, repository.ErrOwnerConflict) {
				return domain.ErrAlreadyOwnsTeam
			}
			return err
		}

		user.OwnedTeamID = &t.ID
		user.ActiveTeamID = &t.ID
		if err := users.Update(ctx, user); err != nil {
			if errors.Is(err, repository.ErrOwnerConflict) {
				return domain.ErrAlreadyOwnsTeam
			}
			return err
		}

		team = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("team created", "team_id", team.ID, "name", team.Name, "owner", actorID)
	return team, nil
}

// UpdateTeamInfo меняет название и/или описание. nil означает "не менять"
func (s *teamService) UpdateTeamInfo(ctx context.Context, actorID string, teamID int, name, bio *string) (team *domain.Team, err error) {
	defer func() { observe("update_team", err) }()

	unlock, err := s.lock(ctx, lock.TeamKey(teamID), lock.UserKey(actorID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	err = s.inTx(ctx, "update team", func(ctx context.Context, teams repository.TeamRepository, users repository.UserRepository) error {
		t, err := s.loadOwned(ctx, teams, users, actorID, teamID)
		if err != nil {
			return err
		}

		if name != nil {
			trimmed := strings.TrimSpace(*name)
			if err := s.validateName(trimmed); err != nil {
				return err
			}
			t.Name = trimmed
		}
		if bio != nil {
			if err := validateBio(*bio); err != nil {
				return err
			}
			t.Bio = *bio
		}

		if err := teams.Update(ctx, t); err != nil {
			return err
		}
		team = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("team updated", "team_id", teamID, "actor", actorID)
	return team, nil
}

// SetActiveTeam делает команду активной для участника
func (s *teamService) SetActiveTeam(ctx context.Context, actorID string, teamID int) (user *domain.User, err error) {
	defer func() { observe("set_active_team", err) }()

	unlock, err := s.lock(ctx, lock.TeamKey(teamID), lock.UserKey(actorID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	err = s.inTx(ctx, "set active team", func(ctx context.Context, teams repository.TeamRepository, users repository.UserRepository) error {
		t, err := loadTeam(ctx, teams, teamID)
		if err != nil {
			return err
		}
		u, err := loadUser(ctx, users, actorID)
		if err != nil {
			return err
		}
		if !s.guard.IsMember(u, t) {
			return domain.ErrNotMember
		}

		u.ActiveTeamID = &t.ID
		if err := users.Update(ctx, u); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// GetInviteToken возвращает текущий токен приглашения. Доступно только владельцу
func (s *teamService) GetInviteToken(ctx context.Context, actorID string, teamID int) (string, error) {
	t, err := s.loadOwned(ctx, s.teams, s.users, actorID, teamID)
	if err != nil {
		return "", s.mapError("get invite token", err)
	}
	return t.InviteToken, nil
}

// RotateInviteToken выпускает новый токен, старый сразу перестает действовать
func (s *teamService) RotateInviteToken(ctx context.Context, actorID string, teamID int) (token string, err error) {
	defer func() { observe("rotate_invite_token", err) }()

	unlock, err := s.lock(ctx, lock.TeamKey(teamID), lock.UserKey(actorID))
	if err != nil {
		return "", err
	}
	defer unlock()

	fresh, err := s.tokens.Generate()
	if err != nil {
		return "", err
	}

	err = s.inTx(ctx, "rotate invite token", func(ctx context.Context, teams repository.TeamRepository, users repository.UserRepository) error {
		t, err := s.loadOwned(ctx, teams, users, actorID, teamID)
		if err != nil {
			return err
		}
		t.InviteToken = fresh
		return teams.Update(ctx, t)
	})
	if err != nil {
		return "", err
	}

	s.log.Infow("invite token rotated", "team_id", teamID, "actor", actorID)
	return fresh, nil
}

// KickMember исключает участника. Если команда была у него активной, она сбрасывается
func (s *teamService) KickMember(ctx context.Context, actorID string, teamID int, targetID string) (team *domain.Team, err error) {
	defer func() { observe("kick_member", err) }()

	unlock, err := s.lock(ctx, lock.TeamKey(teamID), lock.UserKey(actorID), lock.UserKey(targetID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	err = s.inTx(ctx, "kick member", func(ctx context.Context, teams repository.TeamRepository, users repository.UserRepository) error {
		t, err := s.loadOwned(ctx, teams, users, actorID, teamID)
		if err != nil {
			return err
		}
		if targetID == t.OwnerID {
			return domain.NewForbiddenError("team owner cannot be removed from the team")
		}
		if !t.RemoveMember(targetID) {
			return domain.ErrNotMember
		}

		if err := teams.Update(ctx, t); err != nil {
			return err
		}
		if err := users.ClearActiveTeam(ctx, targetID, teamID); err != nil {
			return err
		}
		team = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("member kicked", "team_id", teamID, "member", targetID, "actor", actorID)
	return team, nil
}

// AcceptInvite добавляет actor в команду при совпадении токена
func (s *teamService) AcceptInvite(ctx context.Context, actorID string, teamID int, token string) (team *domain.Team, err error) {
	defer func() { observe("accept_invite", err) }()

	unlock, err := s.lock(ctx, lock.TeamKey(teamID), lock.UserKey(actorID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	err = s.inTx(ctx, "accept invite", func(ctx context.Context, teams repository.TeamRepository, users repository.UserRepository) error {
		t, err := loadTeam(ctx, teams, teamID)
		if err != nil {
			return err
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(t.InviteToken)) != 1 {
			return domain.ErrInvalidToken
		}
		u, err := loadUser(ctx, users, actorID)
		if err != nil {
			return err
		}
		if s.guard.IsMember(u, t) {
			return domain.ErrAlreadyMember
		}

		t.AddMember(domain.TeamMember{UserID: u.ID, Username: u.Username})
		if err := teams.Update(ctx, t); err != nil {
			return err
		}
		team = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("invite accepted", "team_id", teamID, "member", actorID)
	return team, nil
}

// LeaveTeam выводит actor из команды. Владелец выйти не может, только удалить команду
func (s *teamService) LeaveTeam(ctx context.Context, actorID string, teamID int) (err error) {
	defer func() { observe("leave_team", err) }()

	unlock, err := s.lock(ctx, lock.TeamKey(teamID), lock.UserKey(actorID))
	if err != nil {
		return err
	}
	defer unlock()

	err = s.inTx(ctx, "leave team", func(ctx context.Context, teams repository.TeamRepository, users repository.UserRepository) error {
		t, err := loadTeam(ctx, teams, teamID)
		if err != nil {
			return err
		}
		u, err := loadUser(ctx, users, actorID)
		if err != nil {
			return err
		}
		if !s.guard.IsMember(u, t) {
			return domain.ErrNotMember
		}
		if t.OwnerID == u.ID {
			return domain.NewForbiddenError("team owner cannot leave the team, delete it instead")
		}

		t.RemoveMember(u.ID)
		if err := teams.Update(ctx, t); err != nil {
			return err
		}
		return users.ClearActiveTeam(ctx, u.ID, teamID)
	})
	if err != nil {
		return err
	}

	s.log.Infow("member left", "team_id", teamID, "member", actorID)
	return nil
}

// SetTeamAvatar сохраняет новый аватар и возвращает его URL.
// Новый файл записывается до фиксации ссылки на него, старый освобождается после.
func (s *teamService) SetTeamAvatar(ctx context.Context, actorID string, teamID int, data []byte) (url string, err error) {
	defer func() { observe("set_team_avatar", err) }()

	unlock, err := s.lock(ctx, lock.TeamKey(teamID), lock.UserKey(actorID))
	if err != nil {
		return "", err
	}
	defer unlock()

	t, err := loadTeam(ctx, s.teams, teamID)
	if err != nil {
		return "", s.mapError("load team", err)
	}
	u, err := loadUser(ctx, s.users, actorID)
	if err != nil {
		return "", s.mapError("load user", err)
	}
	if !s.guard.IsMember(u, t) {
		return "", domain.ErrNotMember
	}
	if len(data) == 0 {
		return "", domain.NewInvalidAssetError("avatar file is empty")
	}
	if int64(len(data)) > s.opts.MaxAvatarSize {
		return "", domain.NewInvalidAssetError(fmt.Sprintf("avatar file is larger than %d bytes", s.opts.MaxAvatarSize))
	}

	asset, err := s.assets.Put(ctx, data, avatarCategory)
	if err != nil {
		return "", s.mapError("store avatar", err)
	}

	var oldHash *string
	err = s.inTx(ctx, "set team avatar", func(ctx context.Context, teams repository.TeamRepository, _ repository.UserRepository) error {
		current, err := loadTeam(ctx, teams, teamID)
		if err != nil {
			return err
		}
		oldHash = current.AvatarHash
		hash := asset.Hash
		current.AvatarHash = &hash
		return teams.Update(ctx, current)
	})
	if err != nil {
		s.releaseAsset(ctx, teamID, asset.Hash)
		return "", err
	}

	// oldHash может совпасть с новым: Put уже добавил ссылку, счетчик сходится
	if oldHash != nil {
		s.releaseAsset(ctx, teamID, *oldHash)
	}

	s.log.Infow("team avatar updated", "team_id", teamID, "hash", asset.ShortHash(), "size", asset.Size)
	return asset.URL, nil
}

// DeleteTeam удаляет команду и снимает все ссылки на нее
func (s *teamService) DeleteTeam(ctx context.Context, actorID string, teamID int) (err error) {
	defer func() { observe("delete_team", err) }()

	unlock, err := s.lock(ctx, lock.TeamKey(teamID), lock.UserKey(actorID))
	if err != nil {
		return err
	}
	defer unlock()

	var (
		avatar  *string
		cleared int64
	)
	err = s.inTx(ctx, "delete team", func(ctx context.Context, teams repository.TeamRepository, users repository.UserRepository) error {
		owner, err := loadUser(ctx, users, actorID)
		if err != nil {
			return err
		}
		if !owner.OwnsTeam(teamID) {
			return domain.ErrNotOwner
		}
		t, err := loadTeam(ctx, teams, teamID)
		if err != nil {
			return err
		}
		if !s.guard.IsOwner(owner, t) {
			return domain.ErrNotOwner
		}

		owner.OwnedTeamID = nil
		if owner.IsActiveIn(teamID) {
			owner.ActiveTeamID = nil
		}
		if err := users.Update(ctx, owner); err != nil {
			return err
		}
		if cleared, err = users.ClearActiveTeamForAll(ctx, teamID); err != nil {
			return err
		}
		if err := teams.Delete(ctx, teamID); err != nil {
			return err
		}
		avatar = t.AvatarHash
		return nil
	})
	if err != nil {
		return err
	}

	if avatar != nil {
		s.releaseAsset(ctx, teamID, *avatar)
	}

	s.log.Infow("team deleted", "team_id", teamID, "owner", actorID, "cleared_active", cleared)
	return nil
}

// loadOwned проверяет владение по обеим сторонам связи. Сначала пользователь, затем команда
func (s *teamService) loadOwned(
	ctx context.Context,
	teams repository.TeamRepository,
	users repository.UserRepository,
	actorID string,
	teamID int,
) (*domain.Team, error) {
	u, err := loadUser(ctx, users, actorID)
	if err != nil {
		return nil, err
	}
	if !u.OwnsTeam(teamID) {
		return nil, domain.ErrNotOwner
	}
	t, err := loadTeam(ctx, teams, teamID)
	if err != nil {
		return nil, err
	}
	if !s.guard.IsOwner(u, t) {
		return nil, domain.ErrNotOwner
	}
	return t, nil
}

// releaseAsset освобождает ссылку на файл уже после фиксации изменений.
// Ошибка не отменяет операцию: файл остается сиротой до прохода сборщика.
func (s *teamService) releaseAsset(ctx context.Context, teamID int, hash string) {
	if err := s.assets.DeleteByHash(context.WithoutCancel(ctx), hash); err != nil {
		s.log.Warnw("orphaned team avatar", "team_id", teamID, "hash", hash, "error", err)
	}
}

func (s *teamService) lock(ctx context.Context, keys ...string) (func(), error) {
	unlock, err := s.locks.Lock(ctx, keys...)
	if err != nil {
		if errors.Is(err, lock.ErrTimeout) {
			return nil, &domain.DomainError{Code: domain.CodeBusy, Message: domain.ErrBusy.Message, Err: err}
		}
		return nil, err
	}
	return unlock, nil
}

func (s *teamService) inTx(ctx context.Context, op string, fn repository.TxFunc) error {
	if err := s.tx.WithinTx(ctx, fn); err != nil {
		return s.mapError(op, err)
	}
	return nil
}

// mapError пропускает доменные ошибки и ошибки контекста, остальное - сбой хранилища
func (s *teamService) mapError(op string, err error) error {
	var domainErr *domain.DomainError
	switch {
	case errors.As(err, &domainErr):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, lock.ErrTimeout):
		return &domain.DomainError{Code: domain.CodeBusy, Message: domain.ErrBusy.Message, Err: err}
	}
	s.log.Errorw("storage failure", "op", op, "error", err)
	return domain.NewStorageError(op, err)
}

func (s *teamService) validateName(name string) error {
	if name == "" {
		return domain.NewInvalidInputError("team name must not be empty")
	}
	if utf8.RuneCountInString(name) > s.opts.MaxNameLength {
		return domain.NewInvalidInputError(fmt.Sprintf("team name must be at most %d characters", s.opts.MaxNameLength))
	}
	return nil
}

func validateBio(bio string) error {
	if utf8.RuneCountInString(bio) > MaxBioLength {
		return domain.NewInvalidInputError(fmt.Sprintf("team bio must be at most %d characters", MaxBioLength))
	}
	return nil
}

func loadTeam(ctx context.Context, teams repository.TeamRepository, id int) (*domain.Team, error) {
	t, err := teams.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NewNotFoundError(fmt.Sprintf("team with id %d", id))
		}
		return nil, err
	}
	return t, nil
}

func loadUser(ctx context.Context, users repository.UserRepository, id string) (*domain.User, error) {
	u, err := users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NewNotFoundError("user with id " + id)
		}
		return nil, err
	}
	return u, nil
}
