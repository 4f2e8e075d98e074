package service

import "github.com/bagdasarian/ctf-team-engine/internal/domain"

// Guard решает, имеет ли пользователь право на операцию.
// Проверки выполняются только над только что загруженными записями.
type Guard interface {
	IsOwner(user *domain.User, team *domain.Team) bool
	IsMember(user *domain.User, team *domain.Team) bool
}

type membershipGuard struct{}

// NewGuard возвращает Guard, основанный на владении и составе команды
func NewGuard() Guard {
	return membershipGuard{}
}

// IsOwner требует согласованности обеих ссылок: команда указывает на пользователя, пользователь - на команду
func (membershipGuard) IsOwner(user *domain.User, team *domain.Team) bool {
	if user == nil || team == nil {
		return false
	}
	return team.OwnerID == user.ID && user.OwnsTeam(team.ID)
}

func (membershipGuard) IsMember(user *domain.User, team *domain.Team) bool {
	if user == nil || team == nil {
		return false
	}
	return team.HasMember(user.ID)
}
