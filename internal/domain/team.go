package domain

import "time"

type Team struct {
	ID          int
	Name        string
	Bio         string
	OwnerID     string
	Members     []TeamMember
	InviteToken string
	AvatarHash  *string
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

type TeamMember struct {
	UserID   string
	Username string
}

// HasMember проверяет, входит ли пользователь в состав команды
func (t *Team) HasMember(userID string) bool {
	for _, member := range t.Members {
		if member.UserID == userID {
			return true
		}
	}
	return false
}

// AddMember добавляет участника; повторное добавление игнорируется
func (t *Team) AddMember(member TeamMember) bool {
	if t.HasMember(member.UserID) {
		return false
	}
	t.Members = append(t.Members, member)
	return true
}

// RemoveMember удаляет участника и сообщает, был ли он в команде
func (t *Team) RemoveMember(userID string) bool {
	for i, member := range t.Members {
		if member.UserID == userID {
			t.Members = append(t.Members[:i:i], t.Members[i+1:]...)
			return true
		}
	}
	return false
}

// Clone возвращает глубокую копию, чтобы вызывающий код не мог изменить хранимое состояние
func (t *Team) Clone() *Team {
	if t == nil {
		return nil
	}
	c := *t
	c.Members = append([]TeamMember(nil), t.Members...)
	if t.AvatarHash != nil {
		hash := *t.AvatarHash
		c.AvatarHash = &hash
	}
	if t.UpdatedAt != nil {
		updatedAt := *t.UpdatedAt
		c.UpdatedAt = &updatedAt
	}
	return &c
}
