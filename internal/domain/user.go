package domain

type User struct {
	ID           string
	Username     string
	OwnedTeamID  *int
	ActiveTeamID *int
	AvatarHash   *string
}

func (u *User) OwnsTeam(teamID int) bool {
	return u.OwnedTeamID != nil && *u.OwnedTeamID == teamID
}

func (u *User) IsActiveIn(teamID int) bool {
	return u.ActiveTeamID != nil && *u.ActiveTeamID == teamID
}

func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.OwnedTeamID = cloneInt(u.OwnedTeamID)
	c.ActiveTeamID = cloneInt(u.ActiveTeamID)
	if u.AvatarHash != nil {
		hash := *u.AvatarHash
		c.AvatarHash = &hash
	}
	return &c
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}
