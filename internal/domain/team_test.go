package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTeam_Membership(t *testing.T) {
	t.Run("добавление без дубликатов", func(t *testing.T) {
		team := &Team{ID: 1, OwnerID: "u1", Members: []TeamMember{{UserID: "u1", Username: "alice"}}}

		assert.True(t, team.AddMember(TeamMember{UserID: "u2", Username: "bob"}))
		assert.False(t, team.AddMember(TeamMember{UserID: "u2", Username: "bob"}))
		assert.Len(t, team.Members, 2)
		assert.True(t, team.HasMember("u2"))
	})

	t.Run("удаление участника", func(t *testing.T) {
		team := &Team{Members: []TeamMember{{UserID: "u1"}, {UserID: "u2"}, {UserID: "u3"}}}

		assert.True(t, team.RemoveMember("u2"))
		assert.False(t, team.RemoveMember("u2"))
		assert.Equal(t, []TeamMember{{UserID: "u1"}, {UserID: "u3"}}, team.Members)
	})

	t.Run("удаление не портит исходный срез копии", func(t *testing.T) {
		team := &Team{Members: []TeamMember{{UserID: "u1"}, {UserID: "u2"}}}
		snapshot := team.Clone()

		team.RemoveMember("u1")

		assert.Len(t, snapshot.Members, 2)
		assert.Equal(t, "u1", snapshot.Members[0].UserID)
	})
}

func TestTeam_Clone(t *testing.T) {
	hash := "abc"
	team := &Team{ID: 7, Name: "Foo", AvatarHash: &hash, Members: []TeamMember{{UserID: "u1"}}}

	c := team.Clone()
	*c.AvatarHash = "changed"
	c.Members[0].UserID = "u9"

	assert.Equal(t, "abc", *team.AvatarHash)
	assert.Equal(t, "u1", team.Members[0].UserID)
	assert.Nil(t, (*Team)(nil).Clone())
}

func TestUser_Pointers(t *testing.T) {
	id := 3
	user := &User{ID: "u1", OwnedTeamID: &id, ActiveTeamID: &id}

	assert.True(t, user.OwnsTeam(3))
	assert.False(t, user.OwnsTeam(4))
	assert.True(t, user.IsActiveIn(3))

	c := user.Clone()
	*c.ActiveTeamID = 5
	assert.True(t, user.IsActiveIn(3))
	assert.False(t, (&User{}).IsActiveIn(0))
}
