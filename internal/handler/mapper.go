package handler

import "github.com/bagdasarian/ctf-team-engine/internal/domain"

func (h *Handler) domainTeamToHTTP(team *domain.Team) TeamResponse {
	members := make([]TeamMemberResponse, 0, len(team.Members))
	for _, member := range team.Members {
		members = append(members, TeamMemberResponse{
			UserID:   member.UserID,
			Username: member.Username,
		})
	}

	resp := TeamResponse{
		ID:        team.ID,
		Name:      team.Name,
		Bio:       team.Bio,
		OwnerID:   team.OwnerID,
		Members:   members,
		CreatedAt: team.CreatedAt,
		UpdatedAt: team.UpdatedAt,
	}
	if team.AvatarHash != nil {
		resp.AvatarURL = h.assets.URL(&domain.Asset{Hash: *team.AvatarHash, Name: "avatar"})
	}

	return resp
}

func domainUserToHTTP(user *domain.User) UserResponse {
	return UserResponse{
		UserID:       user.ID,
		Username:     user.Username,
		OwnedTeamID:  user.OwnedTeamID,
		ActiveTeamID: user.ActiveTeamID,
	}
}
