package handler

import "time"

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateTeamRequest struct {
	Name string `json:"name"`
	Bio  string `json:"bio"`
}

// UpdateTeamRequest - отсутствующее поле не меняется
type UpdateTeamRequest struct {
	Name *string `json:"name"`
	Bio  *string `json:"bio"`
}

type TeamMemberResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type TeamResponse struct {
	ID        int                  `json:"id"`
	Name      string               `json:"name"`
	Bio       string               `json:"bio"`
	OwnerID   string               `json:"owner_id"`
	AvatarURL string               `json:"avatar_url,omitempty"`
	Members   []TeamMemberResponse `json:"members"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt *time.Time           `json:"updated_at,omitempty"`
}

type CreateTeamResponse struct {
	Team TeamResponse `json:"team"`
}

type UserResponse struct {
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
	OwnedTeamID  *int   `json:"owned_team_id"`
	ActiveTeamID *int   `json:"active_team_id"`
}

type InviteTokenResponse struct {
	Token string `json:"token"`
}

type AvatarResponse struct {
	URL string `json:"url"`
}
