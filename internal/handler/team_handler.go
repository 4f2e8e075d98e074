package handler

import (
	"io"
	"net/http"

	"github.com/bagdasarian/ctf-team-engine/internal/domain"
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) GetTeam(c *fiber.Ctx) error {
	teamID, err := teamIDParam(c)
	if err != nil {
		return h.handleError(c, err)
	}

	team, err := h.teamService.GetTeam(c.UserContext(), teamID)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.Status(http.StatusOK).JSON(h.domainTeamToHTTP(team))
}

func (h *Handler) CreateTeam(c *fiber.Ctx) error {
	var req CreateTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return h.handleError(c, domain.NewInvalidInputError("invalid request body"))
	}

	team, err := h.teamService.CreateTeam(c.UserContext(), actorID(c), req.Name, req.Bio)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.Status(http.StatusCreated).JSON(CreateTeamResponse{
		Team: h.domainTeamToHTTP(team),
	})
}

func (h *Handler) UpdateTeam(c *fiber.Ctx) error {
	teamID, err := teamIDParam(c)
	if err != nil {
		return h.handleError(c, err)
	}

	var req UpdateTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return h.handleError(c, domain.NewInvalidInputError("invalid request body"))
	}

	team, err := h.teamService.UpdateTeamInfo(c.UserContext(), actorID(c), teamID, req.Name, req.Bio)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.Status(http.StatusOK).JSON(h.domainTeamToHTTP(team))
}

func (h *Handler) SetActiveTeam(c *fiber.Ctx) error {
	teamID, err := teamIDParam(c)
	if err != nil {
		return h.handleError(c, err)
	}

	user, err := h.teamService.SetActiveTeam(c.UserContext(), actorID(c), teamID)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.Status(http.StatusOK).JSON(domainUserToHTTP(user))
}

func (h *Handler) GetInviteToken(c *fiber.Ctx) error {
	teamID, err := teamIDParam(c)
	if err != nil {
		return h.handleError(c, err)
	}

	token, err := h.teamService.GetInviteToken(c.UserContext(), actorID(c), teamID)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.Status(http.StatusOK).JSON(InviteTokenResponse{Token: token})
}

func (h *Handler) RotateInviteToken(c *fiber.Ctx) error {
	teamID, err := teamIDParam(c)
	if err != nil {
		return h.handleError(c, err)
	}

	token, err := h.teamService.RotateInviteToken(c.UserContext(), actorID(c), teamID)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.Status(http.StatusOK).JSON(InviteTokenResponse{Token: token})
}

func (h *Handler) KickMember(c *fiber.Ctx) error {
	teamID, err := teamIDParam(c)
	if err != nil {
		return h.handleError(c, err)
	}

	targetID := c.Params("userId")
	if targetID == "" {
		return h.handleError(c, domain.NewInvalidInputError("userId is required"))
	}

	team, err := h.teamService.KickMember(c.UserContext(), actorID(c), teamID, targetID)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.Status(http.StatusOK).JSON(h.domainTeamToHTTP(team))
}

func (h *Handler) AcceptInvite(c *fiber.Ctx) error {
	teamID, err := teamIDParam(c)
	if err != nil {
		return h.handleError(c, err)
	}

	token := c.Query("token")
	if token == "" {
		return h.handleError(c, domain.ErrInvalidToken)
	}

	team, err := h.teamService.AcceptInvite(c.UserContext(), actorID(c), teamID, token)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.Status(http.StatusOK).JSON(h.domainTeamToHTTP(team))
}

func (h *Handler) LeaveTeam(c *fiber.Ctx) error {
	teamID, err := teamIDParam(c)
	if err != nil {
		return h.handleError(c, err)
	}

	if err := h.teamService.LeaveTeam(c.UserContext(), actorID(c), teamID); err != nil {
		return h.handleError(c, err)
	}

	return c.SendStatus(http.StatusNoContent)
}

func (h *Handler) SetTeamAvatar(c *fiber.Ctx) error {
	teamID, err := teamIDParam(c)
	if err != nil {
		return h.handleError(c, err)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return h.handleError(c, domain.NewInvalidAssetError("multipart field \"file\" is required"))
	}
	if fh.Size > h.maxAvatarSize {
		return h.handleError(c, domain.NewInvalidAssetError("avatar file is too large"))
	}

	f, err := fh.Open()
	if err != nil {
		return h.handleError(c, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxAvatarSize+1))
	if err != nil {
		return h.handleError(c, err)
	}

	url, err := h.teamService.SetTeamAvatar(c.UserContext(), actorID(c), teamID, data)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.Status(http.StatusOK).JSON(AvatarResponse{URL: url})
}

func (h *Handler) DeleteTeam(c *fiber.Ctx) error {
	teamID, err := teamIDParam(c)
	if err != nil {
		return h.handleError(c, err)
	}

	if err := h.teamService.DeleteTeam(c.UserContext(), actorID(c), teamID); err != nil {
		return h.handleError(c, err)
	}

	return c.SendStatus(http.StatusNoContent)
}

func teamIDParam(c *fiber.Ctx) (int, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, domain.NewInvalidInputError("team id must be a positive integer")
	}
	return id, nil
}
