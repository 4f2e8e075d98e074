package server

import (
	"github.com/bagdasarian/ctf-team-engine/internal/handler"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(app *fiber.App, h *handler.Handler) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/assets/:hash/:name", h.GetAsset)

	api := app.Group("/api", handler.RequireActor())
	api.Get("/team/:id", h.GetTeam)
	api.Post("/team", h.CreateTeam)
	api.Put("/team/:id", h.UpdateTeam)
	api.Delete("/team/:id", h.DeleteTeam)
	api.Put("/team/:id/active", h.SetActiveTeam)
	api.Post("/team/:id/invite", h.GetInviteToken)
	api.Post("/team/:id/invite/rotate", h.RotateInviteToken)
	api.Post("/team/:id/kick/:userId", h.KickMember)
	api.Post("/team/:id/accept", h.AcceptInvite)
	api.Post("/team/:id/leave", h.LeaveTeam)
	api.Put("/team/:id/avatar", h.SetTeamAvatar)
}
