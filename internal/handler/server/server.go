package server

import (
	"context"
	"time"

	"github.com/bagdasarian/ctf-team-engine/internal/handler"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
)

// multipart заголовки и поля поверх самого файла
const bodyOverhead = 64 << 10

type Server struct {
	handler *handler.Handler
	app     *fiber.App
	log     *zap.SugaredLogger
}

func NewServer(h *handler.Handler, maxAvatarSize int64, log *zap.SugaredLogger) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit:             int(maxAvatarSize) + bodyOverhead,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(handler.RequestLogger(log))

	SetupRoutes(app, h)

	return &Server{
		handler: h,
		app:     app,
		log:     log.Named("server"),
	}
}

// App нужен для тестов через app.Test
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Start(addr string) error {
	s.log.Infow("server starting", "addr", addr)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down")
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		return err
	}
	s.log.Info("server stopped")
	return nil
}
