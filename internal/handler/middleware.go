package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	HeaderUserID = "X-User-ID"
	actorKey     = "actor"
)

// RequireActor берет идентификатор пользователя из заголовка, выставленного шлюзом аутентификации
func RequireActor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := strings.TrimSpace(c.Get(HeaderUserID))
		if actor == "" {
			return writeError(c, http.StatusUnauthorized, codeUnauthorized, HeaderUserID+" header is required")
		}
		c.Locals(actorKey, actor)
		return c.Next()
	}
}

func actorID(c *fiber.Ctx) string {
	actor, _ := c.Locals(actorKey).(string)
	return actor
}

// RequestLogger logs HTTP requests with method, path, status and duration.
func RequestLogger(log *zap.SugaredLogger) fiber.Handler {
	log = log.Named("http")
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		dur := time.Since(start)
		reqID, _ := c.Locals("requestid").(string)
		if reqID == "" {
			reqID = c.Get(fiber.HeaderXRequestID)
		}
		log.Infow("http",
			"method", c.Method(),
			"path", c.OriginalURL(),
			"status", c.Response().StatusCode(),
			"duration_ms", float64(dur.Microseconds())/1000.0,
			"request_id", reqID,
			"actor", actorID(c),
		)
		return err
	}
}
