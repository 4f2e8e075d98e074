package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/bagdasarian/ctf-team-engine/internal/asset"
	"github.com/bagdasarian/ctf-team-engine/internal/domain"
	"github.com/bagdasarian/ctf-team-engine/internal/repository"
	"github.com/gofiber/fiber/v2"
)

// GetAsset отдает файл по хешу. Имя в пути только для читаемых ссылок
func (h *Handler) GetAsset(c *fiber.Ctx) error {
	a, obj, err := h.assets.Open(c.UserContext(), c.Params("hash"))
	if err != nil {
		if errors.Is(err, asset.ErrInvalidHash) || errors.Is(err, repository.ErrNotFound) {
			return writeError(c, http.StatusNotFound, domain.CodeNotFound, "file not found")
		}
		return h.handleError(c, err)
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(obj, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		obj.Close()
		return h.handleError(c, err)
	}
	if _, err := obj.Seek(0, io.SeekStart); err != nil {
		obj.Close()
		return h.handleError(c, err)
	}

	c.Set(fiber.HeaderContentType, http.DetectContentType(head[:n]))
	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
	c.Set(fiber.HeaderETag, `"`+a.Hash+`"`)

	// fasthttp закрывает поток после отправки
	return c.Status(http.StatusOK).SendStream(obj, int(a.Size))
}
