package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/bagdasarian/ctf-team-engine/internal/domain"
	"github.com/gofiber/fiber/v2"
)

const (
	codeUnauthorized = "UNAUTHORIZED"
	codeInternal     = "INTERNAL_ERROR"
	codeCancelled    = "CANCELLED"
)

func (h *Handler) handleError(c *fiber.Ctx, err error) error {
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		status := getStatusCode(domainErr.Code)
		if status == http.StatusInternalServerError {
			h.log.Errorw("request failed", "path", c.Path(), "code", domainErr.Code, "error", err)
		}
		return writeError(c, status, domainErr.Code, domainErr.Message)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return writeError(c, http.StatusServiceUnavailable, codeCancelled, "request cancelled")
	}

	h.log.Errorw("request failed", "path", c.Path(), "error", err)
	return writeError(c, http.StatusInternalServerError, codeInternal, "internal server error")
}

func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

func getStatusCode(errorCode string) int {
	switch errorCode {
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeNotOwner, domain.CodeNotMember, domain.CodeForbidden:
		return http.StatusForbidden
	case domain.CodeAlreadyMember, domain.CodeAlreadyOwnsTeam:
		return http.StatusConflict
	case domain.CodeInvalidToken, domain.CodeInvalidInput, domain.CodeInvalidAsset:
		return http.StatusBadRequest
	case domain.CodeBusy:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
