package handlers

import (
	"errors"
	"log/slog"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/skyreachair/leadfunnel/internal/dto"
)

// ErrorHandler renders errors that escape a handler in the shared envelope.
// Server errors never expose their detail.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	if code >= fiber.StatusInternalServerError {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		sentry.CaptureException(err)
		message = "Server error"
	}

	return c.Status(code).JSON(dto.Fail(message))
}
