package handlers

import (
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/skyreachair/leadfunnel/internal/config"
	"github.com/skyreachair/leadfunnel/internal/dto"
	"github.com/skyreachair/leadfunnel/internal/metrics"
	"github.com/skyreachair/leadfunnel/internal/middleware"
	"github.com/skyreachair/leadfunnel/internal/services"
)

type AuthHandler struct {
	authService *services.AuthService
	cfg         *config.Config
	metrics     *metrics.Metrics
	validate    *validator.Validate
}

func NewAuthHandler(authService *services.AuthService, cfg *config.Config, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cfg:         cfg,
		metrics:     m,
		validate:    validator.New(),
	}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Invalid request body"))
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Please provide a valid email and password"))
	}

	res, err := h.authService.Login(c.UserContext(), &req, c.Get(fiber.HeaderUserAgent), c.IP())
	if err != nil {
		h.metrics.RecordLoginAttempt(false)
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			return c.Status(fiber.StatusUnauthorized).JSON(dto.Fail("Invalid credentials"))
		case errors.Is(err, services.ErrInactiveUser):
			return c.Status(fiber.StatusUnauthorized).JSON(dto.Fail("Account is deactivated"))
		}
		slog.Error("login failed", "path", c.Path(), "action", "login", "error", err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Fail("Server error"))
	}
	h.metrics.RecordLoginAttempt(true)

	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.SessionCookie,
		Value:    res.Token,
		Path:     "/",
		Expires:  res.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return c.JSON(dto.LoginResponse{
		Success: true,
		Token:   res.Token,
		User:    dto.NewUserResponse(res.User),
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Fail("Unauthorized"))
	}

	if err := h.authService.Logout(c.UserContext(), p); err != nil {
		slog.Error("logout failed", "user_id", p.UserID.String(), "action", "logout", "error", err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Fail("Server error"))
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(dto.MessageResponse{Success: true, Message: "Logged out successfully"})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Fail("Unauthorized"))
	}

	user, err := h.authService.Me(c.UserContext(), p.UserID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.Fail("User not found"))
		}
		slog.Error("me lookup failed", "user_id", p.UserID.String(), "error", err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Fail("Server error"))
	}
	return c.JSON(dto.MeResponse{Success: true, User: dto.NewUserResponse(user)})
}
