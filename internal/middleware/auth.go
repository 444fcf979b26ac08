package middleware

import (
	"errors"
	"log/slog"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/skyreachair/leadfunnel/internal/config"
	"github.com/skyreachair/leadfunnel/internal/dto"
	"github.com/skyreachair/leadfunnel/internal/services"
)

const principalKey = "principal"

// SessionRequired accepts a Bearer token or the session cookie, then checks
// that the session behind it is still live.
func SessionRequired(cfg *config.Config, auth *services.AuthService) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:  jwtware.SigningKey{JWTAlg: jwt.SigningMethodHS256.Alg(), Key: []byte(cfg.JWTSecret)},
		TokenLookup: "header:Authorization,cookie:" + cfg.SessionCookie,
		AuthScheme:  "Bearer",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.Fail("Unauthorized"))
		},
		SuccessHandler: func(c *fiber.Ctx) error {
			token, ok := c.Locals("user").(*jwt.Token)
			if !ok {
				return c.Status(fiber.StatusUnauthorized).JSON(dto.Fail("Unauthorized"))
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return c.Status(fiber.StatusUnauthorized).JSON(dto.Fail("Invalid claims"))
			}
			sub, _ := claims["sub"].(string)
			sid, _ := claims["sid"].(string)

			principal, err := auth.Authenticate(c.UserContext(), sub, sid)
			if err != nil {
				if errors.Is(err, services.ErrInvalidSession) || errors.Is(err, services.ErrInactiveUser) {
					return c.Status(fiber.StatusUnauthorized).JSON(dto.Fail("Unauthorized"))
				}
				slog.Error("session lookup failed", "path", c.Path(), "error", err.Error())
				return c.Status(fiber.StatusInternalServerError).JSON(dto.Fail("Server error"))
			}

			c.Locals(principalKey, principal)
			return c.Next()
		},
	})
}

// GetPrincipal returns the operator set by SessionRequired.
func GetPrincipal(c *fiber.Ctx) (*services.Principal, bool) {
	p, ok := c.Locals(principalKey).(*services.Principal)
	return p, ok && p != nil
}
