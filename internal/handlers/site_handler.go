package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/skyreachair/leadfunnel/internal/config"
	"github.com/skyreachair/leadfunnel/internal/dto"
	"github.com/skyreachair/leadfunnel/internal/phone"
)

// SiteHandler serves the public contact details shown on the marketing pages.
type SiteHandler struct {
	resp dto.SiteResponse
}

func NewSiteHandler(cfg *config.Config) *SiteHandler {
	resp := dto.SiteResponse{
		Success:  true,
		Phone:    cfg.PublicPhone,
		PhoneTel: phone.TelURI(cfg.PublicPhone),
		Email:    cfg.PublicEmail,
	}
	if cfg.PostHogKey != "" {
		resp.AnalyticsKey = cfg.PostHogKey
		resp.AnalyticsURL = cfg.PostHogHost
	}
	return &SiteHandler{resp: resp}
}

func (h *SiteHandler) Get(c *fiber.Ctx) error {
	return c.JSON(h.resp)
}
