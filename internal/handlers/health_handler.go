package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/skyreachair/leadfunnel/internal/database"
	"github.com/skyreachair/leadfunnel/internal/dto"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	dbStatus := "connected"
	if err := database.Ping(ctx, h.db); err != nil {
		dbStatus = "disconnected"
	}

	return c.JSON(dto.HealthResponse{
		Status:    "OK",
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Database:  dbStatus,
	})
}
