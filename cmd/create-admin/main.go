package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/skyreachair/leadfunnel/internal/config"
	"github.com/skyreachair/leadfunnel/internal/database"
	"github.com/skyreachair/leadfunnel/internal/logging"
	"github.com/skyreachair/leadfunnel/internal/models"
	"github.com/skyreachair/leadfunnel/internal/services"
)

const defaultPassword = "changeme123"

func main() {
	email := flag.String("email", envOr("ADMIN_EMAIL", "admin@skyreachair.com"), "login email")
	name := flag.String("name", "Admin User", "display name")
	password := flag.String("password", envOr("ADMIN_PASSWORD", defaultPassword), "initial password")
	role := flag.String("role", envOr("ADMIN_ROLE", string(models.RoleAdmin)), "admin, manager or technician")
	flag.Parse()

	cfg := config.Load()
	logging.Setup(cfg.LogLevel)

	if *password == defaultPassword {
		slog.Warn("using the default password, change it after first login", "email", *email)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	auth := services.NewAuthService(db, cfg, nil)
	user, err := auth.CreateUser(ctx, services.CreateUserInput{
		Name:     *name,
		Email:    *email,
		Password: *password,
		Role:     models.Role(*role),
	})

	var verr *services.ValidationError
	switch {
	case errors.Is(err, services.ErrEmailTaken):
		slog.Info("user already exists, nothing to do", "email", *email)
		return
	case errors.As(err, &verr):
		for _, f := range verr.Fields {
			fmt.Fprintf(os.Stderr, "%s: %s\n", f.Field, f.Message)
		}
		os.Exit(2)
	case err != nil:
		slog.Error("failed to create user", "error", err)
		os.Exit(1)
	}

	slog.Info("user created", "id", user.ID, "email", user.Email, "role", user.Role)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
