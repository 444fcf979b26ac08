package services

import (
	"context"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/skyreachair/leadfunnel/internal/config"
	"github.com/skyreachair/leadfunnel/internal/database/dbtest"
	"github.com/skyreachair/leadfunnel/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:  "test-secret",
		SessionTTL: time.Hour,
	}
}

func newLeadService(t *testing.T) (*LeadService, *gorm.DB) {
	t.Helper()
	db := dbtest.New(t)
	return NewLeadService(db), db
}

func createUser(t *testing.T, db *gorm.DB, name, email string, role models.Role) *models.User {
	t.Helper()
	auth := NewAuthService(db, testConfig(), nil)
	u, err := auth.CreateUser(context.Background(), CreateUserInput{
		Name: name, Email: email, Password: "correct-horse", Role: role,
	})
	require.NoError(t, err)
	return u
}

func mustCreateLead(t *testing.T, s *LeadService, l *models.Lead) *models.Lead {
	t.Helper()
	out, err := s.Create(context.Background(), l)
	require.NoError(t, err)
	return out
}

// seedLeads stores n fake leads one minute apart starting at base, oldest first.
func seedLeads(t *testing.T, s *LeadService, n int, base time.Time) []*models.Lead {
	t.Helper()
	faker := gofakeit.New(42)
	out := make([]*models.Lead, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, mustCreateLead(t, s, &models.Lead{
			FirstName: "Seed" + faker.FirstName(),
			LastName:  faker.LastName(),
			Email:     faker.Email(),
			Phone:     faker.Phone(),
			Zip:       faker.Zip(),
			Source:    "seed",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	return out
}
