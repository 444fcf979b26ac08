package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/skyreachair/leadfunnel/internal/config"
	"github.com/skyreachair/leadfunnel/internal/dto"
	"github.com/skyreachair/leadfunnel/internal/intake"
	"github.com/skyreachair/leadfunnel/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const MinPasswordLength = 6

// Principal is the authenticated dashboard operator for one request.
type Principal struct {
	UserID    uuid.UUID
	SessionID uuid.UUID
	Name      string
	Email     string
	Role      models.Role
	ExpiresAt time.Time
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == models.RoleAdmin
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

type AuthService struct {
	db       *gorm.DB
	cfg      *config.Config
	sessions *SessionStore
	emails   *intake.Validator
	now      func() time.Time
}

func NewAuthService(db *gorm.DB, cfg *config.Config, sessions *SessionStore) *AuthService {
	return &AuthService{
		db:       db,
		cfg:      cfg,
		sessions: sessions,
		emails:   intake.NewValidator(),
		now:      time.Now,
	}
}

func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest, userAgent, ip string) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}

	now := s.now()
	session := models.Session{
		UserID:    user.ID,
		UserAgent: truncate(userAgent, 255),
		IP:        truncate(ip, 64),
		ExpiresAt: now.Add(s.cfg.SessionTTL),
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&user).Update("last_login_at", now).Error; err != nil {
		slog.Warn("failed to record last login", "user_id", user.ID.String(), "error", err)
	}
	user.LastLoginAt = &now

	token, err := s.generateToken(&user, &session, now)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: session.ExpiresAt, User: &user}, nil
}

func (s *AuthService) generateToken(user *models.User, session *models.Session, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"sid":   session.ID.String(),
		"email": user.Email,
		"role":  string(user.Role),
		"iat":   now.Unix(),
		"exp":   session.ExpiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// Authenticate resolves token claims to a live session and an active user.
func (s *AuthService) Authenticate(ctx context.Context, sub, sid string) (*Principal, error) {
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, ErrInvalidSession
	}
	sessionID, err := uuid.Parse(sid)
	if err != nil {
		return nil, ErrInvalidSession
	}

	revoked, err := s.sessions.IsRevoked(ctx, sessionID.String())
	if err != nil {
		slog.Warn("session cache lookup failed", "error", err)
	}
	if revoked {
		return nil, ErrInvalidSession
	}

	var session models.Session
	if err := s.db.WithContext(ctx).First(&session, "id = ? AND user_id = ?", sessionID, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if !session.Active(s.now()) {
		return nil, ErrInvalidSession
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}

	return &Principal{
		UserID:    user.ID,
		SessionID: session.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, p *Principal) error {
	if err := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ?", p.SessionID).
		Update("revoked", true).Error; err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	if err := s.sessions.Revoke(ctx, p.SessionID.String(), p.ExpiresAt.Sub(s.now())); err != nil {
		slog.Warn("session cache revoke failed", "error", err)
	}
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     models.Role
}

// CreateUser adds a dashboard operator. Emails are unique.
func (s *AuthService) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Role == "" {
		in.Role = models.RoleAdmin
	}

	var fields []dto.FieldError
	if in.Name == "" {
		fields = append(fields, dto.FieldError{Field: "name", Message: "Name is required"})
	}
	if !s.emails.IsEmail(in.Email) {
		fields = append(fields, dto.FieldError{Field: "email", Message: "Valid email is required"})
	}
	if len(in.Password) < MinPasswordLength {
		fields = append(fields, dto.FieldError{Field: "password", Message: fmt.Sprintf("Password must be at least %d characters", MinPasswordLength)})
	}
	if !in.Role.Valid() {
		fields = append(fields, dto.FieldError{Field: "role", Message: "Role must be admin, manager, or technician"})
	}
	if len(fields) > 0 {
		return nil, newValidationError("", fields...)
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", in.Email).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: string(hash),
		Role:     in.Role,
		IsActive: true,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

// truncate caps s at n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
