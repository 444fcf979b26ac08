package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/skyreachair/leadfunnel/internal/dto"
	"github.com/skyreachair/leadfunnel/internal/intake"
	"github.com/skyreachair/leadfunnel/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	recentLeadCount = 5
)

type LeadFilter struct {
	Status string
	Search string
	Page   int
	Limit  int
}

func (f *LeadFilter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	f.Status = strings.TrimSpace(f.Status)
	f.Search = strings.TrimSpace(f.Search)
}

type LeadPage struct {
	Leads []models.Lead
	Page  int
	Limit int
	Total int64
	Pages int
}

// LeadService is the lead repository. Leads are never deleted here.
type LeadService struct {
	db     *gorm.DB
	emails *intake.Validator
	now    func() time.Time
}

func NewLeadService(db *gorm.DB) *LeadService {
	return &LeadService{db: db, emails: intake.NewValidator(), now: time.Now}
}

// SetClock replaces the clock used for stats windows.
func (s *LeadService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *LeadService) Create(ctx context.Context, lead *models.Lead) (*models.Lead, error) {
	lead.FirstName = strings.TrimSpace(lead.FirstName)
	lead.Phone = strings.TrimSpace(lead.Phone)
	lead.Email = strings.TrimSpace(lead.Email)

	var fields []dto.FieldError
	if lead.FirstName == "" {
		fields = append(fields, dto.FieldError{Field: "firstName", Message: intake.MsgNameRequired})
	}
	if lead.Phone == "" {
		fields = append(fields, dto.FieldError{Field: "phone", Message: intake.MsgPhoneRequired})
	}
	if lead.Email != "" && !s.emails.IsEmail(lead.Email) {
		fields = append(fields, dto.FieldError{Field: "email", Message: intake.MsgEmailInvalid})
	}
	if lead.Status == "" {
		lead.Status = models.StatusNew
	}
	if !lead.Status.Valid() {
		fields = append(fields, dto.FieldError{Field: "status", Message: "Invalid status"})
	}
	if len(fields) > 0 {
		return nil, newValidationError("", fields...)
	}

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(lead).Error; err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}
	if lead.Notes == nil {
		lead.Notes = []models.LeadNote{}
	}
	return lead, nil
}

func (s *LeadService) FindByID(ctx context.Context, id string) (*models.Lead, error) {
	leadID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrLeadNotFound
	}

	var lead models.Lead
	err = s.withRefs(s.db.WithContext(ctx)).First(&lead, "id = ?", leadID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLeadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load lead: %w", err)
	}
	return &lead, nil
}

func (s *LeadService) withRefs(db *gorm.DB) *gorm.DB {
	return db.
		Preload("AssignedTo").
		Preload("Notes", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }).
		Preload("Notes.Author")
}

func (s *LeadService) List(ctx context.Context, filter LeadFilter) (*LeadPage, error) {
	filter.normalize()

	query := s.db.WithContext(ctx).Model(&models.Lead{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		term := "%" + escapeLike(strings.ToLower(filter.Search)) + "%"
		query = query.Where(
			`(LOWER(first_name) LIKE ? ESCAPE '\' OR LOWER(last_name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\' OR LOWER(phone) LIKE ? ESCAPE '\')`,
			term, term, term, term,
		)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count leads: %w", err)
	}

	leads := make([]models.Lead, 0, filter.Limit)
	// list rows carry the assignee only; notes load with FindByID
	if err := query.Preload("AssignedTo").
		Order("created_at DESC").
		Order("id DESC").
		Limit(filter.Limit).
		Offset((filter.Page - 1) * filter.Limit).
		Find(&leads).Error; err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}

	return &LeadPage{
		Leads: leads,
		Page:  filter.Page,
		Limit: filter.Limit,
		Total: total,
		Pages: int(math.Ceil(float64(total) / float64(filter.Limit))),
	}, nil
}

// UpdateStatus sets any of the five statuses. There is no transition table.
func (s *LeadService) UpdateStatus(ctx context.Context, id string, status string) (*models.Lead, error) {
	st := models.LeadStatus(strings.TrimSpace(status))
	if !st.Valid() {
		return nil, newValidationError("Invalid status", dto.FieldError{Field: "status", Message: "Invalid status"})
	}
	leadID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrLeadNotFound
	}

	result := s.db.WithContext(ctx).Model(&models.Lead{}).Where("id = ?", leadID).Update("status", st)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrLeadNotFound
	}
	return s.FindByID(ctx, id)
}

func (s *LeadService) AppendNote(ctx context.Context, id string, text string, authorID uuid.UUID) (*models.Lead, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, newValidationError("Note text is required", dto.FieldError{Field: "text", Message: "Note text is required"})
	}
	leadID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrLeadNotFound
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Lead{}).Where("id = ?", leadID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrLeadNotFound
		}
		note := models.LeadNote{LeadID: leadID, Text: text, CreatedByID: authorID}
		if err := tx.Omit(clause.Associations).Create(&note).Error; err != nil {
			return err
		}
		return tx.Model(&models.Lead{}).Where("id = ?", leadID).Update("updated_at", s.now()).Error
	})
	if errors.Is(err, ErrLeadNotFound) {
		return nil, ErrLeadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to append note: %w", err)
	}
	return s.FindByID(ctx, id)
}

// Assign points the lead at an existing user, replacing any previous assignee.
func (s *LeadService) Assign(ctx context.Context, id string, userID string) (*models.Lead, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, newValidationError("User ID is required", dto.FieldError{Field: "userId", Message: "User ID is required"})
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, newValidationError("Invalid user ID", dto.FieldError{Field: "userId", Message: "Invalid user ID"})
	}
	leadID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrLeadNotFound
	}

	var users int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", uid).Count(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if users == 0 {
		return nil, ErrUserNotFound
	}

	result := s.db.WithContext(ctx).Model(&models.Lead{}).Where("id = ?", leadID).Update("assigned_to_id", uid)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to assign lead: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrLeadNotFound
	}
	return s.FindByID(ctx, id)
}

// MarkEmailSent records a successful notification dispatch.
func (s *LeadService) MarkEmailSent(ctx context.Context, id uuid.UUID, messageID string) error {
	return s.db.WithContext(ctx).Model(&models.Lead{}).Where("id = ?", id).Updates(map[string]any{
		"email_sent": true,
		"email_id":   messageID,
	}).Error
}

func (s *LeadService) Stats(ctx context.Context) (dto.Stats, []dto.RecentLead, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	db := s.db.WithContext(ctx)
	stats := dto.Stats{StatusBreakdown: map[string]int64{}}

	counts := []struct {
		dst   *int64
		query func(*gorm.DB) *gorm.DB
	}{
		{&stats.Total, func(q *gorm.DB) *gorm.DB { return q }},
		{&stats.New, func(q *gorm.DB) *gorm.DB { return q.Where("status = ?", models.StatusNew) }},
		{&stats.Today, func(q *gorm.DB) *gorm.DB { return q.Where("created_at >= ?", today) }},
		{&stats.ThisMonth, func(q *gorm.DB) *gorm.DB { return q.Where("created_at >= ?", monthStart) }},
	}
	for _, c := range counts {
		if err := c.query(db.Model(&models.Lead{})).Count(c.dst).Error; err != nil {
			return dto.Stats{}, nil, fmt.Errorf("failed to count leads: %w", err)
		}
	}

	var groups []struct {
		Status string
		Count  int64
	}
	if err := db.Model(&models.Lead{}).Select("status, COUNT(*) AS count").Group("status").Scan(&groups).Error; err != nil {
		return dto.Stats{}, nil, fmt.Errorf("failed to group leads: %w", err)
	}
	for _, g := range groups {
		stats.StatusBreakdown[g.Status] = g.Count
	}

	var recent []models.Lead
	if err := db.Select("id", "first_name", "last_name", "status", "created_at").
		Order("created_at DESC").
		Limit(recentLeadCount).
		Find(&recent).Error; err != nil {
		return dto.Stats{}, nil, fmt.Errorf("failed to load recent leads: %w", err)
	}

	out := make([]dto.RecentLead, 0, len(recent))
	for _, l := range recent {
		out = append(out, dto.RecentLead{
			ID:        l.ID,
			FirstName: l.FirstName,
			LastName:  l.LastName,
			Status:    l.Status,
			CreatedAt: l.CreatedAt,
		})
	}
	return stats, out, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
