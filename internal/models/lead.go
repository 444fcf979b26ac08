package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type LeadStatus string

const (
	StatusNew       LeadStatus = "new"
	StatusContacted LeadStatus = "contacted"
	StatusScheduled LeadStatus = "scheduled"
	StatusCompleted LeadStatus = "completed"
	StatusCancelled LeadStatus = "cancelled"
)

// LeadStatuses lists every workflow status in pipeline order.
var LeadStatuses = []LeadStatus{StatusNew, StatusContacted, StatusScheduled, StatusCompleted, StatusCancelled}

func (s LeadStatus) Valid() bool {
	for _, st := range LeadStatuses {
		if s == st {
			return true
		}
	}
	return false
}

const DefaultLeadSource = "website"

type Lead struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FirstName string    `gorm:"not null;size:100" json:"firstName"`
	LastName  string    `gorm:"not null;size:100;default:''" json:"lastName"`
	Email     string    `gorm:"size:255;index;default:''" json:"email"`
	Phone     string    `gorm:"not null;size:50" json:"phone"`
	Zip       string    `gorm:"size:20" json:"zip"`

	SystemType   string `gorm:"size:100" json:"systemType"`
	FilterSize   string `gorm:"size:100" json:"filterSize"`
	LastService  string `gorm:"size:100" json:"lastService"`
	Issues       string `gorm:"size:255" json:"issues"`
	PropertyType string `gorm:"size:100" json:"propertyType"`
	Timing       string `gorm:"size:100" json:"timing"`
	Service      string `gorm:"size:100" json:"service"`
	Message      string `gorm:"type:text" json:"message"`

	FunnelAnswers datatypes.JSONType[map[string]string] `json:"funnelAnswers"`

	Status       LeadStatus `gorm:"size:20;not null;default:'new';index" json:"status"`
	Notes        []LeadNote `gorm:"foreignKey:LeadID" json:"notes,omitempty"`
	AssignedToID *uuid.UUID `gorm:"type:uuid;index" json:"-"`
	AssignedTo   *UserRef   `gorm:"foreignKey:AssignedToID" json:"assignedTo"`
	Source       string     `gorm:"size:50;not null;default:'website'" json:"source"`

	EmailSent bool   `gorm:"not null;default:false" json:"emailSent"`
	EmailID   string `gorm:"size:255" json:"emailId,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (l *Lead) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.Status == "" {
		l.Status = StatusNew
	}
	if l.Source == "" {
		l.Source = DefaultLeadSource
	}
	return nil
}

// DisplayName joins first and last name, skipping an empty last name.
func (l *Lead) DisplayName() string {
	return strings.TrimSpace(l.FirstName + " " + l.LastName)
}

// Answers returns the funnel answer map, never nil.
func (l *Lead) Answers() map[string]string {
	m := l.FunnelAnswers.Data()
	if m == nil {
		return map[string]string{}
	}
	return m
}

// LeadNote is an append-only operator note. Autoincrement ids keep append order.
type LeadNote struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	LeadID      uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	CreatedByID uuid.UUID `gorm:"type:uuid;not null" json:"-"`
	Author      *UserRef  `gorm:"foreignKey:CreatedByID" json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
}
