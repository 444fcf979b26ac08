package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/skyreachair/leadfunnel/internal/models"
)

type ContactData struct {
	LeadID uuid.UUID `json:"leadId"`
}

type ContactResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    ContactData `json:"data"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type AddNoteRequest struct {
	Text string `json:"text"`
}

type AssignRequest struct {
	UserID string `json:"userId"`
}

type LeadResponse struct {
	Success bool         `json:"success"`
	Lead    *models.Lead `json:"lead"`
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

type LeadListResponse struct {
	Success    bool          `json:"success"`
	Leads      []models.Lead `json:"leads"`
	Pagination Pagination    `json:"pagination"`
}

type Stats struct {
	Total           int64            `json:"total"`
	New             int64            `json:"new"`
	Today           int64            `json:"today"`
	ThisMonth       int64            `json:"thisMonth"`
	StatusBreakdown map[string]int64 `json:"statusBreakdown"`
}

type RecentLead struct {
	ID        uuid.UUID         `json:"id"`
	FirstName string            `json:"firstName"`
	LastName  string            `json:"lastName"`
	Status    models.LeadStatus `json:"status"`
	CreatedAt time.Time         `json:"createdAt"`
}

type StatsResponse struct {
	Success     bool         `json:"success"`
	Stats       Stats        `json:"stats"`
	RecentLeads []RecentLead `json:"recentLeads"`
}
