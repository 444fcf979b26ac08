package handlers

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/skyreachair/leadfunnel/internal/dto"
	"github.com/skyreachair/leadfunnel/internal/metrics"
	"github.com/skyreachair/leadfunnel/internal/middleware"
	"github.com/skyreachair/leadfunnel/internal/services"
)

// DashboardHandler serves the authenticated lead management API.
type DashboardHandler struct {
	leads   *services.LeadService
	users   *services.UserService
	exports *services.ExportService
	metrics *metrics.Metrics
}

func NewDashboardHandler(
	leads *services.LeadService,
	users *services.UserService,
	exports *services.ExportService,
	m *metrics.Metrics,
) *DashboardHandler {
	return &DashboardHandler{leads: leads, users: users, exports: exports, metrics: m}
}

func (h *DashboardHandler) Stats(c *fiber.Ctx) error {
	stats, recent, err := h.leads.Stats(c.UserContext())
	if err != nil {
		return h.fail(c, err, "stats")
	}
	return c.JSON(dto.StatsResponse{Success: true, Stats: stats, RecentLeads: recent})
}

func (h *DashboardHandler) ListLeads(c *fiber.Ctx) error {
	page, err := h.leads.List(c.UserContext(), leadFilter(c))
	if err != nil {
		return h.fail(c, err, "list_leads")
	}
	return c.JSON(dto.LeadListResponse{
		Success: true,
		Leads:   page.Leads,
		Pagination: dto.Pagination{
			Page:  page.Page,
			Limit: page.Limit,
			Total: page.Total,
			Pages: page.Pages,
		},
	})
}

func (h *DashboardHandler) GetLead(c *fiber.Ctx) error {
	lead, err := h.leads.FindByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err, "get_lead")
	}
	return c.JSON(dto.LeadResponse{Success: true, Lead: lead})
}

func (h *DashboardHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Invalid request body"))
	}

	lead, err := h.leads.UpdateStatus(c.UserContext(), c.Params("id"), req.Status)
	if err != nil {
		return h.fail(c, err, "update_status")
	}
	h.metrics.RecordStatusChange(string(lead.Status))
	return c.JSON(dto.LeadResponse{Success: true, Lead: lead})
}

func (h *DashboardHandler) AddNote(c *fiber.Ctx) error {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Fail("Unauthorized"))
	}

	var req dto.AddNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Invalid request body"))
	}

	lead, err := h.leads.AppendNote(c.UserContext(), c.Params("id"), req.Text, p.UserID)
	if err != nil {
		return h.fail(c, err, "add_note")
	}
	return c.JSON(dto.LeadResponse{Success: true, Lead: lead})
}

func (h *DashboardHandler) Assign(c *fiber.Ctx) error {
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Invalid request body"))
	}

	lead, err := h.leads.Assign(c.UserContext(), c.Params("id"), req.UserID)
	if err != nil {
		return h.fail(c, err, "assign")
	}
	return c.JSON(dto.LeadResponse{Success: true, Lead: lead})
}

func (h *DashboardHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.users.ListActive(c.UserContext())
	if err != nil {
		return h.fail(c, err, "list_users")
	}
	out := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, dto.NewUserResponse(&users[i]))
	}
	return c.JSON(dto.UsersResponse{Success: true, Users: out})
}

// Export downloads the filtered lead list as CSV or XLSX.
func (h *DashboardHandler) Export(c *fiber.Ctx) error {
	file, err := h.exports.Export(c.UserContext(), c.Query("format"), leadFilter(c))
	if err != nil {
		if errors.Is(err, services.ErrUnsupportedFormat) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.Fail(err.Error()))
		}
		return h.fail(c, err, "export")
	}

	c.Set(fiber.HeaderContentType, file.ContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+file.Filename+`"`)
	c.Set("X-Export-Rows", strconv.Itoa(file.Rows))
	return c.Send(file.Body)
}

func leadFilter(c *fiber.Ctx) services.LeadFilter {
	return services.LeadFilter{
		Status: c.Query("status"),
		Search: c.Query("search"),
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", services.DefaultPageSize),
	}
}

func (h *DashboardHandler) fail(c *fiber.Ctx, err error, action string) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail(verr.Error(), verr.Fields...))
	case errors.Is(err, services.ErrLeadNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.Fail("Lead not found"))
	case errors.Is(err, services.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.Fail("User not found"))
	}

	attrs := []any{"path", c.Path(), "action", action, "error", err.Error()}
	if id := c.Params("id"); id != "" {
		attrs = append(attrs, "lead_id", id)
	}
	if p, ok := middleware.GetPrincipal(c); ok {
		attrs = append(attrs, "user_id", p.UserID.String())
	}
	slog.Error("dashboard request failed", attrs...)
	return c.Status(fiber.StatusInternalServerError).JSON(dto.Fail("Server error"))
}
