package handlers

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/skyreachair/leadfunnel/internal/dto"
	"github.com/skyreachair/leadfunnel/internal/intake"
	"github.com/skyreachair/leadfunnel/internal/services"
)

const (
	contactSuccessMessage = "Thank you! Your request has been submitted successfully."
	contactErrorMessage   = "An error occurred while processing your request."
)

type ContactHandler struct {
	intakeService *services.IntakeService
}

func NewContactHandler(intakeService *services.IntakeService) *ContactHandler {
	return &ContactHandler{intakeService: intakeService}
}

// Submit accepts funnel and landing page submissions.
func (h *ContactHandler) Submit(c *fiber.Ctx) error {
	return h.submit(c, intake.Relaxed)
}

// SubmitWebsite accepts the main site contact form, which also requires a
// last name and an email address.
func (h *ContactHandler) SubmitWebsite(c *fiber.Ctx) error {
	return h.submit(c, intake.Strict)
}

func (h *ContactHandler) submit(c *fiber.Ctx, profile intake.Profile) error {
	body, err := decodeBody(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Invalid request body"))
	}

	lead, err := h.intakeService.Submit(c.UserContext(), profile, intake.FromMap(body))
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.Fail(verr.Message, verr.Fields...))
		}
		slog.Error("contact submission failed", "path", c.Path(), "action", "intake", "error", err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Fail(contactErrorMessage))
	}

	return c.JSON(dto.ContactResponse{
		Success: true,
		Message: contactSuccessMessage,
		Data:    dto.ContactData{LeadID: lead.ID},
	})
}

// decodeBody reads a JSON, urlencoded or multipart body into a flat map.
func decodeBody(c *fiber.Ctx) (map[string]any, error) {
	body := map[string]any{}
	ctype := strings.ToLower(string(c.Request().Header.ContentType()))

	switch {
	case strings.HasPrefix(ctype, fiber.MIMEApplicationForm):
		c.Request().PostArgs().VisitAll(func(k, v []byte) {
			body[string(k)] = string(v)
		})
	case strings.HasPrefix(ctype, fiber.MIMEMultipartForm):
		form, err := c.MultipartForm()
		if err != nil {
			return nil, err
		}
		for k, vs := range form.Value {
			if len(vs) > 0 {
				body[k] = vs[0]
			}
		}
	default:
		if len(c.Body()) == 0 {
			return body, nil
		}
		if err := c.App().Config().JSONDecoder(c.Body(), &body); err != nil {
			return nil, err
		}
	}
	return body, nil
}
