package funnel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sendgrid/rest"
	"github.com/skyreachair/leadfunnel/internal/dto"
)

const (
	MsgFixFields    = "Please fix the highlighted fields below."
	MsgTryAgain     = "Please fix the errors above and try again."
	MsgNetworkError = "Network error. Please check your connection and try again."
	msgFullName     = "Please enter your full name (first and last name, e.g. John Smith)."
)

// Result is the intake API's answer to a submission.
type Result struct {
	Success bool
	Message string
	LeadID  string
	Errors  []dto.FieldError
}

// Submitter delivers a finished funnel to the intake API.
type Submitter interface {
	Submit(ctx context.Context, p Payload) (*Result, error)
}

// HTTPSubmitter posts the payload as JSON to <BaseURL>/api/contact.
type HTTPSubmitter struct {
	BaseURL string
	Client  *rest.Client
}

func NewHTTPSubmitter(baseURL string) *HTTPSubmitter {
	return &HTTPSubmitter{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &rest.Client{HTTPClient: &http.Client{Timeout: 15 * time.Second}},
	}
}

type intakeEnvelope struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Errors  []dto.FieldError `json:"errors"`
	Data    struct {
		LeadID string `json:"leadId"`
	} `json:"data"`
}

func (s *HTTPSubmitter) Submit(ctx context.Context, p Payload) (*Result, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	resp, err := s.Client.SendWithContext(ctx, rest.Request{
		Method:  rest.Post,
		BaseURL: s.BaseURL + "/api/contact",
		Headers: map[string]string{
			"Content-Type": "application/json",
			"Accept":       "application/json",
		},
		Body: body,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reach intake API: %w", err)
	}

	var env intakeEnvelope
	if err := json.Unmarshal([]byte(resp.Body), &env); err != nil {
		return nil, fmt.Errorf("unexpected intake response (status %d): %w", resp.StatusCode, err)
	}
	return &Result{
		Success: env.Success,
		Message: env.Message,
		LeadID:  env.Data.LeadID,
		Errors:  env.Errors,
	}, nil
}

var friendlyMessages = map[string]string{
	"firstName": msgFullName,
	"lastName":  msgFullName,
	"email":     "Please enter a valid email address.",
	"phone":     "Please enter a valid phone number (at least 10 digits).",
	"zip":       "Please enter a valid 5-digit ZIP code.",
}

// FriendlyErrors maps server field errors onto the contact form. First and
// last name both land on the single name field.
func FriendlyErrors(errs []dto.FieldError) map[string]string {
	out := map[string]string{}
	for _, e := range errs {
		if e.Field == "" {
			continue
		}
		if e.Field == "firstName" || e.Field == "lastName" {
			out["name"] = msgFullName
			continue
		}
		if msg, ok := friendlyMessages[e.Field]; ok {
			out[e.Field] = msg
		} else {
			out[e.Field] = e.Message
		}
	}
	return out
}
