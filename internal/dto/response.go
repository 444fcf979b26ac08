package dto

// FieldError is one per-field validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse is the failure envelope shared by every endpoint.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

func Fail(message string, errs ...FieldError) ErrorResponse {
	return ErrorResponse{Success: false, Message: message, Errors: errs}
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Database  string `json:"database"`
}

type SiteResponse struct {
	Success      bool   `json:"success"`
	Phone        string `json:"phone"`
	PhoneTel     string `json:"phoneTel"`
	Email        string `json:"email"`
	AnalyticsKey string `json:"analyticsKey,omitempty"`
	AnalyticsURL string `json:"analyticsHost,omitempty"`
}
