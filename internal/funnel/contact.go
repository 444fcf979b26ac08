package funnel

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/skyreachair/leadfunnel/internal/phone"
)

const (
	MsgNameRequired   = "Please enter your full name"
	MsgNameTwoParts   = "Please enter both first and last name (e.g., John Smith)"
	MsgPhoneRequired  = "Please enter your phone number"
	MsgPhoneInvalid   = "Please enter a valid phone number (at least 10 digits)"
	MsgZipRequired    = "Please enter your ZIP code"
	MsgZipInvalid     = "Please enter a valid 5-digit ZIP code"
	minPhoneDigits    = 10
	contactErrorsText = "invalid contact details"
)

var (
	zipPattern   = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	phonePattern = regexp.MustCompile(`^[\d\-()+.]+$`)
)

// Contact is what the visitor types on the last step.
type Contact struct {
	Name  string
	Phone string
	Email string
	Zip   string
}

// ContactError reports why the contact step was not accepted. Fields is keyed
// by form field: name, phone, email, zip.
type ContactError struct {
	Message string
	Fields  map[string]string
}

func (e *ContactError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return contactErrorsText + ": " + strings.Join(keys, ", ")
}

// ValidateContact checks the contact form before anything is sent.
func ValidateContact(c Contact) map[string]string {
	errs := map[string]string{}

	name := strings.TrimSpace(c.Name)
	switch {
	case name == "":
		errs["name"] = MsgNameRequired
	case len(strings.Fields(name)) < 2:
		errs["name"] = MsgNameTwoParts
	}

	compact := strings.Join(strings.Fields(c.Phone), "")
	switch {
	case compact == "":
		errs["phone"] = MsgPhoneRequired
	case !phonePattern.MatchString(compact) || len(phone.Digits(compact)) < minPhoneDigits:
		errs["phone"] = MsgPhoneInvalid
	}

	zip := strings.TrimSpace(c.Zip)
	switch {
	case zip == "":
		errs["zip"] = MsgZipRequired
	case !zipPattern.MatchString(zip):
		errs["zip"] = MsgZipInvalid
	}

	return errs
}

// Payload is the intake request body produced by a finished funnel.
type Payload struct {
	FirstName     string            `json:"firstName"`
	LastName      string            `json:"lastName"`
	Email         string            `json:"email"`
	Phone         string            `json:"phone"`
	Zip           string            `json:"zip"`
	SystemType    string            `json:"systemType"`
	FilterSize    string            `json:"filterSize"`
	LastService   string            `json:"lastService"`
	Issues        string            `json:"issues"`
	PropertyType  string            `json:"propertyType"`
	Timing        string            `json:"timing"`
	FunnelAnswers map[string]string `json:"funnelAnswers"`
	Source        string            `json:"source"`
}

// BuildPayload splits the full name and maps step answers onto lead fields.
// The "other" filter answer is replaced by the custom size.
func BuildPayload(answers map[string]string, customFilterSize string, c Contact) Payload {
	var first, last string
	if parts := strings.Fields(c.Name); len(parts) > 0 {
		first = parts[0]
		last = strings.Join(parts[1:], " ")
	}

	answer := func(id int) string { return answers[strconv.Itoa(id)] }

	filter := answer(StepFilterSize)
	if filter == FilterOther {
		filter = strings.TrimSpace(customFilterSize)
	}

	copied := make(map[string]string, len(answers))
	for k, v := range answers {
		copied[k] = v
	}

	return Payload{
		FirstName:     first,
		LastName:      last,
		Email:         strings.TrimSpace(c.Email),
		Phone:         strings.TrimSpace(c.Phone),
		Zip:           strings.TrimSpace(c.Zip),
		SystemType:    answer(StepSystemType),
		FilterSize:    filter,
		LastService:   answer(StepLastService),
		Issues:        answer(StepIssues),
		PropertyType:  answer(StepPropertyType),
		Timing:        answer(StepTiming),
		FunnelAnswers: copied,
		Source:        Source,
	}
}
