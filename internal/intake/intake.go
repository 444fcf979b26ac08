// Package intake validates and normalizes inbound lead submissions.
//
// Two profiles share one validator. Relaxed is used by the funnel and landing
// pages and only insists on a first name and a phone number. Strict is the
// older website form contract, which also requires a last name and an email.
package intake

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/skyreachair/leadfunnel/internal/dto"
	"github.com/skyreachair/leadfunnel/internal/models"
	"gorm.io/datatypes"
)

type Profile int

const (
	Relaxed Profile = iota
	Strict
)

func (p Profile) String() string {
	if p == Strict {
		return "strict"
	}
	return "relaxed"
}

const (
	MsgNameRequired     = "Name is required"
	MsgLastNameRequired = "Last name is required"
	MsgPhoneRequired    = "Phone number is required"
	MsgEmailRequired    = "Valid email is required"
	MsgEmailInvalid     = "Please enter a valid email address"
)

// Submission is a raw intake body: named lead fields plus whatever else the
// client sent. FunnelAnswers is nil when the client did not send that key.
type Submission struct {
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	Zip          string
	SystemType   string
	FilterSize   string
	LastService  string
	Issues       string
	PropertyType string
	Timing       string
	Service      string
	Message      string
	Source       string

	FunnelAnswers map[string]string
	Extra         map[string]string
}

// Payload is a validated, normalized submission ready to be stored.
type Payload struct {
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	Zip          string
	SystemType   string
	FilterSize   string
	LastService  string
	Issues       string
	PropertyType string
	Timing       string
	Service      string
	Message      string
	Source       string

	FunnelAnswers map[string]string
}

func (p Payload) Lead() *models.Lead {
	answers := p.FunnelAnswers
	if answers == nil {
		answers = map[string]string{}
	}
	return &models.Lead{
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		Email:         p.Email,
		Phone:         p.Phone,
		Zip:           p.Zip,
		SystemType:    p.SystemType,
		FilterSize:    p.FilterSize,
		LastService:   p.LastService,
		Issues:        p.Issues,
		PropertyType:  p.PropertyType,
		Timing:        p.Timing,
		Service:       p.Service,
		Message:       p.Message,
		FunnelAnswers: datatypes.NewJSONType(answers),
		Status:        models.StatusNew,
		Source:        p.Source,
	}
}

var namedKeys = map[string]func(*Submission, string){
	"firstName":    func(s *Submission, v string) { s.FirstName = v },
	"lastName":     func(s *Submission, v string) { s.LastName = v },
	"email":        func(s *Submission, v string) { s.Email = v },
	"phone":        func(s *Submission, v string) { s.Phone = v },
	"zip":          func(s *Submission, v string) { s.Zip = v },
	"systemType":   func(s *Submission, v string) { s.SystemType = v },
	"filterSize":   func(s *Submission, v string) { s.FilterSize = v },
	"lastService":  func(s *Submission, v string) { s.LastService = v },
	"issues":       func(s *Submission, v string) { s.Issues = v },
	"propertyType": func(s *Submission, v string) { s.PropertyType = v },
	"timing":       func(s *Submission, v string) { s.Timing = v },
	"service":      func(s *Submission, v string) { s.Service = v },
	"message":      func(s *Submission, v string) { s.Message = v },
	"source":       func(s *Submission, v string) { s.Source = v },
}

// FromMap builds a Submission from a decoded JSON object or form body.
func FromMap(body map[string]any) Submission {
	sub := Submission{Extra: map[string]string{}}
	for key, raw := range body {
		if key == "funnelAnswers" {
			if obj, ok := raw.(map[string]any); ok {
				sub.FunnelAnswers = make(map[string]string, len(obj))
				for k, v := range obj {
					sub.FunnelAnswers[k] = stringify(v)
				}
				continue
			}
			if raw == nil {
				continue
			}
		}
		if set, ok := namedKeys[key]; ok {
			set(&sub, stringify(raw))
			continue
		}
		sub.Extra[key] = stringify(raw)
	}
	return sub
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// IsEmail reports whether s is a syntactically valid address.
func (v *Validator) IsEmail(s string) bool {
	return v.validate.Var(s, "required,email") == nil
}

// Validate checks a submission against the profile. A non-empty error list
// means the submission must not be stored.
func (v *Validator) Validate(p Profile, sub Submission) (Payload, []dto.FieldError) {
	out := Payload{
		FirstName:    strings.TrimSpace(sub.FirstName),
		LastName:     strings.TrimSpace(sub.LastName),
		Email:        strings.ToLower(strings.TrimSpace(sub.Email)),
		Phone:        strings.TrimSpace(sub.Phone),
		Zip:          strings.TrimSpace(sub.Zip),
		SystemType:   strings.TrimSpace(sub.SystemType),
		FilterSize:   strings.TrimSpace(sub.FilterSize),
		LastService:  strings.TrimSpace(sub.LastService),
		Issues:       strings.TrimSpace(sub.Issues),
		PropertyType: strings.TrimSpace(sub.PropertyType),
		Timing:       strings.TrimSpace(sub.Timing),
		Service:      strings.TrimSpace(sub.Service),
		Message:      strings.TrimSpace(sub.Message),
		Source:       strings.TrimSpace(sub.Source),
	}

	var errs []dto.FieldError
	if out.FirstName == "" {
		errs = append(errs, dto.FieldError{Field: "firstName", Message: MsgNameRequired})
	}
	switch p {
	case Strict:
		if out.LastName == "" {
			errs = append(errs, dto.FieldError{Field: "lastName", Message: MsgLastNameRequired})
		}
		if !v.IsEmail(out.Email) {
			errs = append(errs, dto.FieldError{Field: "email", Message: MsgEmailRequired})
		}
	default:
		if out.Email != "" && !v.IsEmail(out.Email) {
			errs = append(errs, dto.FieldError{Field: "email", Message: MsgEmailInvalid})
		}
	}
	if out.Phone == "" {
		errs = append(errs, dto.FieldError{Field: "phone", Message: MsgPhoneRequired})
	}
	if len(errs) > 0 {
		return Payload{}, errs
	}

	if sub.FunnelAnswers != nil {
		out.FunnelAnswers = copyMap(sub.FunnelAnswers)
	} else {
		out.FunnelAnswers = copyMap(sub.Extra)
	}
	if out.Source == "" {
		out.Source = models.DefaultLeadSource
	}
	return out, nil
}

// Summary renders field errors as one human readable sentence.
func Summary(errs []dto.FieldError) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Field+": "+e.Message)
	}
	return "Please fix the following: " + strings.Join(parts, ", ")
}

func copyMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// SortedKeys is used when rendering answer maps in a stable order.
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
