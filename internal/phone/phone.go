// Package phone formats North American phone numbers for display and dialing.
package phone

import (
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"
)

const DefaultRegion = "US"

// Digits strips everything but 0-9.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Display renders a valid number in national format, e.g. (650) 253-0000.
// Anything that does not parse as a valid number is returned trimmed.
func Display(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	parsed, err := phonenumbers.Parse(raw, DefaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return raw
	}
	return phonenumbers.Format(parsed, phonenumbers.NATIONAL)
}

// TelURI builds a tel: link. Ten digit numbers get the +1 country code.
func TelURI(raw string) string {
	digits := Digits(raw)
	switch {
	case digits == "":
		return ""
	case len(digits) == 10:
		return "tel:+1" + digits
	case len(digits) == 11 && digits[0] == '1':
		return "tel:+" + digits
	}
	if parsed, err := phonenumbers.Parse(raw, DefaultRegion); err == nil {
		return "tel:" + phonenumbers.Format(parsed, phonenumbers.E164)
	}
	return "tel:" + digits
}
