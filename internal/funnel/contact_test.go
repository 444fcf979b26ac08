package funnel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validContact() Contact {
	return Contact{Name: "John Smith", Phone: "(555) 123-4567", Email: "john@example.com", Zip: "12345"}
}

func TestValidateContact(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Contact)
		field  string
		msg    string
	}{
		{"valid", func(*Contact) {}, "", ""},
		{"single word name", func(c *Contact) { c.Name = "John" }, "name", MsgNameTwoParts},
		{"blank name", func(c *Contact) { c.Name = "   " }, "name", MsgNameRequired},
		{"short phone", func(c *Contact) { c.Phone = "555-1234" }, "phone", MsgPhoneInvalid},
		{"letters in phone", func(c *Contact) { c.Phone = "555-CALL-NOW1" }, "phone", MsgPhoneInvalid},
		{"missing phone", func(c *Contact) { c.Phone = "" }, "phone", MsgPhoneRequired},
		{"dotted phone", func(c *Contact) { c.Phone = "555.123.4567" }, "", ""},
		{"short zip", func(c *Contact) { c.Zip = "1234" }, "zip", MsgZipInvalid},
		{"missing zip", func(c *Contact) { c.Zip = "" }, "zip", MsgZipRequired},
		{"zip plus four", func(c *Contact) { c.Zip = "12345-6789" }, "", ""},
		{"email optional", func(c *Contact) { c.Email = "" }, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validContact()
			tt.mutate(&c)
			errs := ValidateContact(c)
			if tt.field == "" {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Equal(t, tt.msg, errs[tt.field])
		})
	}
}

func TestBuildPayload(t *testing.T) {
	answers := map[string]string{
		"1": "gas-furnace",
		"2": FilterOther,
		"3": "over-year",
		"4": "strange-noises",
		"5": "townhouse",
		"6": "asap",
	}

	p := BuildPayload(answers, " 18x24x1 ", Contact{Name: "  Mary Ann  Lee ", Phone: "5551234567", Zip: "02134"})

	assert.Equal(t, "Mary", p.FirstName)
	assert.Equal(t, "Ann Lee", p.LastName)
	assert.Equal(t, "gas-furnace", p.SystemType)
	assert.Equal(t, "18x24x1", p.FilterSize)
	assert.Equal(t, "over-year", p.LastService)
	assert.Equal(t, "strange-noises", p.Issues)
	assert.Equal(t, "townhouse", p.PropertyType)
	assert.Equal(t, "asap", p.Timing)
	assert.Equal(t, Source, p.Source)
	assert.Equal(t, FilterOther, p.FunnelAnswers["2"])

	answers["1"] = "changed"
	assert.Equal(t, "gas-furnace", p.FunnelAnswers["1"])
}

func TestBuildPayloadKeepsCatalogFilter(t *testing.T) {
	p := BuildPayload(map[string]string{"2": "16x25x1"}, "ignored", validContact())
	assert.Equal(t, "16x25x1", p.FilterSize)
}

func TestContactErrorMessage(t *testing.T) {
	err := &ContactError{Fields: map[string]string{"zip": MsgZipInvalid, "name": MsgNameTwoParts}}
	assert.Equal(t, "invalid contact details: name, zip", err.Error())

	err.Message = MsgFixFields
	assert.Equal(t, MsgFixFields, err.Error())
}

func TestChecklist(t *testing.T) {
	assert.Contains(t, Checklist("gas-furnace"), "Flame sensor cleaning")
	assert.Contains(t, Checklist("electric-furnace"), "Inspect heat elements")
	assert.Equal(t, Checklist("not-sure"), Checklist("boiler"))

	items := Checklist("gas-furnace")
	items[0] = "mutated"
	assert.NotEqual(t, "mutated", Checklist("gas-furnace")[0])
}

func TestDefaultStepsShape(t *testing.T) {
	steps := DefaultSteps()
	require.Len(t, steps, 7)
	for i, s := range steps {
		assert.Equal(t, i+1, s.ID)
	}
	assert.Equal(t, StepFilter, steps[1].Type)
	assert.Equal(t, StepContact, steps[6].Type)
	assert.Empty(t, steps[6].Choices)
}
