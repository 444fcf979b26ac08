// Package funnel drives the multi-step heating maintenance questionnaire that
// qualifies a visitor before the contact step creates a lead.
package funnel

import "strconv"

// Name identifies this funnel in analytics events.
const Name = "heating_winter_2026_offer"

// Source is the lead source tag sent with funnel submissions.
const Source = "funnel"

type StepType string

const (
	StepSingle  StepType = "single"
	StepFilter  StepType = "filter"
	StepContact StepType = "contact"
)

// Step ids. Answers are keyed by the decimal id.
const (
	StepSystemType = iota + 1
	StepFilterSize
	StepLastService
	StepIssues
	StepPropertyType
	StepTiming
	StepContactForm
)

const (
	FilterNotSure = "not-sure"
	FilterOther   = "other"
)

type Choice struct {
	Value       string
	Label       string
	Description string
}

type Step struct {
	ID       int
	Name     string
	Type     StepType
	Question string
	Subtitle string
	Choices  []Choice
}

func (s Step) Key() string {
	return strconv.Itoa(s.ID)
}

// FilterSizes is the catalog offered on the filter step.
var FilterSizes = []Choice{
	{Value: "16x25x1", Label: "16x25x1", Description: "Most common"},
	{Value: "20x25x1", Label: "20x25x1", Description: "Standard"},
	{Value: "14x25x1", Label: "14x25x1", Description: "Compact"},
	{Value: "16x20x1", Label: "16x20x1", Description: "Small systems"},
	{Value: "20x20x1", Label: "20x20x1", Description: "Medium"},
	{Value: FilterNotSure, Label: "Not Sure", Description: "We'll check for you"},
	{Value: FilterOther, Label: "Other Size", Description: "Enter custom size"},
}

func DefaultSteps() []Step {
	return []Step{
		{
			ID:       StepSystemType,
			Name:     "Heating system type",
			Type:     StepSingle,
			Question: "What type of heating system?",
			Subtitle: "We'll customize your maintenance checklist",
			Choices: []Choice{
				{Value: "gas-furnace", Label: "Gas Furnace", Description: "Natural gas or propane"},
				{Value: "electric-furnace", Label: "Electric Furnace", Description: "Electric powered heating"},
				{Value: "not-sure", Label: "Not Sure", Description: "We'll identify it for you"},
			},
		},
		{
			ID:       StepFilterSize,
			Name:     "Filter size",
			Type:     StepFilter,
			Question: "What size filter do you need?",
			Subtitle: "We'll bring the right replacement filter",
			Choices:  FilterSizes,
		},
		{
			ID:       StepLastService,
			Name:     "Last service",
			Type:     StepSingle,
			Question: "When did you last service it?",
			Subtitle: "Regular maintenance prevents costly breakdowns",
			Choices: []Choice{
				{Value: "never", Label: "Never / Not Sure", Description: "$125 maintenance special perfect for you"},
				{Value: "over-year", Label: "Over 1 Year Ago", Description: "Overdue for maintenance"},
				{Value: "6-12-months", Label: "6-12 Months", Description: "Getting close to schedule"},
				{Value: "under-6-months", Label: "Under 6 Months", Description: "Recently serviced"},
			},
		},
		{
			ID:       StepIssues,
			Name:     "Current issues",
			Type:     StepSingle,
			Question: "Any current issues?",
			Subtitle: "We'll check everything during your $125 maintenance",
			Choices: []Choice{
				{Value: "no-issues", Label: "No Issues", Description: "Preventive maintenance"},
				{Value: "strange-noises", Label: "Strange Noises", Description: "Banging, squealing, rattling"},
				{Value: "not-heating-well", Label: "Not Heating Well", Description: "Uneven or weak heat"},
				{Value: "high-bills", Label: "High Energy Bills", Description: "Costs rising each month"},
				{Value: "frequent-cycling", Label: "Frequent Cycling", Description: "Turns on/off constantly"},
			},
		},
		{
			ID:       StepPropertyType,
			Name:     "Property type",
			Type:     StepSingle,
			Question: "Property type?",
			Subtitle: "$125 special applies to all residential properties",
			Choices: []Choice{
				{Value: "single-family", Label: "Single Family Home", Description: "Detached house"},
				{Value: "townhouse", Label: "Townhouse/Duplex", Description: "Shared wall property"},
				{Value: "condo", Label: "Condo/Apartment", Description: "Multi-unit building"},
				{Value: "mobile", Label: "Mobile Home", Description: "Manufactured home"},
			},
		},
		{
			ID:       StepTiming,
			Name:     "Service timing",
			Type:     StepSingle,
			Question: "How soon do you need service?",
			Subtitle: "Limited spots available at $125 price",
			Choices: []Choice{
				{Value: "asap", Label: "ASAP", Description: "This week if possible"},
				{Value: "this-month", Label: "This Month", Description: "Within 30 days"},
				{Value: "next-month", Label: "Next Month", Description: "Planning ahead"},
				{Value: "flexible", Label: "Flexible", Description: "When you have availability"},
			},
		},
		{
			ID:       StepContactForm,
			Name:     "Contact form",
			Type:     StepContact,
			Question: "Claim your $125 maintenance!",
			Subtitle: "Enter your details to lock in this price. Limited time offer.",
		},
	}
}

var checklists = map[string][]string{
	"gas-furnace": {
		"Burner cleaning & inspection",
		"Flame sensor cleaning",
		"Pressure switch cleanup",
		"Ignitor & ignition timing check",
		"CO2 and gas leak detection",
		"Flame rectification timing",
		"Exhaust & venting inspection",
		"Filter replacement",
	},
	"electric-furnace": {
		"Check electrical safety",
		"Inspect heat elements",
		"Confirm strong airflow",
		"Verify safe temperatures",
		"Test safety shutoffs",
		"Check electrical connections",
		"Inspect blower motor",
		"Filter replacement",
	},
	"not-sure": {
		"Complete system inspection",
		"Safety check all components",
		"Clean applicable parts",
		"Verify safe operation",
		"Filter replacement",
		"Performance testing",
		"Written condition report",
		"Maintenance recommendations",
	},
}

// Checklist returns the maintenance items for a heating system type.
// Unknown types get the generic list.
func Checklist(systemType string) []string {
	items, ok := checklists[systemType]
	if !ok {
		items = checklists["not-sure"]
	}
	out := make([]string, len(items))
	copy(out, items)
	return out
}

func hasChoice(choices []Choice, value string) bool {
	for _, c := range choices {
		if c.Value == value {
			return true
		}
	}
	return false
}
