package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/skyreachair/leadfunnel/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"
)

func newExportService(t *testing.T) (*ExportService, *LeadService) {
	t.Helper()
	leads, _ := newLeadService(t)
	s := NewExportService(leads)
	s.now = func() time.Time { return time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC) }
	return s, leads
}

func TestExportCSV(t *testing.T) {
	s, leads := newExportService(t)
	ctx := context.Background()
	mustCreateLead(t, leads, &models.Lead{
		FirstName:     "Sarah",
		LastName:      "Mitchell",
		Phone:         "555-000-1111",
		Service:       "furnace-maintenance",
		FunnelAnswers: datatypes.NewJSONType(map[string]string{"timing": "asap", "hvac_system": "furnace"}),
	})
	other := mustCreateLead(t, leads, &models.Lead{FirstName: "Dan", Phone: "555"})
	_, err := leads.UpdateStatus(ctx, other.ID.String(), "completed")
	require.NoError(t, err)

	file, err := s.Export(ctx, "", LeadFilter{Status: "new"})
	require.NoError(t, err)
	assert.Equal(t, "leads-20260315-093000.csv", file.Filename)
	assert.Equal(t, 1, file.Rows)

	records, err := csv.NewReader(bytes.NewReader(file.Body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, exportHeaders, records[0])
	assert.Equal(t, "Sarah", records[1][3])
	assert.Equal(t, "hvac_system=furnace; timing=asap", records[1][len(exportHeaders)-1])
}

func TestExportXLSX(t *testing.T) {
	s, leads := newExportService(t)
	seedLeads(t, leads, 120, time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC))

	file, err := s.Export(context.Background(), "excel", LeadFilter{})
	require.NoError(t, err)
	assert.Equal(t, "leads-20260315-093000.xlsx", file.Filename)
	assert.Equal(t, 120, file.Rows)

	f, err := excelize.OpenReader(bytes.NewReader(file.Body))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 121)
	assert.Equal(t, "First Name", rows[0][3])
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	s, _ := newExportService(t)
	_, err := s.Export(context.Background(), "pdf", LeadFilter{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
