package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/skyreachair/leadfunnel/internal/intake"
	"github.com/skyreachair/leadfunnel/internal/models"
	"github.com/xuri/excelize/v2"
)

const (
	FormatCSV   = "csv"
	FormatExcel = "xlsx"

	maxExportRows = 5000
	exportSheet   = "Leads"
)

var ErrUnsupportedFormat = fmt.Errorf("invalid format: must be %s or %s", FormatCSV, FormatExcel)

var exportHeaders = []string{
	"ID", "Created", "Status", "First Name", "Last Name", "Email", "Phone", "ZIP",
	"Service", "System Type", "Filter Size", "Last Service", "Issues", "Property Type",
	"Timing", "Source", "Assigned To", "Email Sent", "Funnel Answers",
}

type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
	Rows        int
}

// ExportService renders filtered lead lists for download.
type ExportService struct {
	leads *LeadService
	now   func() time.Time
}

func NewExportService(leads *LeadService) *ExportService {
	return &ExportService{leads: leads, now: time.Now}
}

func (s *ExportService) Export(ctx context.Context, format string, filter LeadFilter) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatCSV
	}
	if format == "excel" {
		format = FormatExcel
	}
	if format != FormatCSV && format != FormatExcel {
		return nil, ErrUnsupportedFormat
	}

	leads, err := s.collect(ctx, filter)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(leads))
	for i := range leads {
		rows = append(rows, exportRow(&leads[i]))
	}

	stamp := s.now().Format("20060102-150405")
	switch format {
	case FormatExcel:
		body, err := writeXLSX(rows)
		if err != nil {
			return nil, err
		}
		return &ExportFile{
			Filename:    "leads-" + stamp + ".xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Body:        body,
			Rows:        len(rows),
		}, nil
	default:
		body, err := writeCSV(rows)
		if err != nil {
			return nil, err
		}
		return &ExportFile{
			Filename:    "leads-" + stamp + ".csv",
			ContentType: "text/csv; charset=utf-8",
			Body:        body,
			Rows:        len(rows),
		}, nil
	}
}

func (s *ExportService) collect(ctx context.Context, filter LeadFilter) ([]models.Lead, error) {
	filter.Limit = MaxPageSize
	var out []models.Lead
	for page := 1; len(out) < maxExportRows; page++ {
		filter.Page = page
		res, err := s.leads.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		out = append(out, res.Leads...)
		if page >= res.Pages {
			break
		}
	}
	if len(out) > maxExportRows {
		out = out[:maxExportRows]
	}
	return out, nil
}

func exportRow(l *models.Lead) []string {
	assigned := ""
	if l.AssignedTo != nil {
		assigned = l.AssignedTo.Name
	}
	answers := l.Answers()
	pairs := make([]string, 0, len(answers))
	for _, k := range intake.SortedKeys(answers) {
		pairs = append(pairs, k+"="+answers[k])
	}
	emailSent := "no"
	if l.EmailSent {
		emailSent = "yes"
	}
	return []string{
		l.ID.String(),
		l.CreatedAt.UTC().Format(time.RFC3339),
		string(l.Status),
		l.FirstName,
		l.LastName,
		l.Email,
		l.Phone,
		l.Zip,
		l.Service,
		l.SystemType,
		l.FilterSize,
		l.LastService,
		l.Issues,
		l.PropertyType,
		l.Timing,
		l.Source,
		assigned,
		emailSent,
		strings.Join(pairs, "; "),
	}
}

func writeCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeaders); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}
	return buf.Bytes(), nil
}

func writeXLSX(rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(exportSheet, cell, h); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(exportSheet, cell, cell, headerStyle); err != nil {
			return nil, err
		}
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(exportSheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(exportHeaders))
	if err := f.SetColWidth(exportSheet, "A", lastCol, 18); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
