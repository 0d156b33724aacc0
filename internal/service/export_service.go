package service

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"SafeHerAPI/internal/logger"
	"SafeHerAPI/internal/repository"

	"github.com/jung-kurt/gofpdf"
)

// IExportService renders the alert history as a PDF document.
type IExportService interface {
	AlertHistoryPDF(ctx context.Context) ([]byte, error)
}

type ExportService struct {
	alerts repository.IAlertRepository
	log    *logger.Logger
}

func NewExportService(alerts repository.IAlertRepository, log *logger.Logger) *ExportService {
	return &ExportService{alerts: alerts, log: log}
}

// AlertHistoryPDF renders up to the newest 500 alert records, one row
// per alert.
func (s *ExportService) AlertHistoryPDF(ctx context.Context) ([]byte, error) {
	records, err := s.alerts.GetHistory(ctx, 500, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load alert history: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("SafeHer Alert History", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "SafeHer Alert History")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(40, 8, "Time", "1", 0, "L", false, 0, "")
	pdf.CellFormat(35, 8, "Trigger", "1", 0, "L", false, 0, "")
	pdf.CellFormat(55, 8, "Location", "1", 0, "L", false, 0, "")
	pdf.CellFormat(25, 8, "Contacts", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, "Address", "1", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, record := range records {
		location := "unavailable"
		if record.Latitude != nil && record.Longitude != nil {
			location = strconv.FormatFloat(*record.Latitude, 'f', 5, 64) +
				", " + strconv.FormatFloat(*record.Longitude, 'f', 5, 64)
		}
		address := ""
		if record.Address != nil {
			address = *record.Address
		}

		pdf.CellFormat(40, 7, record.CreatedAt.Format("2006-01-02 15:04"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 7, record.TriggeredBy, "1", 0, "L", false, 0, "")
		pdf.CellFormat(55, 7, location, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 7, strconv.Itoa(record.ContactsNotified), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, address, "1", 1, "L", false, 0, "")
	}

	if len(records) == 0 {
		pdf.Ln(4)
		pdf.Cell(0, 8, "No alerts recorded.")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render alert history PDF: %w", err)
	}

	s.log.Info("Alert history PDF generated (%d records, %d bytes)", len(records), buf.Len())
	return buf.Bytes(), nil
}
