package services

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"event_staffing_backend/internal/models"
	"event_staffing_backend/internal/repositories"
	"event_staffing_backend/pkg/utils"
)

// ReportService reads stored time totals for reporting.
type ReportService interface {
	ExportEntries(ctx context.Context, filter models.EntryFilter) (*models.EntryExport, error)
}

type reportService struct {
	db            *sql.DB
	timeclockRepo repositories.TimeclockRepository
}

// NewReportService creates a new instance of ReportService.
func NewReportService(db *sql.DB, timeclockRepo repositories.TimeclockRepository) ReportService {
	return &reportService{db: db, timeclockRepo: timeclockRepo}
}

// ExportEntries returns completed entries with the totals stored at
// clock-out or correction time. Nothing is recomputed.
func (s *reportService) ExportEntries(ctx context.Context, filter models.EntryFilter) (*models.EntryExport, error) {
	filter.Status = nil
	if err := validateFilter(filter); err != nil {
		return nil, err
	}

	rows, err := s.timeclockRepo.ExportRows(ctx, s.db, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to export time entries: %w", err)
	}

	export := &models.EntryExport{Rows: rows}
	for i := range rows {
		rows[i].Date = rows[i].ClockIn.UTC().Format("2006-01-02")
		export.Totals.GrossMinutes += rows[i].GrossMinutes
		export.Totals.BreakMinutes += rows[i].BreakMinutes
		export.Totals.NetMinutes += rows[i].NetMinutes
	}
	export.Totals.Entries = len(rows)
	export.Totals.NetHours = utils.RoundHours(export.Totals.NetMinutes)
	return export, nil
}

var exportHeader = []string{
	"entry_id", "staff_id", "staff_name", "date", "clock_in", "clock_out",
	"gross_minutes", "break_minutes", "net_minutes", "net_hours",
}

// WriteEntriesCSV renders an export as CSV with a header row.
func WriteEntriesCSV(w io.Writer, export *models.EntryExport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, r := range export.Rows {
		record := []string{
			strconv.FormatInt(r.EntryID, 10),
			strconv.FormatInt(r.StaffID, 10),
			r.StaffName,
			r.Date,
			r.ClockIn.UTC().Format(time.RFC3339),
			r.ClockOut.UTC().Format(time.RFC3339),
			strconv.Itoa(r.GrossMinutes),
			strconv.Itoa(r.BreakMinutes),
			strconv.Itoa(r.NetMinutes),
			strconv.FormatFloat(utils.RoundHours(r.NetMinutes), 'f', 2, 64),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
