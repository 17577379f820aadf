package models

import "time"

// ExportRow is one completed entry as reported. Values are the stored
// calculator outputs.
type ExportRow struct {
	EntryID      int64     `json:"entry_id"`
	StaffID      int64     `json:"staff_id"`
	StaffName    string    `json:"staff_name"`
	Date         string    `json:"date"`
	ClockIn      time.Time `json:"clock_in"`
	ClockOut     time.Time `json:"clock_out"`
	GrossMinutes int       `json:"gross_minutes"`
	BreakMinutes int       `json:"break_minutes"`
	NetMinutes   int       `json:"net_minutes"`
}

// ExportTotals sums an export.
type ExportTotals struct {
	Entries      int     `json:"entries"`
	GrossMinutes int     `json:"gross_minutes"`
	BreakMinutes int     `json:"break_minutes"`
	NetMinutes   int     `json:"net_minutes"`
	NetHours     float64 `json:"net_hours"`
}

// EntryExport is the exportEntries result.
type EntryExport struct {
	Rows   []ExportRow  `json:"rows"`
	Totals ExportTotals `json:"totals"`
}
