package models

import "time"

// TimeclockStatus is the state of a single entry.
type TimeclockStatus string

const (
	TimeclockActive    TimeclockStatus = "active"
	TimeclockCompleted TimeclockStatus = "completed"
)

// EntrySource records how an entry was created.
type EntrySource string

const (
	SourceSelf   EntrySource = "self"
	SourceKiosk  EntrySource = "kiosk"
	SourceManual EntrySource = "manual"
)

// TimeclockEntry is one clock-in/clock-out pair. A staff member has at most
// one active entry at any instant.
type TimeclockEntry struct {
	ID           int64           `json:"id" db:"id"`
	StaffID      int64           `json:"staff_id" db:"staff_id"`
	PositionID   *int64          `json:"position_id,omitempty" db:"position_id"`
	EventID      *int64          `json:"event_id,omitempty" db:"event_id"`
	ShiftID      *int64          `json:"shift_id,omitempty" db:"shift_id"`
	ClockIn      time.Time       `json:"clock_in" db:"clock_in"`
	ClockOut     *time.Time      `json:"clock_out,omitempty" db:"clock_out"`
	GrossMinutes int             `json:"gross_minutes" db:"gross_minutes"`
	BreakMinutes int             `json:"break_minutes" db:"break_minutes"`
	TotalMinutes int             `json:"total_minutes" db:"total_minutes"`
	Status       TimeclockStatus `json:"status" db:"status"`
	Source       EntrySource     `json:"source" db:"source"`
	Notes        *string         `json:"notes,omitempty" db:"notes"`
	CreatedBy    *int64          `json:"created_by,omitempty" db:"created_by"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// WorkingTime is the calculator output. Hours are rounded for display; the
// minute fields are what gets stored.
type WorkingTime struct {
	GrossMinutes   int     `json:"gross_minutes"`
	BreakMinutes   int     `json:"break_minutes"`
	NetMinutes     int     `json:"net_minutes"`
	GrossHours     float64 `json:"gross_hours"`
	NetHours       float64 `json:"net_hours"`
	PolicyDegraded bool    `json:"policy_degraded,omitempty"`
}

// TimeclockStatusView answers checkStatus.
type TimeclockStatusView struct {
	StaffID        int64           `json:"staff_id"`
	ClockedIn      bool            `json:"clocked_in"`
	ActiveEntry    *TimeclockEntry `json:"active_entry,omitempty"`
	ElapsedMinutes int             `json:"elapsed_minutes"`
}

// ClockOutSummary is what a clock-out returns and what the optional summary
// notification carries.
type ClockOutSummary struct {
	Entry       *TimeclockEntry `json:"entry"`
	WorkingTime WorkingTime     `json:"working_time"`
}

// EntryCorrection is an administrative partial update of a TimeclockEntry.
// Absent fields are left untouched.
type EntryCorrection struct {
	PositionID   Optional[*int64]     `json:"position_id"`
	EventID      Optional[*int64]     `json:"event_id"`
	ClockIn      Optional[time.Time]  `json:"clock_in"`
	ClockOut     Optional[*time.Time] `json:"clock_out"`
	BreakMinutes Optional[*int]       `json:"break_minutes"`
	Notes        Optional[*string]    `json:"notes"`
}

// Empty reports whether no field is present.
func (c EntryCorrection) Empty() bool {
	return !c.PositionID.Present && !c.EventID.Present && !c.ClockIn.Present &&
		!c.ClockOut.Present && !c.BreakMinutes.Present && !c.Notes.Present
}

// EntryUpdate is the storage-level update built from a correction after the
// totals have been recomputed. A non-empty ExpectStatus restricts the update
// to a row still in that status.
type EntryUpdate struct {
	ExpectStatus TimeclockStatus
	PositionID   Optional[*int64]
	EventID      Optional[*int64]
	ClockIn      Optional[time.Time]
	ClockOut     Optional[*time.Time]
	GrossMinutes Optional[int]
	BreakMinutes Optional[int]
	TotalMinutes Optional[int]
	Status       Optional[TimeclockStatus]
	Notes        Optional[*string]
}

// EntryFilter selects entries for listing and export.
type EntryFilter struct {
	StaffID *int64
	EventID *int64
	Status  *TimeclockStatus
	From    *time.Time // inclusive, on clock_in
	To      *time.Time // exclusive, on clock_in
	Limit   int
}
