package models

import "time"

// AssignmentStatus is the lifecycle state of a ShiftAssignment.
type AssignmentStatus string

const (
	AssignmentPreliminary AssignmentStatus = "assigned_preliminary"
	AssignmentFinal       AssignmentStatus = "assigned_final"
	AssignmentConfirmed   AssignmentStatus = "confirmed"
	AssignmentCancelled   AssignmentStatus = "cancelled"
)

// AssignmentType is what an administrator asks for when assigning.
type AssignmentType string

const (
	AssignPreliminary AssignmentType = "preliminary"
	AssignFinal       AssignmentType = "final"
)

// Status maps the requested type to the stored status.
func (t AssignmentType) Status() (AssignmentStatus, bool) {
	switch t {
	case AssignPreliminary:
		return AssignmentPreliminary, true
	case AssignFinal:
		return AssignmentFinal, true
	}
	return "", false
}

// ShiftAssignment is unique per (shift, staff).
type ShiftAssignment struct {
	ID          int64            `json:"id" db:"id"`
	ShiftID     int64            `json:"shift_id" db:"shift_id"`
	StaffID     int64            `json:"staff_id" db:"staff_id"`
	Status      AssignmentStatus `json:"status" db:"status"`
	AssignedBy  *int64           `json:"assigned_by,omitempty" db:"assigned_by"`
	HasConflict bool             `json:"has_conflict" db:"has_conflict"`
	ConfirmedAt *time.Time       `json:"confirmed_at,omitempty" db:"confirmed_at"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at" db:"updated_at"`
	Shift       *Shift           `json:"shift,omitempty"`
}

// ShiftRef identifies a shift interval in conflict reports.
type ShiftRef struct {
	ShiftID   int64     `json:"shift_id"`
	EventID   int64     `json:"event_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// QualificationGap lists what a staff member holds against what a shift needs.
type QualificationGap struct {
	Have     []int64 `json:"have"`
	Required []int64 `json:"required"`
	Missing  []int64 `json:"missing"`
}

// StaffingReport is advisory data for a staff/shift pair.
type StaffingReport struct {
	FullyQualified    bool             `json:"fully_qualified"`
	QualificationGap  QualificationGap `json:"qualification_gap"`
	HasConflicts      bool             `json:"has_conflicts"`
	ConflictingShifts []ShiftRef       `json:"conflicting_shifts"`
}

// AssignmentResult is returned by a single assign.
type AssignmentResult struct {
	Assignment *ShiftAssignment `json:"assignment"`
	Report     StaffingReport   `json:"report"`
}

// BulkAssignItem is the outcome for one staff id of a bulk assign.
type BulkAssignItem struct {
	StaffID    int64            `json:"staff_id"`
	Success    bool             `json:"success"`
	Assignment *ShiftAssignment `json:"assignment,omitempty"`
	Report     *StaffingReport  `json:"report,omitempty"`
	ErrorCode  string           `json:"error_code,omitempty"`
	Error      string           `json:"error,omitempty"`
}
