package models

import "time"

// StaffMember is a temporary event worker. Members are deactivated, never
// deleted, once they have assignment or time history.
type StaffMember struct {
	ID               int64     `json:"id" db:"id"`
	UserID           *int64    `json:"user_id,omitempty" db:"user_id"`
	FullName         string    `json:"full_name" db:"full_name"`
	PhoneNumber      *string   `json:"phone_number,omitempty" db:"phone_number"`
	KioskCodeHash    *string   `json:"-" db:"kiosk_code_hash"`
	IsActive         bool      `json:"is_active" db:"is_active"`
	QualificationIDs []int64   `json:"qualification_ids"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// Event groups the shifts of one staffed occasion.
type Event struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	StartsAt  time.Time `json:"starts_at" db:"starts_at"`
	EndsAt    time.Time `json:"ends_at" db:"ends_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Shift is a bounded interval within an Event requiring a headcount and
// optional qualifications.
type Shift struct {
	ID                 int64     `json:"id" db:"id"`
	EventID            int64     `json:"event_id" db:"event_id"`
	StartTime          time.Time `json:"start_time" db:"start_time"`
	EndTime            time.Time `json:"end_time" db:"end_time"`
	RequiredStaffCount int       `json:"required_staff_count" db:"required_staff_count"`
	PositionID         *int64    `json:"position_id,omitempty" db:"position_id"`
	QualificationIDs   []int64   `json:"qualification_ids"`
	Notes              *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// InvitationStatus is the staff member's answer to an event invitation.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
)

// Valid reports whether s is a known invitation status.
func (s InvitationStatus) Valid() bool {
	switch s {
	case InvitationPending, InvitationAccepted, InvitationDeclined:
		return true
	}
	return false
}

// EventInvitation links a staff member to an event they were invited to.
type EventInvitation struct {
	EventID     int64            `json:"event_id" db:"event_id"`
	StaffID     int64            `json:"staff_id" db:"staff_id"`
	Status      InvitationStatus `json:"status" db:"status"`
	RespondedAt *time.Time       `json:"responded_at,omitempty" db:"responded_at"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at" db:"updated_at"`
}
