package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"event_staffing_backend/internal/models"
	"event_staffing_backend/internal/repositories"
	"event_staffing_backend/pkg/utils"
)

// MinKioskCodeLength is the shortest accepted personal kiosk code.
const MinKioskCodeLength = 4

// --- StaffMember DTOs ---
type CreateStaffMemberRequest struct {
	UserID           *int64  `json:"user_id"`
	FullName         string  `json:"full_name" binding:"required"`
	PhoneNumber      *string `json:"phone_number"`
	QualificationIDs []int64 `json:"qualification_ids"`
	KioskCode        *string `json:"kiosk_code"`
}

// --- Event and Shift DTOs ---
type CreateEventRequest struct {
	Name     string    `json:"name" binding:"required"`
	StartsAt time.Time `json:"starts_at" binding:"required"`
	EndsAt   time.Time `json:"ends_at" binding:"required"`
}

type CreateShiftRequest struct {
	EventID            int64     `json:"event_id" binding:"required"`
	StartTime          time.Time `json:"start_time" binding:"required"`
	EndTime            time.Time `json:"end_time" binding:"required"`
	RequiredStaffCount int       `json:"required_staff_count"`
	PositionID         *int64    `json:"position_id"`
	QualificationIDs   []int64   `json:"qualification_ids"`
	Notes              *string   `json:"notes"`
}

type NamedRequest struct {
	Name string `json:"name" binding:"required"`
}

// --- StaffService Interface ---
type StaffService interface {
	CreateStaffMember(ctx context.Context, req CreateStaffMemberRequest) (*models.StaffMember, error)
	GetStaffMemberByID(ctx context.Context, staffID int64) (*models.StaffMember, error)
	GetStaffMemberByUserID(ctx context.Context, userID int64) (*models.StaffMember, error)
	SetKioskCode(ctx context.Context, staffID int64, code string) error
	SetStaffActive(ctx context.Context, staffID int64, active bool) error

	CreateQualification(ctx context.Context, name string) (int64, error)
	CreatePosition(ctx context.Context, name string) (int64, error)
	CreateEvent(ctx context.Context, req CreateEventRequest) (*models.Event, error)
	CreateShift(ctx context.Context, req CreateShiftRequest) (*models.Shift, error)
	GetShiftByID(ctx context.Context, shiftID int64) (*models.Shift, error)
	SetInvitation(ctx context.Context, eventID, staffID int64, status models.InvitationStatus) (*models.EventInvitation, error)
}

type staffService struct {
	db              *sql.DB
	staffRepo       repositories.StaffRepository
	invitationRepo  repositories.InvitationRepository
	kioskCodeSecret string
}

// NewStaffService creates a new instance of StaffService.
func NewStaffService(db *sql.DB, sr repositories.StaffRepository, ir repositories.InvitationRepository, kioskCodeSecret string) StaffService {
	return &staffService{
		db:              db,
		staffRepo:       sr,
		invitationRepo:  ir,
		kioskCodeSecret: kioskCodeSecret,
	}
}

func (s *staffService) kioskHash(code string) (string, error) {
	code = strings.TrimSpace(code)
	if len(code) < MinKioskCodeLength {
		return "", validationError("kiosk code must be at least %d characters", MinKioskCodeLength)
	}
	return HashKioskCode(s.kioskCodeSecret, code), nil
}

// --- StaffMember Method Implementations ---

func (s *staffService) CreateStaffMember(ctx context.Context, req CreateStaffMemberRequest) (*models.StaffMember, error) {
	if utils.IsEmpty(req.FullName) {
		return nil, validationError("full_name is required")
	}
	staff := &models.StaffMember{
		UserID:           req.UserID,
		FullName:         strings.TrimSpace(req.FullName),
		PhoneNumber:      req.PhoneNumber,
		IsActive:         true,
		QualificationIDs: req.QualificationIDs,
	}
	if req.KioskCode != nil {
		hash, err := s.kioskHash(*req.KioskCode)
		if err != nil {
			return nil, err
		}
		staff.KioskCodeHash = &hash
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	created, err := s.staffRepo.CreateStaffMember(ctx, tx, staff)
	if err != nil {
		return nil, translateRepoError(err, ErrStaffNotFound)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit staff member: %w", err)
	}
	return created, nil
}

func (s *staffService) GetStaffMemberByID(ctx context.Context, staffID int64) (*models.StaffMember, error) {
	staff, err := s.staffRepo.GetStaffMemberByID(ctx, s.db, staffID)
	return staff, translateRepoError(err, ErrStaffNotFound)
}

func (s *staffService) GetStaffMemberByUserID(ctx context.Context, userID int64) (*models.StaffMember, error) {
	staff, err := s.staffRepo.GetStaffMemberByUserID(ctx, s.db, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: no staff member linked to user %d", ErrNotFound, userID)
	}
	return staff, err
}

// SetKioskCode replaces the staff member's personal kiosk code. An empty
// code clears it.
func (s *staffService) SetKioskCode(ctx context.Context, staffID int64, code string) error {
	var hash *string
	if strings.TrimSpace(code) != "" {
		h, err := s.kioskHash(code)
		if err != nil {
			return err
		}
		hash = &h
	}
	err := s.staffRepo.SetKioskCodeHash(ctx, s.db, staffID, hash)
	if errors.Is(err, repositories.ErrDuplicateKey) {
		return fmt.Errorf("%w: kiosk code already in use", ErrStateConflict)
	}
	return translateRepoError(err, ErrStaffNotFound)
}

func (s *staffService) SetStaffActive(ctx context.Context, staffID int64, active bool) error {
	return translateRepoError(s.staffRepo.SetStaffActive(ctx, s.db, staffID, active), ErrStaffNotFound)
}

// --- Reference data ---

func (s *staffService) CreateQualification(ctx context.Context, name string) (int64, error) {
	if utils.IsEmpty(name) {
		return 0, validationError("name is required")
	}
	id, err := s.staffRepo.CreateQualification(ctx, s.db, strings.TrimSpace(name))
	return id, translateRepoError(err, ErrNotFound)
}

func (s *staffService) CreatePosition(ctx context.Context, name string) (int64, error) {
	if utils.IsEmpty(name) {
		return 0, validationError("name is required")
	}
	id, err := s.staffRepo.CreatePosition(ctx, s.db, strings.TrimSpace(name))
	return id, translateRepoError(err, ErrNotFound)
}

// --- Event and Shift Method Implementations ---

func (s *staffService) CreateEvent(ctx context.Context, req CreateEventRequest) (*models.Event, error) {
	if utils.IsEmpty(req.Name) {
		return nil, validationError("name is required")
	}
	if !req.EndsAt.After(req.StartsAt) {
		return nil, validationError("ends_at must be after starts_at")
	}
	event, err := s.staffRepo.CreateEvent(ctx, s.db, &models.Event{
		Name:     strings.TrimSpace(req.Name),
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
	})
	return event, translateRepoError(err, ErrEventNotFound)
}

func (s *staffService) CreateShift(ctx context.Context, req CreateShiftRequest) (*models.Shift, error) {
	if !req.EndTime.After(req.StartTime) {
		return nil, validationError("end_time must be after start_time")
	}
	if req.RequiredStaffCount < 0 {
		return nil, validationError("required_staff_count must not be negative")
	}
	if req.RequiredStaffCount == 0 {
		req.RequiredStaffCount = 1
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.staffRepo.GetEventByID(ctx, tx, req.EventID); err != nil {
		return nil, translateRepoError(err, ErrEventNotFound)
	}
	shift, err := s.staffRepo.CreateShift(ctx, tx, &models.Shift{
		EventID:            req.EventID,
		StartTime:          req.StartTime,
		EndTime:            req.EndTime,
		RequiredStaffCount: req.RequiredStaffCount,
		PositionID:         req.PositionID,
		QualificationIDs:   req.QualificationIDs,
		Notes:              req.Notes,
	})
	if err != nil {
		return nil, translateRepoError(err, ErrShiftNotFound)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit shift: %w", err)
	}
	return shift, nil
}

func (s *staffService) GetShiftByID(ctx context.Context, shiftID int64) (*models.Shift, error) {
	shift, err := s.staffRepo.GetShiftByID(ctx, s.db, shiftID)
	return shift, translateRepoError(err, ErrShiftNotFound)
}

func (s *staffService) SetInvitation(ctx context.Context, eventID, staffID int64, status models.InvitationStatus) (*models.EventInvitation, error) {
	if !status.Valid() {
		return nil, validationError("unknown invitation status %q", status)
	}
	inv, err := s.invitationRepo.UpsertInvitation(ctx, s.db, &models.EventInvitation{
		EventID: eventID,
		StaffID: staffID,
		Status:  status,
	})
	return inv, translateRepoError(err, ErrNotFound)
}
