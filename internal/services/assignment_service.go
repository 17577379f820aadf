package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"event_staffing_backend/internal/models"
	"event_staffing_backend/internal/notifications"
	"event_staffing_backend/internal/repositories"
	"event_staffing_backend/pkg/utils"
)

// AssignRequest DTO
type AssignRequest struct {
	ShiftID    int64                 `json:"-"`
	StaffID    int64                 `json:"staff_id" binding:"required"`
	Type       models.AssignmentType `json:"assignment_type" binding:"required"`
	Force      bool                  `json:"force"`
	AssignedBy *int64                `json:"-"`
}

// BulkAssignRequest DTO
type BulkAssignRequest struct {
	ShiftID    int64                 `json:"-"`
	StaffIDs   []int64               `json:"staff_ids" binding:"required"`
	Type       models.AssignmentType `json:"assignment_type" binding:"required"`
	Force      bool                  `json:"force"`
	AssignedBy *int64                `json:"-"`
}

// --- AssignmentService Interface ---
type AssignmentService interface {
	Assign(ctx context.Context, req AssignRequest) (*models.AssignmentResult, error)
	BulkAssign(ctx context.Context, req BulkAssignRequest) ([]models.BulkAssignItem, error)
	Unassign(ctx context.Context, shiftID, staffID int64) (*models.ShiftAssignment, error)
	Confirm(ctx context.Context, assignmentID, callingStaffID int64) (*models.ShiftAssignment, error)
	Evaluate(ctx context.Context, shiftID, staffID int64) (*models.StaffingReport, error)
	ListForShift(ctx context.Context, shiftID int64) ([]models.ShiftAssignment, error)
	ListForStaff(ctx context.Context, staffID int64) ([]models.ShiftAssignment, error)
}

type assignmentService struct {
	db             *sql.DB
	staffRepo      repositories.StaffRepository
	assignmentRepo repositories.AssignmentRepository
	gate           InvitationGate
	gateTimeout    time.Duration
	dispatcher     notifications.Dispatcher
	now            func() time.Time
}

// NewAssignmentService creates a new instance of AssignmentService.
func NewAssignmentService(
	db *sql.DB,
	staffRepo repositories.StaffRepository,
	assignmentRepo repositories.AssignmentRepository,
	gate InvitationGate,
	gateTimeout time.Duration,
	dispatcher notifications.Dispatcher,
	now func() time.Time,
) AssignmentService {
	if now == nil {
		now = time.Now
	}
	return &assignmentService{
		db:             db,
		staffRepo:      staffRepo,
		assignmentRepo: assignmentRepo,
		gate:           gate,
		gateTimeout:    gateTimeout,
		dispatcher:     dispatcher,
		now:            now,
	}
}

func (s *assignmentService) Assign(ctx context.Context, req AssignRequest) (*models.AssignmentResult, error) {
	target, ok := req.Type.Status()
	if !ok {
		return nil, validationError("assignment_type must be %q or %q", models.AssignPreliminary, models.AssignFinal)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockStaff(ctx, s.staffRepo, tx, req.StaffID); err != nil {
		return nil, err
	}
	shift, staff, err := s.loadPair(ctx, tx, req.ShiftID, req.StaffID)
	if err != nil {
		return nil, err
	}
	if !staff.IsActive {
		return nil, ErrStaffInactive
	}
	if err := s.checkInvitation(ctx, tx, shift.EventID, staff.ID); err != nil {
		return nil, err
	}

	existing, err := s.assignmentRepo.GetByShiftAndStaff(ctx, tx, shift.ID, staff.ID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to load assignment: %w", err)
	}
	if existing != nil {
		if err := checkTransition(existing.Status, target); err != nil {
			return nil, err
		}
	}

	held, err := s.assignmentRepo.ListStaffShiftIntervals(ctx, tx, staff.ID, shift.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load staff shifts: %w", err)
	}
	report := EvaluateStaffing(staff, shift, held)
	if report.HasConflicts && !req.Force {
		return nil, &ShiftConflictError{Report: report}
	}

	assignment, err := s.assignmentRepo.Upsert(ctx, tx, &models.ShiftAssignment{
		ShiftID:     shift.ID,
		StaffID:     staff.ID,
		Status:      target,
		AssignedBy:  req.AssignedBy,
		HasConflict: report.HasConflicts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save assignment: %w", translateRepoError(err, ErrAssignmentNotFound))
	}

	var eventName string
	if target == models.AssignmentFinal {
		if event, err := s.staffRepo.GetEventByID(ctx, tx, shift.EventID); err == nil {
			eventName = event.Name
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit assignment transaction: %w", err)
	}

	if target == models.AssignmentFinal {
		s.notifyFinal(ctx, assignment, shift, eventName)
	}
	assignment.Shift = shift
	return &models.AssignmentResult{Assignment: assignment, Report: report}, nil
}

// checkTransition validates moving an existing row to target.
func checkTransition(current, target models.AssignmentStatus) error {
	switch {
	case current == models.AssignmentConfirmed:
		return ErrAssignmentConfirmed
	case current == models.AssignmentCancelled:
		return nil
	case current == target:
		return ErrAssignmentDuplicate
	case current == models.AssignmentFinal && target == models.AssignmentPreliminary:
		return ErrAssignmentDowngrade
	}
	return nil
}

func (s *assignmentService) loadPair(ctx context.Context, ex repositories.SQLExecutor, shiftID, staffID int64) (*models.Shift, *models.StaffMember, error) {
	shift, err := s.staffRepo.GetShiftByID(ctx, ex, shiftID)
	if err != nil {
		return nil, nil, translateRepoError(err, ErrShiftNotFound)
	}
	staff, err := s.staffRepo.GetStaffMemberByID(ctx, ex, staffID)
	if err != nil {
		return nil, nil, translateRepoError(err, ErrStaffNotFound)
	}
	return shift, staff, nil
}

// checkInvitation consults the gate under a deadline. Lookup failures deny.
func (s *assignmentService) checkInvitation(ctx context.Context, tx *sql.Tx, eventID, staffID int64) error {
	if s.gateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.gateTimeout)
		defer cancel()
	}

	var accepted bool
	var err error
	if txGate, ok := s.gate.(TxInvitationGate); ok {
		accepted, err = txGate.IsAcceptedTx(ctx, tx, eventID, staffID)
	} else {
		accepted, err = s.gate.IsAccepted(ctx, eventID, staffID)
	}
	if err != nil {
		utils.LogWarn(err, "Invitation lookup failed, denying assignment", map[string]interface{}{
			"event_id": eventID,
			"staff_id": staffID,
		})
		return fmt.Errorf("%w: %v", ErrInvitationLookup, err)
	}
	if !accepted {
		return ErrNoAcceptedInvitation
	}
	return nil
}

func (s *assignmentService) notifyFinal(ctx context.Context, a *models.ShiftAssignment, shift *models.Shift, eventName string) {
	if s.dispatcher == nil {
		return
	}
	ctx, cancel := notifyContext(ctx)
	defer cancel()
	err := s.dispatcher.NotifyFinalAssignment(ctx, notifications.FinalAssignment{
		AssignmentID: a.ID,
		StaffID:      a.StaffID,
		ShiftID:      shift.ID,
		EventID:      shift.EventID,
		EventName:    eventName,
		StartTime:    shift.StartTime,
		EndTime:      shift.EndTime,
	})
	if err != nil {
		utils.LogError(err, fmt.Sprintf("Failed to dispatch final assignment notification for assignment %d", a.ID))
	}
}

// BulkAssign runs Assign per staff id, each in its own transaction. Item
// failures are reported in the result, never returned as the call's error.
func (s *assignmentService) BulkAssign(ctx context.Context, req BulkAssignRequest) ([]models.BulkAssignItem, error) {
	if _, ok := req.Type.Status(); !ok {
		return nil, validationError("assignment_type must be %q or %q", models.AssignPreliminary, models.AssignFinal)
	}
	if len(req.StaffIDs) == 0 {
		return nil, validationError("staff_ids must not be empty")
	}

	results := make([]models.BulkAssignItem, 0, len(req.StaffIDs))
	for _, staffID := range req.StaffIDs {
		item := models.BulkAssignItem{StaffID: staffID}
		res, err := s.Assign(ctx, AssignRequest{
			ShiftID:    req.ShiftID,
			StaffID:    staffID,
			Type:       req.Type,
			Force:      req.Force,
			AssignedBy: req.AssignedBy,
		})
		if err != nil {
			item.ErrorCode = ErrorCode(err)
			item.Error = err.Error()
			var conflict *ShiftConflictError
			if errors.As(err, &conflict) {
				report := conflict.Report
				item.Report = &report
			}
		} else {
			item.Success = true
			item.Assignment = res.Assignment
			item.Report = &res.Report
		}
		results = append(results, item)
	}
	return results, nil
}

func (s *assignmentService) Unassign(ctx context.Context, shiftID, staffID int64) (*models.ShiftAssignment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	a, err := s.assignmentRepo.GetByShiftAndStaff(ctx, tx, shiftID, staffID)
	if err != nil {
		return nil, translateRepoError(err, ErrAssignmentNotFound)
	}
	switch a.Status {
	case models.AssignmentConfirmed:
		return nil, ErrAssignmentConfirmed
	case models.AssignmentCancelled:
		return a, nil
	}

	if err := s.assignmentRepo.UpdateStatus(ctx, tx, a.ID, a.Status, models.AssignmentCancelled, nil); err != nil {
		return nil, fmt.Errorf("failed to cancel assignment: %w", translateRepoError(err, ErrConcurrentUpdate))
	}
	updated, err := s.assignmentRepo.GetByID(ctx, tx, a.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload assignment: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit unassign transaction: %w", err)
	}
	return updated, nil
}

func (s *assignmentService) Confirm(ctx context.Context, assignmentID, callingStaffID int64) (*models.ShiftAssignment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	a, err := s.assignmentRepo.GetByID(ctx, tx, assignmentID)
	if err != nil {
		return nil, translateRepoError(err, ErrAssignmentNotFound)
	}
	if a.StaffID != callingStaffID {
		return nil, ErrAssignmentNotOwned
	}
	switch a.Status {
	case models.AssignmentConfirmed:
		return nil, ErrAssignmentConfirmed
	case models.AssignmentFinal:
	default:
		return nil, ErrAssignmentNotFinal
	}

	confirmedAt := s.now().UTC().Truncate(time.Second)
	if err := s.assignmentRepo.UpdateStatus(ctx, tx, a.ID, models.AssignmentFinal, models.AssignmentConfirmed, &confirmedAt); err != nil {
		return nil, fmt.Errorf("failed to confirm assignment: %w", translateRepoError(err, ErrConcurrentUpdate))
	}
	updated, err := s.assignmentRepo.GetByID(ctx, tx, a.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload assignment: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit confirm transaction: %w", err)
	}
	return updated, nil
}

// Evaluate previews the staffing report without writing.
func (s *assignmentService) Evaluate(ctx context.Context, shiftID, staffID int64) (*models.StaffingReport, error) {
	shift, staff, err := s.loadPair(ctx, s.db, shiftID, staffID)
	if err != nil {
		return nil, err
	}
	held, err := s.assignmentRepo.ListStaffShiftIntervals(ctx, s.db, staff.ID, shift.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load staff shifts: %w", err)
	}
	report := EvaluateStaffing(staff, shift, held)
	return &report, nil
}

func (s *assignmentService) ListForShift(ctx context.Context, shiftID int64) ([]models.ShiftAssignment, error) {
	if _, err := s.staffRepo.GetShiftByID(ctx, s.db, shiftID); err != nil {
		return nil, translateRepoError(err, ErrShiftNotFound)
	}
	return s.assignmentRepo.ListByShift(ctx, s.db, shiftID)
}

func (s *assignmentService) ListForStaff(ctx context.Context, staffID int64) ([]models.ShiftAssignment, error) {
	return s.assignmentRepo.ListByStaff(ctx, s.db, staffID)
}
