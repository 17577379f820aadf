package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"event_staffing_backend/internal/models"
	"event_staffing_backend/internal/repositories"
	"event_staffing_backend/pkg/utils"
)

// Error categories. Every error returned by the engine wraps exactly one of
// these, so callers can branch with errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrStateConflict      = errors.New("state conflict")
	ErrAuthorizationGap   = errors.New("not authorized for this action")
	ErrNotFound           = errors.New("not found")
	ErrDependencyDegraded = errors.New("dependency degraded")
)

// --- Custom Service Errors ---
var (
	ErrAlreadyClockedIn     = fmt.Errorf("%w: staff member is already clocked in", ErrStateConflict)
	ErrNotClockedIn         = fmt.Errorf("%w: staff member is not clocked in", ErrStateConflict)
	ErrAssignmentConfirmed  = fmt.Errorf("%w: assignment is already confirmed", ErrStateConflict)
	ErrAssignmentNotFinal   = fmt.Errorf("%w: only a final assignment can be confirmed", ErrStateConflict)
	ErrAssignmentNotOwned   = fmt.Errorf("%w: assignment belongs to another staff member", ErrStateConflict)
	ErrAssignmentDuplicate  = fmt.Errorf("%w: staff member already holds this assignment status", ErrStateConflict)
	ErrAssignmentDowngrade  = fmt.Errorf("%w: a final assignment cannot be downgraded to preliminary", ErrStateConflict)
	ErrConcurrentUpdate     = fmt.Errorf("%w: record was changed by another request", ErrStateConflict)
	ErrNoAcceptedInvitation = fmt.Errorf("%w: staff member has not accepted the event invitation", ErrAuthorizationGap)
	ErrInvitationLookup     = fmt.Errorf("%w: invitation status could not be verified", ErrAuthorizationGap)
	ErrStaffInactive        = fmt.Errorf("%w: staff member is inactive", ErrAuthorizationGap)
	ErrInvalidKioskCode     = fmt.Errorf("%w: unknown kiosk code", ErrAuthorizationGap)
	ErrInvalidKioskToken    = fmt.Errorf("%w: invalid kiosk token", ErrAuthorizationGap)

	ErrStaffNotFound      = fmt.Errorf("%w: staff member", ErrNotFound)
	ErrShiftNotFound      = fmt.Errorf("%w: shift", ErrNotFound)
	ErrEventNotFound      = fmt.Errorf("%w: event", ErrNotFound)
	ErrAssignmentNotFound = fmt.Errorf("%w: assignment", ErrNotFound)
	ErrEntryNotFound      = fmt.Errorf("%w: time entry", ErrNotFound)
)

// notifyTimeout bounds a dispatcher call made after commit.
const notifyTimeout = 5 * time.Second

// notifyContext detaches ctx from request cancellation and bounds it.
func notifyContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
}

// lockStaff serializes writers that check one staff member's schedule or
// active entry.
func lockStaff(ctx context.Context, repo repositories.StaffRepository, tx *sql.Tx, staffID int64) error {
	if err := repo.LockStaffMember(ctx, tx, staffID); err != nil {
		return translateRepoError(err, ErrStaffNotFound)
	}
	return nil
}

// ShiftConflictError is returned when an unforced assignment overlaps shifts
// the staff member already holds.
type ShiftConflictError struct {
	Report models.StaffingReport
}

func (e *ShiftConflictError) Error() string {
	return fmt.Sprintf("%v: staff member has %d overlapping shift(s)", ErrStateConflict, len(e.Report.ConflictingShifts))
}

func (e *ShiftConflictError) Unwrap() error {
	return ErrStateConflict
}

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// translateRepoError maps storage sentinels onto the service taxonomy.
// notFound is used for repositories.ErrNotFound.
func translateRepoError(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return notFound
	case errors.Is(err, repositories.ErrForeignKey):
		return fmt.Errorf("%w: %v", ErrValidation, err)
	case errors.Is(err, repositories.ErrDuplicateKey):
		return fmt.Errorf("%w: %v", ErrStateConflict, err)
	}
	return err
}

// ErrorCode returns the API error code for err's category.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return utils.ErrCodeValidationFailed
	case errors.Is(err, ErrStateConflict):
		return utils.ErrCodeConflict
	case errors.Is(err, ErrAuthorizationGap):
		return utils.ErrCodeForbidden
	case errors.Is(err, ErrNotFound):
		return utils.ErrCodeNotFound
	case errors.Is(err, ErrDependencyDegraded):
		return utils.ErrCodeDependencyDegraded
	}
	return utils.ErrCodeInternalServerError
}
