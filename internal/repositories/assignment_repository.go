package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"event_staffing_backend/internal/models"
)

// AssignmentRepository persists shift assignments. One row exists per
// (shift, staff) pair; cancellation is a status, not a delete.
type AssignmentRepository interface {
	GetByID(ctx context.Context, executor SQLExecutor, id int64) (*models.ShiftAssignment, error)
	GetByShiftAndStaff(ctx context.Context, executor SQLExecutor, shiftID, staffID int64) (*models.ShiftAssignment, error)
	Upsert(ctx context.Context, executor SQLExecutor, a *models.ShiftAssignment) (*models.ShiftAssignment, error)
	UpdateStatus(ctx context.Context, executor SQLExecutor, id int64, from, to models.AssignmentStatus, confirmedAt *time.Time) error
	ListStaffShiftIntervals(ctx context.Context, executor SQLExecutor, staffID, excludeShiftID int64) ([]models.ShiftRef, error)
	ListByShift(ctx context.Context, executor SQLExecutor, shiftID int64) ([]models.ShiftAssignment, error)
	ListByStaff(ctx context.Context, executor SQLExecutor, staffID int64) ([]models.ShiftAssignment, error)
}

type assignmentRepository struct {
	db *sql.DB
}

// NewAssignmentRepository creates a new instance of AssignmentRepository.
func NewAssignmentRepository(db *sql.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) exec(executor SQLExecutor) SQLExecutor {
	if executor == nil {
		return r.db
	}
	return executor
}

const selectAssignment = `SELECT sa.id, sa.shift_id, sa.staff_id, sa.status, sa.assigned_by, sa.has_conflict, sa.confirmed_at,
	            sa.created_at, sa.updated_at
	          FROM shift_assignments sa`

func scanAssignment(row scanner) (*models.ShiftAssignment, error) {
	var a models.ShiftAssignment
	var status string
	var assignedBy sql.NullInt64
	var confirmedAt sql.NullTime
	err := row.Scan(&a.ID, &a.ShiftID, &a.StaffID, &status, &assignedBy, &a.HasConflict, &confirmedAt,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning assignment: %v", ErrDatabaseError, err)
	}
	a.Status = models.AssignmentStatus(status)
	a.AssignedBy = int64Ptr(assignedBy)
	a.ConfirmedAt = timePtr(confirmedAt)
	return &a, nil
}

func (r *assignmentRepository) GetByID(ctx context.Context, executor SQLExecutor, id int64) (*models.ShiftAssignment, error) {
	return scanAssignment(r.exec(executor).QueryRowContext(ctx, selectAssignment+` WHERE sa.id = $1`, id))
}

func (r *assignmentRepository) GetByShiftAndStaff(ctx context.Context, executor SQLExecutor, shiftID, staffID int64) (*models.ShiftAssignment, error) {
	return scanAssignment(r.exec(executor).QueryRowContext(ctx,
		selectAssignment+` WHERE sa.shift_id = $1 AND sa.staff_id = $2`, shiftID, staffID))
}

// Upsert writes the assignment for its (shift, staff) pair, replacing status,
// assigner and conflict marker of an existing row. confirmed_at is reset.
func (r *assignmentRepository) Upsert(ctx context.Context, executor SQLExecutor, a *models.ShiftAssignment) (*models.ShiftAssignment, error) {
	ex := r.exec(executor)
	now := time.Now().UTC().Truncate(time.Second)

	query := `
	    INSERT INTO shift_assignments (shift_id, staff_id, status, assigned_by, has_conflict, confirmed_at, created_at, updated_at)
	    VALUES ($1, $2, $3, $4, $5, NULL, $6, $7)
	    ON CONFLICT (shift_id, staff_id)
	    DO UPDATE SET status = EXCLUDED.status, assigned_by = EXCLUDED.assigned_by,
	                  has_conflict = EXCLUDED.has_conflict, confirmed_at = NULL, updated_at = EXCLUDED.updated_at
	    RETURNING id`

	var id int64
	err := ex.QueryRowContext(ctx, query,
		a.ShiftID, a.StaffID, string(a.Status), nullInt64(a.AssignedBy), a.HasConflict, now, now,
	).Scan(&id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: shift or staff member", ErrForeignKey)
		}
		return nil, fmt.Errorf("%w: upserting assignment: %v", ErrDatabaseError, err)
	}
	return r.GetByID(ctx, ex, id)
}

// UpdateStatus moves the row from one status to another. ErrNotFound means
// the row is missing or no longer in the from status.
func (r *assignmentRepository) UpdateStatus(ctx context.Context, executor SQLExecutor, id int64, from, to models.AssignmentStatus, confirmedAt *time.Time) error {
	var confirmed sql.NullTime
	if confirmedAt != nil {
		confirmed = sql.NullTime{Time: confirmedAt.UTC().Truncate(time.Second), Valid: true}
	}
	res, err := r.exec(executor).ExecContext(ctx,
		`UPDATE shift_assignments SET status = $1, confirmed_at = $2, updated_at = $3 WHERE id = $4 AND status = $5`,
		string(to), confirmed, time.Now().UTC().Truncate(time.Second), id, string(from))
	if err != nil {
		return fmt.Errorf("%w: updating assignment %d: %v", ErrDatabaseError, id, err)
	}
	return requireAffected(res)
}

// ListStaffShiftIntervals returns the shifts the staff member holds a
// non-cancelled assignment on, across all events.
func (r *assignmentRepository) ListStaffShiftIntervals(ctx context.Context, executor SQLExecutor, staffID, excludeShiftID int64) ([]models.ShiftRef, error) {
	rows, err := r.exec(executor).QueryContext(ctx,
		`SELECT s.id, s.event_id, s.start_time, s.end_time
		 FROM shift_assignments sa
		 JOIN shifts s ON s.id = sa.shift_id
		 WHERE sa.staff_id = $1 AND sa.status <> $2 AND s.id <> $3
		 ORDER BY s.start_time, s.id`,
		staffID, string(models.AssignmentCancelled), excludeShiftID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing staff shifts: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	refs := []models.ShiftRef{}
	for rows.Next() {
		var ref models.ShiftRef
		if err := rows.Scan(&ref.ShiftID, &ref.EventID, &ref.StartTime, &ref.EndTime); err != nil {
			return nil, fmt.Errorf("%w: scanning staff shift: %v", ErrDatabaseError, err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating staff shifts: %v", ErrDatabaseError, err)
	}
	return refs, nil
}

func (r *assignmentRepository) ListByShift(ctx context.Context, executor SQLExecutor, shiftID int64) ([]models.ShiftAssignment, error) {
	return r.list(ctx, executor, selectAssignment+` WHERE sa.shift_id = $1 ORDER BY sa.id`, shiftID)
}

// ListByStaff returns the staff member's assignments with their shifts,
// ordered by shift start.
func (r *assignmentRepository) ListByStaff(ctx context.Context, executor SQLExecutor, staffID int64) ([]models.ShiftAssignment, error) {
	rows, err := r.exec(executor).QueryContext(ctx,
		`SELECT sa.id, sa.shift_id, sa.staff_id, sa.status, sa.assigned_by, sa.has_conflict, sa.confirmed_at,
		        sa.created_at, sa.updated_at,
		        s.event_id, s.start_time, s.end_time, s.required_staff_count, s.position_id, s.notes
		 FROM shift_assignments sa
		 JOIN shifts s ON s.id = sa.shift_id
		 WHERE sa.staff_id = $1
		 ORDER BY s.start_time, sa.id`, staffID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing assignments: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	out := []models.ShiftAssignment{}
	for rows.Next() {
		var a models.ShiftAssignment
		var s models.Shift
		var status string
		var assignedBy, positionID sql.NullInt64
		var confirmedAt sql.NullTime
		err := rows.Scan(&a.ID, &a.ShiftID, &a.StaffID, &status, &assignedBy, &a.HasConflict, &confirmedAt,
			&a.CreatedAt, &a.UpdatedAt,
			&s.EventID, &s.StartTime, &s.EndTime, &s.RequiredStaffCount, &positionID, &s.Notes)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning assignment: %v", ErrDatabaseError, err)
		}
		a.Status = models.AssignmentStatus(status)
		a.AssignedBy = int64Ptr(assignedBy)
		a.ConfirmedAt = timePtr(confirmedAt)
		s.ID = a.ShiftID
		s.PositionID = int64Ptr(positionID)
		a.Shift = &s
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating assignments: %v", ErrDatabaseError, err)
	}
	return out, nil
}

func (r *assignmentRepository) list(ctx context.Context, executor SQLExecutor, query string, args ...interface{}) ([]models.ShiftAssignment, error) {
	rows, err := r.exec(executor).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: listing assignments: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	out := []models.ShiftAssignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating assignments: %v", ErrDatabaseError, err)
	}
	return out, nil
}
