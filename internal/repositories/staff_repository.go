package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"event_staffing_backend/internal/models"
)

// StaffRepository defines the interface for staff, event and shift related database operations.
type StaffRepository interface {
	// StaffMember methods
	CreateStaffMember(ctx context.Context, executor SQLExecutor, staff *models.StaffMember) (*models.StaffMember, error)
	GetStaffMemberByID(ctx context.Context, executor SQLExecutor, id int64) (*models.StaffMember, error)
	GetStaffMemberByUserID(ctx context.Context, executor SQLExecutor, userID int64) (*models.StaffMember, error)
	GetStaffMemberByKioskCodeHash(ctx context.Context, executor SQLExecutor, hash string) (*models.StaffMember, error)
	SetKioskCodeHash(ctx context.Context, executor SQLExecutor, staffID int64, hash *string) error
	SetStaffActive(ctx context.Context, executor SQLExecutor, staffID int64, active bool) error
	LockStaffMember(ctx context.Context, executor SQLExecutor, staffID int64) error

	// Reference data
	CreateQualification(ctx context.Context, executor SQLExecutor, name string) (int64, error)
	CreatePosition(ctx context.Context, executor SQLExecutor, name string) (int64, error)

	// Event and Shift methods
	CreateEvent(ctx context.Context, executor SQLExecutor, event *models.Event) (*models.Event, error)
	GetEventByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Event, error)
	CreateShift(ctx context.Context, executor SQLExecutor, shift *models.Shift) (*models.Shift, error)
	GetShiftByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Shift, error)
}

type staffRepository struct {
	db *sql.DB
}

// NewStaffRepository creates a new instance of StaffRepository.
func NewStaffRepository(db *sql.DB) StaffRepository {
	return &staffRepository{db: db}
}

func (r *staffRepository) exec(executor SQLExecutor) SQLExecutor {
	if executor == nil {
		return r.db
	}
	return executor
}

// --- StaffMember Methods ---

func (r *staffRepository) CreateStaffMember(ctx context.Context, executor SQLExecutor, staff *models.StaffMember) (*models.StaffMember, error) {
	ex := r.exec(executor)
	query := `INSERT INTO staff_members (user_id, full_name, phone_number, kiosk_code_hash, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`

	currentTime := time.Now().UTC().Truncate(time.Second)
	staff.CreatedAt = currentTime
	staff.UpdatedAt = currentTime

	err := ex.QueryRowContext(ctx, query,
		nullInt64(staff.UserID), staff.FullName, staff.PhoneNumber, staff.KioskCodeHash,
		staff.IsActive, staff.CreatedAt, staff.UpdatedAt,
	).Scan(&staff.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: user or kiosk code already linked to another staff member", ErrDuplicateKey)
		}
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: user", ErrForeignKey)
		}
		return nil, fmt.Errorf("%w: creating staff member: %v", ErrDatabaseError, err)
	}

	for _, qid := range staff.QualificationIDs {
		_, err := ex.ExecContext(ctx,
			`INSERT INTO staff_qualifications (staff_id, qualification_id) VALUES ($1, $2)`, staff.ID, qid)
		if err != nil {
			if isForeignKeyViolation(err) {
				return nil, fmt.Errorf("%w: qualification %d", ErrForeignKey, qid)
			}
			if isUniqueViolation(err) {
				continue
			}
			return nil, fmt.Errorf("%w: adding staff qualification: %v", ErrDatabaseError, err)
		}
	}
	if staff.QualificationIDs == nil {
		staff.QualificationIDs = []int64{}
	}
	return staff, nil
}

const selectStaffMember = `SELECT id, user_id, full_name, phone_number, kiosk_code_hash, is_active, created_at, updated_at
	          FROM staff_members`

func (r *staffRepository) getStaffMember(ctx context.Context, executor SQLExecutor, where string, arg interface{}) (*models.StaffMember, error) {
	ex := r.exec(executor)
	var staff models.StaffMember
	var userID sql.NullInt64
	err := ex.QueryRowContext(ctx, selectStaffMember+" WHERE "+where, arg).Scan(
		&staff.ID, &userID, &staff.FullName, &staff.PhoneNumber, &staff.KioskCodeHash,
		&staff.IsActive, &staff.CreatedAt, &staff.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: fetching staff member: %v", ErrDatabaseError, err)
	}
	staff.UserID = int64Ptr(userID)

	staff.QualificationIDs, err = queryIDs(ctx, ex,
		`SELECT qualification_id FROM staff_qualifications WHERE staff_id = $1 ORDER BY qualification_id`, staff.ID)
	if err != nil {
		return nil, err
	}
	return &staff, nil
}

func (r *staffRepository) GetStaffMemberByID(ctx context.Context, executor SQLExecutor, id int64) (*models.StaffMember, error) {
	return r.getStaffMember(ctx, executor, "id = $1", id)
}

func (r *staffRepository) GetStaffMemberByUserID(ctx context.Context, executor SQLExecutor, userID int64) (*models.StaffMember, error) {
	return r.getStaffMember(ctx, executor, "user_id = $1", userID)
}

func (r *staffRepository) GetStaffMemberByKioskCodeHash(ctx context.Context, executor SQLExecutor, hash string) (*models.StaffMember, error) {
	return r.getStaffMember(ctx, executor, "kiosk_code_hash = $1", hash)
}

// SetKioskCodeHash replaces the staff member's kiosk code hash; nil clears it.
func (r *staffRepository) SetKioskCodeHash(ctx context.Context, executor SQLExecutor, staffID int64, hash *string) error {
	res, err := r.exec(executor).ExecContext(ctx,
		`UPDATE staff_members SET kiosk_code_hash = $1, updated_at = $2 WHERE id = $3`,
		hash, time.Now().UTC().Truncate(time.Second), staffID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: kiosk code already in use", ErrDuplicateKey)
		}
		return fmt.Errorf("%w: setting kiosk code: %v", ErrDatabaseError, err)
	}
	return requireAffected(res)
}

func (r *staffRepository) SetStaffActive(ctx context.Context, executor SQLExecutor, staffID int64, active bool) error {
	res, err := r.exec(executor).ExecContext(ctx,
		`UPDATE staff_members SET is_active = $1, updated_at = $2 WHERE id = $3`,
		active, time.Now().UTC().Truncate(time.Second), staffID)
	if err != nil {
		return fmt.Errorf("%w: updating staff member: %v", ErrDatabaseError, err)
	}
	return requireAffected(res)
}

// LockStaffMember takes a write lock on the staff row for the rest of the
// transaction. Writers that check a staff member's schedule or active entry
// call it first so concurrent checks queue instead of reading the same state.
func (r *staffRepository) LockStaffMember(ctx context.Context, executor SQLExecutor, staffID int64) error {
	res, err := r.exec(executor).ExecContext(ctx,
		`UPDATE staff_members SET updated_at = updated_at WHERE id = $1`, staffID)
	if err != nil {
		return fmt.Errorf("%w: locking staff member %d: %v", ErrDatabaseError, staffID, err)
	}
	return requireAffected(res)
}

// --- Reference data ---

func (r *staffRepository) CreateQualification(ctx context.Context, executor SQLExecutor, name string) (int64, error) {
	return insertNamed(ctx, r.exec(executor), "qualifications", name)
}

func (r *staffRepository) CreatePosition(ctx context.Context, executor SQLExecutor, name string) (int64, error) {
	return insertNamed(ctx, r.exec(executor), "positions", name)
}

func insertNamed(ctx context.Context, ex SQLExecutor, table, name string) (int64, error) {
	var id int64
	err := ex.QueryRowContext(ctx, `INSERT INTO `+table+` (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %s %q", ErrDuplicateKey, table, name)
		}
		return 0, fmt.Errorf("%w: inserting into %s: %v", ErrDatabaseError, table, err)
	}
	return id, nil
}

// --- Event and Shift Methods ---

func (r *staffRepository) CreateEvent(ctx context.Context, executor SQLExecutor, event *models.Event) (*models.Event, error) {
	currentTime := time.Now().UTC().Truncate(time.Second)
	event.StartsAt = event.StartsAt.UTC().Truncate(time.Second)
	event.EndsAt = event.EndsAt.UTC().Truncate(time.Second)
	event.CreatedAt = currentTime
	event.UpdatedAt = currentTime

	err := r.exec(executor).QueryRowContext(ctx,
		`INSERT INTO events (name, starts_at, ends_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		event.Name, event.StartsAt, event.EndsAt, event.CreatedAt, event.UpdatedAt,
	).Scan(&event.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: creating event: %v", ErrDatabaseError, err)
	}
	return event, nil
}

func (r *staffRepository) GetEventByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Event, error) {
	var event models.Event
	err := r.exec(executor).QueryRowContext(ctx,
		`SELECT id, name, starts_at, ends_at, created_at, updated_at FROM events WHERE id = $1`, id,
	).Scan(&event.ID, &event.Name, &event.StartsAt, &event.EndsAt, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: fetching event %d: %v", ErrDatabaseError, id, err)
	}
	return &event, nil
}

func (r *staffRepository) CreateShift(ctx context.Context, executor SQLExecutor, shift *models.Shift) (*models.Shift, error) {
	ex := r.exec(executor)
	currentTime := time.Now().UTC().Truncate(time.Second)
	shift.StartTime = shift.StartTime.UTC().Truncate(time.Second)
	shift.EndTime = shift.EndTime.UTC().Truncate(time.Second)
	shift.CreatedAt = currentTime
	shift.UpdatedAt = currentTime

	err := ex.QueryRowContext(ctx,
		`INSERT INTO shifts (event_id, start_time, end_time, required_staff_count, position_id, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		shift.EventID, shift.StartTime, shift.EndTime, shift.RequiredStaffCount,
		nullInt64(shift.PositionID), shift.Notes, shift.CreatedAt, shift.UpdatedAt,
	).Scan(&shift.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: event or position", ErrForeignKey)
		}
		return nil, fmt.Errorf("%w: creating shift: %v", ErrDatabaseError, err)
	}

	for _, qid := range shift.QualificationIDs {
		_, err := ex.ExecContext(ctx,
			`INSERT INTO shift_qualifications (shift_id, qualification_id) VALUES ($1, $2)`, shift.ID, qid)
		if err != nil {
			if isForeignKeyViolation(err) {
				return nil, fmt.Errorf("%w: qualification %d", ErrForeignKey, qid)
			}
			if isUniqueViolation(err) {
				continue
			}
			return nil, fmt.Errorf("%w: adding shift qualification: %v", ErrDatabaseError, err)
		}
	}
	if shift.QualificationIDs == nil {
		shift.QualificationIDs = []int64{}
	}
	return shift, nil
}

func (r *staffRepository) GetShiftByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Shift, error) {
	ex := r.exec(executor)
	var shift models.Shift
	var positionID sql.NullInt64
	err := ex.QueryRowContext(ctx,
		`SELECT id, event_id, start_time, end_time, required_staff_count, position_id, notes, created_at, updated_at
		 FROM shifts WHERE id = $1`, id,
	).Scan(&shift.ID, &shift.EventID, &shift.StartTime, &shift.EndTime, &shift.RequiredStaffCount,
		&positionID, &shift.Notes, &shift.CreatedAt, &shift.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: fetching shift %d: %v", ErrDatabaseError, id, err)
	}
	shift.PositionID = int64Ptr(positionID)

	shift.QualificationIDs, err = queryIDs(ctx, ex,
		`SELECT qualification_id FROM shift_qualifications WHERE shift_id = $1 ORDER BY qualification_id`, shift.ID)
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

// queryIDs runs a single-column id query. The result is never nil.
func queryIDs(ctx context.Context, ex SQLExecutor, query string, args ...interface{}) ([]int64, error) {
	rows, err := ex.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: scanning id: %v", ErrDatabaseError, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating ids: %v", ErrDatabaseError, err)
	}
	return ids, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected: %v", ErrDatabaseError, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
