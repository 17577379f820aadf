package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"event_staffing_backend/internal/models"
)

// TimeclockRepository persists time entries. Inserting or reopening a second
// active entry for a staff member fails with ErrDuplicateKey.
type TimeclockRepository interface {
	Create(ctx context.Context, executor SQLExecutor, entry *models.TimeclockEntry) (*models.TimeclockEntry, error)
	GetByID(ctx context.Context, executor SQLExecutor, id int64) (*models.TimeclockEntry, error)
	GetActiveByStaff(ctx context.Context, executor SQLExecutor, staffID int64) (*models.TimeclockEntry, error)
	Update(ctx context.Context, executor SQLExecutor, id int64, upd models.EntryUpdate) error
	List(ctx context.Context, executor SQLExecutor, filter models.EntryFilter) ([]models.TimeclockEntry, error)
	ExportRows(ctx context.Context, executor SQLExecutor, filter models.EntryFilter) ([]models.ExportRow, error)
}

type timeclockRepository struct {
	db *sql.DB
}

// NewTimeclockRepository creates a new instance of TimeclockRepository.
func NewTimeclockRepository(db *sql.DB) TimeclockRepository {
	return &timeclockRepository{db: db}
}

func (r *timeclockRepository) exec(executor SQLExecutor) SQLExecutor {
	if executor == nil {
		return r.db
	}
	return executor
}

func stamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

func (r *timeclockRepository) Create(ctx context.Context, executor SQLExecutor, entry *models.TimeclockEntry) (*models.TimeclockEntry, error) {
	ex := r.exec(executor)
	now := stamp(time.Now())
	entry.ClockIn = stamp(entry.ClockIn)
	if entry.ClockOut != nil {
		out := stamp(*entry.ClockOut)
		entry.ClockOut = &out
	}
	entry.CreatedAt = now
	entry.UpdatedAt = now

	query := `INSERT INTO timeclock_entries (staff_id, position_id, event_id, shift_id, clock_in, clock_out,
	              gross_minutes, break_minutes, total_minutes, status, source, notes, created_by, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	          RETURNING id`

	err := ex.QueryRowContext(ctx, query,
		entry.StaffID, nullInt64(entry.PositionID), nullInt64(entry.EventID), nullInt64(entry.ShiftID),
		entry.ClockIn, entry.ClockOut,
		entry.GrossMinutes, entry.BreakMinutes, entry.TotalMinutes,
		string(entry.Status), string(entry.Source), entry.Notes, nullInt64(entry.CreatedBy),
		entry.CreatedAt, entry.UpdatedAt,
	).Scan(&entry.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: staff member %d already has an active entry", ErrDuplicateKey, entry.StaffID)
		}
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: staff, position, event or shift", ErrForeignKey)
		}
		return nil, fmt.Errorf("%w: creating time entry: %v", ErrDatabaseError, err)
	}
	return entry, nil
}

const selectEntry = `SELECT te.id, te.staff_id, te.position_id, te.event_id, te.shift_id, te.clock_in, te.clock_out,
	            te.gross_minutes, te.break_minutes, te.total_minutes, te.status, te.source, te.notes, te.created_by,
	            te.created_at, te.updated_at
	          FROM timeclock_entries te`

func scanEntry(row scanner) (*models.TimeclockEntry, error) {
	var e models.TimeclockEntry
	var positionID, eventID, shiftID, createdBy sql.NullInt64
	var clockOut sql.NullTime
	var status, source string
	err := row.Scan(&e.ID, &e.StaffID, &positionID, &eventID, &shiftID, &e.ClockIn, &clockOut,
		&e.GrossMinutes, &e.BreakMinutes, &e.TotalMinutes, &status, &source, &e.Notes, &createdBy,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning time entry: %v", ErrDatabaseError, err)
	}
	e.PositionID = int64Ptr(positionID)
	e.EventID = int64Ptr(eventID)
	e.ShiftID = int64Ptr(shiftID)
	e.CreatedBy = int64Ptr(createdBy)
	e.ClockIn = e.ClockIn.UTC()
	e.ClockOut = timePtr(clockOut)
	e.Status = models.TimeclockStatus(status)
	e.Source = models.EntrySource(source)
	return &e, nil
}

func (r *timeclockRepository) GetByID(ctx context.Context, executor SQLExecutor, id int64) (*models.TimeclockEntry, error) {
	return scanEntry(r.exec(executor).QueryRowContext(ctx, selectEntry+` WHERE te.id = $1`, id))
}

func (r *timeclockRepository) GetActiveByStaff(ctx context.Context, executor SQLExecutor, staffID int64) (*models.TimeclockEntry, error) {
	return scanEntry(r.exec(executor).QueryRowContext(ctx,
		selectEntry+` WHERE te.staff_id = $1 AND te.status = $2`, staffID, string(models.TimeclockActive)))
}

// Update applies the present fields of upd. updated_at is always bumped.
// ErrNotFound means no row matched the id and ExpectStatus.
func (r *timeclockRepository) Update(ctx context.Context, executor SQLExecutor, id int64, upd models.EntryUpdate) error {
	setClauses := []string{}
	args := []interface{}{}
	set := func(column string, value interface{}) {
		args = append(args, value)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.PositionID.Present {
		set("position_id", nullInt64(upd.PositionID.Value))
	}
	if upd.EventID.Present {
		set("event_id", nullInt64(upd.EventID.Value))
	}
	if upd.ClockIn.Present {
		set("clock_in", stamp(upd.ClockIn.Value))
	}
	if upd.ClockOut.Present {
		var out sql.NullTime
		if upd.ClockOut.Value != nil {
			out = sql.NullTime{Time: stamp(*upd.ClockOut.Value), Valid: true}
		}
		set("clock_out", out)
	}
	if upd.GrossMinutes.Present {
		set("gross_minutes", upd.GrossMinutes.Value)
	}
	if upd.BreakMinutes.Present {
		set("break_minutes", upd.BreakMinutes.Value)
	}
	if upd.TotalMinutes.Present {
		set("total_minutes", upd.TotalMinutes.Value)
	}
	if upd.Status.Present {
		set("status", string(upd.Status.Value))
	}
	if upd.Notes.Present {
		set("notes", upd.Notes.Value)
	}
	set("updated_at", stamp(time.Now()))

	args = append(args, id)
	query := fmt.Sprintf("UPDATE timeclock_entries SET %s WHERE id = $%d", strings.Join(setClauses, ", "), len(args))
	if upd.ExpectStatus != "" {
		args = append(args, string(upd.ExpectStatus))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}

	res, err := r.exec(executor).ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: staff member already has an active entry", ErrDuplicateKey)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: position or event", ErrForeignKey)
		}
		return fmt.Errorf("%w: updating time entry %d: %v", ErrDatabaseError, id, err)
	}
	return requireAffected(res)
}

// whereClause renders filter conditions with placeholders numbered from 1.
func whereClause(filter models.EntryFilter) (string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}
	add := func(cond string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.StaffID != nil {
		add("te.staff_id = $%d", *filter.StaffID)
	}
	if filter.EventID != nil {
		add("te.event_id = $%d", *filter.EventID)
	}
	if filter.Status != nil {
		add("te.status = $%d", string(*filter.Status))
	}
	if filter.From != nil {
		add("te.clock_in >= $%d", stamp(*filter.From))
	}
	if filter.To != nil {
		add("te.clock_in < $%d", stamp(*filter.To))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func (r *timeclockRepository) List(ctx context.Context, executor SQLExecutor, filter models.EntryFilter) ([]models.TimeclockEntry, error) {
	where, args := whereClause(filter)
	query := selectEntry + where + ` ORDER BY te.clock_in DESC, te.id DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.exec(executor).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: listing time entries: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	entries := []models.TimeclockEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating time entries: %v", ErrDatabaseError, err)
	}
	return entries, nil
}

// ExportRows returns completed entries with their stored totals, oldest
// first. filter.Status is ignored.
func (r *timeclockRepository) ExportRows(ctx context.Context, executor SQLExecutor, filter models.EntryFilter) ([]models.ExportRow, error) {
	completed := models.TimeclockCompleted
	filter.Status = &completed
	where, args := whereClause(filter)

	query := `SELECT te.id, te.staff_id, sm.full_name, te.clock_in, te.clock_out,
	                 te.gross_minutes, te.break_minutes, te.total_minutes
	          FROM timeclock_entries te
	          JOIN staff_members sm ON sm.id = te.staff_id` + where + `
	          ORDER BY te.clock_in, te.id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.exec(executor).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: exporting time entries: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	out := []models.ExportRow{}
	for rows.Next() {
		var row models.ExportRow
		err := rows.Scan(&row.EntryID, &row.StaffID, &row.StaffName, &row.ClockIn, &row.ClockOut,
			&row.GrossMinutes, &row.BreakMinutes, &row.NetMinutes)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning export row: %v", ErrDatabaseError, err)
		}
		row.ClockIn = row.ClockIn.UTC()
		row.ClockOut = row.ClockOut.UTC()
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating export rows: %v", ErrDatabaseError, err)
	}
	return out, nil
}
