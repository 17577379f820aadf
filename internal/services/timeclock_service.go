package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"event_staffing_backend/internal/models"
	"event_staffing_backend/internal/notifications"
	"event_staffing_backend/internal/repositories"
	"event_staffing_backend/pkg/utils"
)

// ClockInRequest DTO
type ClockInRequest struct {
	PositionID *int64  `json:"position_id"`
	EventID    *int64  `json:"event_id"`
	ShiftID    *int64  `json:"shift_id"`
	Notes      *string `json:"notes"`
}

// KioskRequest DTO. Token is normally taken from the X-Kiosk-Token header.
type KioskRequest struct {
	Code  string `json:"code" binding:"required"`
	Token string `json:"-"`
	ClockInRequest
}

// ManualEntryRequest DTO
type ManualEntryRequest struct {
	StaffID          int64      `json:"staff_id" binding:"required"`
	PositionID       *int64     `json:"position_id"`
	EventID          *int64     `json:"event_id"`
	ShiftID          *int64     `json:"shift_id"`
	ClockIn          time.Time  `json:"clock_in" binding:"required"`
	ClockOut         *time.Time `json:"clock_out"`
	BreakMinutes     *int       `json:"break_minutes"`
	DisableAutoBreak bool       `json:"disable_auto_break"`
	Notes            *string    `json:"notes"`
	CreatedBy        *int64     `json:"-"`
}

// TimeclockOptions configures kiosk authentication and summaries.
type TimeclockOptions struct {
	KioskCodeSecret       string
	KioskStaticToken      string
	NotifyClockOutSummary bool
}

// --- TimeclockService Interface ---
type TimeclockService interface {
	ClockIn(ctx context.Context, staffID int64, req ClockInRequest) (*models.TimeclockEntry, error)
	ClockOut(ctx context.Context, staffID int64) (*models.ClockOutSummary, error)
	CheckStatus(ctx context.Context, staffID int64) (*models.TimeclockStatusView, error)

	KioskClockIn(ctx context.Context, req KioskRequest) (*models.TimeclockEntry, error)
	KioskClockOut(ctx context.Context, req KioskRequest) (*models.ClockOutSummary, error)
	KioskStatus(ctx context.Context, req KioskRequest) (*models.TimeclockStatusView, error)

	ManualEntry(ctx context.Context, req ManualEntryRequest) (*models.ClockOutSummary, error)
	CorrectEntry(ctx context.Context, entryID int64, c models.EntryCorrection) (*models.ClockOutSummary, error)
	ListEntries(ctx context.Context, filter models.EntryFilter) ([]models.TimeclockEntry, error)
}

type timeclockService struct {
	db            *sql.DB
	staffRepo     repositories.StaffRepository
	timeclockRepo repositories.TimeclockRepository
	calculator    *WorkingTimeCalculator
	dispatcher    notifications.Dispatcher
	opts          TimeclockOptions
	now           func() time.Time
}

// NewTimeclockService creates a new instance of TimeclockService.
func NewTimeclockService(
	db *sql.DB,
	staffRepo repositories.StaffRepository,
	timeclockRepo repositories.TimeclockRepository,
	calculator *WorkingTimeCalculator,
	dispatcher notifications.Dispatcher,
	opts TimeclockOptions,
	now func() time.Time,
) TimeclockService {
	if now == nil {
		now = time.Now
	}
	return &timeclockService{
		db:            db,
		staffRepo:     staffRepo,
		timeclockRepo: timeclockRepo,
		calculator:    calculator,
		dispatcher:    dispatcher,
		opts:          opts,
		now:           now,
	}
}

// HashKioskCode returns the stored form of a personal kiosk code.
func HashKioskCode(secret, code string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.TrimSpace(code)))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *timeclockService) clock() time.Time {
	return s.now().UTC().Truncate(time.Second)
}

// --- Self-service ---

func (s *timeclockService) ClockIn(ctx context.Context, staffID int64, req ClockInRequest) (*models.TimeclockEntry, error) {
	return s.clockIn(ctx, staffID, req, models.SourceSelf)
}

func (s *timeclockService) clockIn(ctx context.Context, staffID int64, req ClockInRequest, source models.EntrySource) (*models.TimeclockEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockStaff(ctx, s.staffRepo, tx, staffID); err != nil {
		return nil, err
	}
	if _, err := s.activeStaff(ctx, tx, staffID); err != nil {
		return nil, err
	}
	eventID, err := s.resolveEvent(ctx, tx, req.EventID, req.ShiftID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNoActive(ctx, tx, staffID); err != nil {
		return nil, err
	}

	entry, err := s.timeclockRepo.Create(ctx, tx, &models.TimeclockEntry{
		StaffID:    staffID,
		PositionID: req.PositionID,
		EventID:    eventID,
		ShiftID:    req.ShiftID,
		ClockIn:    s.clock(),
		Status:     models.TimeclockActive,
		Source:     source,
		Notes:      req.Notes,
	})
	if err != nil {
		return nil, s.createError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, s.createError(err)
	}
	utils.LogInfo("Staff member clocked in", map[string]interface{}{
		"staff_id": staffID,
		"entry_id": entry.ID,
		"source":   string(source),
	})
	return entry, nil
}

func (s *timeclockService) ClockOut(ctx context.Context, staffID int64) (*models.ClockOutSummary, error) {
	// Resolved before the transaction so a slow provider never holds it open.
	policy, degraded := s.calculator.Policy(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockStaff(ctx, s.staffRepo, tx, staffID); err != nil {
		return nil, err
	}
	active, err := s.timeclockRepo.GetActiveByStaff(ctx, tx, staffID)
	if err != nil {
		return nil, translateRepoError(err, ErrNotClockedIn)
	}

	clockOut := s.clock()
	wt, err := CalculateWorkingTime(active.ClockIn, &clockOut, nil, policy)
	if err != nil {
		return nil, err
	}
	wt.PolicyDegraded = degraded

	err = s.timeclockRepo.Update(ctx, tx, active.ID, models.EntryUpdate{
		ExpectStatus: models.TimeclockActive,
		ClockOut:     models.Some(&clockOut),
		GrossMinutes: models.Some(wt.GrossMinutes),
		BreakMinutes: models.Some(wt.BreakMinutes),
		TotalMinutes: models.Some(wt.NetMinutes),
		Status:       models.Some(models.TimeclockCompleted),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to complete time entry: %w", translateRepoError(err, ErrNotClockedIn))
	}
	entry, err := s.timeclockRepo.GetByID(ctx, tx, active.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload time entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit clock-out transaction: %w", err)
	}

	summary := &models.ClockOutSummary{Entry: entry, WorkingTime: wt}
	s.notifySummary(ctx, summary)
	return summary, nil
}

func (s *timeclockService) CheckStatus(ctx context.Context, staffID int64) (*models.TimeclockStatusView, error) {
	if _, err := s.staffRepo.GetStaffMemberByID(ctx, s.db, staffID); err != nil {
		return nil, translateRepoError(err, ErrStaffNotFound)
	}
	return s.status(ctx, staffID)
}

func (s *timeclockService) status(ctx context.Context, staffID int64) (*models.TimeclockStatusView, error) {
	view := &models.TimeclockStatusView{StaffID: staffID}
	active, err := s.timeclockRepo.GetActiveByStaff(ctx, s.db, staffID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return view, nil
		}
		return nil, fmt.Errorf("failed to load active entry: %w", err)
	}
	view.ClockedIn = true
	view.ActiveEntry = active
	if elapsed := int(s.clock().Sub(active.ClockIn) / time.Minute); elapsed > 0 {
		view.ElapsedMinutes = elapsed
	}
	return view, nil
}

// --- Kiosk ---

// kioskStaff authenticates a kiosk request. A configured static token must
// match before the personal code is considered.
func (s *timeclockService) kioskStaff(ctx context.Context, req KioskRequest) (*models.StaffMember, error) {
	if s.opts.KioskStaticToken != "" &&
		subtle.ConstantTimeCompare([]byte(req.Token), []byte(s.opts.KioskStaticToken)) != 1 {
		return nil, ErrInvalidKioskToken
	}
	if strings.TrimSpace(req.Code) == "" {
		return nil, validationError("kiosk code is required")
	}
	staff, err := s.staffRepo.GetStaffMemberByKioskCodeHash(ctx, s.db, HashKioskCode(s.opts.KioskCodeSecret, req.Code))
	if err != nil {
		return nil, translateRepoError(err, ErrInvalidKioskCode)
	}
	if !staff.IsActive {
		return nil, ErrStaffInactive
	}
	return staff, nil
}

func (s *timeclockService) KioskClockIn(ctx context.Context, req KioskRequest) (*models.TimeclockEntry, error) {
	staff, err := s.kioskStaff(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.clockIn(ctx, staff.ID, req.ClockInRequest, models.SourceKiosk)
}

func (s *timeclockService) KioskClockOut(ctx context.Context, req KioskRequest) (*models.ClockOutSummary, error) {
	staff, err := s.kioskStaff(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.ClockOut(ctx, staff.ID)
}

func (s *timeclockService) KioskStatus(ctx context.Context, req KioskRequest) (*models.TimeclockStatusView, error) {
	staff, err := s.kioskStaff(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.status(ctx, staff.ID)
}

// --- Administrative ---

func (s *timeclockService) ManualEntry(ctx context.Context, req ManualEntryRequest) (*models.ClockOutSummary, error) {
	if req.StaffID <= 0 {
		return nil, validationError("staff_id is required")
	}
	if req.ClockIn.IsZero() {
		return nil, validationError("clock_in is required")
	}
	clockIn := req.ClockIn.UTC().Truncate(time.Second)

	status := models.TimeclockActive
	var clockOut *time.Time
	var wt models.WorkingTime
	if req.ClockOut != nil {
		out := req.ClockOut.UTC().Truncate(time.Second)
		clockOut = &out
		status = models.TimeclockCompleted

		manualBreak := req.BreakMinutes
		if manualBreak == nil && req.DisableAutoBreak {
			zero := 0
			manualBreak = &zero
		}
		var err error
		wt, err = s.calculator.Calculate(ctx, clockIn, clockOut, manualBreak)
		if err != nil {
			return nil, err
		}
	} else if req.BreakMinutes != nil {
		return nil, validationError("break_minutes requires clock_out")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockStaff(ctx, s.staffRepo, tx, req.StaffID); err != nil {
		return nil, err
	}
	eventID, err := s.resolveEvent(ctx, tx, req.EventID, req.ShiftID)
	if err != nil {
		return nil, err
	}
	if status == models.TimeclockActive {
		if err := s.ensureNoActive(ctx, tx, req.StaffID); err != nil {
			return nil, err
		}
	}

	entry, err := s.timeclockRepo.Create(ctx, tx, &models.TimeclockEntry{
		StaffID:      req.StaffID,
		PositionID:   req.PositionID,
		EventID:      eventID,
		ShiftID:      req.ShiftID,
		ClockIn:      clockIn,
		ClockOut:     clockOut,
		GrossMinutes: wt.GrossMinutes,
		BreakMinutes: wt.BreakMinutes,
		TotalMinutes: wt.NetMinutes,
		Status:       status,
		Source:       models.SourceManual,
		Notes:        req.Notes,
		CreatedBy:    req.CreatedBy,
	})
	if err != nil {
		return nil, s.createError(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, s.createError(err)
	}
	return &models.ClockOutSummary{Entry: entry, WorkingTime: wt}, nil
}

// CorrectEntry applies an administrative correction. Totals are recomputed
// whenever clock-in, clock-out or break changes; without an explicit break
// the current policy decides it.
func (s *timeclockService) CorrectEntry(ctx context.Context, entryID int64, c models.EntryCorrection) (*models.ClockOutSummary, error) {
	if c.Empty() {
		return nil, validationError("correction has no fields")
	}
	if c.ClockIn.Present && c.ClockIn.Value.IsZero() {
		return nil, validationError("clock_in cannot be cleared")
	}
	if c.BreakMinutes.Present && c.BreakMinutes.Value != nil && *c.BreakMinutes.Value < 0 {
		return nil, validationError("break minutes must not be negative")
	}

	recompute := c.ClockIn.Present || c.ClockOut.Present || c.BreakMinutes.Present
	var policy models.BreakPolicySetting
	var degraded bool
	if recompute && !(c.BreakMinutes.Present && c.BreakMinutes.Value != nil) {
		policy, degraded = s.calculator.Policy(ctx)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	entry, err := s.timeclockRepo.GetByID(ctx, tx, entryID)
	if err != nil {
		return nil, translateRepoError(err, ErrEntryNotFound)
	}
	if err := lockStaff(ctx, s.staffRepo, tx, entry.StaffID); err != nil {
		return nil, err
	}
	// Re-read under the lock; a clock-out may have committed in between.
	if entry, err = s.timeclockRepo.GetByID(ctx, tx, entryID); err != nil {
		return nil, translateRepoError(err, ErrEntryNotFound)
	}

	upd := models.EntryUpdate{
		ExpectStatus: entry.Status,
		PositionID:   c.PositionID,
		EventID:      c.EventID,
		Notes:        c.Notes,
	}

	wt := models.WorkingTime{
		GrossMinutes: entry.GrossMinutes,
		BreakMinutes: entry.BreakMinutes,
		NetMinutes:   entry.TotalMinutes,
		GrossHours:   utils.RoundHours(entry.GrossMinutes),
		NetHours:     utils.RoundHours(entry.TotalMinutes),
	}
	if recompute {
		clockIn := entry.ClockIn
		if c.ClockIn.Present {
			clockIn = c.ClockIn.Value.UTC().Truncate(time.Second)
			upd.ClockIn = models.Some(clockIn)
		}
		clockOut := entry.ClockOut
		if c.ClockOut.Present {
			clockOut = nil
			if c.ClockOut.Value != nil {
				out := c.ClockOut.Value.UTC().Truncate(time.Second)
				clockOut = &out
			}
			upd.ClockOut = models.Some(clockOut)
		}

		var manualBreak *int
		if c.BreakMinutes.Present {
			manualBreak = c.BreakMinutes.Value
		}
		if clockOut == nil && manualBreak != nil {
			return nil, validationError("break_minutes requires clock_out")
		}

		wt, err = CalculateWorkingTime(clockIn, clockOut, manualBreak, policy)
		if err != nil {
			return nil, err
		}
		if clockOut != nil && manualBreak == nil {
			wt.PolicyDegraded = degraded
		}

		status := models.TimeclockCompleted
		if clockOut == nil {
			status = models.TimeclockActive
			if entry.Status != models.TimeclockActive {
				if err := s.ensureNoActive(ctx, tx, entry.StaffID); err != nil {
					return nil, err
				}
			}
		}
		upd.GrossMinutes = models.Some(wt.GrossMinutes)
		upd.BreakMinutes = models.Some(wt.BreakMinutes)
		upd.TotalMinutes = models.Some(wt.NetMinutes)
		upd.Status = models.Some(status)
	}

	if err := s.timeclockRepo.Update(ctx, tx, entry.ID, upd); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrAlreadyClockedIn
		}
		return nil, fmt.Errorf("failed to correct time entry: %w", translateRepoError(err, ErrConcurrentUpdate))
	}
	updated, err := s.timeclockRepo.GetByID(ctx, tx, entry.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload time entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit correction: %w", err)
	}
	utils.LogInfo("Time entry corrected", map[string]interface{}{"entry_id": entry.ID, "staff_id": entry.StaffID})
	return &models.ClockOutSummary{Entry: updated, WorkingTime: wt}, nil
}

func (s *timeclockService) ListEntries(ctx context.Context, filter models.EntryFilter) ([]models.TimeclockEntry, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	return s.timeclockRepo.List(ctx, s.db, filter)
}

func validateFilter(filter models.EntryFilter) error {
	if filter.From != nil && filter.To != nil && !filter.To.After(*filter.From) {
		return validationError("'to' must be after 'from'")
	}
	if filter.Limit < 0 {
		return validationError("limit must not be negative")
	}
	if filter.Status != nil && *filter.Status != models.TimeclockActive && *filter.Status != models.TimeclockCompleted {
		return validationError("unknown status %q", *filter.Status)
	}
	return nil
}

// --- helpers ---

func (s *timeclockService) activeStaff(ctx context.Context, ex repositories.SQLExecutor, staffID int64) (*models.StaffMember, error) {
	staff, err := s.staffRepo.GetStaffMemberByID(ctx, ex, staffID)
	if err != nil {
		return nil, translateRepoError(err, ErrStaffNotFound)
	}
	if !staff.IsActive {
		return nil, ErrStaffInactive
	}
	return staff, nil
}

// resolveEvent fills the event from the shift when only a shift is given and
// rejects a shift that belongs to another event.
func (s *timeclockService) resolveEvent(ctx context.Context, ex repositories.SQLExecutor, eventID, shiftID *int64) (*int64, error) {
	if shiftID == nil {
		return eventID, nil
	}
	shift, err := s.staffRepo.GetShiftByID(ctx, ex, *shiftID)
	if err != nil {
		return nil, translateRepoError(err, ErrShiftNotFound)
	}
	if eventID != nil && *eventID != shift.EventID {
		return nil, validationError("shift %d does not belong to event %d", shift.ID, *eventID)
	}
	return &shift.EventID, nil
}

func (s *timeclockService) ensureNoActive(ctx context.Context, ex repositories.SQLExecutor, staffID int64) error {
	_, err := s.timeclockRepo.GetActiveByStaff(ctx, ex, staffID)
	switch {
	case err == nil:
		return ErrAlreadyClockedIn
	case errors.Is(err, repositories.ErrNotFound):
		return nil
	}
	return fmt.Errorf("failed to check active entry: %w", err)
}

// createError maps a lost race on the one-active index to AlreadyClockedIn.
func (s *timeclockService) createError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrDuplicateKey):
		return ErrAlreadyClockedIn
	case errors.Is(err, repositories.ErrForeignKey):
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return fmt.Errorf("failed to save time entry: %w", err)
}

func (s *timeclockService) notifySummary(ctx context.Context, summary *models.ClockOutSummary) {
	if !s.opts.NotifyClockOutSummary || s.dispatcher == nil || summary.Entry.ClockOut == nil {
		return
	}
	ctx, cancel := notifyContext(ctx)
	defer cancel()
	err := s.dispatcher.NotifyClockOutSummary(ctx, notifications.ClockOutSummary{
		EntryID:      summary.Entry.ID,
		StaffID:      summary.Entry.StaffID,
		ClockIn:      summary.Entry.ClockIn,
		ClockOut:     *summary.Entry.ClockOut,
		GrossMinutes: summary.WorkingTime.GrossMinutes,
		BreakMinutes: summary.WorkingTime.BreakMinutes,
		NetMinutes:   summary.WorkingTime.NetMinutes,
	})
	if err != nil {
		utils.LogError(err, fmt.Sprintf("Failed to dispatch clock-out summary for entry %d", summary.Entry.ID))
	}
}
