package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"event_staffing_backend/internal/models"
	"event_staffing_backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockInClockOut_NoPolicy(t *testing.T) {
	f := newFixture(t, withPolicy(StaticBreakPolicy(models.BreakPolicySetting{})))
	ctx := context.Background()
	staff := testutil.SeedStaff(t, f.db, "Ada")

	entry, err := f.timeclock.ClockIn(ctx, staff.ID, ClockInRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.TimeclockActive, entry.Status)
	assert.Equal(t, models.SourceSelf, entry.Source)
	assert.True(t, f.clock.Now().Equal(entry.ClockIn))

	f.clock.Advance(7*time.Hour + 20*time.Minute)
	summary, err := f.timeclock.ClockOut(ctx, staff.ID)
	require.NoError(t, err)
	assert.Equal(t, 440, summary.WorkingTime.GrossMinutes)
	assert.Equal(t, 440, summary.WorkingTime.NetMinutes)
	assert.Equal(t, models.TimeclockCompleted, summary.Entry.Status)
	assert.Equal(t, 440, summary.Entry.TotalMinutes)
	require.NotNil(t, summary.Entry.ClockOut)

	_, err = f.timeclock.ClockOut(ctx, staff.ID)
	assert.ErrorIs(t, err, ErrNotClockedIn)
}

func TestClockOut_AppliesTieredBreak(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	staff := testutil.SeedStaff(t, f.db, "Ada")

	_, err := f.timeclock.ClockIn(ctx, staff.ID, ClockInRequest{})
	require.NoError(t, err)
	f.clock.Advance(510 * time.Minute)
	summary, err := f.timeclock.ClockOut(ctx, staff.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, summary.Entry.BreakMinutes)
	assert.Equal(t, 480, summary.Entry.TotalMinutes)
	assert.Equal(t, 8.0, summary.WorkingTime.NetHours)

	sums := f.recorder.Summaries()
	require.Len(t, sums, 1)
	assert.Equal(t, 480, sums[0].NetMinutes)

	_, err = f.timeclock.ClockIn(ctx, staff.ID, ClockInRequest{})
	require.NoError(t, err)
	f.clock.Advance(630 * time.Minute)
	summary, err = f.timeclock.ClockOut(ctx, staff.ID)
	require.NoError(t, err)
	assert.Equal(t, 45, summary.Entry.BreakMinutes)
	assert.Equal(t, 585, summary.Entry.TotalMinutes)
}

func TestClockOut_DegradedPolicyStillCompletes(t *testing.T) {
	f := newFixture(t, withPolicy(failingPolicy{err: errors.New("settings unavailable")}))
	ctx := context.Background()
	staff := testutil.SeedStaff(t, f.db, "Ada")

	_, err := f.timeclock.ClockIn(ctx, staff.ID, ClockInRequest{})
	require.NoError(t, err)
	f.clock.Advance(10 * time.Hour)
	summary, err := f.timeclock.ClockOut(ctx, staff.ID)
	require.NoError(t, err)
	assert.True(t, summary.WorkingTime.PolicyDegraded)
	assert.Zero(t, summary.Entry.BreakMinutes)
	assert.Equal(t, 600, summary.Entry.TotalMinutes)
}

func TestClockIn_AlreadyClockedIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	staff := testutil.SeedStaff(t, f.db, "Ada")

	_, err := f.timeclock.ClockIn(ctx, staff.ID, ClockInRequest{})
	require.NoError(t, err)
	_, err = f.timeclock.ClockIn(ctx, staff.ID, ClockInRequest{})
	assert.ErrorIs(t, err, ErrAlreadyClockedIn)
	assert.ErrorIs(t, err, ErrStateConflict)

	_, err = f.timeclock.ClockIn(ctx, 999, ClockInRequest{})
	assert.ErrorIs(t, err, ErrStaffNotFound)
}

func TestClockIn_ConcurrentSingleWinner(t *testing.T) {
	f := newFixture(t)
	staff := testutil.SeedStaff(t, f.db, "Ada")

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = f.timeclock.ClockIn(context.Background(), staff.ID, ClockInRequest{})
		}(i)
	}
	close(start)
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrAlreadyClockedIn):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, callers-1, lost)

	var active int
	require.NoError(t, f.db.QueryRow("SELECT COUNT(*) FROM timeclock_entries WHERE staff_id = $1 AND status = 'active'", staff.ID).Scan(&active))
	assert.Equal(t, 1, active)
}

func TestClockIn_ShiftResolvesEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	staff := testutil.SeedStaff(t, f.db, "Ada")
	event := testutil.SeedEvent(t, f.db, "Festival", day, day.Add(24*time.Hour))
	other := testutil.SeedEvent(t, f.db, "Other", day, day.Add(24*time.Hour))
	shift := testutil.SeedShift(t, f.db, event.ID, day.Add(8*time.Hour), day.Add(16*time.Hour))

	_, err := f.timeclock.ClockIn(ctx, staff.ID, ClockInRequest{ShiftID: &shift.ID, EventID: &other.ID})
	assert.ErrorIs(t, err, ErrValidation)

	entry, err := f.timeclock.ClockIn(ctx, staff.ID, ClockInRequest{ShiftID: &shift.ID})
	require.NoError(t, err)
	require.NotNil(t, entry.EventID)
	assert.Equal(t, event.ID, *entry.EventID)
}

func TestCheckStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	staff := testutil.SeedStaff(t, f.db, "Ada")

	view, err := f.timeclock.CheckStatus(ctx, staff.ID)
	require.NoError(t, err)
	assert.False(t, view.ClockedIn)
	assert.Nil(t, view.ActiveEntry)

	_, err = f.timeclock.ClockIn(ctx, staff.ID, ClockInRequest{})
	require.NoError(t, err)
	f.clock.Advance(95 * time.Minute)

	view, err = f.timeclock.CheckStatus(ctx, staff.ID)
	require.NoError(t, err)
	assert.True(t, view.ClockedIn)
	assert.Equal(t, 95, view.ElapsedMinutes)

	_, err = f.timeclock.CheckStatus(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKiosk(t *testing.T) {
	f := newFixture(t, withKioskToken("front-desk"))
	ctx := context.Background()
	staff := testutil.SeedStaff(t, f.db, "Ada")
	require.NoError(t, f.staff.SetKioskCode(ctx, staff.ID, "4711"))

	_, err := f.timeclock.KioskClockIn(ctx, KioskRequest{Code: "4711", Token: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidKioskToken)
	_, err = f.timeclock.KioskClockIn(ctx, KioskRequest{Code: "0000", Token: "front-desk"})
	assert.ErrorIs(t, err, ErrInvalidKioskCode)
	_, err = f.timeclock.KioskClockIn(ctx, KioskRequest{Code: " ", Token: "front-desk"})
	assert.ErrorIs(t, err, ErrValidation)

	entry, err := f.timeclock.KioskClockIn(ctx, KioskRequest{Code: "4711", Token: "front-desk"})
	require.NoError(t, err)
	assert.Equal(t, models.SourceKiosk, entry.Source)

	_, err = f.timeclock.KioskClockIn(ctx, KioskRequest{Code: "4711", Token: "front-desk"})
	assert.ErrorIs(t, err, ErrAlreadyClockedIn)

	f.clock.Advance(2 * time.Hour)
	view, err := f.timeclock.KioskStatus(ctx, KioskRequest{Code: "4711", Token: "front-desk"})
	require.NoError(t, err)
	assert.Equal(t, 120, view.ElapsedMinutes)

	summary, err := f.timeclock.KioskClockOut(ctx, KioskRequest{Code: "4711", Token: "front-desk"})
	require.NoError(t, err)
	assert.Equal(t, 120, summary.Entry.TotalMinutes)

	require.NoError(t, f.staff.SetStaffActive(ctx, staff.ID, false))
	_, err = f.timeclock.KioskClockIn(ctx, KioskRequest{Code: "4711", Token: "front-desk"})
	assert.ErrorIs(t, err, ErrStaffInactive)
}

func TestManualEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	staff := testutil.SeedStaff(t, f.db, "Ada")
	in := day.Add(8 * time.Hour)
	out := in.Add(630 * time.Minute)

	res, err := f.timeclock.ManualEntry(ctx, ManualEntryRequest{StaffID: staff.ID, ClockIn: in, ClockOut: &out})
	require.NoError(t, err)
	assert.Equal(t, models.TimeclockCompleted, res.Entry.Status)
	assert.Equal(t, models.SourceManual, res.Entry.Source)
	assert.Equal(t, 45, res.Entry.BreakMinutes)

	res, err = f.timeclock.ManualEntry(ctx, ManualEntryRequest{StaffID: staff.ID, ClockIn: in, ClockOut: &out, DisableAutoBreak: true})
	require.NoError(t, err)
	assert.Zero(t, res.Entry.BreakMinutes)
	assert.Equal(t, 630, res.Entry.TotalMinutes)

	res, err = f.timeclock.ManualEntry(ctx, ManualEntryRequest{StaffID: staff.ID, ClockIn: in, ClockOut: &out, DisableAutoBreak: true, BreakMinutes: intPtr(20)})
	require.NoError(t, err)
	assert.Equal(t, 20, res.Entry.BreakMinutes, "explicit break wins over disable flag")

	_, err = f.timeclock.ManualEntry(ctx, ManualEntryRequest{StaffID: staff.ID, ClockIn: in, ClockOut: &in})
	assert.ErrorIs(t, err, ErrValidation)

	res, err = f.timeclock.ManualEntry(ctx, ManualEntryRequest{StaffID: staff.ID, ClockIn: in})
	require.NoError(t, err)
	assert.Equal(t, models.TimeclockActive, res.Entry.Status)

	_, err = f.timeclock.ManualEntry(ctx, ManualEntryRequest{StaffID: staff.ID, ClockIn: in.Add(time.Hour)})
	assert.ErrorIs(t, err, ErrAlreadyClockedIn)
	_, err = f.timeclock.ClockIn(ctx, staff.ID, ClockInRequest{})
	assert.ErrorIs(t, err, ErrAlreadyClockedIn)

	_, err = f.timeclock.ManualEntry(ctx, ManualEntryRequest{StaffID: 999, ClockIn: in, ClockOut: &out})
	assert.ErrorIs(t, err, ErrStaffNotFound)
}

func TestCorrectEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	staff := testutil.SeedStaff(t, f.db, "Ada")
	in := day.Add(8 * time.Hour)
	out := in.Add(510 * time.Minute)

	res, err := f.timeclock.ManualEntry(ctx, ManualEntryRequest{StaffID: staff.ID, ClockIn: in, ClockOut: &out})
	require.NoError(t, err)
	id := res.Entry.ID
	assert.Equal(t, 480, res.Entry.TotalMinutes)

	_, err = f.timeclock.CorrectEntry(ctx, id, models.EntryCorrection{})
	assert.ErrorIs(t, err, ErrValidation)

	later := in.Add(630 * time.Minute)
	corrected, err := f.timeclock.CorrectEntry(ctx, id, models.EntryCorrection{ClockOut: models.Some(&later)})
	require.NoError(t, err)
	assert.Equal(t, 630, corrected.Entry.GrossMinutes)
	assert.Equal(t, 45, corrected.Entry.BreakMinutes)
	assert.Equal(t, 585, corrected.Entry.TotalMinutes)

	corrected, err = f.timeclock.CorrectEntry(ctx, id, models.EntryCorrection{BreakMinutes: models.Some(intPtr(60))})
	require.NoError(t, err)
	assert.Equal(t, 570, corrected.Entry.TotalMinutes)

	note := "forgot to clock out"
	corrected, err = f.timeclock.CorrectEntry(ctx, id, models.EntryCorrection{Notes: models.Some(&note)})
	require.NoError(t, err)
	assert.Equal(t, 570, corrected.Entry.TotalMinutes, "notes alone keep totals")
	require.NotNil(t, corrected.Entry.Notes)

	_, err = f.timeclock.CorrectEntry(ctx, id, models.EntryCorrection{ClockIn: models.Some(later.Add(time.Minute))})
	assert.ErrorIs(t, err, ErrValidation)

	// Reopening is subject to the one-active rule.
	_, err = f.timeclock.ClockIn(ctx, staff.ID, ClockInRequest{})
	require.NoError(t, err)
	_, err = f.timeclock.CorrectEntry(ctx, id, models.EntryCorrection{ClockOut: models.Some[*time.Time](nil)})
	assert.ErrorIs(t, err, ErrAlreadyClockedIn)

	f.clock.Advance(time.Hour)
	_, err = f.timeclock.ClockOut(ctx, staff.ID)
	require.NoError(t, err)
	reopened, err := f.timeclock.CorrectEntry(ctx, id, models.EntryCorrection{ClockOut: models.Some[*time.Time](nil)})
	require.NoError(t, err)
	assert.Equal(t, models.TimeclockActive, reopened.Entry.Status)
	assert.Nil(t, reopened.Entry.ClockOut)
	assert.Zero(t, reopened.Entry.TotalMinutes)

	_, err = f.timeclock.CorrectEntry(ctx, 999, models.EntryCorrection{Notes: models.Some(&note)})
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestListEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	staff := testutil.SeedStaff(t, f.db, "Ada")
	_, err := f.timeclock.ClockIn(ctx, staff.ID, ClockInRequest{})
	require.NoError(t, err)

	entries, err := f.timeclock.ListEntries(ctx, models.EntryFilter{StaffID: &staff.ID})
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	from := day.Add(24 * time.Hour)
	to := day
	_, err = f.timeclock.ListEntries(ctx, models.EntryFilter{From: &from, To: &to})
	assert.ErrorIs(t, err, ErrValidation)
}
