package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"event_staffing_backend/internal/models"
	"event_staffing_backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gateFunc func(ctx context.Context, eventID, staffID int64) (bool, error)

func (g gateFunc) IsAccepted(ctx context.Context, eventID, staffID int64) (bool, error) {
	return g(ctx, eventID, staffID)
}

func TestAssign_RequiresAcceptedInvitation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := testutil.SeedEvent(t, f.db, "Festival", day, day.Add(24*time.Hour))
	shift := testutil.SeedShift(t, f.db, event.ID, day.Add(18*time.Hour), day.Add(22*time.Hour))

	staff := testutil.SeedStaff(t, f.db, "Ada")
	_, err := f.assignments.Assign(ctx, AssignRequest{ShiftID: shift.ID, StaffID: staff.ID, Type: models.AssignPreliminary})
	assert.ErrorIs(t, err, ErrAuthorizationGap, "no invitation")

	testutil.SeedInvitation(t, f.db, event.ID, staff.ID, models.InvitationDeclined)
	_, err = f.assignments.Assign(ctx, AssignRequest{ShiftID: shift.ID, StaffID: staff.ID, Type: models.AssignFinal})
	assert.ErrorIs(t, err, ErrNoAcceptedInvitation)

	assert.Zero(t, f.countAssignments(t))
	assert.Empty(t, f.recorder.Finals())
}

func TestAssign_GateFailureIsAuthorizationGap(t *testing.T) {
	f := newFixture(t, withGate(gateFunc(func(context.Context, int64, int64) (bool, error) {
		return false, errors.New("invitation service unavailable")
	})))
	event := testutil.SeedEvent(t, f.db, "Festival", day, day.Add(24*time.Hour))
	shift := testutil.SeedShift(t, f.db, event.ID, day.Add(18*time.Hour), day.Add(22*time.Hour))
	staff := testutil.SeedStaff(t, f.db, "Ada")

	_, err := f.assignments.Assign(context.Background(), AssignRequest{ShiftID: shift.ID, StaffID: staff.ID, Type: models.AssignFinal})
	assert.ErrorIs(t, err, ErrAuthorizationGap)
	assert.NotErrorIs(t, err, ErrDependencyDegraded)
	assert.Zero(t, f.countAssignments(t))
}

func TestAssign_ConflictBlocksUnlessForced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gala := testutil.SeedEvent(t, f.db, "Gala", day, day.Add(24*time.Hour))
	concert := testutil.SeedEvent(t, f.db, "Concert", day, day.Add(24*time.Hour))
	shiftA := testutil.SeedShift(t, f.db, gala.ID, day.Add(18*time.Hour), day.Add(22*time.Hour))
	shiftB := testutil.SeedShift(t, f.db, concert.ID, day.Add(20*time.Hour), day.Add(23*time.Hour))

	staff := f.invitedStaff(t, "Ada", gala.ID)
	testutil.SeedInvitation(t, f.db, concert.ID, staff.ID, models.InvitationAccepted)

	_, err := f.assignments.Assign(ctx, AssignRequest{ShiftID: shiftA.ID, StaffID: staff.ID, Type: models.AssignPreliminary})
	require.NoError(t, err)

	_, err = f.assignments.Assign(ctx, AssignRequest{ShiftID: shiftB.ID, StaffID: staff.ID, Type: models.AssignPreliminary})
	require.ErrorIs(t, err, ErrStateConflict)
	var conflict *ShiftConflictError
	require.True(t, errors.As(err, &conflict))
	require.Len(t, conflict.Report.ConflictingShifts, 1)
	assert.Equal(t, shiftA.ID, conflict.Report.ConflictingShifts[0].ShiftID)
	assert.Equal(t, 1, f.countAssignments(t), "blocked assign writes nothing")

	res, err := f.assignments.Assign(ctx, AssignRequest{ShiftID: shiftB.ID, StaffID: staff.ID, Type: models.AssignPreliminary, Force: true})
	require.NoError(t, err)
	assert.True(t, res.Assignment.HasConflict)
	assert.True(t, res.Report.HasConflicts)

	// Cancelled assignments no longer conflict.
	_, err = f.assignments.Unassign(ctx, shiftA.ID, staff.ID)
	require.NoError(t, err)
	report, err := f.assignments.Evaluate(ctx, shiftB.ID, staff.ID)
	require.NoError(t, err)
	assert.False(t, report.HasConflicts)
}

func TestAssign_Transitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := testutil.SeedEvent(t, f.db, "Festival", day, day.Add(24*time.Hour))
	shift := testutil.SeedShift(t, f.db, event.ID, day.Add(8*time.Hour), day.Add(16*time.Hour))
	staff := f.invitedStaff(t, "Ada", event.ID)
	req := AssignRequest{ShiftID: shift.ID, StaffID: staff.ID, Type: models.AssignPreliminary}

	res, err := f.assignments.Assign(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentPreliminary, res.Assignment.Status)
	assert.Empty(t, f.recorder.Finals(), "preliminary does not notify")

	_, err = f.assignments.Assign(ctx, req)
	assert.ErrorIs(t, err, ErrAssignmentDuplicate)

	req.Type = models.AssignFinal
	res, err = f.assignments.Assign(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentFinal, res.Assignment.Status)
	finals := f.recorder.Finals()
	require.Len(t, finals, 1)
	assert.Equal(t, "Festival", finals[0].EventName)
	assert.Equal(t, staff.ID, finals[0].StaffID)

	req.Type = models.AssignPreliminary
	_, err = f.assignments.Assign(ctx, req)
	assert.ErrorIs(t, err, ErrAssignmentDowngrade)

	_, err = f.assignments.Assign(ctx, AssignRequest{ShiftID: shift.ID, StaffID: staff.ID, Type: "tentative"})
	assert.ErrorIs(t, err, ErrValidation)

	// Cancelled rows can be re-assigned.
	cancelled, err := f.assignments.Unassign(ctx, shift.ID, staff.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentCancelled, cancelled.Status)
	again, err := f.assignments.Unassign(ctx, shift.ID, staff.ID)
	require.NoError(t, err, "unassign is idempotent")
	assert.Equal(t, cancelled.ID, again.ID)

	res, err = f.assignments.Assign(ctx, AssignRequest{ShiftID: shift.ID, StaffID: staff.ID, Type: models.AssignFinal})
	require.NoError(t, err)
	assert.Equal(t, cancelled.ID, res.Assignment.ID)
	assert.Len(t, f.recorder.Finals(), 2)
}

func TestConfirm(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := testutil.SeedEvent(t, f.db, "Festival", day, day.Add(24*time.Hour))
	shift := testutil.SeedShift(t, f.db, event.ID, day.Add(8*time.Hour), day.Add(16*time.Hour))
	ada := f.invitedStaff(t, "Ada", event.ID)
	bob := testutil.SeedStaff(t, f.db, "Bob")

	res, err := f.assignments.Assign(ctx, AssignRequest{ShiftID: shift.ID, StaffID: ada.ID, Type: models.AssignPreliminary})
	require.NoError(t, err)

	_, err = f.assignments.Confirm(ctx, res.Assignment.ID, ada.ID)
	assert.ErrorIs(t, err, ErrStateConflict, "preliminary cannot be confirmed")

	_, err = f.assignments.Assign(ctx, AssignRequest{ShiftID: shift.ID, StaffID: ada.ID, Type: models.AssignFinal})
	require.NoError(t, err)

	_, err = f.assignments.Confirm(ctx, res.Assignment.ID, bob.ID)
	assert.ErrorIs(t, err, ErrAssignmentNotOwned)

	confirmed, err := f.assignments.Confirm(ctx, res.Assignment.ID, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.ConfirmedAt)
	assert.True(t, f.clock.Now().Equal(*confirmed.ConfirmedAt))

	_, err = f.assignments.Confirm(ctx, res.Assignment.ID, ada.ID)
	assert.ErrorIs(t, err, ErrAssignmentConfirmed)

	_, err = f.assignments.Confirm(ctx, 9999, ada.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUnassign_ConfirmedIsUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := testutil.SeedEvent(t, f.db, "Festival", day, day.Add(24*time.Hour))
	shift := testutil.SeedShift(t, f.db, event.ID, day.Add(8*time.Hour), day.Add(16*time.Hour))
	staff := f.invitedStaff(t, "Ada", event.ID)

	res, err := f.assignments.Assign(ctx, AssignRequest{ShiftID: shift.ID, StaffID: staff.ID, Type: models.AssignFinal})
	require.NoError(t, err)
	_, err = f.assignments.Confirm(ctx, res.Assignment.ID, staff.ID)
	require.NoError(t, err)

	_, err = f.assignments.Unassign(ctx, shift.ID, staff.ID)
	assert.ErrorIs(t, err, ErrStateConflict)

	row, err := f.assignRepo.GetByID(ctx, nil, res.Assignment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentConfirmed, row.Status)

	_, err = f.assignments.Assign(ctx, AssignRequest{ShiftID: shift.ID, StaffID: staff.ID, Type: models.AssignFinal})
	assert.ErrorIs(t, err, ErrAssignmentConfirmed)

	_, err = f.assignments.Unassign(ctx, shift.ID, 4242)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBulkAssign_PartialSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := testutil.SeedEvent(t, f.db, "Festival", day, day.Add(24*time.Hour))
	shift := testutil.SeedShift(t, f.db, event.ID, day.Add(8*time.Hour), day.Add(16*time.Hour))
	s1 := f.invitedStaff(t, "Ada", event.ID)
	uninvited := testutil.SeedStaff(t, f.db, "Cy")

	items, err := f.assignments.BulkAssign(ctx, BulkAssignRequest{
		ShiftID:  shift.ID,
		StaffIDs: []int64{s1.ID, s1.ID, uninvited.ID},
		Type:     models.AssignPreliminary,
	})
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.True(t, items[0].Success)
	require.NotNil(t, items[0].Assignment)

	assert.False(t, items[1].Success, "duplicate")
	assert.Equal(t, "CONFLICT", items[1].ErrorCode)

	assert.False(t, items[2].Success)
	assert.Equal(t, "FORBIDDEN", items[2].ErrorCode)

	row, err := f.assignRepo.GetByShiftAndStaff(ctx, nil, shift.ID, s1.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentPreliminary, row.Status)
	assert.Equal(t, 1, f.countAssignments(t))

	_, err = f.assignments.BulkAssign(ctx, BulkAssignRequest{ShiftID: shift.ID, Type: models.AssignFinal})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAssign_NotFoundAndInactive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := testutil.SeedEvent(t, f.db, "Festival", day, day.Add(24*time.Hour))
	shift := testutil.SeedShift(t, f.db, event.ID, day.Add(8*time.Hour), day.Add(16*time.Hour))
	staff := f.invitedStaff(t, "Ada", event.ID)

	_, err := f.assignments.Assign(ctx, AssignRequest{ShiftID: 999, StaffID: staff.ID, Type: models.AssignFinal})
	assert.ErrorIs(t, err, ErrShiftNotFound)
	_, err = f.assignments.Assign(ctx, AssignRequest{ShiftID: shift.ID, StaffID: 999, Type: models.AssignFinal})
	assert.ErrorIs(t, err, ErrStaffNotFound)

	require.NoError(t, f.staff.SetStaffActive(ctx, staff.ID, false))
	_, err = f.assignments.Assign(ctx, AssignRequest{ShiftID: shift.ID, StaffID: staff.ID, Type: models.AssignFinal})
	assert.ErrorIs(t, err, ErrStaffInactive)
}

func TestListAssignments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := testutil.SeedEvent(t, f.db, "Festival", day, day.Add(48*time.Hour))
	early := testutil.SeedShift(t, f.db, event.ID, day.Add(8*time.Hour), day.Add(12*time.Hour))
	late := testutil.SeedShift(t, f.db, event.ID, day.Add(30*time.Hour), day.Add(34*time.Hour))
	staff := f.invitedStaff(t, "Ada", event.ID)

	for _, s := range []int64{late.ID, early.ID} {
		_, err := f.assignments.Assign(ctx, AssignRequest{ShiftID: s, StaffID: staff.ID, Type: models.AssignFinal})
		require.NoError(t, err)
	}

	mine, err := f.assignments.ListForStaff(ctx, staff.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, early.ID, mine[0].ShiftID)

	byShift, err := f.assignments.ListForShift(ctx, late.ID)
	require.NoError(t, err)
	assert.Len(t, byShift, 1)

	_, err = f.assignments.ListForShift(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}
