package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"event_staffing_backend/internal/models"
	"event_staffing_backend/internal/notifications"
	"event_staffing_backend/internal/repositories"
	"event_staffing_backend/internal/testutil"
)

const testKioskSecret = "kiosk-secret"

var day = time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)

type fixture struct {
	db          *sql.DB
	clock       *testutil.Clock
	recorder    *notifications.Recorder
	staffRepo   repositories.StaffRepository
	assignRepo  repositories.AssignmentRepository
	entryRepo   repositories.TimeclockRepository
	assignments AssignmentService
	timeclock   TimeclockService
	staff       StaffService
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	gate       InvitationGate
	policy     BreakPolicyProvider
	timeOpts   TimeclockOptions
	dispatcher notifications.Dispatcher
	staffRepo  func(repositories.StaffRepository) repositories.StaffRepository
	assignRepo func(repositories.AssignmentRepository) repositories.AssignmentRepository
	entryRepo  func(repositories.TimeclockRepository) repositories.TimeclockRepository
}

func withGate(g InvitationGate) fixtureOption {
	return func(c *fixtureConfig) { c.gate = g }
}

func withPolicy(p BreakPolicyProvider) fixtureOption {
	return func(c *fixtureConfig) { c.policy = p }
}

// withDispatcher replaces the recorder handed to the services.
func withDispatcher(d notifications.Dispatcher) fixtureOption {
	return func(c *fixtureConfig) { c.dispatcher = d }
}

// withRepos wraps the repositories the services see. The fixture's own
// repositories stay unwrapped.
func withRepos(
	staff func(repositories.StaffRepository) repositories.StaffRepository,
	assign func(repositories.AssignmentRepository) repositories.AssignmentRepository,
	entry func(repositories.TimeclockRepository) repositories.TimeclockRepository,
) fixtureOption {
	return func(c *fixtureConfig) {
		c.staffRepo, c.assignRepo, c.entryRepo = staff, assign, entry
	}
}

func withKioskToken(token string) fixtureOption {
	return func(c *fixtureConfig) { c.timeOpts.KioskStaticToken = token }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	db := testutil.NewDB(t)

	f := &fixture{
		db:         db,
		clock:      testutil.NewClock(day.Add(8 * time.Hour)),
		recorder:   notifications.NewRecorder(nil),
		staffRepo:  repositories.NewStaffRepository(db),
		assignRepo: repositories.NewAssignmentRepository(db),
		entryRepo:  repositories.NewTimeclockRepository(db),
	}
	cfg := fixtureConfig{
		gate:     NewInvitationGate(repositories.NewInvitationRepository(db), db),
		policy:   StaticBreakPolicy(tieredPolicy),
		timeOpts: TimeclockOptions{KioskCodeSecret: testKioskSecret, NotifyClockOutSummary: true},
	}
	for _, o := range opts {
		o(&cfg)
	}

	var dispatcher notifications.Dispatcher = f.recorder
	if cfg.dispatcher != nil {
		dispatcher = cfg.dispatcher
	}
	staffRepo, assignRepo, entryRepo := f.staffRepo, f.assignRepo, f.entryRepo
	if cfg.staffRepo != nil {
		staffRepo = cfg.staffRepo(staffRepo)
	}
	if cfg.assignRepo != nil {
		assignRepo = cfg.assignRepo(assignRepo)
	}
	if cfg.entryRepo != nil {
		entryRepo = cfg.entryRepo(entryRepo)
	}

	f.assignments = NewAssignmentService(db, staffRepo, assignRepo, cfg.gate, time.Second, dispatcher, f.clock.Now)
	f.timeclock = NewTimeclockService(db, staffRepo, entryRepo,
		NewWorkingTimeCalculator(cfg.policy, time.Second), dispatcher, cfg.timeOpts, f.clock.Now)
	f.staff = NewStaffService(db, f.staffRepo, repositories.NewInvitationRepository(db), testKioskSecret)
	return f
}

// invitedStaff seeds a staff member who accepted the event's invitation.
func (f *fixture) invitedStaff(t *testing.T, name string, eventID int64, quals ...int64) *models.StaffMember {
	t.Helper()
	staff := testutil.SeedStaff(t, f.db, name, quals...)
	testutil.SeedInvitation(t, f.db, eventID, staff.ID, models.InvitationAccepted)
	return staff
}

func (f *fixture) countAssignments(t *testing.T) int {
	t.Helper()
	var n int
	if err := f.db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM shift_assignments").Scan(&n); err != nil {
		t.Fatal(err)
	}
	return n
}
