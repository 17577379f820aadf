// Package testutil provides SQLite-backed fixtures for repository, service
// and handler tests.
package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"event_staffing_backend/internal/config"
	"event_staffing_backend/internal/database"
	"event_staffing_backend/internal/models"
	"event_staffing_backend/internal/repositories"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// NewDB returns a migrated SQLite database in a temp dir, closed on cleanup.
func NewDB(t testing.TB) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "staffing.db")
	db, err := database.Open(config.DriverSQLite, path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.ApplySchema(db, config.DriverSQLite))
	return db
}

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts the clock at t.
func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// SeedQualification inserts a qualification and returns its id.
func SeedQualification(t testing.TB, db *sql.DB, name string) int64 {
	t.Helper()
	id, err := repositories.NewStaffRepository(db).CreateQualification(context.Background(), db, name)
	require.NoError(t, err)
	return id
}

// SeedPosition inserts a position and returns its id.
func SeedPosition(t testing.TB, db *sql.DB, name string) int64 {
	t.Helper()
	id, err := repositories.NewStaffRepository(db).CreatePosition(context.Background(), db, name)
	require.NoError(t, err)
	return id
}

// SeedStaff inserts an active staff member holding quals.
func SeedStaff(t testing.TB, db *sql.DB, name string, quals ...int64) *models.StaffMember {
	t.Helper()
	staff, err := repositories.NewStaffRepository(db).CreateStaffMember(context.Background(), db, &models.StaffMember{
		FullName:         name,
		IsActive:         true,
		QualificationIDs: quals,
	})
	require.NoError(t, err)
	return staff
}

// SeedEvent inserts an event spanning [start, end).
func SeedEvent(t testing.TB, db *sql.DB, name string, start, end time.Time) *models.Event {
	t.Helper()
	event, err := repositories.NewStaffRepository(db).CreateEvent(context.Background(), db, &models.Event{
		Name:     name,
		StartsAt: start,
		EndsAt:   end,
	})
	require.NoError(t, err)
	return event
}

// SeedShift inserts a shift requiring quals.
func SeedShift(t testing.TB, db *sql.DB, eventID int64, start, end time.Time, quals ...int64) *models.Shift {
	t.Helper()
	shift, err := repositories.NewStaffRepository(db).CreateShift(context.Background(), db, &models.Shift{
		EventID:            eventID,
		StartTime:          start,
		EndTime:            end,
		RequiredStaffCount: 1,
		QualificationIDs:   quals,
	})
	require.NoError(t, err)
	return shift
}

// SeedInvitation records the staff member's answer to the event invitation.
func SeedInvitation(t testing.TB, db *sql.DB, eventID, staffID int64, status models.InvitationStatus) {
	t.Helper()
	_, err := repositories.NewInvitationRepository(db).UpsertInvitation(context.Background(), db, &models.EventInvitation{
		EventID: eventID,
		StaffID: staffID,
		Status:  status,
	})
	require.NoError(t, err)
}

// SeedUser creates a login with the given role and password.
func SeedUser(t testing.TB, db *sql.DB, username, password, role string) *models.User {
	t.Helper()
	ctx := context.Background()
	repo := repositories.NewAuthRepository(db)

	r, err := repo.FindRoleByName(ctx, db, role)
	require.NoError(t, err)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{Username: username, RoleID: &r.ID, Role: r}
	_, err = repo.CreateUser(ctx, db, user, string(hash))
	require.NoError(t, err)
	return user
}

// LinkUser attaches a login to a staff member.
func LinkUser(t testing.TB, db *sql.DB, staffID, userID int64) {
	t.Helper()
	_, err := db.Exec(`UPDATE staff_members SET user_id = $1 WHERE id = $2`, userID, staffID)
	require.NoError(t, err)
}
