package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"event_staffing_backend/internal/models"
)

// InvitationRepository stores event invitations. The assignment engine only
// reads them, through IsAccepted.
type InvitationRepository interface {
	UpsertInvitation(ctx context.Context, executor SQLExecutor, inv *models.EventInvitation) (*models.EventInvitation, error)
	GetInvitation(ctx context.Context, executor SQLExecutor, eventID, staffID int64) (*models.EventInvitation, error)
	IsAccepted(ctx context.Context, executor SQLExecutor, eventID, staffID int64) (bool, error)
}

type invitationRepository struct {
	db *sql.DB
}

// NewInvitationRepository creates a new instance of InvitationRepository.
func NewInvitationRepository(db *sql.DB) InvitationRepository {
	return &invitationRepository{db: db}
}

func (r *invitationRepository) exec(executor SQLExecutor) SQLExecutor {
	if executor == nil {
		return r.db
	}
	return executor
}

// UpsertInvitation records the invitation status, stamping responded_at when
// the answer is not pending.
func (r *invitationRepository) UpsertInvitation(ctx context.Context, executor SQLExecutor, inv *models.EventInvitation) (*models.EventInvitation, error) {
	now := time.Now().UTC().Truncate(time.Second)
	var respondedAt *time.Time
	if inv.Status != models.InvitationPending {
		respondedAt = &now
	}

	query := `
	    INSERT INTO event_invitations (event_id, staff_id, status, responded_at, created_at, updated_at)
	    VALUES ($1, $2, $3, $4, $5, $6)
	    ON CONFLICT (event_id, staff_id)
	    DO UPDATE SET status = EXCLUDED.status, responded_at = EXCLUDED.responded_at, updated_at = EXCLUDED.updated_at`

	_, err := r.exec(executor).ExecContext(ctx, query,
		inv.EventID, inv.StaffID, string(inv.Status), respondedAt, now, now)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: event or staff member", ErrForeignKey)
		}
		return nil, fmt.Errorf("%w: upserting invitation: %v", ErrDatabaseError, err)
	}
	return r.GetInvitation(ctx, executor, inv.EventID, inv.StaffID)
}

func (r *invitationRepository) GetInvitation(ctx context.Context, executor SQLExecutor, eventID, staffID int64) (*models.EventInvitation, error) {
	var inv models.EventInvitation
	var status string
	var respondedAt sql.NullTime
	err := r.exec(executor).QueryRowContext(ctx,
		`SELECT event_id, staff_id, status, responded_at, created_at, updated_at
		 FROM event_invitations WHERE event_id = $1 AND staff_id = $2`, eventID, staffID,
	).Scan(&inv.EventID, &inv.StaffID, &status, &respondedAt, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: fetching invitation: %v", ErrDatabaseError, err)
	}
	inv.Status = models.InvitationStatus(status)
	inv.RespondedAt = timePtr(respondedAt)
	return &inv, nil
}

// IsAccepted reports whether the staff member accepted the event invitation.
// A missing invitation is not an error.
func (r *invitationRepository) IsAccepted(ctx context.Context, executor SQLExecutor, eventID, staffID int64) (bool, error) {
	var status string
	err := r.exec(executor).QueryRowContext(ctx,
		`SELECT status FROM event_invitations WHERE event_id = $1 AND staff_id = $2`, eventID, staffID,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("%w: checking invitation: %v", ErrDatabaseError, err)
	}
	return models.InvitationStatus(status) == models.InvitationAccepted, nil
}
