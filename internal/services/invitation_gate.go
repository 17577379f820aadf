package services

import (
	"context"
	"database/sql"

	"event_staffing_backend/internal/repositories"
)

// InvitationGate answers whether a staff member accepted an event invitation.
type InvitationGate interface {
	IsAccepted(ctx context.Context, eventID, staffID int64) (bool, error)
}

// TxInvitationGate can answer on the caller's transaction, so the gate check
// and the assignment write see the same snapshot.
type TxInvitationGate interface {
	InvitationGate
	IsAcceptedTx(ctx context.Context, executor repositories.SQLExecutor, eventID, staffID int64) (bool, error)
}

type sqlInvitationGate struct {
	repo repositories.InvitationRepository
	db   *sql.DB
}

// NewInvitationGate returns a gate backed by the event_invitations table.
func NewInvitationGate(repo repositories.InvitationRepository, db *sql.DB) TxInvitationGate {
	return &sqlInvitationGate{repo: repo, db: db}
}

func (g *sqlInvitationGate) IsAccepted(ctx context.Context, eventID, staffID int64) (bool, error) {
	return g.repo.IsAccepted(ctx, g.db, eventID, staffID)
}

func (g *sqlInvitationGate) IsAcceptedTx(ctx context.Context, executor repositories.SQLExecutor, eventID, staffID int64) (bool, error) {
	return g.repo.IsAccepted(ctx, executor, eventID, staffID)
}
