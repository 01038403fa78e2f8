package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/hireloop/interview-backend-go/internal/domain/invitation"
	"github.com/hireloop/interview-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type invitationRepositoryImpl struct {
	db *database.DB
}

// NewInvitationRepository creates a new invitation repository instance
func NewInvitationRepository(db *database.DB) invitation.InvitationRepository {
	return &invitationRepositoryImpl{db: db}
}

// GetByID implements invitation.InvitationRepository.
func (r *invitationRepositoryImpl) GetByID(ctx context.Context, id string) (invitation.Invitation, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, interview_id, candidate_email, candidate_name, status,
			   selected_time_slot, created_at, updated_at
		FROM invitations
		WHERE id = $1
	`

	var inv invitation.Invitation
	err := q.QueryRow(ctx, query, id).Scan(
		&inv.ID, &inv.InterviewID, &inv.CandidateEmail, &inv.CandidateName,
		&inv.Status, &inv.SelectedTimeSlot, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return inv, invitation.ErrInvitationNotFound
		}
		return inv, fmt.Errorf("failed to get invitation: %w", err)
	}

	return inv, nil
}

// ListAcceptedInWindow implements invitation.InvitationRepository.
func (r *invitationRepositoryImpl) ListAcceptedInWindow(ctx context.Context, from, to time.Time) ([]invitation.Invitation, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, interview_id, candidate_email, candidate_name, status,
			   selected_time_slot, created_at, updated_at
		FROM invitations
		WHERE status = 'accepted'
		  AND selected_time_slot >= $1
		  AND selected_time_slot <= $2
		ORDER BY selected_time_slot ASC
	`

	rows, err := q.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list accepted invitations: %w", err)
	}
	defer rows.Close()

	var invitations []invitation.Invitation
	for rows.Next() {
		var inv invitation.Invitation
		err := rows.Scan(
			&inv.ID, &inv.InterviewID, &inv.CandidateEmail, &inv.CandidateName,
			&inv.Status, &inv.SelectedTimeSlot, &inv.CreatedAt, &inv.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		invitations = append(invitations, inv)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return invitations, nil
}
