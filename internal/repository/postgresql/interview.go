package postgresql

import (
	"context"
	"fmt"

	"github.com/hireloop/interview-backend-go/internal/domain/interview"
	"github.com/hireloop/interview-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type interviewRepositoryImpl struct {
	db *database.DB
}

// NewInterviewRepository creates a new interview repository instance
func NewInterviewRepository(db *database.DB) interview.InterviewRepository {
	return &interviewRepositoryImpl{db: db}
}

// GetByID implements interview.InterviewRepository.
func (r *interviewRepositoryImpl) GetByID(ctx context.Context, id string) (interview.Interview, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, position_title, duration_minutes, interview_type,
			   completed_candidates, total_candidates_completed, created_at, updated_at
		FROM interviews
		WHERE id = $1
	`

	var iv interview.Interview
	err := q.QueryRow(ctx, query, id).Scan(
		&iv.ID, &iv.PositionTitle, &iv.DurationMinutes, &iv.InterviewType,
		&iv.CompletedCandidates, &iv.TotalCandidatesCompleted, &iv.CreatedAt, &iv.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return iv, interview.ErrInterviewNotFound
		}
		return iv, fmt.Errorf("failed to get interview: %w", err)
	}

	return iv, nil
}

// AddCompletedCandidate implements interview.InterviewRepository.
// The append and the count refresh happen in one statement, and the WHERE
// guard makes a repeat call for the same email a no-op.
func (r *interviewRepositoryImpl) AddCompletedCandidate(ctx context.Context, interviewID, candidateEmail string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE interviews
		SET completed_candidates = array_append(completed_candidates, $2),
			total_candidates_completed = cardinality(completed_candidates) + 1,
			updated_at = NOW()
		WHERE id = $1
		  AND NOT ($2 = ANY(completed_candidates))
	`

	tag, err := q.Exec(ctx, query, interviewID, candidateEmail)
	if err != nil {
		return fmt.Errorf("failed to add completed candidate: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// Either the email was already recorded or the interview is gone;
		// distinguish so a missing interview is still surfaced.
		exists, err := r.exists(ctx, interviewID)
		if err != nil {
			return err
		}
		if !exists {
			return interview.ErrInterviewNotFound
		}
	}

	return nil
}

func (r *interviewRepositoryImpl) exists(ctx context.Context, id string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM interviews WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check interview existence: %w", err)
	}

	return exists, nil
}
