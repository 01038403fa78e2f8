package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/hireloop/interview-backend-go/internal/domain/session"
	"github.com/hireloop/interview-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const sessionColumns = `
	id, invitation_id, interview_id, candidate_email, token,
	scheduled_start_time, scheduled_end_time, access_window_start, access_window_end,
	status, completion_reason, last_heartbeat, join_attempts, expires_at,
	created_at, updated_at
`

type sessionRepositoryImpl struct {
	db *database.DB
}

// NewSessionRepository creates a new session repository instance
func NewSessionRepository(db *database.DB) session.SessionRepository {
	return &sessionRepositoryImpl{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (session.Session, error) {
	var s session.Session
	err := row.Scan(
		&s.ID, &s.InvitationID, &s.InterviewID, &s.CandidateEmail, &s.Token,
		&s.ScheduledStartTime, &s.ScheduledEndTime, &s.AccessWindowStart, &s.AccessWindowEnd,
		&s.Status, &s.CompletionReason, &s.LastHeartbeat, &s.JoinAttempts, &s.ExpiresAt,
		&s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

// CreateIfAbsent implements session.SessionRepository.
// The insert and the duplicate check are a single statement: the partial
// unique index on (invitation_id) over non-terminal statuses makes a
// concurrent double-create impossible rather than merely unlikely.
func (r *sessionRepositoryImpl) CreateIfAbsent(ctx context.Context, s session.Session) (session.Session, bool, error) {
	q := GetQuerier(ctx, r.db)

	insert := `
		INSERT INTO sessions (
			invitation_id, interview_id, candidate_email, token,
			scheduled_start_time, scheduled_end_time, access_window_start, access_window_end,
			status, join_attempts, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (invitation_id) WHERE status IN ('pending', 'active') DO NOTHING
		RETURNING ` + sessionColumns

	created, err := scanSession(q.QueryRow(ctx, insert,
		s.InvitationID, s.InterviewID, s.CandidateEmail, s.Token,
		s.ScheduledStartTime, s.ScheduledEndTime, s.AccessWindowStart, s.AccessWindowEnd,
		s.Status, s.JoinAttempts, s.ExpiresAt,
	))
	if err == nil {
		return created, true, nil
	}
	if err != pgx.ErrNoRows {
		return session.Session{}, false, fmt.Errorf("failed to create session: %w", err)
	}

	// The insert lost to an existing live session; return it unchanged.
	existing, err := r.getNonTerminalByInvitationID(ctx, s.InvitationID)
	if err != nil {
		return session.Session{}, false, err
	}
	return existing, false, nil
}

func (r *sessionRepositoryImpl) getNonTerminalByInvitationID(ctx context.Context, invitationID string) (session.Session, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE invitation_id = $1 AND status IN ('pending', 'active')
		LIMIT 1
	`

	s, err := scanSession(q.QueryRow(ctx, query, invitationID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return s, session.ErrSessionNotFound
		}
		return s, fmt.Errorf("failed to get session by invitation: %w", err)
	}

	return s, nil
}

// GetByID implements session.SessionRepository.
func (r *sessionRepositoryImpl) GetByID(ctx context.Context, id string) (session.Session, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`

	s, err := scanSession(q.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return s, session.ErrSessionNotFound
		}
		return s, fmt.Errorf("failed to get session: %w", err)
	}

	return s, nil
}

// GetByToken implements session.SessionRepository.
func (r *sessionRepositoryImpl) GetByToken(ctx context.Context, token string) (session.Session, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE token = $1`

	s, err := scanSession(q.QueryRow(ctx, query, token))
	if err != nil {
		if err == pgx.ErrNoRows {
			return s, session.ErrSessionNotFound
		}
		return s, fmt.Errorf("failed to get session by token: %w", err)
	}

	return s, nil
}

// ExistsNonTerminalByInvitationID implements session.SessionRepository.
func (r *sessionRepositoryImpl) ExistsNonTerminalByInvitationID(ctx context.Context, invitationID string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT EXISTS(
			SELECT 1 FROM sessions
			WHERE invitation_id = $1 AND status IN ('pending', 'active')
		)
	`

	var exists bool
	if err := q.QueryRow(ctx, query, invitationID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check live session: %w", err)
	}

	return exists, nil
}

// ListActiveWithStaleHeartbeat implements session.SessionRepository.
func (r *sessionRepositoryImpl) ListActiveWithStaleHeartbeat(ctx context.Context, threshold time.Time) ([]session.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE status = 'active'
		  AND last_heartbeat IS NOT NULL
		  AND last_heartbeat < $1
		ORDER BY last_heartbeat ASC
	`
	return r.list(ctx, query, threshold)
}

// ListActivePastAccessWindow implements session.SessionRepository.
func (r *sessionRepositoryImpl) ListActivePastAccessWindow(ctx context.Context, now time.Time) ([]session.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE status = 'active' AND access_window_end < $1
		ORDER BY access_window_end ASC
	`
	return r.list(ctx, query, now)
}

// ListPendingPastAccessWindow implements session.SessionRepository.
func (r *sessionRepositoryImpl) ListPendingPastAccessWindow(ctx context.Context, now time.Time) ([]session.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE status = 'pending' AND access_window_end < $1
		ORDER BY access_window_end ASC
	`
	return r.list(ctx, query, now)
}

func (r *sessionRepositoryImpl) list(ctx context.Context, query string, args ...any) ([]session.Session, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []session.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return sessions, nil
}

// ActivateIfPending implements session.SessionRepository.
func (r *sessionRepositoryImpl) ActivateIfPending(ctx context.Context, id string, at time.Time) (session.Session, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE sessions
		SET status = 'active',
			last_heartbeat = $2,
			join_attempts = join_attempts + 1,
			updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + sessionColumns

	s, err := scanSession(q.QueryRow(ctx, query, id, at))
	if err != nil {
		if err == pgx.ErrNoRows {
			return s, session.ErrSessionNotPending
		}
		return s, fmt.Errorf("failed to activate session: %w", err)
	}

	return s, nil
}

// IncrementJoinAttempts implements session.SessionRepository.
func (r *sessionRepositoryImpl) IncrementJoinAttempts(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE sessions
		SET join_attempts = join_attempts + 1, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to count join attempt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return session.ErrSessionNotFound
	}

	return nil
}

// UpdateHeartbeat implements session.SessionRepository.
func (r *sessionRepositoryImpl) UpdateHeartbeat(ctx context.Context, id string, at time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE sessions
		SET last_heartbeat = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'active'
	`

	tag, err := q.Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("failed to update heartbeat: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return session.ErrSessionNotActive
	}

	return nil
}

// CompleteIfActive implements session.SessionRepository.
// Conditional on purpose: the heartbeat watchdog and the access-window
// sweeper can both pick up the same session, and the loser must observe a
// no-op instead of rewriting the completion reason.
func (r *sessionRepositoryImpl) CompleteIfActive(ctx context.Context, id string, reason session.CompletionReason) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE sessions
		SET status = 'completed', completion_reason = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'active'
	`

	tag, err := q.Exec(ctx, query, id, reason)
	if err != nil {
		return false, fmt.Errorf("failed to complete session: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// ExpireIfPending implements session.SessionRepository.
func (r *sessionRepositoryImpl) ExpireIfPending(ctx context.Context, id string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE sessions
		SET status = 'expired', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	tag, err := q.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to expire session: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// CancelIfPending implements session.SessionRepository.
func (r *sessionRepositoryImpl) CancelIfPending(ctx context.Context, id string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE sessions
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	tag, err := q.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to cancel session: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// DeleteTerminalExpiredBefore implements session.SessionRepository.
func (r *sessionRepositoryImpl) DeleteTerminalExpiredBefore(ctx context.Context, now time.Time) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		DELETE FROM sessions
		WHERE status IN ('completed', 'expired', 'cancelled')
		  AND expires_at < $1
	`

	tag, err := q.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	return tag.RowsAffected(), nil
}
