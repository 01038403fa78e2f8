package session

import (
	"context"
	"time"
)

// TransactionManager runs a function with all repository operations inside
// a single store transaction. An error from fn rolls every write back.
type TransactionManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// SessionRepository defines the interface for session data access
type SessionRepository interface {
	// CreateIfAbsent inserts a pending session unless a non-terminal
	// session already exists for the same invitation, in which case the
	// surviving row is returned. The second return value reports whether
	// a new row was written. The check-and-insert is a single atomic
	// statement backed by a partial unique index.
	CreateIfAbsent(ctx context.Context, s Session) (Session, bool, error)

	// GetByID retrieves a session by its identifier
	GetByID(ctx context.Context, id string) (Session, error)

	// GetByToken retrieves a session by its opaque join token
	GetByToken(ctx context.Context, token string) (Session, error)

	// ExistsNonTerminalByInvitationID checks for a live session for the
	// invitation (watcher defense in depth; the factory also checks)
	ExistsNonTerminalByInvitationID(ctx context.Context, invitationID string) (bool, error)

	// ListActiveWithStaleHeartbeat lists active sessions whose
	// last_heartbeat is set and older than the threshold
	ListActiveWithStaleHeartbeat(ctx context.Context, threshold time.Time) ([]Session, error)

	// ListActivePastAccessWindow lists active sessions whose access
	// window ended before the given time
	ListActivePastAccessWindow(ctx context.Context, now time.Time) ([]Session, error)

	// ListPendingPastAccessWindow lists pending sessions whose access
	// window ended before the given time without the candidate joining
	ListPendingPastAccessWindow(ctx context.Context, now time.Time) ([]Session, error)

	// ActivateIfPending moves a pending session to active, counts the
	// join attempt and stamps the first heartbeat. Returns the updated
	// session, or ErrSessionNotPending if the session already moved on.
	ActivateIfPending(ctx context.Context, id string, at time.Time) (Session, error)

	// IncrementJoinAttempts counts a join attempt without changing status
	// (rejected attempts are still counted)
	IncrementJoinAttempts(ctx context.Context, id string) error

	// UpdateHeartbeat refreshes last_heartbeat while the session is
	// active. Returns ErrSessionNotActive otherwise.
	UpdateHeartbeat(ctx context.Context, id string, at time.Time) error

	// CompleteIfActive conditionally completes an active session with the
	// given reason. Returns false without error when the session is no
	// longer active (another evaluator won).
	CompleteIfActive(ctx context.Context, id string, reason CompletionReason) (bool, error)

	// ExpireIfPending conditionally expires a pending session
	ExpireIfPending(ctx context.Context, id string) (bool, error)

	// CancelIfPending conditionally cancels a pending session
	CancelIfPending(ctx context.Context, id string) (bool, error)

	// DeleteTerminalExpiredBefore deletes terminal sessions whose
	// retention deadline passed; returns the number of rows removed
	DeleteTerminalExpiredBefore(ctx context.Context, now time.Time) (int64, error)
}
