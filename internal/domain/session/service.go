package session

import (
	"context"
	"time"
)

// SessionService defines the interface for session lifecycle business logic
type SessionService interface {
	// CreateSession idempotently materializes a pending session for an
	// invitation. A second call for the same invitation returns the
	// existing non-terminal session unchanged.
	CreateSession(ctx context.Context, invitationID, interviewID, candidateEmail string, scheduledStart time.Time) (Session, error)

	// Join validates the token and access window and moves the session
	// from pending to active. Rejected attempts are still counted.
	Join(ctx context.Context, token string) (JoinResponse, error)

	// GetByToken resolves a session from its opaque join token
	GetByToken(ctx context.Context, token string) (Session, error)

	// Heartbeat records a liveness signal for an active session
	Heartbeat(ctx context.Context, sessionID string) error

	// Complete explicitly completes an active session
	Complete(ctx context.Context, sessionID string) error

	// Cancel cancels a pending session
	Cancel(ctx context.Context, sessionID string) error

	// WatchUpcomingInvitations is the periodic evaluator that discovers
	// accepted invitations entering their pre-interview window, creates
	// their sessions and dispatches join notifications
	WatchUpcomingInvitations(ctx context.Context) error

	// ReapStaleHeartbeats retires active sessions whose liveness signal
	// went stale
	ReapStaleHeartbeats(ctx context.Context) error

	// SweepElapsedAccessWindows retires sessions whose allowed join
	// window elapsed: active ones complete, pending ones expire
	SweepElapsedAccessWindows(ctx context.Context) error

	// PurgeExpiredSessions permanently deletes terminal sessions past
	// their retention deadline
	PurgeExpiredSessions(ctx context.Context) error
}
