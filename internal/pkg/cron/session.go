package cron

import (
	"context"
	"time"

	"github.com/hireloop/interview-backend-go/internal/domain/session"
)

// Job names, exported so tests and operators can trigger one evaluator.
const (
	JobWatchUpcomingInterviews = "watch_upcoming_interviews"
	JobReapStaleHeartbeats     = "reap_stale_heartbeats"
	JobSweepAccessWindows      = "sweep_access_windows"
	JobPurgeExpiredSessions    = "purge_expired_sessions"
)

// SessionJobs contains the session lifecycle cron jobs
type SessionJobs struct {
	sessionService session.SessionService
}

// NewSessionJobs creates session lifecycle cron jobs
func NewSessionJobs(sessionService session.SessionService) *SessionJobs {
	return &SessionJobs{
		sessionService: sessionService,
	}
}

// RegisterJobs registers all session lifecycle cron jobs
func (j *SessionJobs) RegisterJobs(scheduler *Scheduler) {
	// Discover invitations entering their pre-interview window
	scheduler.AddJob(
		JobWatchUpcomingInterviews,
		2*time.Minute,
		j.WatchUpcomingInterviews,
	)

	// Retire active sessions whose liveness signal went stale
	scheduler.AddJob(
		JobReapStaleHeartbeats,
		1*time.Minute,
		j.ReapStaleHeartbeats,
	)

	// Retire sessions whose allowed join window has elapsed
	scheduler.AddJob(
		JobSweepAccessWindows,
		10*time.Minute,
		j.SweepAccessWindows,
	)

	// Reclaim storage for terminal sessions past retention
	scheduler.AddJob(
		JobPurgeExpiredSessions,
		24*time.Hour,
		j.PurgeExpiredSessions,
	)
}

// WatchUpcomingInterviews materializes sessions for invitations whose slot
// falls inside the lookahead window and emails the candidates a join link
func (j *SessionJobs) WatchUpcomingInterviews(ctx context.Context) error {
	return j.sessionService.WatchUpcomingInvitations(ctx)
}

// ReapStaleHeartbeats completes active sessions with a stale heartbeat
func (j *SessionJobs) ReapStaleHeartbeats(ctx context.Context) error {
	return j.sessionService.ReapStaleHeartbeats(ctx)
}

// SweepAccessWindows completes active sessions that ran past their access
// window and expires pending ones nobody joined
func (j *SessionJobs) SweepAccessWindows(ctx context.Context) error {
	return j.sessionService.SweepElapsedAccessWindows(ctx)
}

// PurgeExpiredSessions deletes terminal sessions past their retention
// deadline
func (j *SessionJobs) PurgeExpiredSessions(ctx context.Context) error {
	return j.sessionService.PurgeExpiredSessions(ctx)
}
