package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hireloop/interview-backend-go/internal/domain/interview"
	"github.com/hireloop/interview-backend-go/internal/domain/invitation"
	"github.com/hireloop/interview-backend-go/internal/domain/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func acceptedInvitation(env *testEnv, interviewID, email string, slot time.Time) invitation.Invitation {
	return env.invitationRepo.add(invitation.Invitation{
		InterviewID:      interviewID,
		CandidateEmail:   email,
		CandidateName:    "Candidate",
		Status:           invitation.StatusAccepted,
		SelectedTimeSlot: &slot,
	})
}

func activeSession(t *testing.T, env *testEnv, interviewID, email string, start time.Time, lastHeartbeat time.Time) session.Session {
	t.Helper()
	sess := session.New("inv-"+email, interviewID, email, "tok-"+email, start, 45)
	sess.Status = session.StatusActive
	sess.LastHeartbeat = &lastHeartbeat
	return env.sessionRepo.put(sess)
}

func TestWatcher_SelectsInvitationsInLookaheadWindow(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	iv := env.interviewRepo.add(interview.Interview{PositionTitle: "Backend Engineer", InterviewType: "technical", DurationMinutes: 45})

	inside := acceptedInvitation(env, iv.ID, "inside@example.com", time.Now().Add(25*time.Minute))
	outside := acceptedInvitation(env, iv.ID, "outside@example.com", time.Now().Add(45*time.Minute))

	require.NoError(t, env.svc.WatchUpcomingInvitations(ctx))

	exists, err := env.sessionRepo.ExistsNonTerminalByInvitationID(ctx, inside.ID)
	require.NoError(t, err)
	assert.True(t, exists, "invitation 25 minutes out must get a session")

	exists, err = env.sessionRepo.ExistsNonTerminalByInvitationID(ctx, outside.ID)
	require.NoError(t, err)
	assert.False(t, exists, "invitation 45 minutes out is beyond the lookahead window")

	assert.Equal(t, 1, env.email.sentCount())
	assert.Equal(t, []string{"inside@example.com"}, env.email.to)
	assert.Contains(t, env.email.sent[0].JoinLink, "https://interviews.hireloop.io/interview/join/")
	assert.Equal(t, "Backend Engineer", env.email.sent[0].PositionTitle)
}

func TestWatcher_SkipsInvitationWithoutTimeSlot(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	iv := env.interviewRepo.add(interview.Interview{DurationMinutes: 45})

	env.invitationRepo.add(invitation.Invitation{
		InterviewID:    iv.ID,
		CandidateEmail: "slotless@example.com",
		Status:         invitation.StatusAccepted,
	})

	require.NoError(t, env.svc.WatchUpcomingInvitations(ctx))

	assert.Equal(t, 0, env.sessionRepo.count())
	assert.Equal(t, 0, env.email.sentCount())
}

func TestWatcher_SkipsInvitationWithLiveSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	iv := env.interviewRepo.add(interview.Interview{DurationMinutes: 45})

	slot := time.Now().Add(20 * time.Minute)
	inv := acceptedInvitation(env, iv.ID, "repeat@example.com", slot)

	require.NoError(t, env.svc.WatchUpcomingInvitations(ctx))
	require.Equal(t, 1, env.sessionRepo.count())
	require.Equal(t, 1, env.email.sentCount())

	// A second tick re-discovers the invitation but must not duplicate
	// the session or re-send the email
	require.NoError(t, env.svc.WatchUpcomingInvitations(ctx))
	assert.Equal(t, 1, env.sessionRepo.count())
	assert.Equal(t, 1, env.email.sentCount())

	exists, err := env.sessionRepo.ExistsNonTerminalByInvitationID(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestWatcher_PoisonedRecordDoesNotBlockOthers(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	iv := env.interviewRepo.add(interview.Interview{DurationMinutes: 45})

	poisoned := acceptedInvitation(env, iv.ID, "poisoned@example.com", time.Now().Add(10*time.Minute))
	healthy1 := acceptedInvitation(env, iv.ID, "healthy1@example.com", time.Now().Add(15*time.Minute))
	healthy2 := acceptedInvitation(env, iv.ID, "healthy2@example.com", time.Now().Add(30*time.Minute))

	env.sessionRepo.failCreateFor[poisoned.ID] = errors.New("transient write failure")

	require.NoError(t, env.svc.WatchUpcomingInvitations(ctx), "a per-record failure must not abort the tick")

	for _, inv := range []invitation.Invitation{healthy1, healthy2} {
		exists, err := env.sessionRepo.ExistsNonTerminalByInvitationID(ctx, inv.ID)
		require.NoError(t, err)
		assert.True(t, exists, "healthy invitation %s must still be processed", inv.CandidateEmail)
	}

	exists, err := env.sessionRepo.ExistsNonTerminalByInvitationID(ctx, poisoned.ID)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, 2, env.email.sentCount())
}

func TestWatchdog_ReapsStaleHeartbeats(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	iv := env.interviewRepo.add(interview.Interview{DurationMinutes: 45})

	now := time.Now()
	stale := activeSession(t, env, iv.ID, "stale@example.com", now.Add(-10*time.Minute), now.Add(-3*time.Minute))
	fresh := activeSession(t, env, iv.ID, "fresh@example.com", now.Add(-10*time.Minute), now.Add(-1*time.Minute))

	require.NoError(t, env.svc.ReapStaleHeartbeats(ctx))

	reaped, err := env.sessionRepo.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, session.StatusCompleted, reaped.Status)
	require.NotNil(t, reaped.CompletionReason)
	assert.Equal(t, session.ReasonHeartbeatTimeout, *reaped.CompletionReason)

	untouched, err := env.sessionRepo.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, session.StatusActive, untouched.Status)

	updated, err := env.interviewRepo.GetByID(ctx, iv.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"stale@example.com"}, updated.CompletedCandidates)
}

func TestWatchdog_RosterFailureLeavesSessionActiveForRetry(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	iv := env.interviewRepo.add(interview.Interview{DurationMinutes: 45})

	now := time.Now()
	stale := activeSession(t, env, iv.ID, "stale@example.com", now.Add(-10*time.Minute), now.Add(-3*time.Minute))

	env.interviewRepo.failAddFor[iv.ID] = errors.New("transient write failure")

	// The tick itself succeeds; the failed session is logged and skipped
	require.NoError(t, env.svc.ReapStaleHeartbeats(ctx))

	// The completion rolled back with the roster write, so the next tick
	// picks the session up again
	after, err := env.sessionRepo.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, session.StatusActive, after.Status)

	delete(env.interviewRepo.failAddFor, iv.ID)
	require.NoError(t, env.svc.ReapStaleHeartbeats(ctx))

	retried, err := env.sessionRepo.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, session.StatusCompleted, retried.Status)

	updated, err := env.interviewRepo.GetByID(ctx, iv.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"stale@example.com"}, updated.CompletedCandidates)
}

func TestWatcher_SingleInterviewLookupPerInvitation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	iv := env.interviewRepo.add(interview.Interview{PositionTitle: "Backend Engineer", DurationMinutes: 45})

	acceptedInvitation(env, iv.ID, "one@example.com", time.Now().Add(20*time.Minute))

	require.NoError(t, env.svc.WatchUpcomingInvitations(ctx))

	require.Equal(t, 1, env.email.sentCount())
	assert.Equal(t, "Backend Engineer", env.email.sent[0].PositionTitle)
	assert.Equal(t, 1, env.interviewRepo.getCalls,
		"the factory and the email share one interview lookup")
}

func TestWatchdog_NeverJoinedSessionIsNotStale(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	iv := env.interviewRepo.add(interview.Interview{DurationMinutes: 45})

	sess := session.New("inv-x", iv.ID, "quiet@example.com", "tok-x", time.Now().Add(-5*time.Minute), 45)
	stored := env.sessionRepo.put(sess)

	require.NoError(t, env.svc.ReapStaleHeartbeats(ctx))

	after, err := env.sessionRepo.GetByID(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, session.StatusPending, after.Status, "sessions without a heartbeat belong to the access-window sweeper")
}

func TestSweeper_CompletesActiveSessionsPastWindow(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	iv := env.interviewRepo.add(interview.Interview{DurationMinutes: 45})

	now := time.Now()
	// Started 40 minutes ago: the access window closed 25 minutes ago,
	// but the candidate kept the heartbeat fresh
	ran := activeSession(t, env, iv.ID, "overran@example.com", now.Add(-40*time.Minute), now.Add(-30*time.Second))

	require.NoError(t, env.svc.SweepElapsedAccessWindows(ctx))

	swept, err := env.sessionRepo.GetByID(ctx, ran.ID)
	require.NoError(t, err)
	assert.Equal(t, session.StatusCompleted, swept.Status)
	require.NotNil(t, swept.CompletionReason)
	assert.Equal(t, session.ReasonAccessWindowElapsed, *swept.CompletionReason)

	updated, err := env.interviewRepo.GetByID(ctx, iv.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"overran@example.com"}, updated.CompletedCandidates)
}

func TestSweeper_ExpiresPendingSessionsNobodyJoined(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	iv := env.interviewRepo.add(interview.Interview{DurationMinutes: 45})

	unjoined := env.sessionRepo.put(session.New("inv-y", iv.ID, "noshow@example.com", "tok-y", time.Now().Add(-40*time.Minute), 45))

	require.NoError(t, env.svc.SweepElapsedAccessWindows(ctx))

	after, err := env.sessionRepo.GetByID(ctx, unjoined.ID)
	require.NoError(t, err)
	assert.Equal(t, session.StatusExpired, after.Status)

	// No-shows are not completed candidates
	updated, err := env.interviewRepo.GetByID(ctx, iv.ID)
	require.NoError(t, err)
	assert.Empty(t, updated.CompletedCandidates)
}

func TestCompletedCandidates_DedupeByEmail(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	iv := env.interviewRepo.add(interview.Interview{DurationMinutes: 45})

	now := time.Now()
	first := activeSession(t, env, iv.ID, "repeat@example.com", now.Add(-10*time.Minute), now.Add(-5*time.Minute))
	require.NoError(t, env.svc.ReapStaleHeartbeats(ctx))

	// The same candidate ran a second session and overran the window
	second := session.New("inv-second", iv.ID, "repeat@example.com", "tok-second", now.Add(-40*time.Minute), 45)
	second.Status = session.StatusActive
	hb := now.Add(-30 * time.Second)
	second.LastHeartbeat = &hb
	second = env.sessionRepo.put(second)

	require.NoError(t, env.svc.SweepElapsedAccessWindows(ctx))

	for _, id := range []string{first.ID, second.ID} {
		s, err := env.sessionRepo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, session.StatusCompleted, s.Status)
	}

	updated, err := env.interviewRepo.GetByID(ctx, iv.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"repeat@example.com"}, updated.CompletedCandidates)
	assert.Equal(t, 1, updated.TotalCandidatesCompleted)
}

func TestRetention_DeletesOnlyPastDeadline(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	iv := env.interviewRepo.add(interview.Interview{DurationMinutes: 45})

	now := time.Now()

	gone := session.New("inv-old", iv.ID, "old@example.com", "tok-old", now.Add(-48*time.Hour), 45)
	gone.Status = session.StatusCompleted
	gone.ExpiresAt = now.Add(-time.Second)
	gone = env.sessionRepo.put(gone)

	kept := session.New("inv-new", iv.ID, "new@example.com", "tok-new", now.Add(-time.Hour), 45)
	kept.Status = session.StatusCompleted
	kept.ExpiresAt = now.Add(time.Second)
	kept = env.sessionRepo.put(kept)

	live := activeSession(t, env, iv.ID, "live@example.com", now, now)

	require.NoError(t, env.svc.PurgeExpiredSessions(ctx))

	_, err := env.sessionRepo.GetByID(ctx, gone.ID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	_, err = env.sessionRepo.GetByID(ctx, kept.ID)
	assert.NoError(t, err)

	_, err = env.sessionRepo.GetByID(ctx, live.ID)
	assert.NoError(t, err)
}

func TestRetireSession_SecondEvaluatorNoOps(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	iv := env.interviewRepo.add(interview.Interview{DurationMinutes: 45})

	now := time.Now()
	// Stale heartbeat AND past its access window: both evaluators match
	sess := session.New("inv-both", iv.ID, "both@example.com", "tok-both", now.Add(-40*time.Minute), 45)
	sess.Status = session.StatusActive
	hb := now.Add(-5 * time.Minute)
	sess.LastHeartbeat = &hb
	sess = env.sessionRepo.put(sess)

	require.NoError(t, env.svc.ReapStaleHeartbeats(ctx))
	require.NoError(t, env.svc.SweepElapsedAccessWindows(ctx))

	final, err := env.sessionRepo.GetByID(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, session.StatusCompleted, final.Status)
	require.NotNil(t, final.CompletionReason)
	assert.Equal(t, session.ReasonHeartbeatTimeout, *final.CompletionReason,
		"the evaluator that won first keeps its reason")

	updated, err := env.interviewRepo.GetByID(ctx, iv.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.TotalCandidatesCompleted)
}
