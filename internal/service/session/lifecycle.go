package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hireloop/interview-backend-go/internal/domain/interview"
	"github.com/hireloop/interview-backend-go/internal/domain/invitation"
	"github.com/hireloop/interview-backend-go/internal/domain/session"
	"github.com/hireloop/interview-backend-go/internal/pkg/email"
	"github.com/hireloop/interview-backend-go/internal/pkg/token"
)

const (
	// LookaheadMin and LookaheadMax bound the watcher's discovery window.
	// The window is deliberately much wider than the 2-minute tick so a
	// failed or delayed tick gets re-covered by the next one.
	LookaheadMin = 2 * time.Minute
	LookaheadMax = 40 * time.Minute

	// HeartbeatStaleAfter is how long a heartbeat may be missing before
	// the watchdog retires the session. Against a 1-minute poll this
	// tolerates at least one missed heartbeat.
	HeartbeatStaleAfter = 2 * time.Minute
)

// WatchUpcomingInvitations implements session.SessionService.
// Each invitation is processed with isolated error handling: one bad
// record never blocks the rest of the tick.
func (s *sessionServiceImpl) WatchUpcomingInvitations(ctx context.Context) error {
	now := time.Now()
	from := now.Add(LookaheadMin)
	to := now.Add(LookaheadMax)

	invitations, err := s.invitationRepo.ListAcceptedInWindow(ctx, from, to)
	if err != nil {
		return fmt.Errorf("failed to query upcoming invitations: %w", err)
	}

	if len(invitations) == 0 {
		return nil
	}

	created := 0
	for _, inv := range invitations {
		if err := s.processUpcomingInvitation(ctx, inv); err != nil {
			slog.Error("Failed to process upcoming invitation",
				"invitation_id", inv.ID,
				"candidate_email", inv.CandidateEmail,
				"error", err)
			continue
		}
		created++
	}

	slog.Info("Upcoming-interview watcher tick finished",
		"matched", len(invitations),
		"processed", created)
	return nil
}

func (s *sessionServiceImpl) processUpcomingInvitation(ctx context.Context, inv invitation.Invitation) error {
	if !inv.HasTimeSlot() {
		slog.Warn("Skipping invitation without a selected time slot", "invitation_id", inv.ID)
		return nil
	}

	// Defense in depth: the factory's insert is idempotent anyway, but
	// skipping here avoids generating tokens and emails for nothing.
	exists, err := s.sessionRepo.ExistsNonTerminalByInvitationID(ctx, inv.ID)
	if err != nil {
		return err
	}
	if exists {
		slog.Debug("Session already exists for invitation", "invitation_id", inv.ID)
		return nil
	}

	// One interview lookup serves both the factory and the email
	iv, err := s.lookupInterview(ctx, inv.InterviewID)
	if err != nil {
		return err
	}

	sess, err := s.createSession(ctx, inv.ID, inv.CandidateEmail, *inv.SelectedTimeSlot, iv)
	if err != nil {
		return err
	}

	s.sendJoinNotification(inv, sess, iv)
	return nil
}

// sendJoinNotification dispatches the join email. Delivery failure is
// logged, not retried here; the email sender has its own retry policy.
func (s *sessionServiceImpl) sendJoinNotification(inv invitation.Invitation, sess session.Session, iv interview.Interview) {
	data := email.JoinInvitationData{
		CandidateName:   inv.CandidateName,
		PositionTitle:   iv.PositionTitle,
		InterviewType:   iv.InterviewType,
		DurationMinutes: int(sess.ScheduledEndTime.Sub(sess.ScheduledStartTime).Minutes()),
		ScheduledAt:     sess.ScheduledStartTime.Format(time.RFC1123),
		JoinLink:        fmt.Sprintf("%s/interview/join/%s", s.joinBaseURL, sess.Token),
		// Display convenience for support conversations, never a credential
		SessionCode: token.GenerateSessionCode(),
	}
	if data.PositionTitle == "" {
		data.PositionTitle = "Interview"
	}
	if data.InterviewType == "" {
		data.InterviewType = "interview"
	}

	if err := s.emailService.SendJoinInvitation(inv.CandidateEmail, data); err != nil {
		slog.Error("Failed to send join notification",
			"invitation_id", inv.ID,
			"candidate_email", inv.CandidateEmail,
			"error", err)
	}
}

// ReapStaleHeartbeats implements session.SessionService.
func (s *sessionServiceImpl) ReapStaleHeartbeats(ctx context.Context) error {
	threshold := time.Now().Add(-HeartbeatStaleAfter)

	stale, err := s.sessionRepo.ListActiveWithStaleHeartbeat(ctx, threshold)
	if err != nil {
		return fmt.Errorf("failed to query stale sessions: %w", err)
	}

	if len(stale) == 0 {
		return nil
	}

	reaped := 0
	for _, sess := range stale {
		if err := s.retireSession(ctx, sess, session.ReasonHeartbeatTimeout); err != nil {
			slog.Error("Failed to retire stale session",
				"session_id", sess.ID,
				"error", err)
			continue
		}
		reaped++
	}

	slog.Info("Heartbeat watchdog tick finished", "stale", len(stale), "retired", reaped)
	return nil
}

// SweepElapsedAccessWindows implements session.SessionService.
// Active sessions past their window complete; pending ones that never went
// active expire.
func (s *sessionServiceImpl) SweepElapsedAccessWindows(ctx context.Context) error {
	now := time.Now()

	active, err := s.sessionRepo.ListActivePastAccessWindow(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to query active sessions past window: %w", err)
	}

	completed := 0
	for _, sess := range active {
		if err := s.retireSession(ctx, sess, session.ReasonAccessWindowElapsed); err != nil {
			slog.Error("Failed to retire session past access window",
				"session_id", sess.ID,
				"error", err)
			continue
		}
		completed++
	}

	pending, err := s.sessionRepo.ListPendingPastAccessWindow(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to query pending sessions past window: %w", err)
	}

	expired := 0
	for _, sess := range pending {
		ok, err := s.sessionRepo.ExpireIfPending(ctx, sess.ID)
		if err != nil {
			slog.Error("Failed to expire unjoined session",
				"session_id", sess.ID,
				"error", err)
			continue
		}
		if ok {
			expired++
		}
	}

	if completed > 0 || expired > 0 {
		slog.Info("Access-window sweeper tick finished",
			"completed", completed,
			"expired", expired)
	}
	return nil
}

// retireSession conditionally completes an active session and records the
// candidate on the parent interview, committing both writes together: a
// failed roster update rolls the completion back so the next tick retries.
// When the conditional update reports the session already left active,
// another evaluator won and there is nothing left to do.
func (s *sessionServiceImpl) retireSession(ctx context.Context, sess session.Session, reason session.CompletionReason) error {
	return s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		completed, err := s.sessionRepo.CompleteIfActive(ctx, sess.ID, reason)
		if err != nil {
			return err
		}
		if !completed {
			slog.Debug("Session already retired by another evaluator", "session_id", sess.ID)
			return nil
		}

		slog.Info("Session completed",
			"session_id", sess.ID,
			"candidate_email", sess.CandidateEmail,
			"reason", reason)

		return s.recordCompletion(ctx, sess)
	})
}

// PurgeExpiredSessions implements session.SessionService.
func (s *sessionServiceImpl) PurgeExpiredSessions(ctx context.Context) error {
	deleted, err := s.sessionRepo.DeleteTerminalExpiredBefore(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("failed to purge expired sessions: %w", err)
	}

	if deleted > 0 {
		slog.Info("Purged expired sessions", "count", deleted)
	}
	return nil
}
