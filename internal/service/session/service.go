package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hireloop/interview-backend-go/internal/domain/interview"
	"github.com/hireloop/interview-backend-go/internal/domain/invitation"
	"github.com/hireloop/interview-backend-go/internal/domain/session"
	"github.com/hireloop/interview-backend-go/internal/pkg/email"
	"github.com/hireloop/interview-backend-go/internal/pkg/token"
)

type sessionServiceImpl struct {
	sessionRepo    session.SessionRepository
	invitationRepo invitation.InvitationRepository
	interviewRepo  interview.InterviewRepository
	txManager      session.TransactionManager
	emailService   email.EmailService
	joinBaseURL    string
}

// NewSessionService creates a new session service instance
func NewSessionService(
	sessionRepo session.SessionRepository,
	invitationRepo invitation.InvitationRepository,
	interviewRepo interview.InterviewRepository,
	txManager session.TransactionManager,
	emailService email.EmailService,
	joinBaseURL string,
) session.SessionService {
	return &sessionServiceImpl{
		sessionRepo:    sessionRepo,
		invitationRepo: invitationRepo,
		interviewRepo:  interviewRepo,
		txManager:      txManager,
		emailService:   emailService,
		joinBaseURL:    joinBaseURL,
	}
}

// CreateSession implements session.SessionService.
// Creation is idempotent: if a non-terminal session already exists for the
// invitation it is returned unchanged. The duplicate check and the insert
// are one atomic store operation.
func (s *sessionServiceImpl) CreateSession(ctx context.Context, invitationID, interviewID, candidateEmail string, scheduledStart time.Time) (session.Session, error) {
	iv, err := s.lookupInterview(ctx, interviewID)
	if err != nil {
		return session.Session{}, err
	}
	return s.createSession(ctx, invitationID, candidateEmail, scheduledStart, iv)
}

// lookupInterview fetches the parent interview, tolerating a missing row:
// the factory falls back to the default duration in that case.
func (s *sessionServiceImpl) lookupInterview(ctx context.Context, interviewID string) (interview.Interview, error) {
	iv, err := s.interviewRepo.GetByID(ctx, interviewID)
	if err != nil {
		if !errors.Is(err, interview.ErrInterviewNotFound) {
			return interview.Interview{}, fmt.Errorf("failed to look up interview: %w", err)
		}
		slog.Warn("Interview not found, using default duration",
			"interview_id", interviewID,
			"default_minutes", session.DefaultDurationMinutes)
		return interview.Interview{ID: interviewID}, nil
	}
	return iv, nil
}

// createSession is the factory core shared by the public CreateSession and
// the watcher, which already holds the interview record.
func (s *sessionServiceImpl) createSession(ctx context.Context, invitationID, candidateEmail string, scheduledStart time.Time, iv interview.Interview) (session.Session, error) {
	if scheduledStart.IsZero() {
		return session.Session{}, session.ErrMissingScheduledTime
	}

	duration := session.DefaultDurationMinutes
	if iv.DurationMinutes > 0 {
		duration = iv.DurationMinutes
	}

	tok, err := token.GenerateSessionToken()
	if err != nil {
		return session.Session{}, fmt.Errorf("failed to generate session token: %w", err)
	}

	candidate := session.New(invitationID, iv.ID, candidateEmail, tok, scheduledStart, duration)

	created, inserted, err := s.sessionRepo.CreateIfAbsent(ctx, candidate)
	if err != nil {
		return session.Session{}, err
	}
	if !inserted {
		slog.Info("Reusing existing session for invitation",
			"invitation_id", invitationID,
			"session_id", created.ID,
			"status", created.Status)
	}

	return created, nil
}

// Join implements session.SessionService.
func (s *sessionServiceImpl) Join(ctx context.Context, tok string) (session.JoinResponse, error) {
	sess, err := s.sessionRepo.GetByToken(ctx, tok)
	if err != nil {
		return session.JoinResponse{}, err
	}

	if sess.Status.IsTerminal() {
		return session.JoinResponse{}, session.ErrSessionTerminal
	}

	now := time.Now()
	if !sess.InAccessWindow(now) {
		// Rejected attempts are still counted
		if err := s.sessionRepo.IncrementJoinAttempts(ctx, sess.ID); err != nil {
			slog.Error("Failed to count rejected join attempt", "session_id", sess.ID, "error", err)
		}
		return session.JoinResponse{}, session.ErrOutsideAccessWindow
	}

	switch sess.Status {
	case session.StatusPending:
		sess, err = s.sessionRepo.ActivateIfPending(ctx, sess.ID, now)
		if err != nil {
			return session.JoinResponse{}, err
		}
	case session.StatusActive:
		// Reconnect: count the attempt and refresh liveness
		if err := s.sessionRepo.IncrementJoinAttempts(ctx, sess.ID); err != nil {
			return session.JoinResponse{}, err
		}
		if err := s.sessionRepo.UpdateHeartbeat(ctx, sess.ID, now); err != nil {
			return session.JoinResponse{}, err
		}
	default:
		return session.JoinResponse{}, session.ErrIllegalTransition
	}

	resp := session.JoinResponse{
		SessionID:          sess.ID,
		InterviewID:        sess.InterviewID,
		DurationMinutes:    int(sess.ScheduledEndTime.Sub(sess.ScheduledStartTime).Minutes()),
		ScheduledStartTime: sess.ScheduledStartTime,
		ScheduledEndTime:   sess.ScheduledEndTime,
		AccessWindowEnd:    sess.AccessWindowEnd,
	}

	if iv, err := s.interviewRepo.GetByID(ctx, sess.InterviewID); err == nil {
		resp.PositionTitle = iv.PositionTitle
		resp.InterviewType = iv.InterviewType
	}

	return resp, nil
}

// GetByToken implements session.SessionService.
func (s *sessionServiceImpl) GetByToken(ctx context.Context, tok string) (session.Session, error) {
	return s.sessionRepo.GetByToken(ctx, tok)
}

// Heartbeat implements session.SessionService.
func (s *sessionServiceImpl) Heartbeat(ctx context.Context, sessionID string) error {
	return s.sessionRepo.UpdateHeartbeat(ctx, sessionID, time.Now())
}

// Complete implements session.SessionService.
// The status flip and the interview roster update commit together: a failed
// roster write rolls the completion back so a later attempt can retry.
func (s *sessionServiceImpl) Complete(ctx context.Context, sessionID string) error {
	return s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		completed, err := s.sessionRepo.CompleteIfActive(ctx, sessionID, session.ReasonManual)
		if err != nil {
			return err
		}
		if !completed {
			sess, err := s.sessionRepo.GetByID(ctx, sessionID)
			if err != nil {
				return err
			}
			if sess.Status.IsTerminal() {
				return session.ErrSessionTerminal
			}
			return session.ErrSessionNotActive
		}

		sess, err := s.sessionRepo.GetByID(ctx, sessionID)
		if err != nil {
			return err
		}

		return s.recordCompletion(ctx, sess)
	})
}

// Cancel implements session.SessionService.
func (s *sessionServiceImpl) Cancel(ctx context.Context, sessionID string) error {
	cancelled, err := s.sessionRepo.CancelIfPending(ctx, sessionID)
	if err != nil {
		return err
	}
	if !cancelled {
		sess, err := s.sessionRepo.GetByID(ctx, sessionID)
		if err != nil {
			return err
		}
		if sess.Status.IsTerminal() {
			return session.ErrSessionTerminal
		}
		return session.ErrSessionNotPending
	}

	return nil
}

// recordCompletion updates the parent interview's completed-candidate set.
// The repository write dedupes by email, so recording the same candidate
// twice changes nothing.
func (s *sessionServiceImpl) recordCompletion(ctx context.Context, sess session.Session) error {
	err := s.interviewRepo.AddCompletedCandidate(ctx, sess.InterviewID, sess.CandidateEmail)
	if err != nil {
		return fmt.Errorf("failed to record completed candidate: %w", err)
	}
	return nil
}
