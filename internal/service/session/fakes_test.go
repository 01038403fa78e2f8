package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hireloop/interview-backend-go/internal/domain/interview"
	"github.com/hireloop/interview-backend-go/internal/domain/invitation"
	"github.com/hireloop/interview-backend-go/internal/domain/session"
	"github.com/hireloop/interview-backend-go/internal/pkg/email"
)

// fakeSessionRepo is an in-memory session.SessionRepository. Individual
// operations can be poisoned per invitation to exercise per-record error
// isolation.
type fakeSessionRepo struct {
	mu            sync.Mutex
	sessions      map[string]session.Session
	failCreateFor map[string]error
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{
		sessions:      make(map[string]session.Session),
		failCreateFor: make(map[string]error),
	}
}

func (r *fakeSessionRepo) put(s session.Session) session.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	s.UpdatedAt = time.Now()
	r.sessions[s.ID] = s
	return s
}

func (r *fakeSessionRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *fakeSessionRepo) CreateIfAbsent(ctx context.Context, s session.Session) (session.Session, bool, error) {
	if err, ok := r.failCreateFor[s.InvitationID]; ok {
		return session.Session{}, false, err
	}

	r.mu.Lock()
	for _, existing := range r.sessions {
		if existing.InvitationID == s.InvitationID && !existing.Status.IsTerminal() {
			r.mu.Unlock()
			return existing, false, nil
		}
	}
	r.mu.Unlock()

	return r.put(s), true, nil
}

func (r *fakeSessionRepo) GetByID(ctx context.Context, id string) (session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return session.Session{}, session.ErrSessionNotFound
	}
	return s, nil
}

func (r *fakeSessionRepo) GetByToken(ctx context.Context, token string) (session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.Token == token {
			return s, nil
		}
	}
	return session.Session{}, session.ErrSessionNotFound
}

func (r *fakeSessionRepo) ExistsNonTerminalByInvitationID(ctx context.Context, invitationID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.InvitationID == invitationID && !s.Status.IsTerminal() {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeSessionRepo) ListActiveWithStaleHeartbeat(ctx context.Context, threshold time.Time) ([]session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []session.Session
	for _, s := range r.sessions {
		if s.Status == session.StatusActive && s.LastHeartbeat != nil && s.LastHeartbeat.Before(threshold) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) ListActivePastAccessWindow(ctx context.Context, now time.Time) ([]session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []session.Session
	for _, s := range r.sessions {
		if s.Status == session.StatusActive && s.AccessWindowEnd.Before(now) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) ListPendingPastAccessWindow(ctx context.Context, now time.Time) ([]session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []session.Session
	for _, s := range r.sessions {
		if s.Status == session.StatusPending && s.AccessWindowEnd.Before(now) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) ActivateIfPending(ctx context.Context, id string, at time.Time) (session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return session.Session{}, session.ErrSessionNotFound
	}
	if s.Status != session.StatusPending {
		return session.Session{}, session.ErrSessionNotPending
	}
	s.Status = session.StatusActive
	s.LastHeartbeat = &at
	s.JoinAttempts++
	s.UpdatedAt = time.Now()
	r.sessions[id] = s
	return s, nil
}

func (r *fakeSessionRepo) IncrementJoinAttempts(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return session.ErrSessionNotFound
	}
	s.JoinAttempts++
	r.sessions[id] = s
	return nil
}

func (r *fakeSessionRepo) UpdateHeartbeat(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.Status != session.StatusActive {
		return session.ErrSessionNotActive
	}
	s.LastHeartbeat = &at
	r.sessions[id] = s
	return nil
}

func (r *fakeSessionRepo) CompleteIfActive(ctx context.Context, id string, reason session.CompletionReason) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.Status != session.StatusActive {
		return false, nil
	}
	s.Status = session.StatusCompleted
	s.CompletionReason = &reason
	r.sessions[id] = s
	return true, nil
}

func (r *fakeSessionRepo) ExpireIfPending(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.Status != session.StatusPending {
		return false, nil
	}
	s.Status = session.StatusExpired
	r.sessions[id] = s
	return true, nil
}

func (r *fakeSessionRepo) CancelIfPending(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.Status != session.StatusPending {
		return false, nil
	}
	s.Status = session.StatusCancelled
	r.sessions[id] = s
	return true, nil
}

func (r *fakeSessionRepo) DeleteTerminalExpiredBefore(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, s := range r.sessions {
		if s.Status.IsTerminal() && s.ExpiresAt.Before(now) {
			delete(r.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

// fakeInvitationRepo is an in-memory invitation.InvitationRepository
type fakeInvitationRepo struct {
	invitations map[string]invitation.Invitation
}

func newFakeInvitationRepo() *fakeInvitationRepo {
	return &fakeInvitationRepo{invitations: make(map[string]invitation.Invitation)}
}

func (r *fakeInvitationRepo) add(inv invitation.Invitation) invitation.Invitation {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	r.invitations[inv.ID] = inv
	return inv
}

func (r *fakeInvitationRepo) GetByID(ctx context.Context, id string) (invitation.Invitation, error) {
	inv, ok := r.invitations[id]
	if !ok {
		return invitation.Invitation{}, invitation.ErrInvitationNotFound
	}
	return inv, nil
}

func (r *fakeInvitationRepo) ListAcceptedInWindow(ctx context.Context, from, to time.Time) ([]invitation.Invitation, error) {
	var out []invitation.Invitation
	for _, inv := range r.invitations {
		if inv.Status != invitation.StatusAccepted {
			continue
		}
		if !inv.HasTimeSlot() {
			// Accepted but slotless records still surface so the watcher
			// exercises its skip path
			out = append(out, inv)
			continue
		}
		slot := *inv.SelectedTimeSlot
		if !slot.Before(from) && !slot.After(to) {
			out = append(out, inv)
		}
	}
	return out, nil
}

// fakeInterviewRepo is an in-memory interview.InterviewRepository with
// per-interview error injection
type fakeInterviewRepo struct {
	interviews map[string]interview.Interview
	failGetFor map[string]error
	failAddFor map[string]error
	getCalls   int
}

func newFakeInterviewRepo() *fakeInterviewRepo {
	return &fakeInterviewRepo{
		interviews: make(map[string]interview.Interview),
		failGetFor: make(map[string]error),
		failAddFor: make(map[string]error),
	}
}

func (r *fakeInterviewRepo) add(iv interview.Interview) interview.Interview {
	if iv.ID == "" {
		iv.ID = uuid.New().String()
	}
	r.interviews[iv.ID] = iv
	return iv
}

func (r *fakeInterviewRepo) GetByID(ctx context.Context, id string) (interview.Interview, error) {
	r.getCalls++
	if err, ok := r.failGetFor[id]; ok {
		return interview.Interview{}, err
	}
	iv, ok := r.interviews[id]
	if !ok {
		return interview.Interview{}, interview.ErrInterviewNotFound
	}
	return iv, nil
}

func (r *fakeInterviewRepo) AddCompletedCandidate(ctx context.Context, interviewID, candidateEmail string) error {
	if err, ok := r.failAddFor[interviewID]; ok {
		return err
	}
	iv, ok := r.interviews[interviewID]
	if !ok {
		return interview.ErrInterviewNotFound
	}
	for _, email := range iv.CompletedCandidates {
		if email == candidateEmail {
			return nil
		}
	}
	iv.CompletedCandidates = append(iv.CompletedCandidates, candidateEmail)
	iv.TotalCandidatesCompleted = len(iv.CompletedCandidates)
	r.interviews[interviewID] = iv
	return nil
}

// fakeTxManager gives the in-memory repositories transactional semantics:
// it snapshots both stores before fn and restores them when fn errors, so
// tests observe the same all-or-nothing behavior the store provides.
type fakeTxManager struct {
	sessions   *fakeSessionRepo
	interviews *fakeInterviewRepo
	calls      int
}

func (m *fakeTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++

	sessionSnap := make(map[string]session.Session, len(m.sessions.sessions))
	for id, s := range m.sessions.sessions {
		sessionSnap[id] = s
	}
	interviewSnap := make(map[string]interview.Interview, len(m.interviews.interviews))
	for id, iv := range m.interviews.interviews {
		interviewSnap[id] = iv
	}

	if err := fn(ctx); err != nil {
		m.sessions.sessions = sessionSnap
		m.interviews.interviews = interviewSnap
		return err
	}
	return nil
}

// fakeEmailService records sent join invitations
type fakeEmailService struct {
	mu   sync.Mutex
	sent []email.JoinInvitationData
	to   []string
	err  error
}

func (s *fakeEmailService) SendJoinInvitation(to string, data email.JoinInvitationData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.to = append(s.to, to)
	s.sent = append(s.sent, data)
	return nil
}

func (s *fakeEmailService) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}
