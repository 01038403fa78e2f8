package session

import "time"

// Status represents the lifecycle status of a session
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// transitions is the set of legal status moves. Terminal statuses have no
// outgoing edges.
var transitions = map[Status][]Status{
	StatusPending: {StatusActive, StatusCompleted, StatusExpired, StatusCancelled},
	StatusActive:  {StatusCompleted, StatusExpired, StatusCancelled},
}

// IsTerminal reports whether the status is final
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// IsValid reports whether the status is a known value
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusActive, StatusCompleted, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to target is legal
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// NonTerminalStatuses returns the statuses a live session can hold
func NonTerminalStatuses() []Status {
	return []Status{StatusPending, StatusActive}
}

// CompletionReason records why a session was completed
type CompletionReason string

const (
	ReasonHeartbeatTimeout    CompletionReason = "heartbeat_timeout"
	ReasonAccessWindowElapsed CompletionReason = "access_window_elapsed"
	ReasonManual              CompletionReason = "manual"
)

const (
	// AccessWindowSlack is how far on either side of the scheduled start a
	// candidate is allowed to join.
	AccessWindowSlack = 15 * time.Minute

	// DefaultDurationMinutes applies when the parent interview has no
	// usable duration.
	DefaultDurationMinutes = 45

	// RetentionPeriod is how long a session is kept after its scheduled
	// end before the retention sweeper may delete it.
	RetentionPeriod = 24 * time.Hour
)

// Session represents one candidate's time-windowed attempt at one interview
type Session struct {
	ID                 string
	InvitationID       string
	InterviewID        string
	CandidateEmail     string
	Token              string
	ScheduledStartTime time.Time
	ScheduledEndTime   time.Time
	AccessWindowStart  time.Time
	AccessWindowEnd    time.Time
	Status             Status
	CompletionReason   *CompletionReason
	LastHeartbeat      *time.Time
	JoinAttempts       int
	ExpiresAt          time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// New builds a pending session with all derived timestamps computed from
// the scheduled start and interview duration.
func New(invitationID, interviewID, candidateEmail, token string, scheduledStart time.Time, durationMinutes int) Session {
	if durationMinutes <= 0 {
		durationMinutes = DefaultDurationMinutes
	}
	scheduledEnd := scheduledStart.Add(time.Duration(durationMinutes) * time.Minute)

	return Session{
		InvitationID:       invitationID,
		InterviewID:        interviewID,
		CandidateEmail:     candidateEmail,
		Token:              token,
		ScheduledStartTime: scheduledStart,
		ScheduledEndTime:   scheduledEnd,
		AccessWindowStart:  scheduledStart.Add(-AccessWindowSlack),
		AccessWindowEnd:    scheduledStart.Add(AccessWindowSlack),
		Status:             StatusPending,
		JoinAttempts:       0,
		ExpiresAt:          scheduledEnd.Add(RetentionPeriod),
	}
}

// InAccessWindow reports whether the candidate may join at the given time
func (s *Session) InAccessWindow(at time.Time) bool {
	return !at.Before(s.AccessWindowStart) && !at.After(s.AccessWindowEnd)
}

// HeartbeatStale reports whether the liveness signal is older than the
// given threshold. Sessions that never sent a heartbeat are not stale; the
// access-window sweeper owns those.
func (s *Session) HeartbeatStale(threshold time.Time) bool {
	return s.LastHeartbeat != nil && s.LastHeartbeat.Before(threshold)
}
