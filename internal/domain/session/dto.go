package session

import "time"

// JoinResponse is returned to the candidate client on a successful join
type JoinResponse struct {
	SessionID          string    `json:"session_id"`
	InterviewID        string    `json:"interview_id"`
	PositionTitle      string    `json:"position_title"`
	InterviewType      string    `json:"interview_type"`
	DurationMinutes    int       `json:"duration_minutes"`
	ScheduledStartTime time.Time `json:"scheduled_start_time"`
	ScheduledEndTime   time.Time `json:"scheduled_end_time"`
	AccessWindowEnd    time.Time `json:"access_window_end"`
}

// SessionResponse is the external view of a session
type SessionResponse struct {
	ID                 string     `json:"id"`
	InterviewID        string     `json:"interview_id"`
	CandidateEmail     string     `json:"candidate_email"`
	Status             Status     `json:"status"`
	CompletionReason   *string    `json:"completion_reason,omitempty"`
	ScheduledStartTime time.Time  `json:"scheduled_start_time"`
	ScheduledEndTime   time.Time  `json:"scheduled_end_time"`
	AccessWindowStart  time.Time  `json:"access_window_start"`
	AccessWindowEnd    time.Time  `json:"access_window_end"`
	LastHeartbeat      *time.Time `json:"last_heartbeat,omitempty"`
	JoinAttempts       int        `json:"join_attempts"`
}

// ToResponse converts a session entity to its external view
func (s *Session) ToResponse() SessionResponse {
	resp := SessionResponse{
		ID:                 s.ID,
		InterviewID:        s.InterviewID,
		CandidateEmail:     s.CandidateEmail,
		Status:             s.Status,
		ScheduledStartTime: s.ScheduledStartTime,
		ScheduledEndTime:   s.ScheduledEndTime,
		AccessWindowStart:  s.AccessWindowStart,
		AccessWindowEnd:    s.AccessWindowEnd,
		LastHeartbeat:      s.LastHeartbeat,
		JoinAttempts:       s.JoinAttempts,
	}
	if s.CompletionReason != nil {
		reason := string(*s.CompletionReason)
		resp.CompletionReason = &reason
	}
	return resp
}
