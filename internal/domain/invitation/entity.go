package invitation

import "time"

// Status represents the status of an invitation
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
	StatusRevoked  Status = "revoked"
)

// Invitation represents an accepted offer for a candidate to interview at a
// specific time. This subsystem only reads invitations; the invitation flow
// that creates and accepts them lives elsewhere.
type Invitation struct {
	ID               string
	InterviewID      string
	CandidateEmail   string
	CandidateName    string
	Status           Status
	SelectedTimeSlot *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasTimeSlot reports whether the candidate picked a slot
func (i *Invitation) HasTimeSlot() bool {
	return i.SelectedTimeSlot != nil && !i.SelectedTimeSlot.IsZero()
}
