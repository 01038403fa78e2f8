package interview

import "time"

// Interview represents the job requisition an interview session belongs to
type Interview struct {
	ID                       string
	PositionTitle            string
	DurationMinutes          int
	InterviewType            string
	CompletedCandidates      []string
	TotalCandidatesCompleted int
	CreatedAt                time.Time
	UpdatedAt                time.Time
}
