package interview

import "context"

// InterviewRepository defines the interface for interview data access
type InterviewRepository interface {
	// GetByID retrieves an interview by its identifier
	GetByID(ctx context.Context, id string) (Interview, error)

	// AddCompletedCandidate appends the email to the interview's
	// completed-candidate set and refreshes the completed count. The
	// write is atomic and duplicate-free: adding the same email twice
	// changes nothing.
	AddCompletedCandidate(ctx context.Context, interviewID, candidateEmail string) error
}
