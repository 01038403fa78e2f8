package response

import (
	"errors"
	"net/http"

	"github.com/hireloop/interview-backend-go/internal/domain/interview"
	"github.com/hireloop/interview-backend-go/internal/domain/invitation"
	"github.com/hireloop/interview-backend-go/internal/domain/session"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	switch {
	// Session domain errors
	case errors.Is(err, session.ErrSessionNotFound):
		NotFound(w, "Session not found")
	case errors.Is(err, session.ErrOutsideAccessWindow):
		Forbidden(w, "The join window for this session is not open")
	case errors.Is(err, session.ErrSessionTerminal):
		Gone(w, "This session has already ended")
	case errors.Is(err, session.ErrSessionNotActive):
		Conflict(w, "Session is not active")
	case errors.Is(err, session.ErrSessionNotPending):
		Conflict(w, "Session is not pending")
	case errors.Is(err, session.ErrIllegalTransition):
		Conflict(w, "Session cannot move to the requested status")

	// Invitation domain errors
	case errors.Is(err, invitation.ErrInvitationNotFound):
		NotFound(w, "Invitation not found")

	// Interview domain errors
	case errors.Is(err, interview.ErrInterviewNotFound):
		NotFound(w, "Interview not found")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
