package invitation

import (
	"context"
	"time"
)

// InvitationRepository defines the interface for invitation data access
type InvitationRepository interface {
	// GetByID retrieves an invitation by its identifier
	GetByID(ctx context.Context, id string) (Invitation, error)

	// ListAcceptedInWindow lists accepted invitations whose selected time
	// slot falls inside [from, to]
	ListAcceptedInWindow(ctx context.Context, from, to time.Time) ([]Invitation, error)
}
