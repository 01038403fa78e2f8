package invitation

import "errors"

var (
	ErrInvitationNotFound = errors.New("invitation not found")
)
