package session

import "errors"

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionNotPending    = errors.New("session is not pending")
	ErrSessionNotActive     = errors.New("session is not active")
	ErrSessionTerminal      = errors.New("session already reached a terminal status")
	ErrOutsideAccessWindow  = errors.New("current time is outside the session access window")
	ErrIllegalTransition    = errors.New("illegal session status transition")
	ErrMissingScheduledTime = errors.New("invitation has no selected time slot")
)
