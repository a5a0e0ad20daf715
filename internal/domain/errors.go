package domain

import "errors"

// Domain errors. Every validation failure is detected before any store call
// is issued; only ErrStoreUnavailable can surface after a write has been
// dispatched.
var (
	ErrEmptyName            = errors.New("participant name is empty")
	ErrInvalidCharacters    = errors.New("participant name contains invalid characters")
	ErrDuplicateParticipant = errors.New("participant already exists")
	ErrParticipantNotFound  = errors.New("participant not found")
	ErrInvalidDate          = errors.New("invalid attendance date")
	ErrPastDate             = errors.New("attendance date is in the past")
	ErrNoParticipants       = errors.New("no participants selected")
	ErrRecordNotFound       = errors.New("attendance record not found")
	ErrStoreUnavailable     = errors.New("store unavailable")
)
