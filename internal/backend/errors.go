package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated means the session is missing or expired and the
	// caller has to log in again.
	ErrUnauthenticated = errors.New("backend: not authenticated")

	// ErrUserNotFound is returned when a Roblox username does not resolve.
	ErrUserNotFound = errors.New("backend: user not found")

	// ErrMissingRows is returned when a list response has no rows collection.
	ErrMissingRows = errors.New("backend: response has no rows")
)

// FallbackMessage is shown when a rejected mutation carries no message.
const FallbackMessage = "An unexpected error occurred, please try again!"

// RequestError describes a transport level failure talking to the backend.
type RequestError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Err != nil && e.StatusCode > 0:
		return fmt.Sprintf("%s: status=%d: %v", e.Op, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.StatusCode > 0:
		return fmt.Sprintf("%s: status=%d", e.Op, e.StatusCode)
	default:
		return e.Op
	}
}

func (e *RequestError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// MutationError is a ban create/modify/delete the backend refused.
// Message is safe to show to staff.
type MutationError struct {
	Status  int
	Message string
}

func (e *MutationError) Error() string {
	return e.Message
}

// UserMessage returns the text to show staff for a failed mutation.
func UserMessage(err error) string {
	var mErr *MutationError
	if errors.As(err, &mErr) && mErr.Message != "" {
		return mErr.Message
	}
	return FallbackMessage
}
