package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz definition could not be located.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrDataUnavailable wraps storage read failures during session setup.
	ErrDataUnavailable = errors.New("quiz data unavailable")
	// ErrAlreadyAttempted means a result already exists for (student, quiz).
	ErrAlreadyAttempted = errors.New("quiz already attempted")
	// ErrSessionNotStarted is returned by operations that require an in-progress session.
	ErrSessionNotStarted = errors.New("session not started")
	// ErrSessionFinished is returned when mutating a session that already finished.
	ErrSessionFinished = errors.New("session already finished")
	// ErrResultNotRecorded marks a failed result write. The computed score is
	// still valid; callers surface this as a warning, not a failure.
	ErrResultNotRecorded = errors.New("result not recorded")
	// ErrResultNotFound is returned when no result exists for a lookup.
	ErrResultNotFound = errors.New("result not found")
)
