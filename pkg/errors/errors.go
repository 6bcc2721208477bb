package errors

import (
	stderrors "errors"
	"fmt"
)

type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError with the same code, so sentinels
// match errors built later with a more specific message.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Is and As forward to the standard library so callers importing this package
// under the name errors don't need a second import.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// CodeOf returns the code of the outermost AppError in err's chain, or
// ErrCodeInternalError when there is none.
func CodeOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternalError
}

// Common error codes
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeValidationFailed  = "VALIDATION_FAILED"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeInternalError     = "INTERNAL_ERROR"
	ErrCodeAlreadyExists     = "ALREADY_EXISTS"
	ErrCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
)

// Matchmaking error codes
const (
	ErrCodeInvalidGroup         = "INVALID_GROUP"
	ErrCodeInvalidUser          = "INVALID_USER"
	ErrCodeInvalidSport         = "INVALID_SPORT"
	ErrCodeInvalidCandidate     = "INVALID_CANDIDATE"
	ErrCodeInvalidScore         = "INVALID_SCORE"
	ErrCodeParticipantNotFound  = "PARTICIPANT_NOT_FOUND"
	ErrCodeQueueEntryNotFound   = "QUEUE_ENTRY_NOT_FOUND"
	ErrCodeGameNotFound         = "GAME_NOT_FOUND"
	ErrCodeMatchInProgress      = "MATCH_IN_PROGRESS"
	ErrCodeVotingOpen           = "VOTING_OPEN"
	ErrCodeVotingClosed         = "VOTING_CLOSED"
	ErrCodeResultFinalized      = "RESULT_FINALIZED"
	ErrCodeAdmissionPersistence = "ADMISSION_PERSISTENCE"
	ErrCodeNotParticipant       = "NOT_PARTICIPANT"
	ErrCodeReportLimit          = "REPORT_LIMIT_REACHED"
	ErrCodeNotGroupMember       = "NOT_GROUP_MEMBER"
)
