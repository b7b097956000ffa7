package service

import (
	"errors"
)

// Kind classifies a domain error for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindConflict
	KindValidation
)

// DomainError is a user-facing failure with a stable code.
type DomainError struct {
	Kind Kind
	Code string
	msg  string
}

func (e *DomainError) Error() string { return e.msg }

func newDomainError(kind Kind, code, msg string) *DomainError {
	return &DomainError{Kind: kind, Code: code, msg: msg}
}

var (
	ErrExamNotFound         = newDomainError(KindNotFound, "EXAM_NOT_FOUND", "exam not found")
	ErrAttemptNotFound      = newDomainError(KindNotFound, "ATTEMPT_NOT_FOUND", "attempt not found")
	ErrQuestionNotInAttempt = newDomainError(KindNotFound, "QUESTION_NOT_IN_ATTEMPT", "question is not part of this attempt")

	ErrExamNotActive   = newDomainError(KindForbidden, "EXAM_NOT_ACTIVE", "exam is not currently active")
	ErrAttemptExists   = newDomainError(KindForbidden, "ATTEMPT_EXISTS", "an attempt for this exam is already in progress")
	ErrAttemptNotOwned = newDomainError(KindForbidden, "ATTEMPT_NOT_OWNED", "attempt belongs to another student")
	ErrInvalidSession  = newDomainError(KindForbidden, "INVALID_SESSION", "session is invalid, the exam is open on another device")

	ErrAttemptFinalized = newDomainError(KindConflict, "ATTEMPT_FINALIZED", "attempt has already been submitted")
	ErrNotGraded        = newDomainError(KindConflict, "NOT_GRADED", "attempt has not been graded yet")
	ErrNotResumable     = newDomainError(KindConflict, "NOT_RESUMABLE", "attempt can no longer be resumed")
	ErrTimeExpired      = newDomainError(KindConflict, "TIME_EXPIRED", "exam time is over, the attempt was submitted automatically")

	ErrInvalidOption    = newDomainError(KindValidation, "INVALID_OPTION", "selected option must be one of a, b, c, d or null")
	ErrInvalidTimeSpent = newDomainError(KindValidation, "INVALID_TIME_SPENT", "time spent cannot be negative")
	ErrInvalidActivity  = newDomainError(KindValidation, "INVALID_ACTIVITY", "activity type must be tab_switch or fullscreen_exit")
)

// KindOf returns the kind of the first DomainError in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}
