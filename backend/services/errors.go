package services

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindConflict
	KindForbidden
	KindUnauthenticated
	KindValidation
)

// Error is a domain failure with a fixed HTTP-facing category.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

var (
	ErrCourseNotFound      = &Error{KindNotFound, "course not found"}
	ErrLessonNotFound      = &Error{KindNotFound, "lesson not found"}
	ErrQuizNotFound        = &Error{KindNotFound, "quiz not found"}
	ErrUserNotFound        = &Error{KindNotFound, "user not found"}
	ErrCertificateNotFound = &Error{KindNotFound, "certificate not found"}

	ErrAlreadyEnrolled = &Error{KindConflict, "already enrolled in this course"}
	ErrUserExists      = &Error{KindConflict, "a user with this username or email already exists"}
	ErrQuizExists      = &Error{KindConflict, "this course already has a quiz"}

	ErrForbidden   = &Error{KindForbidden, "permission denied"}
	ErrNotOwner    = &Error{KindForbidden, "you can only manage your own courses"}
	ErrNotEnrolled = &Error{KindForbidden, "you are not enrolled in this course"}

	ErrInvalidCredentials = &Error{KindUnauthenticated, "invalid credentials"}

	ErrMalformedSubmission = &Error{KindValidation, "malformed quiz submission"}
	ErrWrongPassword       = &Error{KindValidation, "old password is incorrect"}
)

// FieldError is used to indicate an error with a specific request field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err *ValidationError) Error() string {
	if err.Err == nil {
		return "validation failed"
	}
	return err.Err.Error()
}

func (err *ValidationError) Unwrap() error {
	return err.Err
}

// FieldMap flattens the field errors for a response body.
func (err *ValidationError) FieldMap() map[string]string {
	fields := make(map[string]string, len(err.Fields))
	for _, f := range err.Fields {
		fields[f.Field] = f.Error
	}
	return fields
}

// KindOf reports the category of err, looking through wrapping.
func KindOf(err error) Kind {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return KindValidation
	}
	var derr *Error
	if errors.As(err, &derr) {
		return derr.Kind
	}
	return KindUnknown
}

// notFound maps gorm.ErrRecordNotFound to target and wraps anything else.
func notFound(err, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return errors.Wrap(err, "query")
}
