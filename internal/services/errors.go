package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

type ErrorCode string

const (
	ErrorInvalid         ErrorCode = "invalid"
	ErrorForbidden       ErrorCode = "forbidden"
	ErrorNotFound        ErrorCode = "not_found"
	ErrorConflict        ErrorCode = "conflict"
	ErrorUnauthorized    ErrorCode = "unauthorized"
	ErrorTooManyRequests ErrorCode = "too_many_requests"
)

type ServiceError struct {
	Code    ErrorCode
	Message string
}

func (e *ServiceError) Error() string { return e.Message }

func NewInvalidError(msg string) error   { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewForbiddenError(msg string) error { return &ServiceError{Code: ErrorForbidden, Message: msg} }
func NewNotFoundError(msg string) error  { return &ServiceError{Code: ErrorNotFound, Message: msg} }
func NewConflictError(msg string) error  { return &ServiceError{Code: ErrorConflict, Message: msg} }
func NewUnauthorizedError(msg string) error {
	return &ServiceError{Code: ErrorUnauthorized, Message: msg}
}

func NewTooManyRequestsError(msg string) error {
	return &ServiceError{Code: ErrorTooManyRequests, Message: msg}
}

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

var (
	// ErrRequired is reported for a required question left unanswered.
	ErrRequired = errors.New("this question is required")
	// ErrSurveyNotFound is returned when a request references a missing survey.
	ErrSurveyNotFound = errors.New("survey not found")
	// ErrQuestionNotFound is returned when a question id is not part of the survey.
	ErrQuestionNotFound = errors.New("question not found")
)

// ValidationError collects every problem found while checking one entity.
type ValidationError struct {
	Entity string
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %s", e.Entity, strings.Join(e.Errors, "; "))
}

func (e *ValidationError) AddError(msg string) { e.Errors = append(e.Errors, msg) }

func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// SubmissionError reports per-question failures for a rejected submission.
type SubmissionError struct {
	Fields map[string]error
}

func (e *SubmissionError) Error() string {
	ids := make([]string, 0, len(e.Fields))
	for id := range e.Fields {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, id+": "+e.Fields[id].Error())
	}
	return "submission rejected: " + strings.Join(parts, "; ")
}
