package chat

import (
	"errors"
	"fmt"
)

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// NotFoundError reports an unknown resource.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// InternalError wraps an unexpected failure.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.Op + ": internal error"
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// ErrorKind names an error class on the wire.
type ErrorKind string

// Error kinds.
const (
	ErrorKindValidation ErrorKind = "validation"
	ErrorKindNotFound   ErrorKind = "not_found"
	ErrorKindInternal   ErrorKind = "internal"
)

// KindOf classifies err. Unclassified errors are internal.
func KindOf(err error) ErrorKind {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ErrorKindValidation
	}
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return ErrorKindNotFound
	}
	return ErrorKindInternal
}

// ReplyError is the wire form of a domain error carried inside
// request-reply payloads.
type ReplyError struct {
	Kind   ErrorKind `json:"kind"`
	Field  string    `json:"field,omitempty"`
	Reason string    `json:"reason"`
}

// NewReplyError converts err to its wire form. It returns nil for a nil
// error.
func NewReplyError(err error) *ReplyError {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return &ReplyError{Kind: ErrorKindValidation, Field: ve.Field, Reason: ve.Reason}
	}
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return &ReplyError{Kind: ErrorKindNotFound, Field: nf.Resource, Reason: nf.ID}
	}
	return &ReplyError{Kind: ErrorKindInternal, Reason: err.Error()}
}

// Err rebuilds the typed domain error.
func (r *ReplyError) Err() error {
	if r == nil {
		return nil
	}
	switch r.Kind {
	case ErrorKindValidation:
		return &ValidationError{Field: r.Field, Reason: r.Reason}
	case ErrorKindNotFound:
		return &NotFoundError{Resource: r.Field, ID: r.Reason}
	default:
		return &InternalError{Op: "remote", Err: errors.New(r.Reason)}
	}
}

// Reason returns the human readable part of err for API responses.
func Reason(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Reason
	}
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf.Error()
	}
	return "internal error"
}
