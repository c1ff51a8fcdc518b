// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package errors defines the failure taxonomy shared by the anonymization
// engine and its collaborators. Sentinels are matched with Is, either directly
// or through an *Error carrying the same Kind.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies an engine failure.
type Kind int

const (
	// KindUnknown is the zero Kind.
	KindUnknown Kind = iota

	// KindDetectionDegraded means person recognition was unavailable and
	// detection ran on patterns only.
	KindDetectionDegraded

	// KindInvalidEntity means a candidate failed its checksum or shape check.
	KindInvalidEntity

	// KindAuthentication means a mapping could not be authenticated, either
	// because the password is wrong or because the artifact was altered.
	KindAuthentication

	// KindReversal means a replacement listed in the mapping was not found
	// in the anonymized text.
	KindReversal

	// KindCorruptMapping means an authenticated mapping could not be decoded.
	KindCorruptMapping

	// KindReplacementExhausted means no collision-free replacement could be
	// generated within the attempt budget.
	KindReplacementExhausted

	// KindUnsupportedFormat means no preprocessor handles the document.
	KindUnsupportedFormat
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindDetectionDegraded:
		return "detection_degraded"
	case KindInvalidEntity:
		return "invalid_entity_discarded"
	case KindAuthentication:
		return "authentication"
	case KindReversal:
		return "reversal"
	case KindCorruptMapping:
		return "corrupt_mapping"
	case KindReplacementExhausted:
		return "replacement_exhausted"
	case KindUnsupportedFormat:
		return "unsupported_format"
	default:
		return "unknown"
	}
}

// Sentinel errors, one per Kind.
var (
	ErrDetectionDegraded    = &Error{Kind: KindDetectionDegraded, Message: "person recognizer unavailable, pattern-only detection", Recoverable: true}
	ErrInvalidEntity        = &Error{Kind: KindInvalidEntity, Message: "candidate failed validation", Recoverable: true}
	ErrAuthentication       = &Error{Kind: KindAuthentication, Message: "wrong password or tampered mapping"}
	ErrReversal             = &Error{Kind: KindReversal, Message: "replacement not found in anonymized text"}
	ErrCorruptMapping       = &Error{Kind: KindCorruptMapping, Message: "mapping could not be decoded"}
	ErrReplacementExhausted = &Error{Kind: KindReplacementExhausted, Message: "no collision-free replacement available"}
	ErrUnsupportedFormat    = &Error{Kind: KindUnsupportedFormat, Message: "unsupported document format"}
)

// Error is an engine failure with its classification and origin.
type Error struct {
	// Kind classifies the failure
	Kind Kind

	// Message is the error message
	Message string

	// Component is the package or stage that generated the error
	Component string

	// Recoverable indicates whether the surrounding pipeline may continue
	Recoverable bool

	// Timestamp is when the error occurred
	Timestamp time.Time

	// Cause is the underlying error that caused this error
	Cause error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Message
	if e.Component != "" {
		msg = fmt.Sprintf("%s (component: %s)", msg, e.Component)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s", e.Kind, msg, e.Cause.Error())
	}
	return fmt.Sprintf("[%s] %s", e.Kind, msg)
}

// Unwrap returns the underlying error for error unwrapping
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NewError creates a new classified error.
func NewError(kind Kind, message, component string, cause error) *Error {
	return &Error{
		Kind:        kind,
		Message:     message,
		Component:   component,
		Recoverable: isRecoverable(kind),
		Timestamp:   time.Now(),
		Cause:       cause,
	}
}

func isRecoverable(kind Kind) bool {
	switch kind {
	case KindDetectionDegraded, KindInvalidEntity:
		return true
	default:
		return false
	}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// New creates a plain error with the given message.
func New(message string) error {
	return errors.New(message)
}

// Wrap wraps an error with additional context while preserving the chain.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Join returns an error that wraps the given errors.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
