// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"errors"
	"fmt"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/pkg/constants"
)

// ErrorType represents the semantic category of an error
type ErrorType int

const (
	ErrorTypeValidation    ErrorType = iota // Malformed or out-of-policy input
	ErrorTypeNotFound                       // Resource not found
	ErrorTypeConflict                       // No host available or modification window closed
	ErrorTypeInternal                       // Internal failures
	ErrorTypeUnavailable                    // Collaborator not ready
	ErrorTypeVendor                         // Non-2xx answer from a conferencing vendor
	ErrorTypePipelineStage                  // Recording pipeline stage failure
	ErrorTypeNotification                   // Email or event bus delivery failure
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeValidation:
		return "validation"
	case ErrorTypeNotFound:
		return "not_found"
	case ErrorTypeConflict:
		return "conflict"
	case ErrorTypeUnavailable:
		return "unavailable"
	case ErrorTypeVendor:
		return "vendor"
	case ErrorTypePipelineStage:
		return "pipeline_stage"
	case ErrorTypeNotification:
		return "notification"
	default:
		return "internal"
	}
}

// DomainError represents an error with semantic type information
type DomainError struct {
	Type    ErrorType
	Code    int // status code reported to callers, see pkg/constants
	Message string
	Err     error // underlying error for wrapping
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// WithCode sets the status code carried by the error.
func (e *DomainError) WithCode(code int) *DomainError {
	e.Code = code
	return e
}

// GetErrorType returns the semantic type of an error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ErrorTypeInternal // default fallback
}

// GetStatusCode returns the status code carried by err.
// Errors without an explicit code map to a code derived from their type.
func GetStatusCode(err error) int {
	if err == nil {
		return constants.StatusSuccess
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		if domainErr.Code != 0 {
			return domainErr.Code
		}
		switch domainErr.Type {
		case ErrorTypeValidation:
			return constants.StatusParameterError
		case ErrorTypeNotFound:
			return constants.StatusMeetingNotExist
		}
	}
	return constants.StatusInternalError
}

// Error constructors for different types
func NewValidationError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeValidation, Code: constants.StatusParameterError, Message: message, Err: errors.Join(err...)}
}

func NewNotFoundError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeNotFound, Message: message, Err: errors.Join(err...)}
}

func NewConflictError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeConflict, Message: message, Err: errors.Join(err...)}
}

func NewInternalError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeInternal, Message: message, Err: errors.Join(err...)}
}

func NewUnavailableError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeUnavailable, Message: message, Err: errors.Join(err...)}
}

func NewPipelineStageError(stage string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypePipelineStage, Message: "pipeline stage " + stage + " failed", Err: errors.Join(err...)}
}

func NewNotificationError(channel string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeNotification, Message: "notification via " + channel + " failed", Err: errors.Join(err...)}
}

// VendorError is returned when a conferencing vendor answers with a non-2xx status.
// The raw status and body are kept so callers can surface them unchanged.
type VendorError struct {
	Platform string
	Status   int
	Body     string
}

func (e *VendorError) Error() string {
	return fmt.Sprintf("%s responded with status %d: %s", e.Platform, e.Status, e.Body)
}

// NewVendorError wraps a non-2xx vendor answer in a DomainError of type vendor.
func NewVendorError(platform string, status int, body string) *DomainError {
	return &DomainError{
		Type:    ErrorTypeVendor,
		Message: "vendor request failed",
		Err:     &VendorError{Platform: platform, Status: status, Body: body},
	}
}

// Sentinel errors shared across packages.
var (
	// ErrServiceUnavailable is returned when a service is missing a dependency.
	ErrServiceUnavailable = NewUnavailableError("service unavailable")

	// ErrActionMismatch is returned when an action variant does not match the
	// vendor or operation it was dispatched to.
	ErrActionMismatch = errors.New("action does not match vendor operation")

	// ErrPlatformNotConfigured is returned when no client is registered for a
	// community and platform pair.
	ErrPlatformNotConfigured = errors.New("platform not configured for community")

	// ErrStatusRegression is returned when an upload status change would not move forward.
	ErrStatusRegression = errors.New("upload status can only advance")
)
