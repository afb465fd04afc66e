// Package errors provides the error taxonomy for cpaneldns.
//
// Every failure that crosses a package boundary is a *CPanelError carrying a
// Code, so callers (the CLI, the lego and libdns adapters) can decide what to
// do without matching on message text.
//
// # Error Types
//
// CPanelError contains:
//   - Code: Categorizes the error (ZONE_NOT_FOUND, RECORD_MUTATION, etc.)
//   - Message: Human-readable description, remote text kept verbatim
//   - Domain: The name involved (if applicable)
//   - Err: The underlying wrapped error (if any)
//
// # Sentinel Errors
//
//	errors.ErrInvalidCredentials // url/username missing, or no token/password
//	errors.ErrZoneNotFound       // no managed zone is a suffix of the name
//	errors.ErrRecordMutation     // add_zone_record/remove_zone_record failed
//	errors.ErrCertInstall        // installssl failed
//	errors.ErrTransport          // HTTP failure or malformed response
//
// # Usage
//
//	return errors.ZoneNotFound("_acme-challenge.example.org")
//	return errors.RecordMutation("example.com", "Error adding TXT record", statusmsg)
//	return errors.Wrap(errors.ErrCodeTransport, "fetchzones", err)
//
// # Error Checking
//
//	if errors.Is(err, errors.ErrZoneNotFound) {
//	    // configuration problem, do not retry
//	}
//
//	var cpErr *errors.CPanelError
//	if errors.As(err, &cpErr) {
//	    fmt.Printf("Error code: %s, Domain: %s\n", cpErr.Code, cpErr.Domain)
//	}
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes errors for programmatic handling.
type ErrorCode string

// Error codes for different error categories.
const (
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS" // Missing or inconsistent credentials
	ErrCodeZoneNotFound       ErrorCode = "ZONE_NOT_FOUND"      // Name outside every managed zone
	ErrCodeRecordMutation     ErrorCode = "RECORD_MUTATION"     // Remote refused a record change
	ErrCodeCertInstall        ErrorCode = "CERT_INSTALL"        // Remote refused a certificate
	ErrCodeTransport          ErrorCode = "TRANSPORT"           // Network or protocol failure
	ErrCodeConfig             ErrorCode = "CONFIG"              // Tool configuration error
	ErrCodeValidation         ErrorCode = "VALIDATION"          // Input validation failed
	ErrCodeCertbot            ErrorCode = "CERTBOT"             // certbot invocation failed
)

// CPanelError represents a structured error with context about the operation.
type CPanelError struct {
	Code    ErrorCode // Error category
	Message string    // Human-readable message
	Domain  string    // Name involved (if applicable)
	Err     error     // Underlying error (if any)
}

// Error implements the error interface.
func (e *CPanelError) Error() string {
	if e.Domain != "" && e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Domain, e.Message, e.Err)
	}
	if e.Domain != "" {
		return fmt.Sprintf("%s: %s", e.Domain, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for error chain traversal.
func (e *CPanelError) Unwrap() error {
	return e.Err
}

// Is reports whether target matches this error.
// Comparison is based on error code.
func (e *CPanelError) Is(target error) bool {
	t, ok := target.(*CPanelError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinel errors, one per code. Use these with errors.Is().
var (
	ErrInvalidCredentials = &CPanelError{Code: ErrCodeInvalidCredentials, Message: "invalid credentials"}
	ErrZoneNotFound       = &CPanelError{Code: ErrCodeZoneNotFound, Message: "zone not found"}
	ErrRecordMutation     = &CPanelError{Code: ErrCodeRecordMutation, Message: "record mutation failed"}
	ErrCertInstall        = &CPanelError{Code: ErrCodeCertInstall, Message: "certificate install failed"}
	ErrTransport          = &CPanelError{Code: ErrCodeTransport, Message: "transport error"}
	ErrConfigInvalid      = &CPanelError{Code: ErrCodeConfig, Message: "invalid configuration"}
	ErrValidation         = &CPanelError{Code: ErrCodeValidation, Message: "invalid input"}
	ErrCertbot            = &CPanelError{Code: ErrCodeCertbot, Message: "certbot failed"}
)

// InvalidCredentials reports a credential problem found before any network call.
// source is usually the credentials file path.
func InvalidCredentials(source, msg string) error {
	return &CPanelError{
		Code:    ErrCodeInvalidCredentials,
		Message: msg,
		Domain:  source,
	}
}

// ZoneNotFound reports that name lies outside every zone the account manages.
func ZoneNotFound(name string) error {
	return &CPanelError{
		Code:    ErrCodeZoneNotFound,
		Message: "could not find a managed zone for this name. Is it in a zone managed in cPanel?",
		Domain:  name,
	}
}

// RecordMutation reports a non-success status from add/remove_zone_record.
// remote is the server's statusmsg, kept verbatim.
func RecordMutation(name, action, remote string) error {
	return &CPanelError{
		Code:    ErrCodeRecordMutation,
		Message: fmt.Sprintf("%s: %s", action, remote),
		Domain:  name,
	}
}

// CertInstall reports a non-success result from installssl.
func CertInstall(domain, remote string) error {
	return &CPanelError{
		Code:    ErrCodeCertInstall,
		Message: fmt.Sprintf("error installing SSL certificate: %s", remote),
		Domain:  domain,
	}
}

// Validation creates a validation error with a custom message.
func Validation(msg string) error {
	return &CPanelError{
		Code:    ErrCodeValidation,
		Message: msg,
	}
}

// Wrap creates an error with the specified code, message, and underlying error.
func Wrap(code ErrorCode, msg string, err error) error {
	return &CPanelError{
		Code:    code,
		Message: msg,
		Err:     err,
	}
}

// WrapDomain creates an error with domain context and underlying error.
func WrapDomain(code ErrorCode, domain, msg string, err error) error {
	return &CPanelError{
		Code:    code,
		Message: msg,
		Domain:  domain,
		Err:     err,
	}
}

// CodeOf returns the code of the first CPanelError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var cpErr *CPanelError
	if errors.As(err, &cpErr) {
		return cpErr.Code
	}
	return ""
}

// Is reports whether any error in err's chain matches target.
// This is a re-export of errors.Is for convenience.
var Is = errors.Is

// As finds the first error in err's chain that matches target.
// This is a re-export of errors.As for convenience.
var As = errors.As
