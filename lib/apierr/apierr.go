// Package apierr defines the error taxonomy every jianshukit entry point
// reports through. Transport and decode failures are always mapped to one
// of these types before they reach the caller.
package apierr

import "fmt"

// InputError reports a caller bug: a malformed identifier, conflicting
// constructor arguments, an out-of-range parameter.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Msg)
}

func Inputf(format string, args ...any) *InputError {
	return &InputError{Msg: fmt.Sprintf(format, args...)}
}

// ResourceUnavailableError means the remote site reported the resource as
// nonexistent or access-restricted (a 404 on a resource identifier).
type ResourceUnavailableError struct {
	URL string
	Msg string
}

func (e *ResourceUnavailableError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("resource %s unavailable: %s", e.URL, e.Msg)
	}
	return fmt.Sprintf("resource %s does not exist or is access-restricted", e.URL)
}

// APIUnsupportedError means the request violated a documented endpoint
// constraint, e.g. asking for an earning ranking before the window opened.
type APIUnsupportedError struct {
	Msg string
}

func (e *APIUnsupportedError) Error() string {
	return fmt.Sprintf("unsupported by the remote api: %s", e.Msg)
}

func Unsupportedf(format string, args ...any) *APIUnsupportedError {
	return &APIUnsupportedError{Msg: fmt.Sprintf(format, args...)}
}

// ValidationError means a decoded record failed its schema. Field names the
// first violated constraint.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// UpstreamError wraps a transient HTTP or decode failure that is neither a
// caller bug nor a missing resource. StatusCode is zero for transport-level
// failures (timeouts, connection resets).
type UpstreamError struct {
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream returned http %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream request failed: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// CredentialError means a credential-gated endpoint was called without a
// usable credential, or the site rejected the supplied session token.
type CredentialError struct {
	Msg string
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("credential error: %s", e.Msg)
}

// AssetsActionError is the base for failures of asset-mutating endpoints.
// The current library is read-only; the subtree is reserved so callers can
// already match on it.
type AssetsActionError struct {
	Msg string
}

func (e *AssetsActionError) Error() string {
	return fmt.Sprintf("assets action rejected: %s", e.Msg)
}

type BalanceNotEnoughError struct {
	AssetsActionError
}

type WeeklyConvertLimitExceededError struct {
	AssetsActionError
}
