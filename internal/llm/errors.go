package llm

import (
	"errors"
	"fmt"
)

// ErrorKind classifies backend failures.
type ErrorKind int

const (
	// ErrMissingCredential means no API key or token is configured for the
	// selected backend. Failed fast, no network call was attempted.
	ErrMissingCredential ErrorKind = iota
	// ErrTransport is a network or connection failure.
	ErrTransport
	// ErrProtocol is a malformed or unexpected response shape.
	ErrProtocol
	// ErrBothAttemptsFailed means the streaming attempt failed and the
	// non-streaming fallback failed too.
	ErrBothAttemptsFailed
	// ErrNoBackend means the manager holds no backends.
	ErrNoBackend
)

func (k ErrorKind) String() string {
	switch k {
	case ErrMissingCredential:
		return "missing credential"
	case ErrTransport:
		return "transport error"
	case ErrProtocol:
		return "protocol error"
	case ErrBothAttemptsFailed:
		return "both attempts failed"
	case ErrNoBackend:
		return "no backend"
	default:
		return "unknown"
	}
}

// BackendError is a classified backend failure.
type BackendError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *BackendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a *BackendError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var be *BackendError
	return errors.As(err, &be) && be.Kind == kind
}

func missingCredential(msg string) *BackendError {
	return &BackendError{Kind: ErrMissingCredential, Message: msg}
}

func transportError(msg string, err error) *BackendError {
	return &BackendError{Kind: ErrTransport, Message: msg, Err: err}
}

func protocolError(msg string) *BackendError {
	return &BackendError{Kind: ErrProtocol, Message: msg}
}

// bothFailed builds the composite error for a failed streaming attempt whose
// non-streaming fallback failed as well. The message embeds both causes so
// neither failure is lost.
func bothFailed(streamErr, fallbackErr error) *BackendError {
	return &BackendError{
		Kind:    ErrBothAttemptsFailed,
		Message: fmt.Sprintf("both streaming and non-streaming requests failed: streaming: %v; non-streaming: %v", streamErr, fallbackErr),
		Err:     fallbackErr,
	}
}
