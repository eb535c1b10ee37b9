package util

import "errors"

// Exit codes for automation-friendly CLI usage.
const (
	ExitSuccess           = 0
	ExitGenericError      = 1
	ExitInvalidArgs       = 2
	ExitVerifyFailed      = 10
	ExitDecryptFailed     = 11
	ExitNotAuthorized     = 12
	ExitStoreUnavailable  = 13
	ExitInvalidTransition = 14
)

// Sentinel errors used across the application.
var (
	ErrStoreUnavailable     = errors.New("key store unavailable")
	ErrSubjectNotFound      = errors.New("no secret for subject")
	ErrMalformedContainer   = errors.New("malformed sealed container")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrInvalidKeyLength     = errors.New("invalid key length")
	ErrNotAuthorized        = errors.New("not authorized")
	ErrCommitmentMismatch   = errors.New("disclosed secret does not match commitment")
	ErrEngineRejected       = errors.New("contract engine rejected the request")
	ErrRetryLimit           = errors.New("disclosure attempt limit reached")
	ErrInvalidTransition    = errors.New("invalid escrow state transition")
	ErrRecordNotFound       = errors.New("escrow record not found")
	ErrInvalidRequest       = errors.New("invalid request")
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")
)

// ExitCodeForError maps a sentinel error to its CLI exit code.
func ExitCodeForError(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrCommitmentMismatch), errors.Is(err, ErrEngineRejected):
		return ExitVerifyFailed
	case errors.Is(err, ErrAuthenticationFailed), errors.Is(err, ErrMalformedContainer), errors.Is(err, ErrInvalidKeyLength):
		return ExitDecryptFailed
	case errors.Is(err, ErrNotAuthorized):
		return ExitNotAuthorized
	case errors.Is(err, ErrStoreUnavailable):
		return ExitStoreUnavailable
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrRetryLimit):
		return ExitInvalidTransition
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrUnsupportedAlgorithm):
		return ExitInvalidArgs
	default:
		return ExitGenericError
	}
}
