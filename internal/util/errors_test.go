package util

import (
	"fmt"
	"testing"
)

func TestExitCodeForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"commitment mismatch", ErrCommitmentMismatch, ExitVerifyFailed},
		{"engine rejected", ErrEngineRejected, ExitVerifyFailed},
		{"auth failed", ErrAuthenticationFailed, ExitDecryptFailed},
		{"malformed", ErrMalformedContainer, ExitDecryptFailed},
		{"not authorized", ErrNotAuthorized, ExitNotAuthorized},
		{"store unavailable", ErrStoreUnavailable, ExitStoreUnavailable},
		{"invalid transition", ErrInvalidTransition, ExitInvalidTransition},
		{"retry limit", ErrRetryLimit, ExitInvalidTransition},
		{"invalid request", ErrInvalidRequest, ExitInvalidArgs},
		{"wrapped not authorized", fmt.Errorf("reveal: %w", ErrNotAuthorized), ExitNotAuthorized},
		{"generic", fmt.Errorf("something went wrong"), ExitGenericError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExitCodeForError(tt.err)
			if got != tt.want {
				t.Errorf("ExitCodeForError(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
