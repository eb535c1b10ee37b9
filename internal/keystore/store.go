// Package keystore persists one master secret per subject.
//
// A Store hands out the same secret for a subject on every call after the
// first. Backends never paper over a store they cannot read: a corrupt or
// unreachable store fails with util.ErrStoreUnavailable instead of
// generating a replacement secret.
package keystore

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/twliu-dorian/zk-agreement-example/internal/util"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// SupportedBackends lists backend names in presentation order.
var SupportedBackends = []string{BackendFile, BackendBadger, BackendMemory}

// Store maps subject identifiers to master secrets.
type Store interface {
	// GetOrCreate returns the secret for subjectID, generating and persisting
	// it on first use.
	GetOrCreate(ctx context.Context, subjectID string) ([]byte, error)
	// Lookup returns the existing secret for subjectID or util.ErrSubjectNotFound.
	Lookup(ctx context.Context, subjectID string) ([]byte, error)
	// Close releases backend resources.
	Close() error
}

// Open returns the Store for the named backend. path is a JSON file for
// "file", a directory for "badger", and ignored for "memory".
func Open(backend, path string, logger zerolog.Logger) (Store, error) {
	switch backend {
	case BackendFile, "":
		return NewFileStore(path)
	case BackendBadger:
		return OpenBadgerStore(path, logger)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: keystore backend %q; supported: %s",
			util.ErrInvalidRequest, backend, strings.Join(SupportedBackends, ", "))
	}
}

func validateSubject(subjectID string) error {
	if strings.TrimSpace(subjectID) == "" {
		return fmt.Errorf("%w: subject id is empty", util.ErrInvalidRequest)
	}
	return nil
}

func cloneSecret(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
