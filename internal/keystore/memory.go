package keystore

import (
	"context"
	"fmt"
	"sync"

	"github.com/twliu-dorian/zk-agreement-example/internal/crypto"
	"github.com/twliu-dorian/zk-agreement-example/internal/util"
)

// MemoryStore keeps secrets in process memory. Intended for tests.
type MemoryStore struct {
	mu      sync.Mutex
	secrets map[string][]byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{secrets: make(map[string][]byte)}
}

func (m *MemoryStore) GetOrCreate(ctx context.Context, subjectID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateSubject(subjectID); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.secrets[subjectID]; ok {
		return cloneSecret(s), nil
	}
	s, err := crypto.GenerateSecret()
	if err != nil {
		return nil, err
	}
	m.secrets[subjectID] = s
	return cloneSecret(s), nil
}

func (m *MemoryStore) Lookup(ctx context.Context, subjectID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.secrets[subjectID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", util.ErrSubjectNotFound, subjectID)
	}
	return cloneSecret(s), nil
}

func (m *MemoryStore) Close() error { return nil }
