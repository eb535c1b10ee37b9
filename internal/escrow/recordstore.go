package escrow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/twliu-dorian/zk-agreement-example/internal/util"
)

// RecordStore persists escrow records.
type RecordStore interface {
	Load(ctx context.Context, subjectID, artifactID string) (*Record, error)
	Save(ctx context.Context, r *Record) error
	List(ctx context.Context) ([]*Record, error)
}

// FileRecordStore keeps one JSON document per record in Dir.
type FileRecordStore struct {
	Dir string
}

func (s *FileRecordStore) path(key string) string {
	return filepath.Join(s.Dir, key+".json")
}

func (s *FileRecordStore) Load(ctx context.Context, subjectID, artifactID string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.read(s.path(RecordKey(subjectID, artifactID)))
}

func (s *FileRecordStore) read(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, util.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read record: %v", util.ErrStoreUnavailable, err)
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: decode record %s: %v", util.ErrStoreUnavailable, filepath.Base(path), err)
	}
	return &r, nil
}

func (s *FileRecordStore) Save(ctx context.Context, r *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return fmt.Errorf("%w: create state dir: %v", util.ErrStoreUnavailable, err)
	}
	raw, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := util.WriteFileAtomic(s.path(r.Key()), append(raw, '\n'), 0o600); err != nil {
		return fmt.Errorf("%w: %v", util.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *FileRecordStore) List(ctx context.Context) ([]*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: list records: %v", util.ErrStoreUnavailable, err)
	}

	var out []*Record
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		r, err := s.read(filepath.Join(s.Dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	sortRecords(out)
	return out, nil
}

// MemoryRecordStore keeps records in memory. Intended for tests.
type MemoryRecordStore struct {
	mu      sync.Mutex
	records map[string]*Record
}

// NewMemoryRecordStore returns an empty MemoryRecordStore.
func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{records: make(map[string]*Record)}
}

func (m *MemoryRecordStore) Load(ctx context.Context, subjectID, artifactID string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[RecordKey(subjectID, artifactID)]
	if !ok {
		return nil, util.ErrRecordNotFound
	}
	return r.Clone(), nil
}

func (m *MemoryRecordStore) Save(ctx context.Context, r *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[r.Key()] = r.Clone()
	return nil
}

func (m *MemoryRecordStore) List(ctx context.Context) ([]*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Record, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r.Clone())
	}
	sortRecords(out)
	return out, nil
}

func sortRecords(rs []*Record) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].SubjectID != rs[j].SubjectID {
			return rs[i].SubjectID < rs[j].SubjectID
		}
		return rs[i].ArtifactName < rs[j].ArtifactName
	})
}
