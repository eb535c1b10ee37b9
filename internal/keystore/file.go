package keystore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/twliu-dorian/zk-agreement-example/internal/crypto"
	"github.com/twliu-dorian/zk-agreement-example/internal/util"
)

// DefaultFileName is the key store file used when no path is configured.
const DefaultFileName = "master_keys.json"

// FileStore keeps secrets in a flat JSON object {subject: hex(secret)}.
// Every write replaces the file atomically.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a FileStore backed by path. The parent directory is
// created if needed; the file itself is created on the first secret.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		path = DefaultFileName
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("%w: create key store dir: %v", util.ErrStoreUnavailable, err)
		}
	}
	return &FileStore{path: path}, nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) GetOrCreate(ctx context.Context, subjectID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateSubject(subjectID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.load()
	if err != nil {
		return nil, err
	}
	if enc, ok := db[subjectID]; ok {
		return util.HexDecode(enc)
	}

	secret, err := crypto.GenerateSecret()
	if err != nil {
		return nil, err
	}
	db[subjectID] = util.HexEncode(secret)
	if err := s.save(db); err != nil {
		return nil, err
	}
	return secret, nil
}

func (s *FileStore) Lookup(ctx context.Context, subjectID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.load()
	if err != nil {
		return nil, err
	}
	enc, ok := db[subjectID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", util.ErrSubjectNotFound, subjectID)
	}
	return util.HexDecode(enc)
}

func (s *FileStore) Close() error { return nil }

// load reads the whole store. A missing file is an empty store; anything
// unreadable or malformed is util.ErrStoreUnavailable.
func (s *FileStore) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", util.ErrStoreUnavailable, s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", util.ErrStoreUnavailable, s.path)
	}

	var db map[string]string
	if err := json.Unmarshal(data, &db); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", util.ErrStoreUnavailable, s.path, err)
	}
	if db == nil {
		return nil, fmt.Errorf("%w: %s is not a JSON object", util.ErrStoreUnavailable, s.path)
	}
	for subject, enc := range db {
		raw, err := util.HexDecode(enc)
		if err != nil || len(raw) != crypto.SecretSize {
			return nil, fmt.Errorf("%w: %s: bad secret for subject %q", util.ErrStoreUnavailable, s.path, subject)
		}
	}
	return db, nil
}

func (s *FileStore) save(db map[string]string) error {
	raw, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %v", util.ErrStoreUnavailable, err)
	}
	if err := util.WriteFileAtomic(s.path, append(raw, '\n'), 0o600); err != nil {
		return fmt.Errorf("%w: %v", util.ErrStoreUnavailable, err)
	}
	return nil
}
