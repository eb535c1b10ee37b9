package keystore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
	"github.com/twliu-dorian/zk-agreement-example/internal/crypto"
	"github.com/twliu-dorian/zk-agreement-example/internal/util"
)

const prefixSecret = "secret:"

// BadgerStore keeps secrets in an embedded badger database under
// "secret:<subject>" keys with the raw 32-byte secret as value.
type BadgerStore struct {
	db *badger.DB
	mu sync.Mutex
}

// OpenBadgerStore opens (or creates) a badger database in dir.
func OpenBadgerStore(dir string, logger zerolog.Logger) (*BadgerStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: badger key store needs a directory", util.ErrInvalidRequest)
	}
	opts := badger.DefaultOptions(dir).WithLogger(badgerLogger{log: logger.With().Str("component", "badger").Logger()})
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: open badger: %v", util.ErrStoreUnavailable, err)
	}
	return &BadgerStore{db: db}, nil
}

func (b *BadgerStore) GetOrCreate(ctx context.Context, subjectID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateSubject(subjectID); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var secret []byte
	var genErr error
	err := b.db.Update(func(txn *badger.Txn) error {
		key := []byte(prefixSecret + subjectID)
		item, err := txn.Get(key)
		switch {
		case err == nil:
			secret, err = item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if len(secret) != crypto.SecretSize {
				return fmt.Errorf("bad secret length %d for subject %q", len(secret), subjectID)
			}
			return nil
		case errors.Is(err, badger.ErrKeyNotFound):
			secret, genErr = crypto.GenerateSecret()
			if genErr != nil {
				return genErr
			}
			return txn.Set(key, secret)
		default:
			return err
		}
	})
	if genErr != nil {
		return nil, genErr
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrStoreUnavailable, err)
	}
	return secret, nil
}

func (b *BadgerStore) Lookup(ctx context.Context, subjectID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var secret []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixSecret + subjectID))
		if err != nil {
			return err
		}
		secret, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %q", util.ErrSubjectNotFound, subjectID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrStoreUnavailable, err)
	}
	return secret, nil
}

func (b *BadgerStore) Close() error {
	return b.db.Close()
}

// badgerLogger routes badger's internal logging through zerolog.
type badgerLogger struct {
	log zerolog.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error().Msg(trimLog(format, args...))
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn().Msg(trimLog(format, args...))
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug().Msg(trimLog(format, args...))
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Trace().Msg(trimLog(format, args...))
}

func trimLog(format string, args ...interface{}) string {
	return strings.TrimRight(fmt.Sprintf(format, args...), "\n")
}
