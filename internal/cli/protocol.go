package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/twliu-dorian/zk-agreement-example/internal/crypto"
	"github.com/twliu-dorian/zk-agreement-example/internal/escrow"
	"github.com/twliu-dorian/zk-agreement-example/internal/keystore"
	"github.com/twliu-dorian/zk-agreement-example/internal/util"
)

// session is an opened protocol together with the keystore it owns.
type session struct {
	*escrow.Protocol
	keys keystore.Store
}

func (s *session) Close() error {
	return s.keys.Close()
}

// openSession wires the protocol from the effective config.
func openSession(printer *Printer) (*session, error) {
	cfg := effectiveConfig()

	keys, err := openKeystore(printer)
	if err != nil {
		return nil, err
	}

	var notifier escrow.Notifier = escrow.NopNotifier{}
	if cfg.NotifyURL != "" {
		notifier = &escrow.HTTPNotifier{BaseURL: cfg.NotifyURL, Timeout: cfg.NotifyTimeout}
	}

	p, err := escrow.New(escrow.Options{
		Keys:        keys,
		Records:     &escrow.FileRecordStore{Dir: cfg.RecordsDir()},
		Notifier:    notifier,
		MaxAttempts: cfg.MaxAttempts,
		Logger:      printer.Logger,
	})
	if err != nil {
		keys.Close()
		return nil, err
	}
	return &session{Protocol: p, keys: keys}, nil
}

func openKeystore(printer *Printer) (keystore.Store, error) {
	cfg := effectiveConfig()
	keys, err := keystore.Open(cfg.KeystoreBackend, cfg.ResolvedKeystorePath(), printer.Logger)
	if err != nil {
		return nil, fmt.Errorf("open keystore: %w", err)
	}
	return keys, nil
}

// requireFlags returns an invalid-argument error naming the first empty flag.
func requireFlags(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return fmt.Errorf("%w: --%s is required", util.ErrInvalidRequest, pairs[i])
		}
	}
	return nil
}

// readCandidate resolves a candidate secret from --secret or --secret-file.
func readCandidate(secretHex, secretFile string) ([]byte, error) {
	switch {
	case secretHex != "" && secretFile != "":
		return nil, fmt.Errorf("%w: use only one of --secret, --secret-file", util.ErrInvalidRequest)
	case secretHex != "":
		return crypto.ParseSecret(secretHex)
	case secretFile != "":
		return crypto.LoadSecretFile(secretFile)
	default:
		return nil, fmt.Errorf("%w: --secret or --secret-file is required", util.ErrInvalidRequest)
	}
}

// fileDigest returns the hex SHA-256 of the file at path.
func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	sum, err := crypto.HashReader(f, crypto.HashSHA256)
	if err != nil {
		return "", err
	}
	return util.HexEncode(sum), nil
}

func readInput(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
