package crypto

import (
	"fmt"
	"os"
	"strings"

	"github.com/twliu-dorian/zk-agreement-example/internal/util"
)

const (
	// SecretSize is the size of a master secret in bytes.
	SecretSize = 32
	// SecretFilePrefix is the optional prefix for secret files.
	SecretFilePrefix = "hex:"
)

// ParseSecret decodes a hex-encoded master secret. Either letter case and an
// optional "hex:" prefix are accepted.
func ParseSecret(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), SecretFilePrefix)
	secret, err := util.HexDecode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: secret is not hex: %v", util.ErrInvalidRequest, err)
	}
	if len(secret) != SecretSize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", util.ErrInvalidKeyLength, len(secret), SecretSize)
	}
	return secret, nil
}

// SaveSecretFile writes a secret to path as "hex:<lowercase hex>".
func SaveSecretFile(path string, secret []byte) error {
	encoded := SecretFilePrefix + util.HexEncode(secret) + "\n"
	if err := util.WriteFileAtomic(path, []byte(encoded), 0o600); err != nil {
		return fmt.Errorf("save secret file: %w", err)
	}
	return nil
}

// LoadSecretFile reads a secret written by SaveSecretFile or a bare hex file.
func LoadSecretFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load secret file: %w", err)
	}
	return ParseSecret(string(data))
}
