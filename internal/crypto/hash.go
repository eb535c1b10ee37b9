package crypto

import (
	"crypto/sha256"
	"fmt"
	"hash"
	"io"

	"github.com/twliu-dorian/zk-agreement-example/internal/util"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
	lblake3 "lukechampine.com/blake3"
)

// Hash algorithm names. All of them produce 32-byte digests.
const (
	HashSHA256     = "sha256"
	HashSHA3_256   = "sha3-256"
	HashBLAKE2b256 = "blake2b-256"
	HashBLAKE3     = "blake3"
)

// DigestSize is the output size of every supported algorithm.
const DigestSize = 32

// SupportedHashAlgos is the list of all supported hash algorithm names, in
// presentation order.
var SupportedHashAlgos = []string{
	HashSHA256,
	HashSHA3_256,
	HashBLAKE2b256,
	HashBLAKE3,
}

// SupportedHashAlgo checks whether the given algorithm name is supported.
func SupportedHashAlgo(algo string) bool {
	switch algo {
	case HashSHA256, HashSHA3_256, HashBLAKE2b256, HashBLAKE3:
		return true
	default:
		return false
	}
}

// newHash returns a hash.Hash for the named algorithm.
func newHash(algo string) (hash.Hash, error) {
	switch algo {
	case HashSHA256:
		return sha256.New(), nil
	case HashSHA3_256:
		return sha3.New256(), nil
	case HashBLAKE2b256:
		h, err := blake2b.New256(nil)
		if err != nil {
			return nil, fmt.Errorf("blake2b-256: %w", err)
		}
		return h, nil
	case HashBLAKE3:
		return lblake3.New(DigestSize, nil), nil
	default:
		return nil, fmt.Errorf("%w: hash %q", util.ErrUnsupportedAlgorithm, algo)
	}
}

// HashBytes hashes the concatenation of parts with the named algorithm.
func HashBytes(algo string, parts ...[]byte) ([]byte, error) {
	h, err := newHash(algo)
	if err != nil {
		return nil, err
	}
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil), nil
}

// HashReader computes a hash digest over r using the named algorithm.
// It returns the raw digest bytes.
func HashReader(r io.Reader, algo string) ([]byte, error) {
	h, err := newHash(algo)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(h, r); err != nil {
		return nil, fmt.Errorf("hash %s: %w", algo, err)
	}
	return h.Sum(nil), nil
}
